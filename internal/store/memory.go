package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/weather-globe/internal/weather"
)

var (
	// ErrNotFound is returned when no data is available for a given location.
	ErrNotFound = errors.New("no weather data for location")
)

// ObservationHistory holds a time-ordered list of observations for a location.
type ObservationHistory struct {
	Observations []weather.Observation
}

// MemoryStore is a concurrency-safe in-memory implementation of a weather store.
type MemoryStore struct {
	mu sync.RWMutex

	current    weather.AggregatedSet
	hasCurrent bool

	// key: location key, value: history
	data map[string]*ObservationHistory

	// retention configuration
	maxHistory int           // max number of observations per location
	maxAge     time.Duration // optional max age for observations

	now func() time.Time
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*ObservationHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// SaveSet replaces the current set and appends each record to its city history.
func (s *MemoryStore) SaveSet(set weather.AggregatedSet) {
	ts := set.CollectedAt.UTC()
	if ts.IsZero() {
		ts = s.now().UTC()
	}

	records := make([]weather.WeatherRecord, len(set.Records))
	copy(records, set.Records)
	set.Records = records

	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = set
	s.hasCurrent = true

	for _, r := range records {
		s.appendLocked(r.Key(), weather.Observation{Record: r, Timestamp: ts})
	}
}

func (s *MemoryStore) appendLocked(key string, obs weather.Observation) {
	history, ok := s.data[key]
	if !ok {
		history = &ObservationHistory{}
		s.data[key] = history
	}

	history.Observations = append(history.Observations, obs)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history.Observations) > s.maxHistory {
		over := len(history.Observations) - s.maxHistory
		history.Observations = history.Observations[over:]
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.Observations); i++ {
			if !history.Observations[i].Timestamp.Before(cutoff) {
				break
			}
		}
		history.Observations = history.Observations[i:]
	}
}

// CurrentSet returns the most recently saved set.
func (s *MemoryStore) CurrentSet() (weather.AggregatedSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.hasCurrent {
		return weather.AggregatedSet{}, ErrNotFound
	}
	set := s.current
	set.Records = make([]weather.WeatherRecord, len(s.current.Records))
	copy(set.Records, s.current.Records)
	return set, nil
}

// GetLatest returns the most recent observation for a location.
func (s *MemoryStore) GetLatest(loc weather.Location) (weather.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[loc.Key()]
	if !ok || len(history.Observations) == 0 {
		return weather.Observation{}, ErrNotFound
	}
	return history.Observations[len(history.Observations)-1], nil
}

// GetRange returns all observations for a location between from and to (inclusive).
func (s *MemoryStore) GetRange(loc weather.Location, from, to time.Time) ([]weather.Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[loc.Key()]
	if !ok || len(history.Observations) == 0 {
		return nil, ErrNotFound
	}

	var result []weather.Observation
	for _, obs := range history.Observations {
		if !obs.Timestamp.Before(from) && !obs.Timestamp.After(to) {
			result = append(result, obs)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}

	return result, nil
}
