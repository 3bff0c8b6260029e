package weather

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/i474232898/weather-globe/internal/logger"
)

// DefaultStagger spaces per-city requests to stay under upstream rate limits.
const DefaultStagger = 100 * time.Millisecond

// AggregatorConfig configures an Aggregator.
type AggregatorConfig struct {
	Cities  CityQuery
	Stagger time.Duration
	// Enabled is the capability gate computed once at startup. When false,
	// Collect returns an empty set without issuing any request.
	Enabled bool
}

// Aggregator collects weather for a fixed city list, one Fetcher call per city.
type Aggregator struct {
	fetcher Fetcher
	cities  CityQuery
	stagger time.Duration
	enabled bool
	logger  *logger.Logger
}

// NewAggregator creates a new Aggregator.
func NewAggregator(fetcher Fetcher, cfg AggregatorConfig, log *logger.Logger) *Aggregator {
	cities := make(CityQuery, len(cfg.Cities))
	copy(cities, cfg.Cities)

	return &Aggregator{
		fetcher: fetcher,
		cities:  cities,
		stagger: cfg.Stagger,
		enabled: cfg.Enabled,
		logger:  log,
	}
}

// Cities returns a copy of the configured city list.
func (a *Aggregator) Cities() CityQuery {
	out := make(CityQuery, len(a.cities))
	copy(out, a.cities)
	return out
}

// Collect runs one aggregation cycle. Request i is dispatched no earlier than
// i*stagger after the cycle starts. The cycle waits for every city to settle;
// failed cities are omitted and the rest keep the configured order.
func (a *Aggregator) Collect(ctx context.Context) AggregatedSet {
	set := AggregatedSet{
		ID:          uuid.NewString(),
		CollectedAt: time.Now().UTC(),
		Records:     []WeatherRecord{},
	}
	if !a.enabled {
		a.logger.Warn("weather api key not configured; skipping aggregation cycle", "cycle", set.ID)
		return set
	}

	a.logger.Debug("starting aggregation cycle", "cycle", set.ID, "cities", len(a.cities))

	results := make([]*WeatherRecord, len(a.cities))
	var g errgroup.Group
	for i, city := range a.cities {
		delay := time.Duration(i) * a.stagger
		g.Go(func() error {
			if !sleep(ctx, delay) {
				return nil
			}

			r, err := a.fetcher.Fetch(ctx, city)
			if err != nil {
				// Log and continue; partial results beat an empty cycle.
				a.logger.Warn("weather fetch failed", "cycle", set.ID, "city", city, logger.Err(err))
				return nil
			}
			results[i] = &r
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		if r != nil {
			set.Records = append(set.Records, *r)
		}
	}

	a.logger.Info("aggregation cycle completed", "cycle", set.ID,
		"loaded", len(set.Records), "total", len(a.cities))
	return set
}

// sleep waits for d or until ctx is done. It reports whether the wait completed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
