package weather

import (
	"context"
	"time"
)

// Service sits between the polling cycle and the store: it runs cycles,
// persists accepted sets and answers read queries.
type Service struct {
	store      Store
	aggregator *Aggregator
}

// NewService creates a new Service.
func NewService(store Store, aggregator *Aggregator) *Service {
	return &Service{
		store:      store,
		aggregator: aggregator,
	}
}

// Collect runs one aggregation cycle.
func (s *Service) Collect(ctx context.Context) AggregatedSet {
	return s.aggregator.Collect(ctx)
}

// Accept stores a set the polling controller accepted. Empty sets are
// ignored so the last good set stays available.
func (s *Service) Accept(set AggregatedSet) {
	if len(set.Records) > 0 {
		s.store.SaveSet(set)
	}
}

// CurrentSet delegates to the underlying store.
func (s *Service) CurrentSet() (AggregatedSet, error) {
	return s.store.CurrentSet()
}

// GetLatest delegates to the underlying store.
func (s *Service) GetLatest(loc Location) (Observation, error) {
	return s.store.GetLatest(loc)
}

// GetRange delegates to the underlying store.
func (s *Service) GetRange(loc Location, from, to time.Time) ([]Observation, error) {
	return s.store.GetRange(loc, from, to)
}
