package weather

import (
	"context"
	"time"
)

// Fetcher resolves the weather for one "City,CC" query. Both the upstream
// providers and the proxy client satisfy it.
type Fetcher interface {
	Fetch(ctx context.Context, city string) (WeatherRecord, error)
}

// Store is the contract the in-memory store (and any future persistent store) must satisfy.
type Store interface {
	SaveSet(set AggregatedSet)
	CurrentSet() (AggregatedSet, error)
	GetLatest(loc Location) (Observation, error)
	GetRange(loc Location, from, to time.Time) ([]Observation, error)
}
