package weather

import (
	"context"
	"errors"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/i474232898/weather-globe/internal/logger"
)

// fakeFetcher resolves cities from a map and records dispatch times.
type fakeFetcher struct {
	mu       sync.Mutex
	records  map[string]WeatherRecord
	dispatch map[string]time.Time
	calls    int
}

func newFakeFetcher(records map[string]WeatherRecord) *fakeFetcher {
	return &fakeFetcher{records: records, dispatch: make(map[string]time.Time)}
}

func (f *fakeFetcher) Fetch(_ context.Context, city string) (WeatherRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.dispatch[city] = time.Now()
	r, ok := f.records[city]
	if !ok {
		return WeatherRecord{}, errors.New("network error")
	}
	return r, nil
}

func testRecord(city, country string) WeatherRecord {
	return WeatherRecord{City: city, Country: country, Description: "clear sky", Lat: 1, Lon: 1}
}

func TestAggregator_Collect(t *testing.T) {
	cities := CityQuery{"Rome,IT", "Atlantis,XX", "Tokyo,JP"}

	t.Run("failed cities are omitted and order is kept", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			f := newFakeFetcher(map[string]WeatherRecord{
				"Rome,IT":  testRecord("Rome", "IT"),
				"Tokyo,JP": testRecord("Tokyo", "JP"),
			})
			a := NewAggregator(f, AggregatorConfig{Cities: cities, Stagger: DefaultStagger, Enabled: true}, logger.Discard())

			set := a.Collect(t.Context())
			if len(set.Records) != 2 {
				t.Fatalf("expected 2 records, got %d", len(set.Records))
			}
			if set.Records[0].City != "Rome" || set.Records[1].City != "Tokyo" {
				t.Errorf("unexpected order: %s, %s", set.Records[0].City, set.Records[1].City)
			}
			if set.ID == "" {
				t.Error("expected cycle id to be set")
			}
			if f.calls != 3 {
				t.Errorf("expected 3 fetches, got %d", f.calls)
			}
		})
	})
	t.Run("requests are staggered", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			f := newFakeFetcher(nil)
			a := NewAggregator(f, AggregatorConfig{Cities: cities, Stagger: DefaultStagger, Enabled: true}, logger.Discard())

			start := time.Now()
			a.Collect(t.Context())

			for i, city := range cities {
				at, ok := f.dispatch[city]
				if !ok {
					t.Fatalf("city %s was never dispatched", city)
				}
				if want := time.Duration(i) * DefaultStagger; at.Sub(start) < want {
					t.Errorf("request %d dispatched after %v, want at least %v", i, at.Sub(start), want)
				}
			}
			spacing := f.dispatch["Tokyo,JP"].Sub(f.dispatch["Atlantis,XX"])
			if spacing < DefaultStagger {
				t.Errorf("expected at least %v between requests, got %v", DefaultStagger, spacing)
			}
		})
	})
	t.Run("all failures yield an empty set", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			a := NewAggregator(newFakeFetcher(nil), AggregatorConfig{Cities: cities, Stagger: DefaultStagger, Enabled: true},
				logger.Discard())
			set := a.Collect(t.Context())
			if set.Records == nil || len(set.Records) != 0 {
				t.Errorf("expected empty non-nil records, got %#v", set.Records)
			}
		})
	})
	t.Run("closed gate issues no requests", func(t *testing.T) {
		f := newFakeFetcher(map[string]WeatherRecord{"Rome,IT": testRecord("Rome", "IT")})
		a := NewAggregator(f, AggregatorConfig{Cities: cities, Stagger: DefaultStagger}, logger.Discard())

		if set := a.Collect(t.Context()); len(set.Records) != 0 {
			t.Errorf("expected no records, got %d", len(set.Records))
		}
		if f.calls != 0 {
			t.Errorf("expected no fetches, got %d", f.calls)
		}
	})
	t.Run("cancelled cycle skips pending cities", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			f := newFakeFetcher(map[string]WeatherRecord{"Rome,IT": testRecord("Rome", "IT")})
			a := NewAggregator(f, AggregatorConfig{Cities: cities, Stagger: time.Second, Enabled: true}, logger.Discard())

			ctx, cancel := context.WithTimeout(t.Context(), 500*time.Millisecond)
			defer cancel()
			set := a.Collect(ctx)
			if f.calls != 1 || len(set.Records) != 1 {
				t.Errorf("expected only the first city, got %d calls / %d records", f.calls, len(set.Records))
			}
		})
	})
}

func TestAggregator_Cities(t *testing.T) {
	cfg := AggregatorConfig{Cities: CityQuery{"Rome,IT"}}
	a := NewAggregator(nil, cfg, logger.Discard())
	cfg.Cities[0] = "Paris,FR"

	got := a.Cities()
	if got[0] != "Rome,IT" {
		t.Errorf("aggregator city list changed through the config slice: %v", got)
	}
	got[0] = "Paris,FR"
	if a.Cities()[0] != "Rome,IT" {
		t.Error("aggregator city list changed through the returned slice")
	}
}
