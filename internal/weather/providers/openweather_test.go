package providers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/i474232898/weather-globe/internal/testhelper"
	"github.com/i474232898/weather-globe/internal/weather"
)

const romePayload = `{"name":"Rome","main":{"temp":23.6,"humidity":40},"weather":[{"description":"clear sky"}],` +
	`"wind":{"speed":3.2},"coord":{"lat":41.9,"lon":12.5},"sys":{"country":"IT"},"dt":1714564800,"timezone":7200}`

func staticClient(status int, body string, calls *int) *http.Client {
	return testhelper.Client(func(req *http.Request) (*http.Response, error) {
		if calls != nil {
			*calls++
		}
		return testhelper.JSONResponse(status, body), nil
	})
}

func TestOpenWeatherProvider_Fetch(t *testing.T) {
	t.Run("normalizes a complete payload", func(t *testing.T) {
		var query string
		client := testhelper.Client(func(req *http.Request) (*http.Response, error) {
			query = req.URL.RawQuery
			return testhelper.JSONResponse(http.StatusOK, romePayload), nil
		})
		p := NewOpenWeatherProvider(client, "secret", Options{RequireObservation: true, Lang: "it"})

		r, err := p.Fetch(t.Context(), "Rome,IT")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.City != "Rome" || r.Country != "IT" {
			t.Errorf("unexpected identity %q/%q", r.City, r.Country)
		}
		if r.Temperature != 24 {
			t.Errorf("expected rounded temperature 24, got %d", r.Temperature)
		}
		if r.Description != "clear sky" || r.Humidity != 40 || r.WindSpeed != 3.2 {
			t.Errorf("unexpected measurements %+v", r)
		}
		if r.ObservedAt == nil || *r.ObservedAt != 1714564800 || r.UTCOffset == nil || *r.UTCOffset != 7200 {
			t.Errorf("expected observation fields to be set, got %+v", r)
		}
		want := "appid=secret&lang=it&q=Rome%2CIT&units=metric"
		if query != want {
			t.Errorf("expected query %q, got %q", want, query)
		}
	})
	t.Run("defaults optional fields", func(t *testing.T) {
		body := `{"name":"Rome","main":{"temp":-0.4},"weather":[],"coord":{"lat":41.9,"lon":12.5}}`
		p := NewOpenWeatherProvider(staticClient(http.StatusOK, body, nil), "secret", Options{})

		r, err := p.Fetch(t.Context(), "Rome,IT")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.Country != weather.DefaultCountry || r.Description != weather.DefaultDescription {
			t.Errorf("expected defaults, got %q/%q", r.Country, r.Description)
		}
		if r.Humidity != 0 || r.WindSpeed != 0 || r.Temperature != 0 {
			t.Errorf("expected zero measurements, got %+v", r)
		}
		if r.ObservedAt != nil || r.UTCOffset != nil {
			t.Errorf("expected no observation fields, got %+v", r)
		}
	})
	t.Run("incomplete payloads are rejected", func(t *testing.T) {
		tests := []struct {
			name string
			body string
			opts Options
		}{
			{"missing name", `{"main":{"temp":1},"weather":[],"coord":{"lat":1,"lon":1}}`, Options{}},
			{"missing main", `{"name":"X","weather":[],"coord":{"lat":1,"lon":1}}`, Options{}},
			{"missing weather", `{"name":"X","main":{"temp":1},"coord":{"lat":1,"lon":1}}`, Options{}},
			{"missing coord", `{"name":"X","main":{"temp":1},"weather":[]}`, Options{}},
			{"missing temperature", `{"name":"X","main":{},"weather":[],"coord":{"lat":1,"lon":1}}`, Options{}},
			{"missing longitude", `{"name":"X","main":{"temp":1},"weather":[],"coord":{"lat":1}}`, Options{}},
			{"latitude out of range", `{"name":"X","main":{"temp":1},"weather":[],"coord":{"lat":91,"lon":1}}`, Options{}},
			{"missing dt in extended variant", `{"name":"X","main":{"temp":1},"weather":[],"coord":{"lat":1,"lon":1},"timezone":0}`,
				Options{RequireObservation: true}},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				p := NewOpenWeatherProvider(staticClient(http.StatusOK, tc.body, nil), "secret", tc.opts)
				_, err := p.Fetch(t.Context(), "X")
				if !errors.Is(err, weather.ErrIncompleteData) {
					t.Errorf("expected ErrIncompleteData, got %v", err)
				}
			})
		}
	})
	t.Run("missing credential never calls upstream", func(t *testing.T) {
		calls := 0
		p := NewOpenWeatherProvider(staticClient(http.StatusOK, romePayload, &calls), "", Options{})
		_, err := p.Fetch(t.Context(), "Rome,IT")
		if !errors.Is(err, weather.ErrMissingCredential) {
			t.Errorf("expected ErrMissingCredential, got %v", err)
		}
		if calls != 0 {
			t.Errorf("expected no upstream call, got %d", calls)
		}
	})
	t.Run("non-2xx answers become UpstreamError", func(t *testing.T) {
		body := `{"cod":"404","message":"city not found"}`
		p := NewOpenWeatherProvider(staticClient(http.StatusNotFound, body, nil), "secret", Options{})
		_, err := p.Fetch(t.Context(), "Atlantis,XX")

		var upErr *weather.UpstreamError
		if !errors.As(err, &upErr) {
			t.Fatalf("expected UpstreamError, got %v", err)
		}
		if upErr.StatusCode != http.StatusNotFound || upErr.StatusText != "Not Found" || upErr.Body != body {
			t.Errorf("unexpected upstream error %+v", upErr)
		}
	})
	t.Run("5xx answers are surfaced with their status", func(t *testing.T) {
		p := NewOpenWeatherProvider(staticClient(http.StatusBadGateway, "oops", nil), "secret", Options{})
		_, err := p.Fetch(t.Context(), "Rome,IT")

		var upErr *weather.UpstreamError
		if !errors.As(err, &upErr) || upErr.StatusCode != http.StatusBadGateway {
			t.Fatalf("expected 502 UpstreamError, got %v", err)
		}
	})
	t.Run("a single attempt per call", func(t *testing.T) {
		calls := 0
		client := testhelper.Client(func(*http.Request) (*http.Response, error) {
			calls++
			return nil, errors.New("connection refused")
		})
		p := NewOpenWeatherProvider(client, "secret", Options{})
		if _, err := p.Fetch(t.Context(), "Rome,IT"); err == nil {
			t.Fatal("expected transport error")
		}
		if calls != 1 {
			t.Errorf("expected exactly 1 attempt, got %d", calls)
		}
	})
	t.Run("open breaker fails fast", func(t *testing.T) {
		calls := 0
		client := testhelper.Client(func(*http.Request) (*http.Response, error) {
			calls++
			return nil, errors.New("connection refused")
		})
		p := NewOpenWeatherProvider(client, "secret", Options{})
		for i := 0; i < 5; i++ {
			_, _ = p.Fetch(t.Context(), "Rome,IT")
		}
		_, err := p.Fetch(t.Context(), "Rome,IT")
		if !errors.Is(err, errCircuitOpen) {
			t.Errorf("expected errCircuitOpen, got %v", err)
		}
		if calls != 5 {
			t.Errorf("expected 5 upstream calls before tripping, got %d", calls)
		}
	})
	t.Run("cancelled context aborts", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		client := testhelper.Client(func(req *http.Request) (*http.Response, error) {
			return nil, req.Context().Err()
		})
		p := NewOpenWeatherProvider(client, "secret", Options{})
		if _, err := p.Fetch(ctx, "Rome,IT"); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
