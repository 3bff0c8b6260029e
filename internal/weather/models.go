package weather

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	// DefaultCountry is used when the upstream payload has no country code.
	DefaultCountry = "Unknown"
	// DefaultDescription is used when the upstream payload has no condition text.
	DefaultDescription = "N/A"
)

var validate = validator.New()

var (
	// ErrIncompleteData is returned when an upstream payload lacks required fields.
	ErrIncompleteData = errors.New("incomplete weather data received")
	// ErrMissingCredential is returned when no upstream API key is configured.
	ErrMissingCredential = errors.New("api key not configured")
)

// UpstreamError is a non-2xx response from the weather provider.
type UpstreamError struct {
	StatusCode int
	StatusText string
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream responded %d %s", e.StatusCode, e.StatusText)
}

// WeatherRecord is the normalized per-city snapshot served by the proxy and
// rendered by the scene.
type WeatherRecord struct {
	City        string  `json:"city" validate:"required"`
	Country     string  `json:"country" validate:"required"`
	Temperature int     `json:"temperature"`
	Description string  `json:"description" validate:"required"`
	Humidity    int     `json:"humidity" validate:"gte=0"`
	WindSpeed   float64 `json:"windSpeed" validate:"gte=0"`
	Lat         float64 `json:"lat" validate:"latitude"`
	Lon         float64 `json:"lon" validate:"longitude"`

	// Set by the extended variant only.
	ObservedAt *int64 `json:"observedAt,omitempty"`
	UTCOffset  *int   `json:"utcOffset,omitempty"`
}

// Key returns a canonical key for indexing this record in stores and scenes.
func (r WeatherRecord) Key() string {
	return Location{City: r.City, Country: r.Country}.Key()
}

// Validate checks field ranges. A failing record must never be served.
func (r WeatherRecord) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrIncompleteData, err)
	}
	return nil
}

// Observed returns the observation time in UTC, if the record carries one.
func (r WeatherRecord) Observed() (time.Time, bool) {
	if r.ObservedAt == nil {
		return time.Time{}, false
	}
	return time.Unix(*r.ObservedAt, 0).UTC(), true
}

// LocalTime returns the observation time shifted to the city's UTC offset.
func (r WeatherRecord) LocalTime() (time.Time, bool) {
	ts, ok := r.Observed()
	if !ok || r.UTCOffset == nil {
		return time.Time{}, false
	}
	return ts.In(time.FixedZone("", *r.UTCOffset)), true
}

// Location identifies a city for store lookups.
type Location struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

// Key returns a canonical string key for indexing this location in stores.
func (l Location) Key() string {
	return l.City + ":" + l.Country
}

// CityQuery is the fixed, ordered list of "City,CC" queries to poll.
type CityQuery []string

// DefaultCities is polled when no city list is configured.
var DefaultCities = CityQuery{
	"Rome,IT",
	"New York,US",
	"London,GB",
	"Tokyo,JP",
	"Sydney,AU",
	"Cairo,EG",
	"Moscow,RU",
	"Rio de Janeiro,BR",
	"Beijing,CN",
	"New Delhi,IN",
}

// ParseCityQuery splits a ";"-separated list such as "Rome,IT;New York,US".
// Blank entries are dropped.
func ParseCityQuery(s string) CityQuery {
	var q CityQuery
	for _, part := range strings.Split(s, ";") {
		if part = strings.TrimSpace(part); part != "" {
			q = append(q, part)
		}
	}
	return q
}

// AggregatedSet is the outcome of one aggregation cycle. It is replaced
// wholesale, never merged with an earlier set.
type AggregatedSet struct {
	ID          string          `json:"id"`
	CollectedAt time.Time       `json:"collectedAt"`
	Records     []WeatherRecord `json:"records"`
}

// Observation is a stored record together with the time it was collected.
type Observation struct {
	Record    WeatherRecord `json:"record"`
	Timestamp time.Time     `json:"timestamp"` // always UTC
}
