package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-globe/internal/common"
	"github.com/i474232898/weather-globe/internal/weather"
)

// OpenWeatherBaseURL is the current-weather endpoint of OpenWeatherMap.
const OpenWeatherBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// Options control how a provider queries and validates upstream data.
type Options struct {
	BaseURL string
	// Lang is the language of condition descriptions, e.g. "it".
	Lang string
	// RequireObservation rejects payloads without observation time and UTC
	// offset.
	RequireObservation bool
}

// OpenWeatherProvider implements weather.Fetcher for OpenWeatherMap.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	client  *http.Client
	opts    Options
	circuit *gobreaker.CircuitBreaker
}

// NewOpenWeatherProvider creates an OpenWeatherMap provider. An empty apiKey
// is accepted; Fetch then fails with weather.ErrMissingCredential.
func NewOpenWeatherProvider(client *http.Client, apiKey string, opts Options) *OpenWeatherProvider {
	if opts.BaseURL == "" {
		opts.BaseURL = OpenWeatherBaseURL
	}
	return &OpenWeatherProvider{
		name:    "openweathermap",
		apiKey:  apiKey,
		client:  client,
		opts:    opts,
		circuit: newCircuitBreaker("openweathermap"),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

// openWeatherPayload mirrors the fields we read. Pointers distinguish absent
// values from zero values.
type openWeatherPayload struct {
	Name *string `json:"name"`
	Dt   *int64  `json:"dt"`
	// Seconds east of UTC.
	Timezone *int `json:"timezone"`
	Main     *struct {
		Temp     *float64 `json:"temp"`
		Humidity *float64 `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind *struct {
		Speed *float64 `json:"speed"`
	} `json:"wind"`
	Coord *struct {
		Lat *float64 `json:"lat"`
		Lon *float64 `json:"lon"`
	} `json:"coord"`
	Sys *struct {
		Country string `json:"country"`
	} `json:"sys"`
}

// Fetch performs one upstream call for city ("City,CC") and normalizes it.
func (p *OpenWeatherProvider) Fetch(ctx context.Context, city string) (weather.WeatherRecord, error) {
	if p.apiKey == "" {
		return weather.WeatherRecord{}, weather.ErrMissingCredential
	}

	values := url.Values{}
	values.Set("q", city)
	values.Set("appid", p.apiKey)
	values.Set("units", "metric")
	if p.opts.Lang != "" {
		values.Set("lang", p.opts.Lang)
	}

	u := fmt.Sprintf("%s?%s", p.opts.BaseURL, values.Encode())
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return weather.WeatherRecord{}, err
	}

	res, err := doRequest(ctx, p.client, p.circuit, req)
	if err != nil {
		return weather.WeatherRecord{}, err
	}
	if err := checkStatus(res); err != nil {
		return weather.WeatherRecord{}, err
	}

	var payload openWeatherPayload
	if err := json.Unmarshal(res.Body, &payload); err != nil {
		return weather.WeatherRecord{}, fmt.Errorf("failed to decode openweathermap payload: %w", err)
	}

	return p.normalize(payload)
}

func (p *OpenWeatherProvider) normalize(payload openWeatherPayload) (weather.WeatherRecord, error) {
	if payload.Name == nil || *payload.Name == "" || payload.Main == nil || payload.Weather == nil || payload.Coord == nil {
		return weather.WeatherRecord{}, weather.ErrIncompleteData
	}
	if payload.Main.Temp == nil || payload.Coord.Lat == nil || payload.Coord.Lon == nil {
		return weather.WeatherRecord{}, weather.ErrIncompleteData
	}
	if p.opts.RequireObservation && (payload.Dt == nil || payload.Timezone == nil) {
		return weather.WeatherRecord{}, weather.ErrIncompleteData
	}

	record := weather.WeatherRecord{
		City:        *payload.Name,
		Country:     weather.DefaultCountry,
		Temperature: common.RoundHalfUp(*payload.Main.Temp),
		Description: weather.DefaultDescription,
		Lat:         *payload.Coord.Lat,
		Lon:         *payload.Coord.Lon,
		ObservedAt:  payload.Dt,
		UTCOffset:   payload.Timezone,
	}
	if payload.Sys != nil {
		record.Country = common.OrDefault(payload.Sys.Country, weather.DefaultCountry)
	}
	if len(payload.Weather) > 0 {
		record.Description = common.OrDefault(payload.Weather[0].Description, weather.DefaultDescription)
	}
	if payload.Main.Humidity != nil {
		record.Humidity = common.RoundHalfUp(*payload.Main.Humidity)
	}
	if payload.Wind != nil && payload.Wind.Speed != nil {
		record.WindSpeed = *payload.Wind.Speed
	}

	if err := record.Validate(); err != nil {
		return weather.WeatherRecord{}, err
	}
	return record, nil
}
