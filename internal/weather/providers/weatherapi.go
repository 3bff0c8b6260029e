package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
	_ "time/tzdata"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-globe/internal/common"
	"github.com/i474232898/weather-globe/internal/weather"
)

// WeatherAPIBaseURL is the current-conditions endpoint of WeatherAPI.com.
const WeatherAPIBaseURL = "https://api.weatherapi.com/v1/current.json"

// WeatherAPIProvider implements weather.Fetcher for WeatherAPI.com.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	client  *http.Client
	opts    Options
	circuit *gobreaker.CircuitBreaker
}

func NewWeatherAPIProvider(client *http.Client, apiKey string, opts Options) *WeatherAPIProvider {
	if opts.BaseURL == "" {
		opts.BaseURL = WeatherAPIBaseURL
	}
	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		client:  client,
		opts:    opts,
		circuit: newCircuitBreaker("weatherapi"),
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

type weatherAPIPayload struct {
	Location *struct {
		Name    string   `json:"name"`
		Country string   `json:"country"`
		Lat     *float64 `json:"lat"`
		Lon     *float64 `json:"lon"`
		TzID    string   `json:"tz_id"`
	} `json:"location"`
	Current *struct {
		LastUpdatedEpoch *int64   `json:"last_updated_epoch"`
		TempC            *float64 `json:"temp_c"`
		Humidity         *float64 `json:"humidity"`
		WindKph          *float64 `json:"wind_kph"`
		Condition        *struct {
			Text string `json:"text"`
		} `json:"condition"`
	} `json:"current"`
}

// Fetch performs one upstream call for city and normalizes it.
func (p *WeatherAPIProvider) Fetch(ctx context.Context, city string) (weather.WeatherRecord, error) {
	if p.apiKey == "" {
		return weather.WeatherRecord{}, weather.ErrMissingCredential
	}

	values := url.Values{}
	values.Set("key", p.apiKey)
	// WeatherAPI uses "q" for location; it accepts "city,country".
	values.Set("q", city)
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

	var payload weatherAPIPayload
	if err := json.Unmarshal(res.Body, &payload); err != nil {
		return weather.WeatherRecord{}, fmt.Errorf("failed to decode weatherapi payload: %w", err)
	}

	return p.normalize(payload)
}

func (p *WeatherAPIProvider) normalize(payload weatherAPIPayload) (weather.WeatherRecord, error) {
	loc, cur := payload.Location, payload.Current
	if loc == nil || cur == nil || loc.Name == "" || cur.Condition == nil {
		return weather.WeatherRecord{}, weather.ErrIncompleteData
	}
	if cur.TempC == nil || loc.Lat == nil || loc.Lon == nil {
		return weather.WeatherRecord{}, weather.ErrIncompleteData
	}

	record := weather.WeatherRecord{
		City:        loc.Name,
		Country:     common.OrDefault(loc.Country, weather.DefaultCountry),
		Temperature: common.RoundHalfUp(*cur.TempC),
		Description: common.OrDefault(cur.Condition.Text, weather.DefaultDescription),
		Lat:         *loc.Lat,
		Lon:         *loc.Lon,
	}
	if cur.Humidity != nil {
		record.Humidity = common.RoundHalfUp(*cur.Humidity)
	}
	if cur.WindKph != nil {
		// Convert wind from kph to m/s.
		record.WindSpeed = *cur.WindKph / 3.6
	}

	if cur.LastUpdatedEpoch != nil {
		record.ObservedAt = cur.LastUpdatedEpoch
		if zone, err := time.LoadLocation(loc.TzID); err == nil && loc.TzID != "" {
			_, offset := time.Unix(*cur.LastUpdatedEpoch, 0).In(zone).Zone()
			record.UTCOffset = &offset
		}
	}
	if p.opts.RequireObservation && (record.ObservedAt == nil || record.UTCOffset == nil) {
		return weather.WeatherRecord{}, weather.ErrIncompleteData
	}

	if err := record.Validate(); err != nil {
		return weather.WeatherRecord{}, err
	}
	return record, nil
}
