package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kkyr/fig"

	"github.com/i474232898/weather-globe/internal/weather"
)

// EnvPrefix prefixes every environment variable, e.g. GLOBE_WEATHER_API_KEY.
const EnvPrefix = "GLOBE"

const (
	ProviderOpenWeatherMap = "openweathermap"
	ProviderWeatherAPI     = "weatherapi"
)

// AppConfig is the application configuration.
type AppConfig struct {
	Port      string     `fig:"port" default:"8080"`
	LogLevel  slog.Level `fig:"loglevel" default:"0"`
	StaticDir string     `fig:"static_dir" default:"./web/dist"`

	Weather struct {
		// Allowed values: openweathermap, weatherapi
		Provider string `fig:"provider" default:"openweathermap"`
		APIKey   string `fig:"api_key"`
		BaseURL  string `fig:"base_url"`
		Lang     string `fig:"lang"`
		// ProxyURL is where the aggregation client reaches the proxy endpoint.
		ProxyURL string        `fig:"proxy_url"`
		Timeout  time.Duration `fig:"timeout" default:"10s"`
		// Cities is a ";" separated list of "City,CC" entries.
		Cities string `fig:"cities"`
		// BaseVariant accepts records without observation time and UTC offset.
		BaseVariant bool `fig:"base_variant"`
	} `fig:"weather"`

	Intervals struct {
		Poll    time.Duration `fig:"poll" default:"10m"`
		Stagger time.Duration `fig:"stagger" default:"100ms"`
	} `fig:"intervals"`

	Globe struct {
		Radius float64 `fig:"radius" default:"1.5"`
	} `fig:"globe"`

	// In-memory store retention.
	Store struct {
		MaxHistory int           `fig:"max_history" default:"144"` // 24h at the default poll interval
		MaxAge     time.Duration `fig:"max_age" default:"24h"`
	} `fig:"store"`
}

// Load reads an optional .env file, an optional config.yaml in the working
// directory and GLOBE_ prefixed environment variables.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", slog.Any("error", err))
	}

	cfg := new(AppConfig)
	if err := fig.Load(cfg, fig.AllowNoFile(), fig.UseEnv(EnvPrefix)); err != nil {
		return cfg, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the configuration and fills derived defaults.
func (c *AppConfig) Validate() error {
	var errs []error

	switch c.Weather.Provider {
	case ProviderOpenWeatherMap, ProviderWeatherAPI:
	default:
		errs = append(errs, fmt.Errorf("invalid weather provider: %s", c.Weather.Provider))
	}
	if c.Intervals.Poll <= 0 {
		errs = append(errs, fmt.Errorf("invalid poll interval: %s", c.Intervals.Poll))
	}
	if c.Intervals.Stagger < 0 {
		errs = append(errs, fmt.Errorf("invalid stagger: %s", c.Intervals.Stagger))
	}
	if c.Weather.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("invalid upstream timeout: %s", c.Weather.Timeout))
	}
	if c.Globe.Radius <= 0 {
		errs = append(errs, fmt.Errorf("invalid globe radius: %v", c.Globe.Radius))
	}
	if c.Store.MaxHistory < 0 || c.Store.MaxAge < 0 {
		errs = append(errs, errors.New("store retention must not be negative"))
	}

	if c.Weather.ProxyURL == "" {
		c.Weather.ProxyURL = "http://" + net.JoinHostPort("127.0.0.1", c.Port)
	}
	c.Weather.ProxyURL = strings.TrimRight(c.Weather.ProxyURL, "/")

	return errors.Join(errs...)
}

// WeatherEnabled reports whether an upstream credential is configured.
func (c *AppConfig) WeatherEnabled() bool {
	return strings.TrimSpace(c.Weather.APIKey) != ""
}

// CityQuery returns the configured cities, or the default list.
func (c *AppConfig) CityQuery() weather.CityQuery {
	if q := weather.ParseCityQuery(c.Weather.Cities); len(q) > 0 {
		return q
	}
	return append(weather.CityQuery(nil), weather.DefaultCities...)
}
