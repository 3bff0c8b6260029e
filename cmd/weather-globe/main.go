package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/weather-globe/internal/api/http"
	"github.com/i474232898/weather-globe/internal/config"
	"github.com/i474232898/weather-globe/internal/logger"
	"github.com/i474232898/weather-globe/internal/scene"
	"github.com/i474232898/weather-globe/internal/scheduler"
	"github.com/i474232898/weather-globe/internal/store"
	"github.com/i474232898/weather-globe/internal/weather"
	"github.com/i474232898/weather-globe/internal/weather/providers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	lg := logger.New(cfg.LogLevel)

	// Shared HTTP client for outbound calls.
	httpClient := &http.Client{
		Timeout: cfg.Weather.Timeout,
	}

	// Upstream provider behind the proxy endpoint.
	opts := providers.Options{
		BaseURL:            cfg.Weather.BaseURL,
		Lang:               cfg.Weather.Lang,
		RequireObservation: !cfg.Weather.BaseVariant,
	}
	var upstream interface {
		weather.Fetcher
		Name() string
	}
	switch cfg.Weather.Provider {
	case config.ProviderWeatherAPI:
		upstream = providers.NewWeatherAPIProvider(httpClient, cfg.Weather.APIKey, opts)
	default:
		upstream = providers.NewOpenWeatherProvider(httpClient, cfg.Weather.APIKey, opts)
	}

	enabled := cfg.WeatherEnabled()
	if !enabled {
		lg.Warn("no weather api key configured, polling is disabled")
	}

	// The aggregation client reaches upstream through our own proxy endpoint.
	aggregator := weather.NewAggregator(
		weather.NewProxyClient(httpClient, cfg.Weather.ProxyURL),
		weather.AggregatorConfig{
			Cities:  cfg.CityQuery(),
			Stagger: cfg.Intervals.Stagger,
			Enabled: enabled,
		},
		lg,
	)

	lg.Info("weather polling configured", "provider", upstream.Name(),
		"cities", len(aggregator.Cities()), "interval", cfg.Intervals.Poll.String())

	memStore := store.NewMemoryStore(cfg.Store.MaxHistory, cfg.Store.MaxAge)
	service := weather.NewService(memStore, aggregator)
	globe := scene.New(cfg.Globe.Radius)

	ctrl := scheduler.New(service, cfg.Intervals.Poll, lg,
		func(set weather.AggregatedSet) { globe.SetRecords(set.Records) },
		service.Accept,
	)

	app := fiber.New(fiber.Config{
		AppName:               "weather-globe",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          cfg.Weather.Timeout + 5*time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-globe",
		})
	})

	httpapi.RegisterRoutes(app, httpapi.Deps{
		Upstream: upstream,
		History:  service,
		Scene:    globe,
		Poller:   ctrl,
		Logger:   lg,
	})

	app.Static("/", cfg.StaticDir)

	// Polling goes through the proxy, so it starts once the server listens.
	app.Hooks().OnListen(func(fiber.ListenData) error {
		return ctrl.Activate()
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			lg.Error("fiber server stopped", logger.Err(err))
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	ctrl.Deactivate()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		lg.Error("error during shutdown", logger.Err(err))
	}
}
