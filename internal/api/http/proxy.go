package httpapi

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-globe/internal/logger"
	"github.com/i474232898/weather-globe/internal/weather"
)

const (
	msgCityRequired      = "City parameter is required"
	msgMissingCredential = "API key not configured on the server"
	msgIncompleteData    = "Incomplete weather data received"
	msgInternal          = "Internal server error"
)

type proxyQuery struct {
	City string `validate:"required"`
}

// proxyHandler fetches one city from the upstream provider on behalf of the
// browser so the credential never leaves the server.
func proxyHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := proxyQuery{City: strings.TrimSpace(c.Query("city"))}
		if err := validate.Struct(q); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msgCityRequired})
		}

		d.Logger.Info("proxy: fetching weather", "city", q.City)
		record, err := d.Upstream.Fetch(c.UserContext(), q.City)
		if err != nil {
			return proxyError(c, d.Logger, q.City, err)
		}

		d.Logger.Info("proxy: weather served", "city", q.City, "temperature", record.Temperature)
		return c.JSON(record)
	}
}

func proxyError(c *fiber.Ctx, log *logger.Logger, city string, err error) error {
	var upstream *weather.UpstreamError

	switch {
	case errors.Is(err, weather.ErrMissingCredential):
		log.Error("proxy: upstream credential missing", "city", city)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": msgMissingCredential})
	case errors.As(err, &upstream):
		log.Warn("proxy: upstream rejected request", "city", city, "status", upstream.StatusCode)
		return c.Status(upstream.StatusCode).JSON(fiber.Map{
			"error":   "Weather API error: " + upstream.StatusText,
			"details": upstream.Body,
			"status":  upstream.StatusCode,
		})
	case errors.Is(err, weather.ErrIncompleteData):
		log.Warn("proxy: incomplete upstream payload", "city", city, logger.Err(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": msgIncompleteData})
	default:
		log.Error("proxy: weather fetch failed", "city", city, logger.Err(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   msgInternal,
			"details": err.Error(),
		})
	}
}
