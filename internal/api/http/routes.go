package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-globe/internal/logger"
	"github.com/i474232898/weather-globe/internal/scene"
	"github.com/i474232898/weather-globe/internal/scheduler"
	"github.com/i474232898/weather-globe/internal/store"
	"github.com/i474232898/weather-globe/internal/weather"
)

var validate = validator.New()

// History answers stored weather queries.
type History interface {
	CurrentSet() (weather.AggregatedSet, error)
	GetLatest(loc weather.Location) (weather.Observation, error)
	GetRange(loc weather.Location, from, to time.Time) ([]weather.Observation, error)
}

// Poller is the polling controller as seen by the API.
type Poller interface {
	RefreshAsync() error
	State() scheduler.State
}

// Deps are the collaborators of the HTTP handlers.
type Deps struct {
	// Upstream serves the proxy endpoint.
	Upstream weather.Fetcher
	History  History
	Scene    *scene.Scene
	Poller   Poller
	Logger   *logger.Logger
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Get(weather.ProxyPath, proxyHandler(d))

	v1 := app.Group("/api/v1")

	v1.Get("/scene", sceneHandler(d))
	v1.Post("/scene/markers/:key/select", selectHandler(d))
	v1.Delete("/scene/selection", func(c *fiber.Ctx) error {
		d.Scene.ClearSelection()
		return c.JSON(renderScene(d))
	})
	v1.Get("/scene/selection", func(c *fiber.Ctx) error {
		r, ok := d.Scene.Selected()
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no marker selected")
		}
		return c.JSON(r)
	})
	v1.Put("/scene/markers/:key/hover", hoverHandler(d, true))
	v1.Delete("/scene/markers/:key/hover", hoverHandler(d, false))

	v1.Post("/refresh", func(c *fiber.Ctx) error {
		if err := d.Poller.RefreshAsync(); err != nil {
			if errors.Is(err, scheduler.ErrCycleInProgress) {
				return fiber.NewError(fiber.StatusConflict, err.Error())
			}
			return err
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "refreshing"})
	})

	v1.Get("/status", func(c *fiber.Ctx) error {
		return c.JSON(d.Poller.State())
	})

	v1.Get("/weather/set", func(c *fiber.Ctx) error {
		set, err := d.History.CurrentSet()
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather set collected yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather set")
		}
		return c.JSON(set)
	})

	v1.Get("/weather/current", func(c *fiber.Ctx) error {
		locReq, err := parseLocationQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		loc := locReq.toLocation()
		obs, err := d.History.GetLatest(loc)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather data for requested location")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather data")
		}

		return c.JSON(obs)
	})

	v1.Get("/weather/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		loc := req.Location.toLocation()
		observations, err := d.History.GetRange(loc, req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no weather history for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather history")
		}

		return c.JSON(fiber.Map{
			"location":     loc,
			"from":         req.From,
			"to":           req.To,
			"observations": observations,
		})
	})
}

// locationQuery holds query parameters for identifying a location.
type locationQuery struct {
	City    string `validate:"required"`
	Country string `validate:"required"`
}

func (l locationQuery) toLocation() weather.Location {
	return weather.Location{
		City:    l.City,
		Country: l.Country,
	}
}

func parseLocationQuery(c *fiber.Ctx) (locationQuery, error) {
	q := locationQuery{
		City:    c.Query("city"),
		Country: c.Query("country"),
	}
	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Location locationQuery
	From     time.Time `validate:"required"`
	To       time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx) error {
	loc, err := parseLocationQuery(c)
	if err != nil {
		return err
	}
	h.Location = loc

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
