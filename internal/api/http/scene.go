package httpapi

import (
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-globe/internal/scene"
)

func renderScene(d Deps) scene.View {
	st := d.Poller.State()
	return d.Scene.View(scene.NewStatus(st.Loading, st.ErrorMessage, st.HasUsableSource, len(st.Set.Records)))
}

func sceneHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(renderScene(d))
	}
}

func selectHandler(d Deps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key, err := markerKey(c)
		if err != nil {
			return err
		}
		if err := d.Scene.Select(key); err != nil {
			return sceneError(err)
		}
		return c.JSON(renderScene(d))
	}
}

func hoverHandler(d Deps, on bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key, err := markerKey(c)
		if err != nil {
			return err
		}
		if err := d.Scene.Hover(key, on); err != nil {
			return sceneError(err)
		}
		return c.JSON(renderScene(d))
	}
}

// markerKey returns the unescaped "City:CC" path parameter.
func markerKey(c *fiber.Ctx) (string, error) {
	key, err := url.PathUnescape(c.Params("key"))
	if err != nil || key == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "invalid marker key")
	}
	return key, nil
}

func sceneError(err error) error {
	if errors.Is(err, scene.ErrUnknownMarker) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return err
}
