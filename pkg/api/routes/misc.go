package routes

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/travigo/livetransit/pkg/ctdf"
)

// getBounds reads a bounds=minLng,minLat,maxLng,maxLat query parameter.
// The second return is false when no bounds were given.
func getBounds(c *fiber.Ctx) (ctdf.BoundingBox, bool, error) {
	bounds := c.Query("bounds")
	if bounds == "" {
		return ctdf.BoundingBox{}, false, nil
	}

	boundsSplit := strings.Split(bounds, ",")
	if len(boundsSplit) != 4 {
		return ctdf.BoundingBox{}, true, errors.New("Bounds must contain 4 co-ordinates")
	}

	values := make([]float64, 4)
	for i, value := range boundsSplit {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return ctdf.BoundingBox{}, true, errors.New("Bounds must be numeric")
		}
		values[i] = parsed
	}

	box := ctdf.BoundingBox{
		MinLng: values[0],
		MinLat: values[1],
		MaxLng: values[2],
		MaxLat: values[3],
	}
	if box.MinLng > box.MaxLng || box.MinLat > box.MaxLat {
		return ctdf.BoundingBox{}, true, errors.New("Bounds must be bottom left then top right")
	}

	return box, true, nil
}

type boxFilter ctdf.BoundingBox

func (b boxFilter) contains(point ctdf.LatLng) bool {
	return point.Lat >= b.MinLat && point.Lat <= b.MaxLat && point.Lng >= b.MinLng && point.Lng <= b.MaxLng
}

func errorResponse(c *fiber.Ctx, status int, err error) error {
	c.Status(status)
	return c.JSON(fiber.Map{
		"error": err.Error(),
	})
}
