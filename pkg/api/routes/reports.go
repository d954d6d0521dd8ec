package routes

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/travigo/livetransit/pkg/ctdf"
)

type ReportSource interface {
	GetReportsWithin(ctx context.Context, box ctdf.BoundingBox) ([]ctdf.Report, error)
}

func ReportsRouter(router fiber.Router, source ReportSource) {
	router.Get("/", func(c *fiber.Ctx) error {
		box, hasBounds, err := getBounds(c)
		if err != nil {
			return errorResponse(c, fiber.StatusBadRequest, err)
		}
		if !hasBounds {
			return errorResponse(c, fiber.StatusBadRequest, errors.New("A bounds filter must be applied to the request"))
		}

		reports, err := source.GetReportsWithin(c.UserContext(), box)
		if err != nil {
			log.Error().Err(err).Msg("Failed to list reports")
			return errorResponse(c, fiber.StatusServiceUnavailable, errors.New("Reports are unavailable"))
		}

		if reports == nil {
			reports = []ctdf.Report{}
		}

		return c.JSON(reports)
	})
}
