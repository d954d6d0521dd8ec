package routes

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/travigo/livetransit/pkg/ctdf"
)

type TripUpdateSource interface {
	GetTripUpdate(ctx context.Context, tripID string) (*ctdf.TripUpdate, error)
}

func TripUpdatesRouter(router fiber.Router, source TripUpdateSource) {
	router.Get("/:tripId", func(c *fiber.Ctx) error {
		tripID := c.Params("tripId")

		tripUpdate, err := source.GetTripUpdate(c.UserContext(), tripID)
		if err != nil {
			log.Error().Err(err).Str("trip", tripID).Msg("Failed to get trip update")
			return errorResponse(c, fiber.StatusInternalServerError, errors.New("Trip updates are unavailable"))
		}

		if tripUpdate == nil {
			return errorResponse(c, fiber.StatusNotFound, errors.New("Could not find a live update for the trip"))
		}

		return c.JSON(tripUpdate)
	})
}
