package routes

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/travigo/livetransit/pkg/planner"
)

type Planner interface {
	Plan(ctx context.Context, request planner.PlanRequest) (*planner.PlanResponse, error)
}

func PlannerRouter(router fiber.Router, routePlanner Planner) {
	router.Post("/vehicle-matched", func(c *fiber.Ctx) error {
		return planVehicleMatched(c, routePlanner)
	})
}

func planVehicleMatched(c *fiber.Ctx, routePlanner Planner) error {
	var request planner.PlanRequest
	if err := c.BodyParser(&request); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, errors.New("Request body must be a JSON planning request"))
	}

	response, err := routePlanner.Plan(c.UserContext(), request)
	switch {
	case errors.Is(err, planner.ErrInvalidRequest):
		return errorResponse(c, fiber.StatusBadRequest, err)
	case errors.Is(err, planner.ErrRouting):
		log.Error().Err(err).Msg("Routing provider failed")
		return errorResponse(c, fiber.StatusBadGateway, err)
	case err != nil:
		log.Error().Err(err).Msg("Failed to plan route")
		return errorResponse(c, fiber.StatusInternalServerError, err)
	}

	return c.JSON(response)
}
