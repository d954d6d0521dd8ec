package routes

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/travigo/livetransit/pkg/cache"
	"github.com/travigo/livetransit/pkg/ctdf"
)

type VehicleSource interface {
	GetLiveVehicles(ctx context.Context, mode string) ([]ctdf.LiveVehicle, error)
}

type vehiclesHandler struct {
	source    VehicleSource
	snapshots *cache.TTL[[]ctdf.LiveVehicle]
}

func VehiclesRouter(router fiber.Router, source VehicleSource, snapshots *cache.TTL[[]ctdf.LiveVehicle]) {
	handler := &vehiclesHandler{
		source:    source,
		snapshots: snapshots,
	}

	router.Get("/", handler.listVehicles)
}

func (h *vehiclesHandler) listVehicles(c *fiber.Ctx) error {
	mode := strings.ToLower(c.Query("mode"))
	switch {
	case mode == "":
	case ctdf.TransportModeBus.Matches(mode):
	case ctdf.TransportModeTram.Matches(mode):
	default:
		return errorResponse(c, fiber.StatusBadRequest, errors.New("Parameter mode must be bus or tram"))
	}

	box, hasBounds, err := getBounds(c)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, err)
	}

	vehicles, err := h.snapshots.Get(c.UserContext(), "mode:"+mode, func(ctx context.Context) ([]ctdf.LiveVehicle, error) {
		return h.source.GetLiveVehicles(ctx, mode)
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to list live vehicles")
		return errorResponse(c, fiber.StatusServiceUnavailable, errors.New("Live vehicles are unavailable"))
	}

	if hasBounds {
		filtered := []ctdf.LiveVehicle{}
		for _, vehicle := range vehicles {
			if boxFilter(box).contains(vehicle.LatLng()) {
				filtered = append(filtered, vehicle)
			}
		}
		vehicles = filtered
	}

	if vehicles == nil {
		vehicles = []ctdf.LiveVehicle{}
	}

	return c.JSON(vehicles)
}
