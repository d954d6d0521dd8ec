package routes

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/travigo/livetransit/pkg/cache"
	"github.com/travigo/livetransit/pkg/stats"
)

type RecordCounter interface {
	CountRecords(ctx context.Context) (map[string]int64, error)
}

// LoadRatesSource is nil when load events are not indexed anywhere
type LoadRatesSource func(ctx context.Context) (stats.LoadRates, error)

func StatsRouter(router fiber.Router, counter RecordCounter, snapshots *cache.TTL[map[string]int64], loadRates LoadRatesSource) {
	router.Get("/", func(c *fiber.Ctx) error {
		counts, err := snapshots.Get(c.UserContext(), "records", counter.CountRecords)
		if err != nil {
			log.Error().Err(err).Msg("Failed to count records")
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}

		return c.JSON(fiber.Map{
			"records": counts,
		})
	})

	router.Get("/ingestion", func(c *fiber.Ctx) error {
		if loadRates == nil {
			return c.SendStatus(fiber.StatusNotFound)
		}

		rates, err := loadRates(c.UserContext())
		if err != nil {
			log.Error().Err(err).Msg("Failed to query ingestion load rates")
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}

		return c.JSON(rates)
	})
}
