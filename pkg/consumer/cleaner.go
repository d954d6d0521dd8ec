package consumer

import (
	"context"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/rs/zerolog/log"
)

const DefaultCleanInterval = 5 * time.Minute

// RunCleaner returns deliveries held by dead consumers to their queues until ctx is done
func RunCleaner(ctx context.Context, connection rmq.Connection, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultCleanInterval
	}

	cleaner := rmq.NewCleaner(connection)

	log.Info().Str("interval", interval.String()).Msg("Starting queue cleaner process")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			returned, err := cleaner.Clean()
			if err != nil {
				log.Error().Err(err).Msg("Failed to clean")
				continue
			}

			if returned != 0 {
				log.Info().Int64("returned", returned).Msg("Cleaned unacked deliveries")
			}
		}
	}
}
