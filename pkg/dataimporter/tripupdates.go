package dataimporter

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/travigo/livetransit/pkg/ctdf"
	"github.com/travigo/livetransit/pkg/dataimporter/datasets"
	"github.com/travigo/livetransit/pkg/dataimporter/formats/gtfs"
)

// LoadTripUpdates replaces the trip update table. Route ids are taken as the feed reports them.
func (i *Importer) LoadTripUpdates(ctx context.Context) LoadResult {
	feeds := i.decodeFeeds(ctx, datasets.DataSetFormatGTFSTripUpdates)
	if len(feeds) == 0 {
		return failedLoad(ErrNoFeeds)
	}

	var tripUpdates []ctdf.TripUpdate
	tripUpdateIDs := map[string]bool{}
	duplicates := 0

	for _, feed := range feeds {
		for _, entity := range feed.message.Entities {
			if entity.Kind != gtfs.EntityTripUpdate || entity.IsDeleted {
				continue
			}

			if entity.ID != "" {
				if tripUpdateIDs[entity.ID] {
					duplicates++
					continue
				}
				tripUpdateIDs[entity.ID] = true
			}

			tripUpdates = append(tripUpdates, newTripUpdate(entity, feed.dataset.Mode))
		}
	}

	if err := i.Store.ReplaceTripUpdates(ctx, tripUpdates); err != nil {
		return failedLoad(fmt.Errorf("replace trip updates: %w", err))
	}

	log.Info().
		Int("feeds", len(feeds)).
		Int("tripupdates", len(tripUpdates)).
		Int("duplicates", duplicates).
		Msg("Loaded trip updates")

	return LoadResult{Success: true, Count: len(tripUpdates)}
}

func newTripUpdate(entity gtfs.FeedEntity, mode ctdf.TransportMode) ctdf.TripUpdate {
	record := entity.TripUpdate

	stopUpdates := make([]ctdf.StopUpdate, 0, len(record.StopTimeUpdates))
	for _, stopTimeUpdate := range record.StopTimeUpdates {
		stopUpdates = append(stopUpdates, ctdf.StopUpdate{
			StopID:         stopTimeUpdate.StopID,
			ArrivalDelay:   stopTimeUpdate.ArrivalDelay,
			DepartureDelay: stopTimeUpdate.DepartureDelay,
		})
	}

	return ctdf.TripUpdate{
		ID:          entity.ID,
		TripID:      record.TripID,
		RouteID:     record.RouteID,
		VehicleID:   record.VehicleID,
		Mode:        mode,
		StopUpdates: stopUpdates,
	}
}

type decodedFeed struct {
	dataset datasets.DataSet
	message *gtfs.FeedMessage
}

func (i *Importer) decodeFeeds(ctx context.Context, format datasets.DataSetFormat) []decodedFeed {
	var feeds []decodedFeed

	for _, source := range i.fetchAll(ctx, format) {
		message, err := gtfs.DecodeFeedMessage(source.body)
		if err != nil {
			log.Error().Err(err).Str("id", source.dataset.Identifier).Msg("Failed to decode realtime feed")
			continue
		}

		feeds = append(feeds, decodedFeed{dataset: source.dataset, message: message})
	}

	return feeds
}
