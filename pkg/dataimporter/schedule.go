package dataimporter

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/travigo/livetransit/pkg/ctdf"
	"github.com/travigo/livetransit/pkg/dataimporter/datasets"
	"github.com/travigo/livetransit/pkg/dataimporter/formats/gtfs"
)

// LoadSchedule downloads every schedule archive and replaces the routes and trips tables.
// A broken archive is skipped, but when none can be read the tables are left alone.
func (i *Importer) LoadSchedule(ctx context.Context) ScheduleResult {
	var routes []ctdf.Route
	var trips []ctdf.Trip

	routeIDs := map[string]bool{}
	tripIDs := map[string]bool{}
	duplicateRoutes := 0
	duplicateTrips := 0
	loadedArchives := 0

	for _, archive := range i.fetchAll(ctx, datasets.DataSetFormatGTFSSchedule) {
		schedule, err := gtfs.ParseScheduleWithCharset(archive.body, archive.dataset.Charset)
		if err != nil {
			log.Error().Err(err).Str("id", archive.dataset.Identifier).Msg("Failed to parse schedule archive")
			continue
		}
		loadedArchives++

		archiveRoutes, archiveTrips := schedule.ToCTDF()

		for _, route := range archiveRoutes {
			if routeIDs[route.RouteID] {
				duplicateRoutes++
				continue
			}
			routeIDs[route.RouteID] = true
			routes = append(routes, route)
		}
		for _, trip := range archiveTrips {
			if tripIDs[trip.TripID] {
				duplicateTrips++
				continue
			}
			tripIDs[trip.TripID] = true
			trips = append(trips, trip)
		}

		log.Info().
			Str("id", archive.dataset.Identifier).
			Int("routes", len(archiveRoutes)).
			Int("trips", len(archiveTrips)).
			Msg("Parsed schedule archive")
	}

	if loadedArchives == 0 {
		return ScheduleResult{Success: false, Error: ErrNoArchives.Error()}
	}

	if duplicateRoutes > 0 || duplicateTrips > 0 {
		log.Warn().Int("routes", duplicateRoutes).Int("trips", duplicateTrips).Msg("Dropped duplicate schedule records")
	}

	if err := i.Store.ReplaceRoutes(ctx, routes); err != nil {
		return ScheduleResult{Success: false, Error: fmt.Sprintf("replace routes: %s", err)}
	}
	if err := i.Store.ReplaceTrips(ctx, trips); err != nil {
		return ScheduleResult{Success: false, Error: fmt.Sprintf("replace trips: %s", err)}
	}

	return ScheduleResult{
		Success:    true,
		RouteCount: len(routes),
		TripCount:  len(trips),
	}
}
