package dataimporter

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"

	"github.com/rs/zerolog/log"
	"github.com/travigo/livetransit/pkg/ctdf"
	"github.com/travigo/livetransit/pkg/dataimporter/datasets"
	"github.com/travigo/livetransit/pkg/dataimporter/formats/gtfs"
	"github.com/travigo/livetransit/pkg/util"
)

var blockRouteNumberRegex = regexp.MustCompile(`block_(\d+)_`)

// LoadVehiclePositions replaces the live vehicle table with the latest positions from every mode
func (i *Importer) LoadVehiclePositions(ctx context.Context) LoadResult {
	feeds := i.decodeFeeds(ctx, datasets.DataSetFormatGTFSVehiclePositions)
	if len(feeds) == 0 {
		return failedLoad(ErrNoFeeds)
	}

	now := i.Clock()

	var vehicles []ctdf.VehiclePosition
	vehicleIDs := map[string]bool{}
	withoutPosition := 0
	zeroPosition := 0
	duplicates := 0

	for _, feed := range feeds {
		for _, entity := range feed.message.Entities {
			if entity.Kind != gtfs.EntityVehicle || entity.IsDeleted {
				continue
			}
			if !entity.Vehicle.HasPosition {
				withoutPosition++
				continue
			}

			vehicle := newVehiclePosition(entity, feed.dataset.Mode)
			vehicle.Timestamp = gtfs.ResolveTimestamp(entity.Vehicle, feed.message.HeaderTimestamp, now)

			if !vehicle.HasValidFix() {
				zeroPosition++
				continue
			}

			// Feeds are in datasource order, so the first mode to report a vehicle keeps it
			if vehicleIDs[vehicle.VehicleID] {
				duplicates++
				continue
			}
			vehicleIDs[vehicle.VehicleID] = true

			vehicles = append(vehicles, vehicle)
		}
	}

	i.resolveRoutes(ctx, vehicles)

	if err := i.Store.ReplaceVehiclePositions(ctx, vehicles); err != nil {
		return failedLoad(fmt.Errorf("replace vehicle positions: %w", err))
	}

	log.Info().
		Int("feeds", len(feeds)).
		Int("vehicles", len(vehicles)).
		Int("withoutposition", withoutPosition).
		Int("zeroposition", zeroPosition).
		Int("duplicates", duplicates).
		Msg("Loaded vehicle positions")

	return LoadResult{Success: true, Count: len(vehicles)}
}

func newVehiclePosition(entity gtfs.FeedEntity, mode ctdf.TransportMode) ctdf.VehiclePosition {
	record := entity.Vehicle

	vehicleID := record.VehicleID
	if vehicleID == "" {
		vehicleID = entity.ID
	}
	if vehicleID == "" {
		// Keep the vehicle on the map even without any identifier
		vehicleID = fmt.Sprintf("unknown-%08x", rand.Uint32())
	}

	return ctdf.VehiclePosition{
		VehicleID:   vehicleID,
		TripID:      record.TripID,
		RouteNumber: placeholderRouteNumber(record.TripID, record.VehicleLabel, vehicleID),
		Latitude:    record.Latitude,
		Longitude:   record.Longitude,
		Bearing:     record.Bearing,
		Mode:        mode,
	}
}

// placeholderRouteNumber guesses a line label before the trip has been resolved to a route
func placeholderRouteNumber(tripID string, label string, vehicleID string) string {
	if match := blockRouteNumberRegex.FindStringSubmatch(tripID); match != nil {
		return match[1]
	}
	if label != "" {
		return label
	}

	return vehicleID
}

// resolveRoutes looks up the route for each distinct trip once, then the short name for each
// distinct route once. Lookup failures leave the vehicle unresolved.
func (i *Importer) resolveRoutes(ctx context.Context, vehicles []ctdf.VehiclePosition) {
	tripIDs := make([]string, 0, len(vehicles))
	for _, vehicle := range vehicles {
		tripIDs = append(tripIDs, vehicle.TripID)
	}

	tripRoutes := map[string]string{}
	for _, tripID := range util.RemoveDuplicateStrings(tripIDs, nil) {
		routeID, err := i.Store.GetTripRouteID(ctx, tripID)
		if err != nil {
			log.Error().Err(err).Str("trip", tripID).Msg("Failed to look up trip route")
			continue
		}
		tripRoutes[tripID] = routeID
	}

	routeShortNames := map[string]string{}
	for _, routeID := range tripRoutes {
		if _, exists := routeShortNames[routeID]; exists || routeID == "" {
			continue
		}

		shortName, err := i.Store.GetRouteShortName(ctx, routeID)
		if err != nil {
			log.Error().Err(err).Str("route", routeID).Msg("Failed to look up route short name")
		}
		routeShortNames[routeID] = shortName
	}

	unresolved := 0
	for index := range vehicles {
		vehicle := &vehicles[index]

		routeID := tripRoutes[vehicle.TripID]
		if routeID == "" {
			unresolved++
			continue
		}

		vehicle.RouteID = routeID
		if shortName := routeShortNames[routeID]; shortName != "" {
			vehicle.RouteNumber = shortName
		} else {
			vehicle.RouteNumber = routeID
		}
	}

	log.Debug().
		Int("trips", len(tripRoutes)).
		Int("routes", len(routeShortNames)).
		Int("unresolved", unresolved).
		Msg("Resolved vehicle routes")
}
