package dataimporter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/livetransit/pkg/ctdf"
	"github.com/travigo/livetransit/pkg/dataimporter/datasets"
	"github.com/travigo/livetransit/pkg/dataimporter/formats/gtfs/gtfstest"
	"google.golang.org/protobuf/proto"
)

type memoryStore struct {
	mutex sync.Mutex

	routes           []ctdf.Route
	trips            []ctdf.Trip
	vehiclePositions []ctdf.VehiclePosition
	tripUpdates      []ctdf.TripUpdate

	replaceCalls     int
	tripLookups      map[string]int
	routeLookups     map[string]int
	failReplace      error
	failTripLookupOf string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		tripLookups:  map[string]int{},
		routeLookups: map[string]int{},
	}
}

func (s *memoryStore) replace(apply func()) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.replaceCalls++
	if s.failReplace != nil {
		return s.failReplace
	}
	apply()
	return nil
}

func (s *memoryStore) ReplaceRoutes(ctx context.Context, routes []ctdf.Route) error {
	return s.replace(func() { s.routes = append([]ctdf.Route(nil), routes...) })
}

func (s *memoryStore) ReplaceTrips(ctx context.Context, trips []ctdf.Trip) error {
	return s.replace(func() { s.trips = append([]ctdf.Trip(nil), trips...) })
}

func (s *memoryStore) ReplaceVehiclePositions(ctx context.Context, vehicles []ctdf.VehiclePosition) error {
	return s.replace(func() { s.vehiclePositions = append([]ctdf.VehiclePosition(nil), vehicles...) })
}

func (s *memoryStore) ReplaceTripUpdates(ctx context.Context, tripUpdates []ctdf.TripUpdate) error {
	return s.replace(func() { s.tripUpdates = append([]ctdf.TripUpdate(nil), tripUpdates...) })
}

func (s *memoryStore) GetTripRouteID(ctx context.Context, tripID string) (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.tripLookups[tripID]++
	if tripID == s.failTripLookupOf {
		return "", errors.New("lookup timed out")
	}

	for _, trip := range s.trips {
		if trip.TripID == tripID {
			return trip.RouteID, nil
		}
	}
	return "", nil
}

func (s *memoryStore) GetRouteShortName(ctx context.Context, routeID string) (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.routeLookups[routeID]++
	for _, route := range s.routes {
		if route.RouteID == routeID {
			return route.ShortName, nil
		}
	}
	return "", nil
}

// feedServer serves fixed bodies by path, anything else is a 404
func feedServer(t *testing.T, bodies map[string][]byte) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, exists := bodies[r.URL.Path]
		if !exists {
			http.NotFound(w, r)
			return
		}
		w.Write(body)
	}))
	t.Cleanup(server.Close)

	return server
}

func testDataSource(baseURL string) datasets.DataSource {
	dataset := func(identifier string, format datasets.DataSetFormat, mode ctdf.TransportMode, path string) datasets.DataSet {
		return datasets.DataSet{Identifier: identifier, Format: format, Mode: mode, Source: baseURL + path}
	}

	return datasets.DataSource{
		Identifier: "test",
		Datasets: []datasets.DataSet{
			dataset("bus-schedule", datasets.DataSetFormatGTFSSchedule, ctdf.TransportModeBus, "/GTFS_A.zip"),
			dataset("tram-schedule", datasets.DataSetFormatGTFSSchedule, ctdf.TransportModeTram, "/GTFS_T.zip"),
			dataset("bus-positions", datasets.DataSetFormatGTFSVehiclePositions, ctdf.TransportModeBus, "/VehiclePositions_A.pb"),
			dataset("tram-positions", datasets.DataSetFormatGTFSVehiclePositions, ctdf.TransportModeTram, "/VehiclePositions_T.pb"),
			dataset("bus-updates", datasets.DataSetFormatGTFSTripUpdates, ctdf.TransportModeBus, "/TripUpdates_A.pb"),
			dataset("tram-updates", datasets.DataSetFormatGTFSTripUpdates, ctdf.TransportModeTram, "/TripUpdates_T.pb"),
		},
	}
}

func busArchive(t *testing.T) []byte {
	return gtfstest.Archive(t, map[string][]string{
		"routes.txt": {
			"route_id,route_short_name,route_long_name,route_type",
			"r52,52,Os. Piastów - Czerwone Maki P+R,3",
			"r139,139,Nowy Bieżanów P+R - Kliny Zacisze,3",
		},
		"trips.txt": {
			"route_id,service_id,trip_id,trip_headsign",
			"r52,s1,block_52_trip_1,Czerwone Maki P+R",
			"r139,s1,block_139_trip_1,Kliny Zacisze",
			"r139,s1,block_139_trip_2,Nowy Bieżanów P+R",
		},
	})
}

func tramArchive(t *testing.T) []byte {
	return gtfstest.Archive(t, map[string][]string{
		"routes.txt": {
			"route_id,route_short_name,route_long_name,route_type",
			"r18,18,Krowodrza Górka - Walcownia,0",
			"r52,52,Duplicate of the bus route,0",
		},
		"trips.txt": {
			"route_id,service_id,trip_id,trip_headsign",
			"r18,s1,block_18_trip_1,Walcownia",
		},
	})
}

func newTestImporter(store Store, server *httptest.Server) *Importer {
	importer := NewImporter(store, testDataSource(server.URL), NewFetcher(5*time.Second))
	importer.Clock = func() time.Time { return time.Unix(1700000500, 0) }

	return importer
}

func TestLoadScheduleIsIdempotent(t *testing.T) {
	server := feedServer(t, map[string][]byte{
		"/GTFS_A.zip": busArchive(t),
		"/GTFS_T.zip": tramArchive(t),
	})
	store := newMemoryStore()
	importer := newTestImporter(store, server)

	first := importer.LoadSchedule(context.Background())
	require.True(t, first.Success, first.Error)
	assert.Equal(t, 3, first.RouteCount)
	assert.Equal(t, 4, first.TripCount)

	routes := store.routes
	trips := store.trips

	second := importer.LoadSchedule(context.Background())
	require.True(t, second.Success, second.Error)
	assert.Equal(t, first, second)
	assert.Equal(t, routes, store.routes)
	assert.Equal(t, trips, store.trips)

	// The first archive wins for duplicated route ids
	for _, route := range store.routes {
		if route.RouteID == "r52" {
			assert.Equal(t, ctdf.TransportModeBus, route.TransportMode)
		}
		if route.RouteID == "r18" {
			assert.Equal(t, ctdf.TransportModeTram, route.TransportMode)
		}
	}
}

func TestLoadScheduleSkipsBrokenArchive(t *testing.T) {
	server := feedServer(t, map[string][]byte{
		"/GTFS_A.zip": []byte("this is not a zip"),
		"/GTFS_T.zip": tramArchive(t),
	})
	store := newMemoryStore()

	result := newTestImporter(store, server).LoadSchedule(context.Background())

	require.True(t, result.Success, result.Error)
	assert.Equal(t, 2, result.RouteCount)
	assert.Equal(t, 1, result.TripCount)
}

func TestLoadScheduleLeavesTablesWhenNothingLoads(t *testing.T) {
	server := feedServer(t, map[string][]byte{})
	store := newMemoryStore()
	store.routes = []ctdf.Route{{RouteID: "existing"}}

	result := newTestImporter(store, server).LoadSchedule(context.Background())

	assert.False(t, result.Success)
	assert.Equal(t, ErrNoArchives.Error(), result.Error)
	assert.Zero(t, store.replaceCalls)
	assert.Equal(t, []ctdf.Route{{RouteID: "existing"}}, store.routes)
}

func TestLoadScheduleStoreFailure(t *testing.T) {
	server := feedServer(t, map[string][]byte{"/GTFS_A.zip": busArchive(t)})
	store := newMemoryStore()
	store.failReplace = errors.New("write conflict")

	result := newTestImporter(store, server).LoadSchedule(context.Background())

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "write conflict")
}

func loadedScheduleStore(t *testing.T) *memoryStore {
	server := feedServer(t, map[string][]byte{
		"/GTFS_A.zip": busArchive(t),
		"/GTFS_T.zip": tramArchive(t),
	})
	store := newMemoryStore()
	require.True(t, newTestImporter(store, server).LoadSchedule(context.Background()).Success)

	return store
}

func TestLoadVehiclePositions(t *testing.T) {
	store := loadedScheduleStore(t)

	busFeed := gtfstest.VehicleFeed(t, 1700000000,
		gtfstest.Vehicle{EntityID: "e1", VehicleID: "BH101", TripID: "block_52_trip_1", Latitude: 50.06, Longitude: 19.94, Bearing: proto.Float32(180), Timestamp: 1700000010},
		gtfstest.Vehicle{EntityID: "e2", VehicleID: "BH102", TripID: "block_139_trip_1", Latitude: 50.02, Longitude: 20.01},
		gtfstest.Vehicle{EntityID: "e3", VehicleID: "BH103", TripID: "block_139_trip_2", Latitude: 50.03, Longitude: 20.02},
		gtfstest.Vehicle{EntityID: "e4", VehicleID: "BH104", TripID: "block_139_trip_1", Latitude: 0, Longitude: 0},
		gtfstest.Vehicle{EntityID: "e5", VehicleID: "BH105", NoPosition: true},
		gtfstest.Vehicle{EntityID: "e6", VehicleID: "BH106", TripID: "block_704_trip_9", Latitude: 50.1, Longitude: 19.9},
		gtfstest.Vehicle{EntityID: "e7", TripID: "unmapped", Label: "N1", Latitude: 50.1, Longitude: 19.9},
	)
	tramFeed := gtfstest.VehicleFeed(t, 0,
		gtfstest.Vehicle{VehicleID: "RY601", TripID: "block_18_trip_1", Latitude: 50.0614, Longitude: 19.9383},
	)

	server := feedServer(t, map[string][]byte{
		"/VehiclePositions_A.pb": busFeed,
		"/VehiclePositions_T.pb": tramFeed,
	})

	result := newTestImporter(store, server).LoadVehiclePositions(context.Background())
	require.True(t, result.Success, result.Error)
	assert.Equal(t, 6, result.Count)

	vehicles := map[string]ctdf.VehiclePosition{}
	for _, vehicle := range store.vehiclePositions {
		vehicles[vehicle.VehicleID] = vehicle
		assert.True(t, vehicle.HasValidFix())
	}

	assert.NotContains(t, vehicles, "BH104")
	assert.NotContains(t, vehicles, "BH105")

	first := vehicles["BH101"]
	assert.Equal(t, "r52", first.RouteID)
	assert.Equal(t, "52", first.RouteNumber)
	assert.Equal(t, int64(1700000010), first.Timestamp)
	assert.Equal(t, 180.0, first.Bearing)
	assert.Equal(t, ctdf.TransportModeBus, first.Mode)

	// Header timestamp, then the clock
	assert.Equal(t, int64(1700000000), vehicles["BH102"].Timestamp)
	assert.Equal(t, int64(1700000500), vehicles["RY601"].Timestamp)

	assert.Equal(t, "139", vehicles["BH102"].RouteNumber)
	assert.Equal(t, "18", vehicles["RY601"].RouteNumber)
	assert.Equal(t, ctdf.TransportModeTram, vehicles["RY601"].Mode)

	// Unresolved trips keep the placeholder from the trip id
	assert.Empty(t, vehicles["BH106"].RouteID)
	assert.Equal(t, "704", vehicles["BH106"].RouteNumber)

	// Falling back to the entity id and the vehicle label
	assert.Equal(t, "N1", vehicles["e7"].RouteNumber)

	// Each distinct trip and route is only looked up once
	assert.Equal(t, 1, store.tripLookups["block_139_trip_1"])
	assert.Equal(t, 1, store.routeLookups["r139"])
}

func TestLoadVehiclePositionsSynthesisesMissingIdentifier(t *testing.T) {
	store := newMemoryStore()
	server := feedServer(t, map[string][]byte{
		"/VehiclePositions_A.pb": gtfstest.VehicleFeed(t, 0, gtfstest.Vehicle{Latitude: 50.05, Longitude: 19.95}),
	})

	result := newTestImporter(store, server).LoadVehiclePositions(context.Background())
	require.True(t, result.Success, result.Error)
	require.Len(t, store.vehiclePositions, 1)

	vehicle := store.vehiclePositions[0]
	assert.True(t, strings.HasPrefix(vehicle.VehicleID, "unknown-"))
	assert.Equal(t, vehicle.VehicleID, vehicle.RouteNumber)
	assert.Empty(t, vehicle.RouteID)
}

func TestLoadVehiclePositionsLookupFailureDegrades(t *testing.T) {
	store := loadedScheduleStore(t)
	store.failTripLookupOf = "block_52_trip_1"

	server := feedServer(t, map[string][]byte{
		"/VehiclePositions_A.pb": gtfstest.VehicleFeed(t, 0,
			gtfstest.Vehicle{VehicleID: "BH101", TripID: "block_52_trip_1", Latitude: 50.06, Longitude: 19.94},
		),
	})

	result := newTestImporter(store, server).LoadVehiclePositions(context.Background())
	require.True(t, result.Success, result.Error)
	assert.Empty(t, store.vehiclePositions[0].RouteID)
	assert.Equal(t, "52", store.vehiclePositions[0].RouteNumber)
}

func TestLoadVehiclePositionsOneModeDown(t *testing.T) {
	store := newMemoryStore()
	server := feedServer(t, map[string][]byte{
		"/VehiclePositions_T.pb": gtfstest.VehicleFeed(t, 0, gtfstest.Vehicle{VehicleID: "RY601", Latitude: 50.06, Longitude: 19.94}),
	})

	result := newTestImporter(store, server).LoadVehiclePositions(context.Background())
	require.True(t, result.Success, result.Error)
	assert.Equal(t, 1, result.Count)
}

func TestLoadVehiclePositionsLeavesTableWhenAllFeedsFail(t *testing.T) {
	store := newMemoryStore()
	store.vehiclePositions = []ctdf.VehiclePosition{{VehicleID: "stale"}}
	server := feedServer(t, map[string][]byte{
		"/VehiclePositions_A.pb": []byte{0x0a, 0xff, 0xff},
	})

	result := newTestImporter(store, server).LoadVehiclePositions(context.Background())

	assert.False(t, result.Success)
	assert.Equal(t, ErrNoFeeds.Error(), result.Error)
	assert.Zero(t, store.replaceCalls)
	assert.Equal(t, "stale", store.vehiclePositions[0].VehicleID)
}

func TestLoadVehiclePositionsNeverStoresNullIsland(t *testing.T) {
	vehicles := []gtfstest.Vehicle{
		{VehicleID: "a", Latitude: 0, Longitude: 0},
		{VehicleID: "b", Latitude: 0, Longitude: 19.9},
		{VehicleID: "c", Latitude: 50.0, Longitude: 0},
		{VehicleID: "d", Latitude: 0, Longitude: 0, Timestamp: 1700000000},
	}

	store := newMemoryStore()
	server := feedServer(t, map[string][]byte{
		"/VehiclePositions_A.pb": gtfstest.VehicleFeed(t, 0, vehicles...),
	})

	result := newTestImporter(store, server).LoadVehiclePositions(context.Background())
	require.True(t, result.Success, result.Error)

	ids := []string{}
	for _, vehicle := range store.vehiclePositions {
		ids = append(ids, vehicle.VehicleID)
	}
	assert.ElementsMatch(t, []string{"b", "c"}, ids)
}

func TestLoadTripUpdates(t *testing.T) {
	store := newMemoryStore()
	server := feedServer(t, map[string][]byte{
		"/TripUpdates_A.pb": gtfstest.TripUpdateFeed(t, 0,
			gtfstest.TripUpdate{
				EntityID:  "tu1",
				TripID:    "block_52_trip_1",
				RouteID:   "r52",
				VehicleID: "BH101",
				Stops: []gtfstest.StopDelay{
					{StopID: "s1", Arrival: proto.Int32(120)},
					{StopID: "s2", Departure: proto.Int32(-15)},
				},
			},
		),
		"/TripUpdates_T.pb": gtfstest.TripUpdateFeed(t, 0,
			gtfstest.TripUpdate{EntityID: "tu2", TripID: "block_18_trip_1"},
		),
	})

	result := newTestImporter(store, server).LoadTripUpdates(context.Background())
	require.True(t, result.Success, result.Error)
	assert.Equal(t, 2, result.Count)

	require.Len(t, store.tripUpdates, 2)
	bus := store.tripUpdates[0]
	assert.Equal(t, "tu1", bus.ID)
	assert.Equal(t, "r52", bus.RouteID)
	assert.Equal(t, "BH101", bus.VehicleID)
	assert.Equal(t, ctdf.TransportModeBus, bus.Mode)
	require.Len(t, bus.StopUpdates, 2)
	assert.Equal(t, int32(120), *bus.StopUpdates[0].ArrivalDelay)
	assert.Nil(t, bus.StopUpdates[0].DepartureDelay)
	assert.Equal(t, int32(-15), *bus.StopUpdates[1].DepartureDelay)

	tram := store.tripUpdates[1]
	assert.Equal(t, ctdf.TransportModeTram, tram.Mode)
	assert.Empty(t, tram.VehicleID)
	assert.Empty(t, tram.StopUpdates)
}

func TestLoadTripUpdatesAllFeedsFail(t *testing.T) {
	store := newMemoryStore()
	server := feedServer(t, map[string][]byte{})

	result := newTestImporter(store, server).LoadTripUpdates(context.Background())

	assert.False(t, result.Success)
	assert.Zero(t, store.replaceCalls)
}

func TestPlaceholderRouteNumber(t *testing.T) {
	assert.Equal(t, "139", placeholderRouteNumber("block_139_trip_4_service_1", "BH1", "v1"))
	assert.Equal(t, "BH1", placeholderRouteNumber("trip_4", "BH1", "v1"))
	assert.Equal(t, "v1", placeholderRouteNumber("", "", "v1"))
}

func TestLoadVehiclePositionsKeepsFirstModeForDuplicateVehicle(t *testing.T) {
	store := newMemoryStore()
	server := feedServer(t, map[string][]byte{
		"/VehiclePositions_A.pb": gtfstest.VehicleFeed(t, 0,
			gtfstest.Vehicle{VehicleID: "HY999", Latitude: 50.06, Longitude: 19.94},
			gtfstest.Vehicle{VehicleID: "BH101", Latitude: 0, Longitude: 0},
		),
		"/VehiclePositions_T.pb": gtfstest.VehicleFeed(t, 0,
			gtfstest.Vehicle{VehicleID: "HY999", Latitude: 50.07, Longitude: 19.95},
			gtfstest.Vehicle{VehicleID: "BH101", Latitude: 50.08, Longitude: 19.96},
		),
	})

	result := newTestImporter(store, server).LoadVehiclePositions(context.Background())
	require.True(t, result.Success, result.Error)
	assert.Equal(t, 2, result.Count)
	require.Len(t, store.vehiclePositions, 2)

	vehicles := map[string]ctdf.VehiclePosition{}
	for _, vehicle := range store.vehiclePositions {
		vehicles[vehicle.VehicleID] = vehicle
	}

	assert.Equal(t, ctdf.TransportModeBus, vehicles["HY999"].Mode)
	assert.InDelta(t, 50.06, vehicles["HY999"].Latitude, 1e-4)

	// A position without a fix does not claim the id
	assert.Equal(t, ctdf.TransportModeTram, vehicles["BH101"].Mode)
}

func TestLoadTripUpdatesKeepsFirstModeForDuplicateEntity(t *testing.T) {
	store := newMemoryStore()
	server := feedServer(t, map[string][]byte{
		"/TripUpdates_A.pb": gtfstest.TripUpdateFeed(t, 0,
			gtfstest.TripUpdate{EntityID: "tu1", TripID: "block_52_trip_1"},
		),
		"/TripUpdates_T.pb": gtfstest.TripUpdateFeed(t, 0,
			gtfstest.TripUpdate{EntityID: "tu1", TripID: "block_18_trip_1"},
			gtfstest.TripUpdate{EntityID: "tu2", TripID: "block_18_trip_2"},
		),
	})

	result := newTestImporter(store, server).LoadTripUpdates(context.Background())
	require.True(t, result.Success, result.Error)
	assert.Equal(t, 2, result.Count)

	require.Len(t, store.tripUpdates, 2)
	assert.Equal(t, "block_52_trip_1", store.tripUpdates[0].TripID)
	assert.Equal(t, ctdf.TransportModeBus, store.tripUpdates[0].Mode)
	assert.Equal(t, "tu2", store.tripUpdates[1].ID)
}
