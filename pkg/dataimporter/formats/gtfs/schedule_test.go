package gtfs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/livetransit/pkg/ctdf"
	"github.com/travigo/livetransit/pkg/dataimporter/formats/gtfs/gtfstest"
)

func TestParseSchedule(t *testing.T) {
	archive := gtfstest.Archive(t, map[string][]string{
		"routes.txt": {
			"\xef\xbb\xbfroute_id,agency_id,route_short_name,route_long_name,route_type",
			`r18,1,18,"Krowodrza Górka - Walcownia",0`,
			`r52,1,52,"Os. Piastów - Czerwone Maki P+R",3`,
			`r900,1,900,Nocny,`,
		},
		"trips.txt": {
			"route_id,service_id,trip_id,trip_headsign,direction_id",
			"r18,service_1,block_18_trip_1,Walcownia,0",
			"r52,service_1,block_52_trip_1,Czerwone Maki P+R",
		},
		"stops.txt": {"stop_id"},
	})

	schedule, err := ParseSchedule(archive)
	require.NoError(t, err)

	require.Len(t, schedule.Routes, 3)
	assert.Equal(t, "r18", schedule.Routes[0].ID)
	assert.Equal(t, "Krowodrza Górka - Walcownia", schedule.Routes[0].LongName)
	require.Len(t, schedule.Trips, 2)
	assert.Equal(t, "Czerwone Maki P+R", schedule.Trips[1].Headsign)

	routes, trips := schedule.ToCTDF()

	assert.Equal(t, ctdf.Route{
		RouteID:       "r18",
		ShortName:     "18",
		LongName:      "Krowodrza Górka - Walcownia",
		RouteType:     0,
		TransportMode: ctdf.TransportModeTram,
	}, routes[0])
	assert.Equal(t, ctdf.TransportModeBus, routes[1].TransportMode)
	assert.Equal(t, -1, routes[2].RouteType)
	assert.Equal(t, ctdf.TransportModeBus, routes[2].TransportMode)

	assert.Equal(t, ctdf.Trip{
		TripID:   "block_18_trip_1",
		RouteID:  "r18",
		Headsign: "Walcownia",
		Mode:     ctdf.TransportModeTram,
	}, trips[0])
	assert.Equal(t, ctdf.TransportModeBus, trips[1].Mode)
}

func TestParseScheduleNestedFolder(t *testing.T) {
	archive := gtfstest.Archive(t, map[string][]string{
		"GTFS_KRK_T/routes.txt": {"route_id,route_short_name,route_type", "r1,1,0"},
		"GTFS_KRK_T/trips.txt":  {"route_id,trip_id", "r1,t1"},
	})

	schedule, err := ParseSchedule(archive)
	require.NoError(t, err)
	assert.Len(t, schedule.Routes, 1)
	assert.Len(t, schedule.Trips, 1)
}

func TestParseScheduleMissingFile(t *testing.T) {
	archive := gtfstest.Archive(t, map[string][]string{
		"routes.txt": {"route_id,route_type", "r1,3"},
	})

	_, err := ParseSchedule(archive)
	assert.True(t, errors.Is(err, ErrMissingFile))
}

func TestParseScheduleNotZip(t *testing.T) {
	_, err := ParseSchedule([]byte("<html>maintenance</html>"))
	assert.Error(t, err)
}

func TestParseScheduleLegacyCharset(t *testing.T) {
	// "Bieżanów" in windows-1250
	archive := gtfstest.Archive(t, map[string][]string{
		"routes.txt": {"route_id,route_short_name,route_long_name,route_type", "r3,3,Nowy Bie\xbfan\xf3w,0"},
		"trips.txt":  {"route_id,trip_id", "r3,t1"},
	})

	schedule, err := ParseScheduleWithCharset(archive, "windows-1250")
	require.NoError(t, err)
	assert.Equal(t, "Nowy Bieżanów", schedule.Routes[0].LongName)

	_, err = ParseScheduleWithCharset(archive, "not-a-charset")
	assert.Error(t, err)
}
