package vehiclematch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/livetransit/pkg/ctdf"
)

func liveVehicle(id string, mode ctdf.TransportMode, shortName string, longName string) ctdf.LiveVehicle {
	return ctdf.LiveVehicle{
		VehiclePosition: ctdf.VehiclePosition{
			VehicleID: id,
			Mode:      mode,
			Latitude:  50.0614,
			Longitude: 19.9383,
		},
		RouteShortName: shortName,
		RouteLongName:  longName,
	}
}

func transitSection(mode string, shortName string, headsign string) *ctdf.Section {
	return &ctdf.Section{
		ID:   "S0",
		Type: "transit",
		Transport: &ctdf.SectionTransport{
			Mode:      mode,
			ShortName: shortName,
			Headsign:  headsign,
		},
	}
}

func TestFindVehicleForSectionExactTram(t *testing.T) {
	vehicles := []ctdf.LiveVehicle{
		liveVehicle("tram-1", ctdf.TransportModeTram, "18", ""),
		liveVehicle("bus-1", ctdf.TransportModeBus, "18", ""),
	}

	match := FindVehicleForSection(transitSection("tram", "18", ""), vehicles)

	require.NotNil(t, match)
	assert.Equal(t, "tram-1", match.Vehicle.VehicleID)
	assert.Equal(t, 100, match.Confidence)
	assert.Equal(t, "Exact route name match", match.Reason)
}

func TestFindVehicleForSectionPartial(t *testing.T) {
	vehicles := []ctdf.LiveVehicle{
		liveVehicle("bus-1", ctdf.TransportModeBus, "139", ""),
	}

	match := FindVehicleForSection(transitSection("bus", "139A", ""), vehicles)

	require.NotNil(t, match)
	assert.Equal(t, "bus-1", match.Vehicle.VehicleID)
	assert.Equal(t, 75, match.Confidence)
	assert.Equal(t, "Partial route name match", match.Reason)
}

func TestFindVehicleForSectionTierPrecedence(t *testing.T) {
	vehicles := []ctdf.LiveVehicle{
		liveVehicle("partial", ctdf.TransportModeBus, "1520", ""),
		liveVehicle("exact", ctdf.TransportModeBus, "152", ""),
	}

	match := FindVehicleForSection(transitSection("bus", "152", ""), vehicles)

	require.NotNil(t, match)
	assert.Equal(t, "exact", match.Vehicle.VehicleID)
	assert.Equal(t, 100, match.Confidence)
}

func TestFindVehicleForSectionFirstInTierWins(t *testing.T) {
	vehicles := []ctdf.LiveVehicle{
		liveVehicle("first", ctdf.TransportModeTram, "8", ""),
		liveVehicle("second", ctdf.TransportModeTram, "8", ""),
	}

	match := FindVehicleForSection(transitSection("TRAM", "8", ""), vehicles)

	require.NotNil(t, match)
	assert.Equal(t, "first", match.Vehicle.VehicleID)
}

func TestFindVehicleForSectionHeadsign(t *testing.T) {
	vehicles := []ctdf.LiveVehicle{
		liveVehicle("tram-1", ctdf.TransportModeTram, "", "Bronowice Małe - Kurdwanów P+R"),
	}

	match := FindVehicleForSection(transitSection("tram", "52", "kurdwanów"), vehicles)

	require.NotNil(t, match)
	assert.Equal(t, 60, match.Confidence)
	assert.Equal(t, "Headsign match", match.Reason)
}

func TestFindVehicleForSectionNoMatch(t *testing.T) {
	vehicles := []ctdf.LiveVehicle{
		liveVehicle("bus-1", ctdf.TransportModeBus, "152", "Olszanica"),
		liveVehicle("bus-2", ctdf.TransportModeBus, "", ""),
	}

	t.Run("MissingMode", func(t *testing.T) {
		assert.Nil(t, FindVehicleForSection(transitSection("", "152", ""), vehicles))
	})

	t.Run("MissingName", func(t *testing.T) {
		assert.Nil(t, FindVehicleForSection(transitSection("bus", "", ""), vehicles))
	})

	t.Run("NoTransport", func(t *testing.T) {
		assert.Nil(t, FindVehicleForSection(&ctdf.Section{Type: "pedestrian"}, vehicles))
	})

	t.Run("NothingRelated", func(t *testing.T) {
		assert.Nil(t, FindVehicleForSection(transitSection("bus", "704", "Dworzec"), vehicles))
	})

	t.Run("FallsBackToName", func(t *testing.T) {
		section := transitSection("bus", "", "")
		section.Transport.Name = "152"

		match := FindVehicleForSection(section, vehicles)
		require.NotNil(t, match)
		assert.Equal(t, "bus-1", match.Vehicle.VehicleID)
	})
}

func TestFindVehicleForSectionModeIsolation(t *testing.T) {
	vehicles := []ctdf.LiveVehicle{
		liveVehicle("bus-1", ctdf.TransportModeBus, "50", "Kurdwanów"),
		liveVehicle("bus-2", ctdf.TransportModeBus, "5", "Kurdwanów"),
		liveVehicle("tram-1", ctdf.TransportModeTram, "9", "Nowy Bieżanów"),
	}

	sections := []*ctdf.Section{
		transitSection("tram", "50", ""),
		transitSection("tram", "5", "Kurdwanów"),
		transitSection("bus", "9", "Nowy Bieżanów"),
		transitSection("tram", "9", ""),
	}

	for _, section := range sections {
		match := FindVehicleForSection(section, vehicles)
		if match != nil {
			assert.True(t, match.Vehicle.Mode.Matches(section.Transport.Mode))
		}
	}

	assert.Nil(t, FindVehicleForSection(sections[0], vehicles))
	assert.NotNil(t, FindVehicleForSection(sections[3], vehicles))
}
