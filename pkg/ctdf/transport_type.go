package ctdf

import "strings"

type TransportMode string

const (
	TransportModeBus   TransportMode = "BUS"
	TransportModeTram  TransportMode = "TRAM"
	TransportModeTrain TransportMode = "TRAIN"
)

// TransportModeFromRouteType derives the mode from a raw GTFS route_type.
// Only 0 is a tram, every other category is treated as a bus.
func TransportModeFromRouteType(routeType int) TransportMode {
	if routeType == 0 {
		return TransportModeTram
	}

	return TransportModeBus
}

// Matches compares the mode against a free form mode name, ignoring case
func (m TransportMode) Matches(mode string) bool {
	return mode != "" && strings.EqualFold(string(m), mode)
}

func (m TransportMode) Lower() string {
	return strings.ToLower(string(m))
}
