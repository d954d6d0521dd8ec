package gtfs

import (
	"strconv"
	"strings"

	"github.com/travigo/livetransit/pkg/ctdf"
)

// Only the columns needed to join live vehicles to routes are mapped, gocsv ignores the rest

type Route struct {
	ID          string `csv:"route_id"`
	AgencyID    string `csv:"agency_id"`
	ShortName   string `csv:"route_short_name"`
	LongName    string `csv:"route_long_name"`
	Description string `csv:"route_desc"`
	Colour      string `csv:"route_color"`
	TextColour  string `csv:"route_text_color"`

	// Kept as text so a blank or malformed value does not fail the whole file
	Type string `csv:"route_type"`
}

// RouteType returns the raw route_type code, or -1 when it can't be read
func (r *Route) RouteType() int {
	routeType, err := strconv.Atoi(strings.TrimSpace(r.Type))
	if err != nil {
		return -1
	}

	return routeType
}

func (r *Route) ToCTDF() ctdf.Route {
	routeType := r.RouteType()

	return ctdf.Route{
		RouteID:       r.ID,
		ShortName:     r.ShortName,
		LongName:      r.LongName,
		RouteType:     routeType,
		TransportMode: ctdf.TransportModeFromRouteType(routeType),
	}
}

type Trip struct {
	RouteID     string `csv:"route_id"`
	ServiceID   string `csv:"service_id"`
	ID          string `csv:"trip_id"`
	Headsign    string `csv:"trip_headsign"`
	Name        string `csv:"trip_short_name"`
	BlockID     string `csv:"block_id"`
	ShapeID     string `csv:"shape_id"`
	DirectionID string `csv:"direction_id"`
}

func (t *Trip) ToCTDF(mode ctdf.TransportMode) ctdf.Trip {
	return ctdf.Trip{
		TripID:   t.ID,
		RouteID:  t.RouteID,
		Headsign: t.Headsign,
		Mode:     mode,
	}
}
