package ctdf

// Route is a static GTFS route, replaced as a whole on every schedule load
type Route struct {
	RouteID       string        `json:"routeId"`
	ShortName     string        `json:"routeShortName"`
	LongName      string        `json:"routeLongName"`
	RouteType     int           `json:"routeType"`
	TransportMode TransportMode `json:"transportMode"`
}

