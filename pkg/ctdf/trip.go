package ctdf

// Trip links a scheduled trip to its route. It only exists to resolve live vehicles to routes.
type Trip struct {
	TripID   string        `json:"tripId"`
	RouteID  string        `json:"routeId"`
	Headsign string        `json:"headsign,omitempty"`
	Mode     TransportMode `json:"mode"`
}
