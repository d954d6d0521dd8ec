package ctdf

// TripUpdate is the latest realtime prediction for a trip
type TripUpdate struct {
	ID          string        `json:"id"`
	TripID      string        `json:"tripId"`
	RouteID     string        `json:"routeId"`
	VehicleID   string        `json:"vehicleId,omitempty"`
	Mode        TransportMode `json:"mode"`
	StopUpdates []StopUpdate  `json:"stopUpdates"`
}

// StopUpdate delays are in seconds, negative when early
type StopUpdate struct {
	StopID         string `json:"stopId"`
	ArrivalDelay   *int32 `json:"arrivalDelay,omitempty"`
	DepartureDelay *int32 `json:"departureDelay,omitempty"`
}
