package ctdf

// VehiclePosition is one row of the live vehicle table. The whole table is swapped every refresh.
type VehiclePosition struct {
	VehicleID   string        `json:"vehicleId"`
	TripID      string        `json:"tripId"`
	RouteID     string        `json:"routeId"`
	RouteNumber string        `json:"routeNumber"`
	Latitude    float64       `json:"latitude"`
	Longitude   float64       `json:"longitude"`
	Bearing     float64       `json:"bearing"`
	Timestamp   int64         `json:"timestamp"`
	Mode        TransportMode `json:"mode"`
}

func (v *VehiclePosition) LatLng() LatLng {
	return LatLng{Lat: v.Latitude, Lng: v.Longitude}
}

// HasValidFix is false for the (0,0) position feeds report when there is no GPS fix
func (v *VehiclePosition) HasValidFix() bool {
	return !(v.Latitude == 0 && v.Longitude == 0)
}

// LiveVehicle is a vehicle position joined with the route it was resolved to
type LiveVehicle struct {
	VehiclePosition `bson:",inline"`

	RouteShortName string `json:"routeShortName"`
	RouteLongName  string `json:"routeLongName"`
}

// JoinRoute builds the matching view of a vehicle. Without a resolved route the
// display route number stands in for the short name.
func JoinRoute(vehicle VehiclePosition, route *Route) LiveVehicle {
	live := LiveVehicle{
		VehiclePosition: vehicle,
		RouteShortName:  vehicle.RouteNumber,
	}

	if route != nil {
		if route.ShortName != "" {
			live.RouteShortName = route.ShortName
		}
		live.RouteLongName = route.LongName
	}

	return live
}
