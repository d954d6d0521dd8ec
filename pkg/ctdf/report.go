package ctdf

import "time"

// Report is a rider submitted disruption report
type Report struct {
	ID          string    `json:"id" bson:"_id"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	Description string    `json:"description,omitempty"`
	Location    *Location `json:"location"`
	UserPoints  int       `json:"userPoints"`

	GTFSRouteID   string `json:"gtfsRouteId,omitempty"`
	GTFSTripID    string `json:"gtfsTripId,omitempty"`
	GTFSVehicleID string `json:"gtfsVehicleId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (r *Report) HasLocation() bool {
	return r.Location.IsPoint()
}
