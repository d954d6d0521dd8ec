package ctdf

// PlannedRoute is one alternative returned by the routing provider
type PlannedRoute struct {
	ID       string     `json:"id"`
	Sections []*Section `json:"sections"`
}

// Section is one leg of a planned route, e.g. a single tram ride or a walk
type Section struct {
	ID        string       `json:"id"`
	Type      string       `json:"type"`
	Departure SectionPlace `json:"departure"`
	Arrival   SectionPlace `json:"arrival"`

	Transport *SectionTransport `json:"transport,omitempty"`

	Polyline string   `json:"polyline,omitempty"`
	Geometry []LatLng `json:"geometry"`

	IntermediateStops []SectionPlace `json:"intermediateStops,omitempty"`
	TravelSummary     *TravelSummary `json:"travelSummary,omitempty"`
	Agency            *Agency        `json:"agency,omitempty"`
}

// SectionTransport describes the vehicle used for a section
type SectionTransport struct {
	Mode      string `json:"mode"`
	Name      string `json:"name,omitempty"`
	ShortName string `json:"shortName,omitempty"`
	LongName  string `json:"longName,omitempty"`
	Headsign  string `json:"headsign,omitempty"`
	Category  string `json:"category,omitempty"`
	Color     string `json:"color,omitempty"`
	TextColor string `json:"textColor,omitempty"`
}

// LineName is the name used to match a section against live vehicles
func (t *SectionTransport) LineName() string {
	if t.ShortName != "" {
		return t.ShortName
	}

	return t.Name
}

type SectionPlace struct {
	Time  string `json:"time,omitempty"`
	Place Place  `json:"place"`
}

type Place struct {
	Name     string `json:"name,omitempty"`
	Type     string `json:"type,omitempty"`
	Location LatLng `json:"location"`
}

type TravelSummary struct {
	Duration int `json:"duration"`
	Length   int `json:"length"`
}

type Agency struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name,omitempty"`
	Website string `json:"website,omitempty"`
}
