package routing

import "github.com/travigo/livetransit/pkg/ctdf"

type hereResponse struct {
	Routes  []hereRoute  `json:"routes"`
	Notices []hereNotice `json:"notices"`
}

type hereNotice struct {
	Title string `json:"title"`
	Code  string `json:"code"`
}

type hereRoute struct {
	ID       string        `json:"id"`
	Sections []hereSection `json:"sections"`
}

type hereSection struct {
	ID                string              `json:"id"`
	Type              string              `json:"type"`
	Departure         herePlaceTime       `json:"departure"`
	Arrival           herePlaceTime       `json:"arrival"`
	Polyline          string              `json:"polyline"`
	Transport         *hereTransport      `json:"transport"`
	IntermediateStops []hereIntermediate  `json:"intermediateStops"`
	TravelSummary     *ctdf.TravelSummary `json:"travelSummary"`
	Agency            *ctdf.Agency        `json:"agency"`
}

type herePlaceTime struct {
	Time  string    `json:"time"`
	Place herePlace `json:"place"`
}

type herePlace struct {
	Name     string      `json:"name"`
	Type     string      `json:"type"`
	Location ctdf.LatLng `json:"location"`
}

type hereIntermediate struct {
	Departure herePlaceTime `json:"departure"`
}

type hereTransport struct {
	Mode      string `json:"mode"`
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
	LongName  string `json:"longName"`
	Headsign  string `json:"headsign"`
	Category  string `json:"category"`
	Color     string `json:"color"`
	TextColor string `json:"textColor"`
}

func (r *hereResponse) toCTDF() []*ctdf.PlannedRoute {
	routes := make([]*ctdf.PlannedRoute, 0, len(r.Routes))

	for _, route := range r.Routes {
		planned := &ctdf.PlannedRoute{
			ID:       route.ID,
			Sections: make([]*ctdf.Section, 0, len(route.Sections)),
		}

		for _, section := range route.Sections {
			planned.Sections = append(planned.Sections, section.toCTDF())
		}

		routes = append(routes, planned)
	}

	return routes
}

func (s *hereSection) toCTDF() *ctdf.Section {
	section := &ctdf.Section{
		ID:            s.ID,
		Type:          s.Type,
		Departure:     s.Departure.toCTDF(),
		Arrival:       s.Arrival.toCTDF(),
		Polyline:      s.Polyline,
		TravelSummary: s.TravelSummary,
		Agency:        s.Agency,
	}

	if s.Transport != nil {
		section.Transport = &ctdf.SectionTransport{
			Mode:      NormaliseMode(s.Transport.Mode),
			Name:      s.Transport.Name,
			ShortName: s.Transport.ShortName,
			LongName:  s.Transport.LongName,
			Headsign:  s.Transport.Headsign,
			Category:  s.Transport.Category,
			Color:     s.Transport.Color,
			TextColor: s.Transport.TextColor,
		}
	}

	for _, stop := range s.IntermediateStops {
		section.IntermediateStops = append(section.IntermediateStops, stop.Departure.toCTDF())
	}

	return section
}

func (p herePlaceTime) toCTDF() ctdf.SectionPlace {
	return ctdf.SectionPlace{
		Time: p.Time,
		Place: ctdf.Place{
			Name:     p.Place.Name,
			Type:     p.Place.Type,
			Location: p.Place.Location,
		},
	}
}
