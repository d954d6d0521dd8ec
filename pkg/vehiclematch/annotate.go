package vehiclematch

import (
	"github.com/travigo/livetransit/pkg/ctdf"
)

// Radius multipliers applied to the caller's base radius
const (
	NearbyVehicleRadiusFactor = 2
	VehicleReportRadiusFactor = 3
)

type AnnotatedRoute struct {
	ID       string             `json:"id"`
	Sections []AnnotatedSection `json:"sections"`
}

type AnnotatedSection struct {
	*ctdf.Section

	Transport      *AnnotatedTransport `json:"transport,omitempty"`
	NearbyVehicles []NearbyVehicle     `json:"nearbyVehicles"`
	NearbyReports  []NearbyReport      `json:"nearbyReports"`
}

type AnnotatedTransport struct {
	*ctdf.SectionTransport

	OurVehicleMatch *VehicleMatch `json:"ourVehicleMatch,omitempty"`
}

// Summary is the per request roll up of everything found along the routes
type Summary struct {
	TotalReports        int            `json:"totalReports"`
	ReportsByType       map[string]int `json:"reportsByType"`
	ReportsByStatus     map[string]int `json:"reportsByStatus"`
	VehicleMatches      int            `json:"vehicleMatches"`
	VehiclesWithReports int            `json:"vehiclesWithReports"`
}

// accumulator is folded over every section of every route.
// Reports and flagged vehicles are counted once even when several sections see them.
type accumulator struct {
	summary Summary

	seenReports  map[string]struct{}
	seenVehicles map[string]struct{}
}

func newAccumulator() accumulator {
	return accumulator{
		summary: Summary{
			ReportsByType:   map[string]int{},
			ReportsByStatus: map[string]int{},
		},
		seenReports:  map[string]struct{}{},
		seenVehicles: map[string]struct{}{},
	}
}

func (a accumulator) fold(section AnnotatedSection) accumulator {
	if section.Transport != nil && section.Transport.OurVehicleMatch != nil {
		a.summary.VehicleMatches++
	}

	for _, nearbyReport := range section.NearbyReports {
		if nearbyReport.ID != "" {
			if _, seen := a.seenReports[nearbyReport.ID]; seen {
				continue
			}
			a.seenReports[nearbyReport.ID] = struct{}{}
		}

		a.summary.TotalReports++
		a.summary.ReportsByType[groupKey(nearbyReport.Type)]++
		a.summary.ReportsByStatus[groupKey(nearbyReport.Status)]++
	}

	for _, nearbyVehicle := range section.NearbyVehicles {
		if !nearbyVehicle.HasRecentReports {
			continue
		}
		if _, seen := a.seenVehicles[nearbyVehicle.VehicleID]; seen {
			continue
		}
		a.seenVehicles[nearbyVehicle.VehicleID] = struct{}{}
		a.summary.VehiclesWithReports++
	}

	return a
}

func groupKey(value string) string {
	if value == "" {
		return "unknown"
	}

	return value
}

// AnnotateSection runs the vehicle match, nearby vehicle and nearby report searches for one section
func AnnotateSection(section *ctdf.Section, vehicles []ctdf.LiveVehicle, reports []ctdf.Report, baseRadius float64) AnnotatedSection {
	annotated := AnnotatedSection{
		Section:        section,
		NearbyVehicles: []NearbyVehicle{},
		NearbyReports:  []NearbyReport{},
	}

	if section.Transport != nil {
		annotated.Transport = &AnnotatedTransport{
			SectionTransport: section.Transport,
			OurVehicleMatch:  FindVehicleForSection(section, vehicles),
		}
	}

	annotated.NearbyVehicles = FindNearbyVehicles(section.Geometry, vehicles, baseRadius*NearbyVehicleRadiusFactor)
	for i := range annotated.NearbyVehicles {
		nearbyVehicle := &annotated.NearbyVehicles[i]

		nearbyVehicle.Reports = ReportsNearVehicle(&nearbyVehicle.VehiclePosition, reports, baseRadius*VehicleReportRadiusFactor)
		nearbyVehicle.HasRecentReports = len(nearbyVehicle.Reports) > 0
	}

	annotated.NearbyReports = FindNearbyReports(section.Geometry, reports, baseRadius)

	return annotated
}

// Annotate enriches every section of every route and returns the summary of the whole set
func Annotate(routes []*ctdf.PlannedRoute, vehicles []ctdf.LiveVehicle, reports []ctdf.Report, baseRadius float64) ([]AnnotatedRoute, Summary) {
	acc := newAccumulator()
	annotatedRoutes := make([]AnnotatedRoute, 0, len(routes))

	for _, route := range routes {
		annotatedRoute := AnnotatedRoute{
			ID:       route.ID,
			Sections: make([]AnnotatedSection, 0, len(route.Sections)),
		}

		for _, section := range route.Sections {
			annotatedSection := AnnotateSection(section, vehicles, reports, baseRadius)

			acc = acc.fold(annotatedSection)
			annotatedRoute.Sections = append(annotatedRoute.Sections, annotatedSection)
		}

		annotatedRoutes = append(annotatedRoutes, annotatedRoute)
	}

	return annotatedRoutes, acc.summary
}
