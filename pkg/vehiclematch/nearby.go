package vehiclematch

import (
	"math"

	"github.com/travigo/livetransit/pkg/ctdf"
	"golang.org/x/exp/slices"
)

const ReasonNearRoute = "Vehicle near route"

// NearbyVehicle is a live vehicle close to a section's geometry
type NearbyVehicle struct {
	ctdf.LiveVehicle

	Distance   int    `json:"distance"`
	Confidence int    `json:"confidence"`
	Reason     string `json:"reason"`

	HasRecentReports bool          `json:"hasRecentReports"`
	Reports          []ctdf.Report `json:"reports,omitempty"`
}

// NearbyReport is a report close to a section's geometry
type NearbyReport struct {
	ctdf.Report

	Distance int `json:"distance"`
}

// proximityConfidence falls linearly from 90 at the geometry to 50 at the radius
func proximityConfidence(distance int, radius float64) int {
	if radius <= 0 {
		return 0
	}

	confidence := 90 - (float64(distance)/radius)*40
	confidence = math.Max(0, math.Min(100, confidence))

	return int(math.Round(confidence))
}

// FindNearbyVehicles returns every vehicle within radius meters of any geometry vertex,
// highest confidence first. The radius boundary is inclusive.
func FindNearbyVehicles(geometry []ctdf.LatLng, vehicles []ctdf.LiveVehicle, radius float64) []NearbyVehicle {
	nearby := []NearbyVehicle{}
	if len(geometry) == 0 {
		return nearby
	}

	for _, vehicle := range vehicles {
		distance, ok := ctdf.DistanceToGeometry(vehicle.LatLng(), geometry)
		if !ok || distance > radius {
			continue
		}

		rounded := int(math.Round(distance))

		nearby = append(nearby, NearbyVehicle{
			LiveVehicle: vehicle,
			Distance:    rounded,
			Confidence:  proximityConfidence(rounded, radius),
			Reason:      ReasonNearRoute,
		})
	}

	slices.SortStableFunc(nearby, func(a, b NearbyVehicle) int {
		return b.Confidence - a.Confidence
	})

	return nearby
}

// FindNearbyReports returns the located reports within radius meters of any geometry vertex, nearest first
func FindNearbyReports(geometry []ctdf.LatLng, reports []ctdf.Report, radius float64) []NearbyReport {
	type candidate struct {
		report   ctdf.Report
		distance float64
	}

	nearby := []NearbyReport{}
	if len(geometry) == 0 {
		return nearby
	}

	var candidates []candidate
	for _, report := range reports {
		if !report.HasLocation() {
			continue
		}

		distance, ok := ctdf.DistanceToGeometry(report.Location.LatLng(), geometry)
		if !ok || distance > radius {
			continue
		}

		candidates = append(candidates, candidate{report: report, distance: distance})
	}

	slices.SortStableFunc(candidates, func(a, b candidate) int {
		switch {
		case a.distance < b.distance:
			return -1
		case a.distance > b.distance:
			return 1
		default:
			return 0
		}
	})

	for _, c := range candidates {
		nearby = append(nearby, NearbyReport{
			Report:   c.report,
			Distance: int(math.Round(c.distance)),
		})
	}

	return nearby
}

// ReportsNearVehicle returns the located reports within radius meters of the vehicle
func ReportsNearVehicle(vehicle *ctdf.VehiclePosition, reports []ctdf.Report, radius float64) []ctdf.Report {
	var near []ctdf.Report

	for _, report := range reports {
		if report.HasLocation() && ctdf.Distance(vehicle.LatLng(), report.Location.LatLng()) <= radius {
			near = append(near, report)
		}
	}

	return near
}

// HasRecentReports reports whether any located report is within radius meters of the vehicle
func HasRecentReports(vehicle *ctdf.VehiclePosition, reports []ctdf.Report, radius float64) bool {
	for _, report := range reports {
		if report.HasLocation() && ctdf.Distance(vehicle.LatLng(), report.Location.LatLng()) <= radius {
			return true
		}
	}

	return false
}
