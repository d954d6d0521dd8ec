package vehiclematch

import (
	"strings"

	"github.com/travigo/livetransit/pkg/ctdf"
	"github.com/travigo/livetransit/pkg/util"
)

const (
	ConfidenceExactName   = 100
	ConfidencePartialName = 75
	ConfidenceHeadsign    = 60

	ReasonExactName   = "Exact route name match"
	ReasonPartialName = "Partial route name match"
	ReasonHeadsign    = "Headsign match"
)

// VehicleMatch is the live vehicle believed to be running a planned section
type VehicleMatch struct {
	Vehicle    *ctdf.LiveVehicle `json:"vehicle"`
	Confidence int               `json:"confidence"`
	Reason     string            `json:"reason"`
}

type matchTier struct {
	confidence int
	reason     string
	matches    func(vehicle *ctdf.LiveVehicle) bool
}

// FindVehicleForSection returns the best live vehicle for a transit section, or nil.
// Vehicles of a different mode are never considered. The first tier with a candidate wins,
// and inside a tier the earliest vehicle in the list wins.
func FindVehicleForSection(section *ctdf.Section, vehicles []ctdf.LiveVehicle) *VehicleMatch {
	if section == nil || section.Transport == nil {
		return nil
	}

	mode := section.Transport.Mode
	name := strings.TrimSpace(section.Transport.LineName())
	if mode == "" || name == "" {
		return nil
	}

	var candidates []*ctdf.LiveVehicle
	for i := range vehicles {
		if vehicles[i].Mode.Matches(mode) {
			candidates = append(candidates, &vehicles[i])
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	headsign := strings.TrimSpace(section.Transport.Headsign)

	tiers := []matchTier{
		{
			confidence: ConfidenceExactName,
			reason:     ReasonExactName,
			matches: func(vehicle *ctdf.LiveVehicle) bool {
				return strings.EqualFold(vehicle.RouteShortName, name)
			},
		},
		{
			confidence: ConfidencePartialName,
			reason:     ReasonPartialName,
			matches: func(vehicle *ctdf.LiveVehicle) bool {
				if vehicle.RouteShortName == "" {
					return false
				}
				return util.ContainsFold(vehicle.RouteShortName, name) || util.ContainsFold(name, vehicle.RouteShortName)
			},
		},
		{
			confidence: ConfidenceHeadsign,
			reason:     ReasonHeadsign,
			matches: func(vehicle *ctdf.LiveVehicle) bool {
				return headsign != "" && vehicle.RouteLongName != "" && util.ContainsFold(vehicle.RouteLongName, headsign)
			},
		},
	}

	for _, tier := range tiers {
		for _, candidate := range candidates {
			if tier.matches(candidate) {
				return &VehicleMatch{
					Vehicle:    candidate,
					Confidence: tier.confidence,
					Reason:     tier.reason,
				}
			}
		}
	}

	return nil
}
