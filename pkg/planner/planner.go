package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
	"github.com/travigo/livetransit/pkg/cache"
	"github.com/travigo/livetransit/pkg/ctdf"
	"github.com/travigo/livetransit/pkg/polyline"
	"github.com/travigo/livetransit/pkg/routing"
	"github.com/travigo/livetransit/pkg/vehiclematch"
)

var ErrRouting = errors.New("routing provider failed")

// AllModesSnapshotKey is the vehicle snapshot key for every mode
const AllModesSnapshotKey = "mode:"

type RoutingProvider interface {
	Routes(ctx context.Context, query routing.Query) ([]*ctdf.PlannedRoute, error)
}

type VehicleSource interface {
	GetLiveVehicles(ctx context.Context, mode string) ([]ctdf.LiveVehicle, error)
}

type ReportSource interface {
	GetReportsWithin(ctx context.Context, box ctdf.BoundingBox) ([]ctdf.Report, error)
}

// Observer receives planner outcomes, normally the prometheus collector
type Observer interface {
	ObservePlannerRequest(outcome string)
	ObservePlannerResult(vehicleMatches int, fallback bool)
	ObserveDegraded(source string)
}

const (
	OutcomeOK           = "ok"
	OutcomeInvalid      = "invalid"
	OutcomeRoutingError = "routing_error"
)

type Options struct {
	Fallback    FallbackPolicy
	Modes       []ctdf.TransportMode
	SnapshotTTL time.Duration
	Clock       cache.Clock
	Observer    Observer

	// VehicleSnapshots lets the planner share live vehicle snapshots with other readers
	VehicleSnapshots *cache.TTL[[]ctdf.LiveVehicle]
}

// Planner plans routes with the routing provider and enriches them with live vehicles and reports.
// It is safe for concurrent use.
type Planner struct {
	routing  RoutingProvider
	vehicles VehicleSource
	reports  ReportSource

	fallback FallbackPolicy
	modes    []ctdf.TransportMode
	observer Observer

	vehicleSnapshots *cache.TTL[[]ctdf.LiveVehicle]
	reportSnapshots  *cache.TTL[[]ctdf.Report]

	validate *validator.Validate
}

func New(routingProvider RoutingProvider, vehicles VehicleSource, reports ReportSource, options Options) *Planner {
	if options.Fallback.MinRoutes <= 0 {
		options.Fallback = DefaultFallbackPolicy()
	}
	if len(options.Modes) == 0 {
		options.Modes = []ctdf.TransportMode{ctdf.TransportModeBus, ctdf.TransportModeTram}
	}

	if options.VehicleSnapshots == nil {
		options.VehicleSnapshots = cache.NewTTL[[]ctdf.LiveVehicle](options.SnapshotTTL, options.Clock)
	}

	return &Planner{
		routing:          routingProvider,
		vehicles:         vehicles,
		reports:          reports,
		fallback:         options.Fallback,
		modes:            options.Modes,
		observer:         options.Observer,
		vehicleSnapshots: options.VehicleSnapshots,
		reportSnapshots:  cache.NewTTL[[]ctdf.Report](options.SnapshotTTL, options.Clock),
		validate:         validator.New(),
	}
}

func (p *Planner) observeRequest(outcome string) {
	if p.observer != nil {
		p.observer.ObservePlannerRequest(outcome)
	}
}

func (p *Planner) Plan(ctx context.Context, request PlanRequest) (*PlanResponse, error) {
	if err := validateRequest(p.validate, &request); err != nil {
		p.observeRequest(OutcomeInvalid)
		return nil, err
	}
	request.applyDefaults()

	routes, hasPublicTransport, err := p.planRoutes(ctx, request)
	if err != nil {
		p.observeRequest(OutcomeRoutingError)
		return nil, err
	}

	decodeGeometry(routes)

	var vehicles []ctdf.LiveVehicle
	var reports []ctdf.Report

	var wg conc.WaitGroup
	wg.Go(func() {
		vehicles = p.liveVehicles(ctx)
	})
	wg.Go(func() {
		reports = p.reportsAlong(ctx, routes, request.MaxRadiusMeters*vehiclematch.VehicleReportRadiusFactor)
	})
	wg.Wait()

	annotated, summary := vehiclematch.Annotate(routes, vehicles, reports, request.MaxRadiusMeters)

	response := &PlanResponse{
		Routes: annotated,
		Summary: ResponseSummary{
			Summary:            summary,
			HasPublicTransport: hasPublicTransport,
			RouteType:          RouteTypePublicTransport,
		},
	}
	if !hasPublicTransport {
		response.Summary.RouteType = RouteTypeFallback
	}

	p.observeRequest(OutcomeOK)
	if p.observer != nil {
		p.observer.ObservePlannerResult(summary.VehicleMatches, !hasPublicTransport)
	}

	log.Debug().
		Int("routes", len(annotated)).
		Int("vehicleMatches", summary.VehicleMatches).
		Int("reports", summary.TotalReports).
		Str("routeType", response.Summary.RouteType).
		Msg("Planned vehicle matched routes")

	return response, nil
}

// planRoutes asks for public transport routes first and falls back to an unconstrained query
// when too few come back
func (p *Planner) planRoutes(ctx context.Context, request PlanRequest) ([]*ctdf.PlannedRoute, bool, error) {
	query := routing.Query{
		Origin:       request.Origin.LatLng(),
		Destination:  request.Destination.LatLng(),
		Alternatives: request.Alternatives,
		Modes:        p.modes,
	}

	routes, err := p.routing.Routes(ctx, query)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrRouting, err)
	}

	if !p.fallback.ShouldFallback(len(routes), request.Alternatives) {
		return routes, true, nil
	}

	log.Debug().
		Int("routes", len(routes)).
		Int("threshold", p.fallback.Threshold(request.Alternatives)).
		Msg("Too few public transport routes, using unconstrained routing")

	query.Modes = nil
	fallbackRoutes, err := p.routing.Routes(ctx, query)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrRouting, err)
	}

	return fallbackRoutes, false, nil
}

func decodeGeometry(routes []*ctdf.PlannedRoute) {
	for _, route := range routes {
		for _, section := range route.Sections {
			section.Geometry = []ctdf.LatLng{}
			if section.Polyline == "" {
				continue
			}

			geometry, err := polyline.Decode(section.Polyline)
			if err != nil {
				log.Warn().Err(err).Str("section", section.ID).Msg("Failed to decode section polyline")
				continue
			}
			section.Geometry = geometry
		}
	}
}

func (p *Planner) liveVehicles(ctx context.Context) []ctdf.LiveVehicle {
	if p.vehicles == nil {
		return nil
	}

	vehicles, err := p.vehicleSnapshots.Get(ctx, AllModesSnapshotKey, func(ctx context.Context) ([]ctdf.LiveVehicle, error) {
		return p.vehicles.GetLiveVehicles(ctx, "")
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to load live vehicles, continuing without them")
		p.observeDegraded("vehicles")
		return nil
	}

	return vehicles
}

// reportsAlong loads the reports inside the routes' bounding box grown by padding meters
func (p *Planner) reportsAlong(ctx context.Context, routes []*ctdf.PlannedRoute, padding float64) []ctdf.Report {
	if p.reports == nil {
		return nil
	}

	var points []ctdf.LatLng
	for _, route := range routes {
		for _, section := range route.Sections {
			points = append(points, section.Geometry...)
		}
	}

	box, ok := ctdf.NewBoundingBox(points)
	if !ok {
		return nil
	}
	box = box.Pad(padding)

	key := fmt.Sprintf("%.3f,%.3f,%.3f,%.3f", box.MinLat, box.MinLng, box.MaxLat, box.MaxLng)
	reports, err := p.reportSnapshots.Get(ctx, key, func(ctx context.Context) ([]ctdf.Report, error) {
		return p.reports.GetReportsWithin(ctx, box)
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to load reports, continuing without them")
		p.observeDegraded("reports")
		return nil
	}

	return reports
}

func (p *Planner) observeDegraded(source string) {
	if p.observer != nil {
		p.observer.ObserveDegraded(source)
	}
}
