package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/travigo/livetransit/pkg/api/routes"
	"github.com/travigo/livetransit/pkg/cache"
	"github.com/travigo/livetransit/pkg/ctdf"
	"github.com/travigo/livetransit/pkg/dataimporter/datasets"
	"github.com/travigo/livetransit/pkg/metrics"
)

// Store is everything the API reads from the database
type Store interface {
	routes.VehicleSource
	routes.TripUpdateSource
	routes.ReportSource
	routes.RecordCounter
}

type Server struct {
	Planner     routes.Planner
	Store       Store
	DataSources []datasets.DataSource
	Metrics     *metrics.Collector

	// VehicleSnapshots is shared with the planner so both read the same live vehicle snapshot
	VehicleSnapshots *cache.TTL[[]ctdf.LiveVehicle]
	StatsSnapshots   *cache.TTL[map[string]int64]

	LoadRates routes.LoadRatesSource
}

func (s *Server) App() *fiber.App {
	webApp := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	webApp.Use(NewLogger())

	if s.VehicleSnapshots == nil {
		s.VehicleSnapshots = cache.NewTTL[[]ctdf.LiveVehicle](cache.DefaultTTL, nil)
	}
	if s.StatsSnapshots == nil {
		s.StatsSnapshots = cache.NewTTL[map[string]int64](cache.DefaultTTL, nil)
	}

	if s.Metrics != nil {
		webApp.Get("/metrics", adaptor.HTTPHandler(s.Metrics.Handler()))
	}

	group := webApp.Group("/core")

	group.Get("version", routes.APIVersion)

	routes.PlannerRouter(group.Group("/planner"), s.Planner)
	routes.VehiclesRouter(group.Group("/vehicles"), s.Store, s.VehicleSnapshots)
	routes.TripUpdatesRouter(group.Group("/trip_updates"), s.Store)
	routes.ReportsRouter(group.Group("/reports"), s.Store)
	routes.DatasourcesRouter(group.Group("/datasources"), s.DataSources)
	routes.StatsRouter(group.Group("/stats"), s.Store, s.StatsSnapshots, s.LoadRates)

	return webApp
}

func (s *Server) Listen(listen string) error {
	return s.App().Listen(listen)
}
