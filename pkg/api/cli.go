package api

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/travigo/livetransit/pkg/cache"
	"github.com/travigo/livetransit/pkg/ctdf"
	"github.com/travigo/livetransit/pkg/database"
	"github.com/travigo/livetransit/pkg/dataimporter/datasets"
	"github.com/travigo/livetransit/pkg/elastic_client"
	"github.com/travigo/livetransit/pkg/metrics"
	"github.com/travigo/livetransit/pkg/planner"
	"github.com/travigo/livetransit/pkg/redis_client"
	"github.com/travigo/livetransit/pkg/routing"
	"github.com/travigo/livetransit/pkg/stats"
	"github.com/travigo/livetransit/pkg/util"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "web-api",
		Usage: "Provides the core web API",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run web api server",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Value: ":8080",
						Usage: "listen target for the web server",
					},
					&cli.StringFlag{
						Name:  "datasources",
						Value: "data/datasources",
						Usage: "directory holding the datasource definitions",
					},
					&cli.IntFlag{
						Name:  "fallback-min-routes",
						Value: planner.DefaultFallbackMinRoutes,
						Usage: "use unconstrained routing when fewer public transport routes than this come back",
					},
				},
				Action: func(c *cli.Context) error {
					if err := database.Connect(); err != nil {
						return err
					}
					if err := elastic_client.Connect(false); err != nil {
						return err
					}

					dataSources, err := datasets.LoadDataSources(c.String("datasources"))
					if err != nil {
						return err
					}

					hereClient, err := routing.NewHereClientFromEnvironment()
					if err != nil {
						return err
					}

					var routingProvider planner.RoutingProvider = hereClient
					if err := redis_client.Connect(); err != nil {
						log.Warn().Err(err).Msg("Redis unavailable, routing responses will not be cached")
					} else {
						routingProvider = routing.NewCachedProvider(hereClient, redis_client.Client, routing.DefaultCacheExpiration)
					}

					env := util.GetEnvironmentVariables()
					snapshotTTL := util.GetEnvironmentDuration(env, "TRAVIGO_SNAPSHOT_TTL", cache.DefaultTTL)
					fallbackMinRoutes := c.Int("fallback-min-routes")
					if !c.IsSet("fallback-min-routes") {
						fallbackMinRoutes = util.GetEnvironmentInt(env, "TRAVIGO_FALLBACK_MIN_ROUTES", fallbackMinRoutes)
					}

					store := database.NewStore(database.MongoGlobalInstance.Database)
					collector := metrics.NewCollector()
					vehicleSnapshots := cache.NewTTL[[]ctdf.LiveVehicle](snapshotTTL, nil)

					routePlanner := planner.New(routingProvider, store, store, planner.Options{
						Fallback:         planner.FallbackPolicy{MinRoutes: fallbackMinRoutes},
						SnapshotTTL:      snapshotTTL,
						Observer:         collector,
						VehicleSnapshots: vehicleSnapshots,
					})

					server := &Server{
						Planner:          routePlanner,
						Store:            store,
						DataSources:      dataSources,
						Metrics:          collector,
						VehicleSnapshots: vehicleSnapshots,
						StatsSnapshots:   cache.NewTTL[map[string]int64](snapshotTTL, nil),
					}
					if elastic_client.Enabled() {
						server.LoadRates = func(ctx context.Context) (stats.LoadRates, error) {
							return stats.GetLoadRates(ctx, elastic_client.Client, "")
						}
					}

					log.Info().Str("listen", c.String("listen")).Msg("Starting web API")

					return server.Listen(c.String("listen"))
				},
			},
		},
	}
}
