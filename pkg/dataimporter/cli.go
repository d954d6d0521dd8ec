package dataimporter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/livetransit/pkg/consumer"
	"github.com/travigo/livetransit/pkg/database"
	"github.com/travigo/livetransit/pkg/dataimporter/datasets"
	"github.com/travigo/livetransit/pkg/elastic_client"
	"github.com/travigo/livetransit/pkg/metrics"
	"github.com/travigo/livetransit/pkg/redis_client"
	"github.com/urfave/cli/v2"

	_ "time/tzdata"
)

var dataSourceFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "datasource",
		Value: "pl-krakow-ztp",
		Usage: "ID of the datasource to ingest",
	},
	&cli.StringFlag{
		Name:  "datasources",
		Value: "data/datasources",
		Usage: "directory holding the datasource definitions",
	},
	&cli.DurationFlag{
		Name:    "fetch-timeout",
		Value:   DefaultFetchTimeout,
		Usage:   "timeout for each feed or archive download",
		EnvVars: []string{"TRAVIGO_FETCH_TIMEOUT"},
	},
}

func newImporterFromFlags(c *cli.Context) (*Importer, error) {
	dataSource, err := datasets.GetDataSource(c.String("datasources"), c.String("datasource"))
	if err != nil {
		return nil, err
	}

	store := database.NewStore(database.MongoGlobalInstance.Database)

	return NewImporter(store, dataSource, NewFetcher(c.Duration("fetch-timeout"))), nil
}

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "ingest",
		Usage: "Download GTFS schedules and realtime feeds into the live tables",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run the scheduled ingestion loop",
				Flags: append([]cli.Flag{
					&cli.DurationFlag{
						Name:    "realtime-interval",
						Value:   DefaultRealtimeInterval,
						Usage:   "how often vehicle positions and trip updates are refreshed",
						EnvVars: []string{"TRAVIGO_REALTIME_INTERVAL"},
					},
					&cli.DurationFlag{
						Name:    "static-interval",
						Value:   DefaultStaticInterval,
						Usage:   "how often the GTFS schedule is reloaded",
						EnvVars: []string{"TRAVIGO_STATIC_INTERVAL"},
					},
					&cli.StringFlag{
						Name:  "stats-listen",
						Value: ":3333",
						Usage: "listen target for the stats, health and metrics server",
					},
				}, dataSourceFlags...),
				Action: func(c *cli.Context) error {
					if err := database.Connect(); err != nil {
						return err
					}
					if err := elastic_client.Connect(false); err != nil {
						return err
					}

					importer, err := newImporterFromFlags(c)
					if err != nil {
						return err
					}

					collector := metrics.NewCollector()

					scheduler := NewScheduler(importer)
					scheduler.RealtimeInterval = c.Duration("realtime-interval")
					scheduler.StaticInterval = c.Duration("static-interval")
					scheduler.Observers = []CycleObserver{
						collector,
						&ElasticEventObserver{DataSource: importer.DataSource.Identifier},
					}

					ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
					defer stop()

					healthChecks := map[string]consumer.HealthCheck{
						"mongodb": database.Ping,
					}

					mux := http.NewServeMux()
					mux.Handle("/metrics", collector.Handler())

					if err := redis_client.Connect(); err != nil {
						log.Warn().Err(err).Msg("Redis unavailable, manual refresh requests are disabled")
					} else {
						refreshConsumer := &consumer.RedisConsumer{
							QueueName:       RefreshQueueName,
							NumberConsumers: 1,
							BatchSize:       1,
							Timeout:         1 * time.Second,
							Consumer:        NewRefreshConsumer(scheduler),
						}
						if _, err := refreshConsumer.Setup(redis_client.QueueConnection); err != nil {
							return err
						}
						go consumer.RunCleaner(ctx, redis_client.QueueConnection, consumer.DefaultCleanInterval)

						healthChecks["redis"] = func(ctx context.Context) error {
							return redis_client.Client.Ping(ctx).Err()
						}
						mux.Handle("/ingest-stats/overview", consumer.NewStatsHandler(redis_client.QueueConnection))
					}
					mux.Handle("/health", consumer.NewHealthHandler(healthChecks))

					statsServer := &http.Server{Addr: c.String("stats-listen"), Handler: mux}
					go func() {
						if err := statsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
							log.Error().Err(err).Msg("Stats server stopped")
						}
					}()

					go func() {
						<-ctx.Done()
						signals := make(chan os.Signal, 1)
						signal.Notify(signals, syscall.SIGINT)
						<-signals // hard exit on second signal (in case shutdown gets stuck)
						os.Exit(1)
					}()

					err = scheduler.Run(ctx)

					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					statsServer.Shutdown(shutdownCtx)

					if redis_client.QueueConnection != nil {
						<-redis_client.QueueConnection.StopAllConsuming() // wait for all Consume() calls to finish
					}
					elastic_client.WaitUntilQueueEmpty()

					return err
				},
			},
			{
				Name:  "once",
				Usage: "run a single static or realtime load and exit",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "kind",
						Usage:    "static or realtime",
						Required: true,
					},
				}, dataSourceFlags...),
				Action: func(c *cli.Context) error {
					kind := RefreshKind(c.String("kind"))
					if !kind.Valid() {
						return fmt.Errorf("unknown refresh kind %q", kind)
					}

					if err := database.Connect(); err != nil {
						return err
					}

					importer, err := newImporterFromFlags(c)
					if err != nil {
						return err
					}

					scheduler := NewScheduler(importer)
					startTime := time.Now()

					switch kind {
					case RefreshStatic:
						result, _ := scheduler.RunStaticCycle(c.Context)
						if !result.Success {
							return errors.New(result.Error)
						}
					case RefreshRealtime:
						result, _ := scheduler.RunRealtimeCycle(c.Context)
						if !result.VehiclePositions.Success && !result.TripUpdates.Success {
							return errors.New("both realtime loads failed")
						}
					}

					log.Info().Msgf("Operation took %s", time.Since(startTime).String())

					return nil
				},
			},
			{
				Name:  "request",
				Usage: "ask a running ingestion loop to refresh now",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "kind",
						Usage:    "static or realtime",
						Required: true,
					},
				},
				Action: func(c *cli.Context) error {
					if err := redis_client.Connect(); err != nil {
						return err
					}

					queue, err := redis_client.QueueConnection.OpenQueue(RefreshQueueName)
					if err != nil {
						return err
					}

					kind := RefreshKind(c.String("kind"))
					if err := PublishRefreshRequest(queue, kind); err != nil {
						return err
					}

					log.Info().Str("kind", string(kind)).Msg("Published refresh request")

					return nil
				},
			},
		},
	}
}
