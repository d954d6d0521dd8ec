package dataimporter

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/travigo/livetransit/pkg/ctdf"
	"github.com/travigo/livetransit/pkg/dataimporter/datasets"
)

var (
	ErrNoArchives = errors.New("no schedule archives could be loaded")
	ErrNoFeeds    = errors.New("no realtime feeds could be loaded")
)

// Store is the persistence the importer writes to. Every Replace call swaps the full
// contents of its table, clearing before inserting.
type Store interface {
	ReplaceRoutes(ctx context.Context, routes []ctdf.Route) error
	ReplaceTrips(ctx context.Context, trips []ctdf.Trip) error
	ReplaceVehiclePositions(ctx context.Context, vehicles []ctdf.VehiclePosition) error
	ReplaceTripUpdates(ctx context.Context, tripUpdates []ctdf.TripUpdate) error

	// GetTripRouteID returns an empty string when the trip is unknown
	GetTripRouteID(ctx context.Context, tripID string) (string, error)
	// GetRouteShortName returns an empty string when the route is unknown
	GetRouteShortName(ctx context.Context, routeID string) (string, error)
}

type Importer struct {
	Store      Store
	DataSource datasets.DataSource
	Fetcher    *Fetcher

	// Clock is used wherever the feed itself has no timestamp
	Clock func() time.Time
}

func NewImporter(store Store, dataSource datasets.DataSource, fetcher *Fetcher) *Importer {
	if fetcher == nil {
		fetcher = NewFetcher(DefaultFetchTimeout)
	}

	return &Importer{
		Store:      store,
		DataSource: dataSource,
		Fetcher:    fetcher,
		Clock:      time.Now,
	}
}

type LoadResult struct {
	Success bool   `json:"success"`
	Count   int    `json:"count"`
	Error   string `json:"error,omitempty"`
}

type ScheduleResult struct {
	Success    bool   `json:"success"`
	RouteCount int    `json:"routeCount"`
	TripCount  int    `json:"tripCount"`
	Error      string `json:"error,omitempty"`
}

func failedLoad(err error) LoadResult {
	return LoadResult{Success: false, Error: err.Error()}
}

type fetchedSource struct {
	dataset datasets.DataSet
	body    []byte
}

// fetchAll downloads every dataset of the format concurrently. Failed downloads are logged
// and left out, so one mode being unreachable never holds back the others.
func (i *Importer) fetchAll(ctx context.Context, format datasets.DataSetFormat) []fetchedSource {
	sources := i.DataSource.OfFormat(format)
	results := make([]*fetchedSource, len(sources))

	p := pool.New().WithMaxGoroutines(4)
	for index, dataset := range sources {
		p.Go(func() {
			startTime := time.Now()

			body, err := i.Fetcher.Fetch(ctx, dataset)
			if err != nil {
				log.Error().Err(err).Str("id", dataset.Identifier).Msg("Failed to download dataset")
				return
			}

			log.Debug().
				Str("id", dataset.Identifier).
				Int("bytes", len(body)).
				Str("duration", time.Since(startTime).String()).
				Msg("Downloaded dataset")

			results[index] = &fetchedSource{dataset: dataset, body: body}
		})
	}
	p.Wait()

	var fetched []fetchedSource
	for _, result := range results {
		if result != nil {
			fetched = append(fetched, *result)
		}
	}

	return fetched
}
