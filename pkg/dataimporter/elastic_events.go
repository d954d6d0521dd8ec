package dataimporter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/livetransit/pkg/elastic_client"
)

type LoadElasticEvent struct {
	Timestamp time.Time

	DataSource string
	Load       string

	Success  bool
	Count    int
	Duration float64
}

// ElasticEventObserver indexes every load into a weekly Elasticsearch index
type ElasticEventObserver struct {
	DataSource string
}

func (o *ElasticEventObserver) ObserveLoad(load string, success bool, count int, duration time.Duration) {
	if !elastic_client.Enabled() {
		return
	}

	currentTime := time.Now()
	yearNumber, weekNumber := currentTime.ISOWeek()
	indexName := fmt.Sprintf("livetransit-load-events-%d-%d", yearNumber, weekNumber)

	elasticEvent, err := json.Marshal(LoadElasticEvent{
		Timestamp:  currentTime,
		DataSource: o.DataSource,
		Load:       load,
		Success:    success,
		Count:      count,
		Duration:   duration.Seconds(),
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode load event")
		return
	}

	elastic_client.IndexRequest(indexName, bytes.NewReader(elasticEvent))
}
