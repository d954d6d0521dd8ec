package stats

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v8"
)

const LoadEventsIndexPattern = "livetransit-load-events-*"

// LoadRates is the share of successful ingestion loads per load name
type LoadRates struct {
	TotalLoads int                  `json:"totalLoads"`
	Loads      map[string]*LoadRate `json:"loads"`
}

type LoadRate struct {
	LastHourRate float64 `json:"lastHourRate"`
	LastDayRate  float64 `json:"lastDayRate"`
	LastWeekRate float64 `json:"lastWeekRate"`

	Rating string `json:"rating"`
}

type loadRateESResponse struct {
	Error map[string]interface{}

	Aggregations struct {
		Loads struct {
			Buckets []struct {
				Key      string
				DocCount int `json:"doc_count"`
				Success  struct {
					Buckets []struct {
						Key         int
						DocCount    int    `json:"doc_count"`
						KeyAsString string `json:"key_as_string"`
					}
				}
			}
		}
	}
}

func loadRateQuery(since string, dataSource string) map[string]interface{} {
	must := []map[string]interface{}{
		{
			"range": map[string]interface{}{
				"Timestamp": map[string]interface{}{
					"gte": since,
				},
			},
		},
	}

	if dataSource != "" {
		must = append(must, map[string]interface{}{
			"match": map[string]interface{}{
				"DataSource.keyword": dataSource,
			},
		})
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": must,
			},
		},
		"aggs": map[string]interface{}{
			"loads": map[string]interface{}{
				"terms": map[string]interface{}{
					"field": "Load.keyword",
					"size":  100,
				},
				"aggs": map[string]interface{}{
					"success": map[string]interface{}{
						"terms": map[string]interface{}{
							"field": "Success",
						},
					},
				},
			},
		},
	}
}

func searchLoadRates(ctx context.Context, client *elasticsearch.Client, since string, dataSource string) (*loadRateESResponse, error) {
	var queryBytes bytes.Buffer
	if err := json.NewEncoder(&queryBytes).Encode(loadRateQuery(since, dataSource)); err != nil {
		return nil, err
	}

	res, err := client.Search(
		client.Search.WithContext(ctx),
		client.Search.WithIndex(LoadEventsIndexPattern),
		client.Search.WithBody(&queryBytes),
		client.Search.WithSize(0),
	)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("load event search failed: %s", res.Status())
	}

	responseBytes, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	var response loadRateESResponse
	if err := json.Unmarshal(responseBytes, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

// successRates maps every load bucket to its share of successful documents
func successRates(response *loadRateESResponse) (map[string]float64, int) {
	rates := map[string]float64{}
	total := 0

	for _, load := range response.Aggregations.Loads.Buckets {
		total += load.DocCount
		if load.DocCount == 0 {
			continue
		}

		successCount := 0
		for _, bucket := range load.Success.Buckets {
			if bucket.KeyAsString == "true" {
				successCount = bucket.DocCount
			}
		}

		rates[load.Key] = float64(successCount) / float64(load.DocCount)
	}

	return rates, total
}

func rating(rate *LoadRate) string {
	switch {
	case rate.LastHourRate >= 0.95:
		return "PERFECT"
	case rate.LastHourRate >= 0.75:
		return "EXCELLENT"
	case rate.LastHourRate <= 0.5 && rate.LastDayRate >= 0.75:
		return "TEMPORARY-ISSUES"
	case rate.LastHourRate >= 0.6:
		return "GOOD"
	default:
		return "POOR"
	}
}

// GetLoadRates reads the indexed load events and works out success rates over the last hour, day and week
func GetLoadRates(ctx context.Context, client *elasticsearch.Client, dataSource string) (LoadRates, error) {
	loadRates := LoadRates{
		Loads: map[string]*LoadRate{},
	}

	windows := []struct {
		since string
		set   func(rate *LoadRate, value float64)
	}{
		{since: "now-1h", set: func(rate *LoadRate, value float64) { rate.LastHourRate = value }},
		{since: "now-1d", set: func(rate *LoadRate, value float64) { rate.LastDayRate = value }},
		{since: "now-7d", set: func(rate *LoadRate, value float64) { rate.LastWeekRate = value }},
	}

	for i, window := range windows {
		response, err := searchLoadRates(ctx, client, window.since, dataSource)
		if err != nil {
			return LoadRates{}, err
		}

		rates, total := successRates(response)
		if i == 0 {
			loadRates.TotalLoads = total
		}

		for load, value := range rates {
			if loadRates.Loads[load] == nil {
				loadRates.Loads[load] = &LoadRate{}
			}
			window.set(loadRates.Loads[load], value)
		}
	}

	for _, rate := range loadRates.Loads {
		rate.Rating = rating(rate)
	}

	return loadRates, nil
}
