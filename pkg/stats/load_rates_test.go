package stats

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loadRatesResponse = `{
  "took": 3,
  "hits": {"total": {"value": 10, "relation": "eq"}, "hits": []},
  "aggregations": {
    "loads": {
      "buckets": [
        {
          "key": "vehicle-positions",
          "doc_count": 8,
          "success": {"buckets": [
            {"key": 1, "key_as_string": "true", "doc_count": 6},
            {"key": 0, "key_as_string": "false", "doc_count": 2}
          ]}
        },
        {
          "key": "schedule",
          "doc_count": 2,
          "success": {"buckets": [
            {"key": 1, "key_as_string": "true", "doc_count": 2}
          ]}
        }
      ]
    }
  }
}`

func TestSuccessRates(t *testing.T) {
	var response loadRateESResponse
	require.NoError(t, json.Unmarshal([]byte(loadRatesResponse), &response))

	rates, total := successRates(&response)

	assert.Equal(t, 10, total)
	assert.InDelta(t, 0.75, rates["vehicle-positions"], 1e-9)
	assert.InDelta(t, 1.0, rates["schedule"], 1e-9)
}

func TestRating(t *testing.T) {
	assert.Equal(t, "PERFECT", rating(&LoadRate{LastHourRate: 1}))
	assert.Equal(t, "EXCELLENT", rating(&LoadRate{LastHourRate: 0.8}))
	assert.Equal(t, "TEMPORARY-ISSUES", rating(&LoadRate{LastHourRate: 0.2, LastDayRate: 0.9}))
	assert.Equal(t, "GOOD", rating(&LoadRate{LastHourRate: 0.65}))
	assert.Equal(t, "POOR", rating(&LoadRate{LastHourRate: 0.2, LastDayRate: 0.2}))
}

func TestGetLoadRates(t *testing.T) {
	var searchedPaths []string
	var sawDataSourceFilter bool

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")

		searchedPaths = append(searchedPaths, r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		if strings.Contains(string(body), "pl-krakow-ztp") {
			sawDataSourceFilter = true
		}

		w.Write([]byte(loadRatesResponse))
	}))
	defer server.Close()

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{server.URL}})
	require.NoError(t, err)

	rates, err := GetLoadRates(context.Background(), client, "pl-krakow-ztp")
	require.NoError(t, err)

	require.Len(t, searchedPaths, 3)
	assert.Equal(t, "/"+LoadEventsIndexPattern+"/_search", searchedPaths[0])
	assert.True(t, sawDataSourceFilter)

	assert.Equal(t, 10, rates.TotalLoads)
	require.Contains(t, rates.Loads, "vehicle-positions")
	assert.InDelta(t, 0.75, rates.Loads["vehicle-positions"].LastWeekRate, 1e-9)
	assert.Equal(t, "EXCELLENT", rates.Loads["vehicle-positions"].Rating)
	assert.Equal(t, "PERFECT", rates.Loads["schedule"].Rating)
}
