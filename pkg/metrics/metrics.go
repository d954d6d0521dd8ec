package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	reg *prometheus.Registry

	LoadsTotal    *prometheus.CounterVec // load, result labels
	LoadDuration  *prometheus.HistogramVec
	LoadedRecords *prometheus.GaugeVec

	PlannerRequests     *prometheus.CounterVec // outcome label: ok|invalid|routing_error
	PlannerVehicleMatch prometheus.Counter
	PlannerFallbacks    prometheus.Counter
	PlannerDegraded     *prometheus.CounterVec // source label: vehicles|reports
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		LoadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "livetransit_loads_total",
			Help: "Ingestion loads run, by load and result.",
		}, []string{"load", "result"}),
		LoadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "livetransit_load_duration_seconds",
			Help:    "Duration of ingestion loads.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"load"}),
		LoadedRecords: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "livetransit_loaded_records",
			Help: "Records written by the last successful load.",
		}, []string{"load"}),
		PlannerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "livetransit_planner_requests_total",
			Help: "Vehicle matched route planning requests, by outcome.",
		}, []string{"outcome"}),
		PlannerVehicleMatch: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "livetransit_planner_vehicle_matches_total",
			Help: "Route sections matched to a live vehicle.",
		}),
		PlannerFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "livetransit_planner_fallbacks_total",
			Help: "Planning requests answered with unconstrained routes.",
		}),
		PlannerDegraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "livetransit_planner_degraded_total",
			Help: "Planning requests served without vehicles or reports because the source failed.",
		}, []string{"source"}),
	}

	reg.MustRegister(
		c.LoadsTotal, c.LoadDuration, c.LoadedRecords,
		c.PlannerRequests, c.PlannerVehicleMatch, c.PlannerFallbacks, c.PlannerDegraded,
		collectors.NewGoCollector(),
	)

	return c
}

// ObserveLoad records the outcome of one ingestion load
func (c *Collector) ObserveLoad(load string, success bool, count int, duration time.Duration) {
	result := "success"
	if !success {
		result = "failure"
	}

	c.LoadsTotal.WithLabelValues(load, result).Inc()
	c.LoadDuration.WithLabelValues(load).Observe(duration.Seconds())
	if success {
		c.LoadedRecords.WithLabelValues(load).Set(float64(count))
	}
}

func (c *Collector) ObservePlannerRequest(outcome string) {
	c.PlannerRequests.WithLabelValues(outcome).Inc()
}

func (c *Collector) ObservePlannerResult(vehicleMatches int, fallback bool) {
	c.PlannerVehicleMatch.Add(float64(vehicleMatches))
	if fallback {
		c.PlannerFallbacks.Inc()
	}
}

func (c *Collector) ObserveDegraded(source string) {
	c.PlannerDegraded.WithLabelValues(source).Inc()
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

func (c *Collector) Registry() *prometheus.Registry { return c.reg }
