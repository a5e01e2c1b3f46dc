// Package metrics exposes Prometheus counters for the client core.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the core components report to
type Recorder interface {
	RecordGateDecision(decision string)
	RecordAggregate(outcome string, duration time.Duration)
	RecordResourceFailure(resource, kind string)
	RecordConversion(source string)
	RecordAPIResponse(endpoint string, statusCode int, duration time.Duration)
	RecordSessionEvent(event string)
}

// Nop discards every measurement
type Nop struct{}

func (Nop) RecordGateDecision(string)                    {}
func (Nop) RecordAggregate(string, time.Duration)        {}
func (Nop) RecordResourceFailure(string, string)         {}
func (Nop) RecordConversion(string)                      {}
func (Nop) RecordAPIResponse(string, int, time.Duration) {}
func (Nop) RecordSessionEvent(string)                    {}

// Collector is the Prometheus implementation of Recorder
type Collector struct {
	gateDecisions    *prometheus.CounterVec
	aggregates       *prometheus.CounterVec
	aggregateLatency prometheus.Histogram
	resourceFailures *prometheus.CounterVec
	conversions      *prometheus.CounterVec
	apiResponses     *prometheus.CounterVec
	apiLatency       *prometheus.HistogramVec
	sessionEvents    *prometheus.CounterVec
}

var _ Recorder = (*Collector)(nil)

// NewCollector creates a Collector and registers it with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		gateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alkansya_gate_decisions_total",
			Help: "Session gate decisions by result",
		}, []string{"decision"}),
		aggregates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alkansya_aggregate_outcomes_total",
			Help: "Aggregated fetches by overall outcome",
		}, []string{"outcome"}),
		aggregateLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "alkansya_aggregate_duration_seconds",
			Help:    "Wall time until every sub-fetch settled",
			Buckets: prometheus.DefBuckets,
		}),
		resourceFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alkansya_resource_failures_total",
			Help: "Failed sub-fetches by resource and failure kind",
		}, []string{"resource", "kind"}),
		conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alkansya_conversions_total",
			Help: "Currency conversions by rate source",
		}, []string{"source"}),
		apiResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alkansya_api_responses_total",
			Help: "Remote API responses by endpoint and status code",
		}, []string{"endpoint", "status_code"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "alkansya_api_latency_seconds",
			Help:    "Remote API latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		sessionEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alkansya_session_events_total",
			Help: "Session lifecycle events",
		}, []string{"event"}),
	}

	reg.MustRegister(
		c.gateDecisions,
		c.aggregates,
		c.aggregateLatency,
		c.resourceFailures,
		c.conversions,
		c.apiResponses,
		c.apiLatency,
		c.sessionEvents,
	)

	return c
}

func (c *Collector) RecordGateDecision(decision string) {
	c.gateDecisions.WithLabelValues(decision).Inc()
}

func (c *Collector) RecordAggregate(outcome string, duration time.Duration) {
	c.aggregates.WithLabelValues(outcome).Inc()
	c.aggregateLatency.Observe(duration.Seconds())
}

func (c *Collector) RecordResourceFailure(resource, kind string) {
	c.resourceFailures.WithLabelValues(resource, kind).Inc()
}

func (c *Collector) RecordConversion(source string) {
	c.conversions.WithLabelValues(source).Inc()
}

// RecordAPIResponse records a response; statusCode 0 means the request never got one
func (c *Collector) RecordAPIResponse(endpoint string, statusCode int, duration time.Duration) {
	c.apiResponses.WithLabelValues(endpoint, strconv.Itoa(statusCode)).Inc()
	c.apiLatency.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (c *Collector) RecordSessionEvent(event string) {
	c.sessionEvents.WithLabelValues(event).Inc()
}

// Handler returns the Prometheus scrape handler
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
