package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shelf"

// Collector holds the Prometheus metrics for the service.
// Each instance owns its registry, so tests can build as many as they like.
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Enrichment metrics
	EnrichOutcomes   *prometheus.CounterVec
	FetchDuration    prometheus.Histogram
	DispatchDropped  prometheus.Counter
	DispatchInFlight prometheus.Gauge
}

// New creates a collector with its own registry.
func New() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		EnrichOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "enrich_outcomes_total",
				Help:      "Enrichment attempts by trigger and outcome",
			},
			[]string{"trigger", "outcome"},
		),
		FetchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "ogp_fetch_duration_seconds",
				Help:      "Time spent fetching page metadata",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
		),
		DispatchDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "enrich_dispatch_dropped_total",
				Help:      "Immediate dispatches dropped because the queue was full",
			},
		),
		DispatchInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "enrich_in_flight",
				Help:      "Enrichment tasks currently running",
			},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.EnrichOutcomes,
		c.FetchDuration,
		c.DispatchDropped,
		c.DispatchInFlight,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one served request.
func (c *Collector) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, statusClass(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveEnrich records the outcome of one enrichment attempt.
func (c *Collector) ObserveEnrich(trigger, outcome string) {
	if c == nil {
		return
	}
	c.EnrichOutcomes.WithLabelValues(trigger, outcome).Inc()
}

// ObserveFetch records how long one metadata fetch took.
func (c *Collector) ObserveFetch(elapsed time.Duration) {
	if c == nil {
		return
	}
	c.FetchDuration.Observe(elapsed.Seconds())
}

// DispatchDrop counts an immediate dispatch that found the queue full.
func (c *Collector) DispatchDrop() {
	if c == nil {
		return
	}
	c.DispatchDropped.Inc()
}

// TaskStarted and TaskDone track running enrichment tasks.
func (c *Collector) TaskStarted() {
	if c == nil {
		return
	}
	c.DispatchInFlight.Inc()
}

func (c *Collector) TaskDone() {
	if c == nil {
		return
	}
	c.DispatchInFlight.Dec()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
