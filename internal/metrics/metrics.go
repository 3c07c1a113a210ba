// Package metrics exposes Prometheus metrics for the diagnosis hub.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application. Each collector
// owns its registry so tests can build as many as they like.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Remote source metrics
	SourceRequests *prometheus.CounterVec
	SourceDuration *prometheus.HistogramVec

	// Snapshot cache metrics
	SnapshotHits   prometheus.Counter
	SnapshotMisses prometheus.Counter

	// MCP tool metrics
	ToolInvocations *prometheus.CounterVec
}

// NewCollector creates a new metrics collector with the given namespace
func NewCollector(namespace string) *Collector {
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
		SourceRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "source_requests_total",
				Help:      "Total number of calls to remote diagnosis sources",
			},
			[]string{"source", "operation", "status"},
		),
		SourceDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "source_request_duration_seconds",
				Help:      "Remote diagnosis source call duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"source", "operation"},
		),
		SnapshotHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "snapshot_cache_hits_total",
				Help:      "Total number of merged snapshot cache hits",
			},
		),
		SnapshotMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "snapshot_cache_misses_total",
				Help:      "Total number of merged snapshot cache misses",
			},
		),
		ToolInvocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mcp_tool_invocations_total",
				Help:      "Total number of MCP tool calls",
			},
			[]string{"tool", "status"},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.SourceRequests,
		c.SourceDuration,
		c.SnapshotHits,
		c.SnapshotMisses,
		c.ToolInvocations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// ObserveSourceRequest records one remote source call.
func (c *Collector) ObserveSourceRequest(source, operation, status string, d time.Duration) {
	c.SourceRequests.WithLabelValues(source, operation, status).Inc()
	c.SourceDuration.WithLabelValues(source, operation).Observe(d.Seconds())
}

// ObserveSnapshotLookup records a snapshot cache lookup.
func (c *Collector) ObserveSnapshotLookup(hit bool) {
	if hit {
		c.SnapshotHits.Inc()
		return
	}
	c.SnapshotMisses.Inc()
}

// ObserveHTTPRequest records one served HTTP request. route is the matched
// route template, not the raw path.
func (c *Collector) ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveToolCall records one MCP tool invocation.
func (c *Collector) ObserveToolCall(tool string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	c.ToolInvocations.WithLabelValues(tool, status).Inc()
}

// Registry returns the Prometheus registry for this collector
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
