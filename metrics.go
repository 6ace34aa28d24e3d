package issuehub

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects gateway operational metrics on a private registry.
type Metrics struct {
	registry         *prometheus.Registry
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	graphqlRequests  *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "issuehub",
			Name:      "upstream_requests_total",
			Help:      "Upstream GraphQL operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "issuehub",
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream round-trip latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		graphqlRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "issuehub",
			Name:      "graphql_requests_total",
			Help:      "Inbound GraphQL requests by result.",
		}, []string{"status"}),
	}
	m.registry.MustRegister(
		m.upstreamRequests,
		m.upstreamDuration,
		m.graphqlRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveUpstream implements upstream.Observer. Calls rejected before
// reaching the network report a zero duration and are not timed.
func (m *Metrics) ObserveUpstream(operation, outcome string, dur time.Duration) {
	m.upstreamRequests.WithLabelValues(operation, outcome).Inc()
	if dur > 0 {
		m.upstreamDuration.WithLabelValues(operation).Observe(dur.Seconds())
	}
}

// RecordGraphQL counts one inbound request. status is "ok" or "error".
func (m *Metrics) RecordGraphQL(status string) {
	m.graphqlRequests.WithLabelValues(status).Inc()
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
