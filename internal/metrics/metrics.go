// Package metrics exposes Prometheus instrumentation for the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the collectors the service records into.
type Metrics struct {
	registry *prometheus.Registry

	UpstreamRequests *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
	FetchOutcomes    *prometheus.CounterVec
	Suggestions      *prometheus.CounterVec
}

// Default is the instance the running service records into. Tests build
// their own with New to keep counters isolated.
var Default = New()

// New creates a Metrics instance backed by its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		UpstreamRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cvelens_upstream_requests_total",
			Help: "Upstream database requests by source and outcome.",
		}, []string{"source", "outcome"}),
		UpstreamDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cvelens_upstream_request_duration_seconds",
			Help:    "Latency of upstream database requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		FetchOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cvelens_fetch_outcomes_total",
			Help: "Identifiers processed by final outcome.",
		}, []string{"outcome"}),
		Suggestions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cvelens_suggestions_total",
			Help: "AI remediation lookups by result.",
		}, []string{"result"}),
	}
}

// Handler serves the collected metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
