// Package observability holds Prometheus metrics for the logs service.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "logsprovider"

// Metrics implements the provider and notify metrics hooks.
type Metrics struct {
	registry      *prometheus.Registry
	queries       *prometheus.CounterVec
	rejected      *prometheus.CounterVec
	notifications prometheus.Counter
}

// NewMetrics registers the service collectors on a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Read queries by address kind and outcome.",
		}, []string{"kind", "outcome"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_operations_total",
			Help:      "Write-shaped requests rejected by the read-only surface.",
		}, []string{"operation"}),
		notifications: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Change signals delivered to watchers.",
		}),
	}
	registry.MustRegister(
		m.queries,
		m.rejected,
		m.notifications,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveQuery counts one read query.
func (m *Metrics) ObserveQuery(kind, outcome string) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(kind, outcome).Inc()
}

// ObserveRejected counts one rejected write-shaped request.
func (m *Metrics) ObserveRejected(operation string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(operation).Inc()
}

// ObserveNotification counts one delivered change signal.
func (m *Metrics) ObserveNotification() {
	if m == nil {
		return
	}
	m.notifications.Inc()
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
