// Package monitoring exposes per-outcome enrichment counters for scraping.
// The driver increments them alongside its own run statistics so progress
// is observable without parsing log lines.
package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the enrichment engine's Prometheus collectors on a
// dedicated registry.
type Metrics struct {
	registry *prometheus.Registry
	outcomes *prometheus.CounterVec
	methods  *prometheus.CounterVec
	backlog  *prometheus.GaugeVec
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "setlist_enrich",
			Name:      "records_total",
			Help:      "Enrichment attempts by outcome.",
		}, []string{"table", "outcome"}),
		methods: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "setlist_enrich",
			Name:      "matches_total",
			Help:      "Successful matches by search strategy.",
		}, []string{"table", "method"}),
		backlog: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "setlist_enrich",
			Name:      "backlog_records",
			Help:      "Unprocessed past records remaining.",
		}, []string{"table"}),
	}
	m.registry.MustRegister(m.outcomes, m.methods, m.backlog)
	return m
}

// ObserveOutcome counts one enrichment attempt. A non-empty method is
// counted in the per-strategy breakdown as well.
func (m *Metrics) ObserveOutcome(table, outcome, method string) {
	m.outcomes.WithLabelValues(table, outcome).Inc()
	if method != "" && method != "none" {
		m.methods.WithLabelValues(table, method).Inc()
	}
}

// SetBacklog records the remaining unprocessed count for a table.
func (m *Metrics) SetBacklog(table string, n int) {
	m.backlog.WithLabelValues(table).Set(float64(n))
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
