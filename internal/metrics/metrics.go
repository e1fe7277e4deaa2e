// Package metrics exposes Prometheus counters for review decisions,
// optimistic mutations and mask toggles.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "smartplant"

// Metrics holds every collector served on /metrics.
type Metrics struct {
	MutationsTotal    *prometheus.CounterVec // optimistic view events by event
	MutationsInFlight prometheus.Gauge       // published but not yet settled
	DecisionsTotal    *prometheus.CounterVec // review decisions by action
	TogglesTotal      *prometheus.CounterVec // mask toggles by resulting visibility

	registry *prometheus.Registry
}

// New creates Metrics on a fresh registry that also carries the Go and
// process collectors.
func New() (*Metrics, error) {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.MutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "observation_mutations_total",
			Help:      "Optimistic observation mutation events by event (applied, committed, rolled_back)",
		},
		[]string{"event"},
	)

	m.MutationsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "observation_mutations_in_flight",
			Help:      "Observation mutations published but not yet committed or rolled back",
		},
	)

	m.DecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "review_decisions_total",
			Help:      "Committed review decisions by action",
		},
		[]string{"action"},
	)

	m.TogglesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mask_toggles_total",
			Help:      "Committed mask toggles by resulting visibility",
		},
		[]string{"visible"},
	)

	for _, c := range []prometheus.Collector{
		m.MutationsTotal,
		m.MutationsInFlight,
		m.DecisionsTotal,
		m.TogglesTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}

	return m, nil
}

// RecordEvent counts one optimistic view event.
func (m *Metrics) RecordEvent(event string) {
	m.MutationsTotal.WithLabelValues(event).Inc()
	switch event {
	case "applied":
		m.MutationsInFlight.Inc()
	case "committed", "rolled_back":
		m.MutationsInFlight.Dec()
	}
}

// RecordDecision counts one committed review decision.
func (m *Metrics) RecordDecision(action string) {
	m.DecisionsTotal.WithLabelValues(action).Inc()
}

// RecordToggle counts one committed mask toggle.
func (m *Metrics) RecordToggle(visible bool) {
	m.TogglesTotal.WithLabelValues(strconv.FormatBool(visible)).Inc()
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
