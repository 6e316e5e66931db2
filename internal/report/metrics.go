// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pdiddy/source-engine/pkg/types"
)

const namespace = "source_engine"

// Metrics exports decision counters and distributions to Prometheus.
type Metrics struct {
	decisions  *prometheus.CounterVec
	selections *prometheus.CounterVec
	fallbacks  prometheus.Counter
	stale      prometheus.Counter
	cost       prometheus.Histogram
	quality    prometheus.Histogram
}

// NewMetrics creates the decision metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Selection decisions by query context.",
		}, []string{"context"}),
		selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_selections_total",
			Help:      "Times each source was selected.",
		}, []string{"source"}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallback_decisions_total",
			Help:      "Decisions where no source fit the budget.",
		}),
		stale: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_decisions_total",
			Help:      "Decisions made against a stale registry snapshot.",
		}),
		cost: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "decision_cost",
			Help:      "Total cost of the sources selected per decision.",
			Buckets:   []float64{0.5, 1, 2, 3, 4, 5, 6, 8, 10},
		}),
		quality: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "decision_synthesis_quality",
			Help:      "Mean synthesis score of the selected sources per decision.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
	}

	for _, c := range []prometheus.Collector{m.decisions, m.selections, m.fallbacks, m.stale, m.cost, m.quality} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Observe records one decision.
func (m *Metrics) Observe(d types.SelectionDecision) {
	m.decisions.WithLabelValues(string(d.Context)).Inc()
	for _, id := range d.Selected {
		m.selections.WithLabelValues(id).Inc()
	}
	if d.FallbackApplied {
		m.fallbacks.Inc()
	}
	if d.RegistryStale {
		m.stale.Inc()
	}
	m.cost.Observe(d.TotalCost)
	m.quality.Observe(d.AggregateSynthesisQuality)
}
