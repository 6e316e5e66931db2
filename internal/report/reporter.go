// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report aggregates selection decisions for observability: a rolling
// window of recent decisions with summary statistics, Prometheus metrics, and
// human and JSON renderings. Nothing here feeds back into decisions.
package report

import (
	"sort"
	"sync"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/pdiddy/source-engine/pkg/types"
)

// DefaultWindowSize is the number of decisions kept when the configured size
// is not positive.
const DefaultWindowSize = 1000

// Stats summarizes the decisions currently in the window.
type Stats struct {
	Decisions int `json:"decisions" yaml:"decisions"`

	// SelectionFrequency counts how often each source was selected.
	SelectionFrequency map[string]int `json:"selection_frequency" yaml:"selection_frequency"`

	// SelectionRate is SelectionFrequency divided by Decisions.
	SelectionRate map[string]float64 `json:"selection_rate" yaml:"selection_rate"`

	AverageSynthesisQuality float64 `json:"average_synthesis_quality" yaml:"average_synthesis_quality"`
	AverageCost             float64 `json:"average_cost" yaml:"average_cost"`
	CostP95                 float64 `json:"cost_p95" yaml:"cost_p95"`
	AverageSourcesSelected  float64 `json:"average_sources_selected" yaml:"average_sources_selected"`

	// FallbackRate is the share of decisions where no source fit the budget.
	FallbackRate float64 `json:"fallback_rate" yaml:"fallback_rate"`

	// StaleRate is the share of decisions made against a stale registry.
	StaleRate float64 `json:"stale_rate" yaml:"stale_rate"`

	ContextCounts map[types.QueryContext]int `json:"context_counts" yaml:"context_counts"`
}

// SourceIDs returns the ids in SelectionFrequency, most selected first, ties
// by id.
func (s Stats) SourceIDs() []string {
	ids := make([]string, 0, len(s.SelectionFrequency))
	for id := range s.SelectionFrequency {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		fi, fj := s.SelectionFrequency[ids[i]], s.SelectionFrequency[ids[j]]
		if fi != fj {
			return fi > fj
		}
		return ids[i] < ids[j]
	})
	return ids
}

type entry struct {
	at       time.Time
	decision types.SelectionDecision
}

// Reporter keeps a rolling window of decisions bounded by count and,
// optionally, by age. It is safe for concurrent use.
type Reporter struct {
	mu      sync.Mutex
	ring    []entry
	head    int // index of the oldest entry
	count   int
	maxAge  time.Duration
	nowFunc func() time.Time
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Reporter) { r.nowFunc = now }
}

// NewReporter returns a reporter sized by cfg.
func NewReporter(cfg types.ReporterConfig, opts ...Option) *Reporter {
	size := cfg.WindowSize
	if size <= 0 {
		size = DefaultWindowSize
	}
	r := &Reporter{
		ring:    make([]entry, size),
		maxAge:  cfg.WindowAge,
		nowFunc: time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Record adds d to the window, evicting the oldest decision when full.
func (r *Reporter) Record(d types.SelectionDecision) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := entry{at: r.nowFunc(), decision: d}
	if r.count < len(r.ring) {
		r.ring[(r.head+r.count)%len(r.ring)] = e
		r.count++
		return
	}
	r.ring[r.head] = e
	r.head = (r.head + 1) % len(r.ring)
}

// Len returns the number of decisions in the window.
func (r *Reporter) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expireLocked()
	return r.count
}

// Reset empties the window.
func (r *Reporter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.ring)
	r.head, r.count = 0, 0
}

// Stats summarizes the current window.
func (r *Reporter) Stats() Stats {
	r.mu.Lock()
	r.expireLocked()
	decisions := make([]types.SelectionDecision, r.count)
	for i := range decisions {
		decisions[i] = r.ring[(r.head+i)%len(r.ring)].decision
	}
	r.mu.Unlock()

	return Summarize(decisions)
}

// expireLocked drops entries older than maxAge. Entries are in arrival
// order, so expiry only ever removes from the head.
func (r *Reporter) expireLocked() {
	if r.maxAge <= 0 {
		return
	}
	cutoff := r.nowFunc().Add(-r.maxAge)
	for r.count > 0 && r.ring[r.head].at.Before(cutoff) {
		r.ring[r.head] = entry{}
		r.head = (r.head + 1) % len(r.ring)
		r.count--
	}
}

// Summarize computes Stats over decisions.
func Summarize(decisions []types.SelectionDecision) Stats {
	s := Stats{
		Decisions:          len(decisions),
		SelectionFrequency: make(map[string]int),
		SelectionRate:      make(map[string]float64),
		ContextCounts:      make(map[types.QueryContext]int),
	}
	if len(decisions) == 0 {
		return s
	}

	quality := make(stats.Float64Data, 0, len(decisions))
	cost := make(stats.Float64Data, 0, len(decisions))
	width := make(stats.Float64Data, 0, len(decisions))
	fallbacks, stale := 0, 0
	for _, d := range decisions {
		for _, id := range d.Selected {
			s.SelectionFrequency[id]++
		}
		s.ContextCounts[d.Context]++
		quality = append(quality, d.AggregateSynthesisQuality)
		cost = append(cost, d.TotalCost)
		width = append(width, float64(len(d.Selected)))
		if d.FallbackApplied {
			fallbacks++
		}
		if d.RegistryStale {
			stale++
		}
	}

	n := float64(len(decisions))
	for id, f := range s.SelectionFrequency {
		s.SelectionRate[id] = float64(f) / n
	}
	s.FallbackRate = float64(fallbacks) / n
	s.StaleRate = float64(stale) / n

	// The inputs are non-empty, so these cannot fail.
	s.AverageSynthesisQuality, _ = quality.Mean()
	s.AverageCost, _ = cost.Mean()
	s.AverageSourcesSelected, _ = width.Mean()
	s.CostP95, _ = cost.Percentile(95)
	return s
}
