// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"maps"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/pdiddy/source-engine/internal/classify"
	"github.com/pdiddy/source-engine/internal/logging"
	"github.com/pdiddy/source-engine/internal/policy"
	"github.com/pdiddy/source-engine/internal/registry"
	"github.com/pdiddy/source-engine/internal/report"
	"github.com/pdiddy/source-engine/internal/score"
	"github.com/pdiddy/source-engine/pkg/types"
)

// Sink persists decisions for offline analysis. It returns the id it
// assigned to the record.
type Sink interface {
	Record(ctx context.Context, query string, d types.SelectionDecision) (string, error)
}

// Options configures an Engine. Every field is optional.
type Options struct {
	// Scorer holds the scoring constants. Nil uses
	// score.New(score.DefaultTensionPenalty).
	Scorer *score.Scorer

	Reporter *report.Reporter
	Metrics  *report.Metrics
	Sink     Sink
	Logger   *slog.Logger

	// CacheSize bounds the classification cache. Zero disables it.
	CacheSize int
}

// Engine answers Decide calls against a live registry. It is safe for
// concurrent use.
type Engine struct {
	registry *registry.Registry
	table    policy.Table
	scorer   score.Scorer
	reporter *report.Reporter
	metrics  *report.Metrics
	sink     Sink
	logger   *slog.Logger
	cache    *lru.Cache[string, classify.Result]
}

// New validates table and returns an engine over reg. The table is cloned,
// so later changes to the caller's copy have no effect.
func New(reg *registry.Registry, table policy.Table, opts Options) (*Engine, error) {
	if reg == nil || reg.Current().Len() == 0 {
		return nil, ErrRegistryEmpty
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("validating context configuration: %w", err)
	}

	e := &Engine{
		registry: reg,
		table:    table.Clone(),
		scorer:   score.New(score.DefaultTensionPenalty),
		reporter: opts.Reporter,
		metrics:  opts.Metrics,
		sink:     opts.Sink,
		logger:   logging.OrDiscard(opts.Logger),
	}
	if opts.Scorer != nil {
		e.scorer = *opts.Scorer
	}
	if opts.CacheSize > 0 {
		cache, err := lru.New[string, classify.Result](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("creating classification cache: %w", err)
		}
		e.cache = cache
	}
	return e, nil
}

// Classify returns the classification of query, served from the cache when
// possible.
func (e *Engine) Classify(query string) classify.Result {
	res := e.classify(query)
	res.Scores = maps.Clone(res.Scores)
	return res
}

func (e *Engine) classify(query string) classify.Result {
	if e.cache == nil {
		return classify.Classify(query)
	}
	key := classify.Normalize(query)
	if res, ok := e.cache.Get(key); ok {
		return res
	}
	res := classify.Classify(query)
	e.cache.Add(key, res)
	return res
}

// Decide selects sources for query. The registry is read once, so the whole
// decision sees a single snapshot. A decision-log failure is logged and does
// not fail the decision.
func (e *Engine) Decide(ctx context.Context, query string) (types.SelectionDecision, error) {
	if err := ctx.Err(); err != nil {
		return types.SelectionDecision{}, err
	}

	snap := e.registry.Current()
	d, err := decide(e.classify(query), snap, e.table, e.scorer)
	if err != nil {
		return types.SelectionDecision{}, err
	}

	if d.FallbackApplied {
		e.logger.Warn("budget infeasible; selected single best source",
			"context", d.Context, "source", d.Selected[0],
			"cost", d.TotalCost, "budget_ceiling", d.BudgetCeiling)
	}
	if d.RegistryStale {
		e.logger.Warn("decision used stale registry snapshot", "version", d.RegistryVersion)
	}
	e.logger.Debug("decision",
		"context", d.Context, "confidence", d.Confidence,
		"selected", d.Selected, "total_cost", d.TotalCost)

	if e.reporter != nil {
		e.reporter.Record(d)
	}
	if e.metrics != nil {
		e.metrics.Observe(d)
	}
	if e.sink != nil {
		if _, err := e.sink.Record(ctx, query, d); err != nil {
			e.logger.Warn("recording decision failed", "error", err)
		}
	}
	return d, nil
}

// Registry returns the registry the engine reads.
func (e *Engine) Registry() *registry.Registry { return e.registry }

// Table returns a copy of the engine's context configuration.
func (e *Engine) Table() policy.Table { return e.table.Clone() }

// Reporter returns the engine's reporter, or nil.
func (e *Engine) Reporter() *report.Reporter { return e.reporter }
