// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine composes classification, policy lookup, dialectical scoring,
// and selection into a single decision.
//
// Decide is the pure core: the same query, snapshot, table, and scorer always
// produce the same SelectionDecision. Engine wraps it as a long-lived service
// that reads the registry once per decision, caches classifications, and
// feeds decisions to the reporter and decision log.
package engine

import (
	"errors"
	"fmt"

	"github.com/pdiddy/source-engine/internal/classify"
	"github.com/pdiddy/source-engine/internal/policy"
	"github.com/pdiddy/source-engine/internal/registry"
	"github.com/pdiddy/source-engine/internal/score"
	"github.com/pdiddy/source-engine/internal/selector"
	"github.com/pdiddy/source-engine/pkg/types"
)

// ErrRegistryEmpty is returned when there are no sources to choose from.
var ErrRegistryEmpty = errors.New("source registry is empty")

// Decide classifies query and selects sources from snap under the matching
// entry of table.
func Decide(query string, snap *registry.Snapshot, table policy.Table, scorer score.Scorer) (types.SelectionDecision, error) {
	return decide(classify.Classify(query), snap, table, scorer)
}

func decide(cls classify.Result, snap *registry.Snapshot, table policy.Table, scorer score.Scorer) (types.SelectionDecision, error) {
	if snap == nil || snap.Len() == 0 {
		return types.SelectionDecision{}, ErrRegistryEmpty
	}

	cfg, err := table.Lookup(cls.Context)
	if err != nil {
		return types.SelectionDecision{}, err
	}

	records := scorer.ScoreAll(cfg, snap.All())
	res, err := selector.Select(records, cfg)
	if err != nil {
		// Unreachable with a non-empty snapshot.
		return types.SelectionDecision{}, fmt.Errorf("selecting sources for %s: %w", cls.Context, err)
	}

	return types.SelectionDecision{
		Context:                   cls.Context,
		Confidence:                cls.Confidence,
		Selected:                  res.Selected,
		Candidates:                res.Candidates,
		TotalCost:                 res.TotalCost,
		AggregateSynthesisQuality: res.AggregateSynthesisQuality,
		FallbackApplied:           res.FallbackApplied,
		BudgetCeiling:             cfg.BudgetCeiling,
		RegistryVersion:           snap.Version(),
		RegistryStale:             snap.Stale(),
	}, nil
}
