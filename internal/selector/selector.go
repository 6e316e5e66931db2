// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package selector chooses which scored sources a decision activates under a
// context's quality floor and budget ceiling.
//
// Candidates below the floor are dropped, the rest are ranked by synthesis
// (desc), cost (asc), and id (asc), and accepted greedily while they fit the
// budget. A candidate that does not fit is skipped, not fatal: cheaper
// lower-ranked candidates are still considered. When nothing fits, the single
// best-ranked candidate is selected regardless of budget and the result is
// flagged as a fallback, so a decision is never empty.
package selector

import (
	"errors"
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/pdiddy/source-engine/pkg/types"
)

// ErrNoCandidates is returned when there is nothing to select from.
var ErrNoCandidates = errors.New("no candidate sources")

// budgetEpsilon absorbs float rounding in cumulative cost sums, so that for
// example 0.1 + 0.2 fits a 0.3 ceiling.
const budgetEpsilon = 1e-9

// Result is the selector's output.
type Result struct {
	// Selected lists chosen source ids in rank order.
	Selected []string

	// Candidates holds every input record in rank order with Selected and
	// Outcome filled in.
	Candidates []types.ScoreRecord

	TotalCost                 float64
	AggregateSynthesisQuality float64
	FallbackApplied           bool
}

// Select applies the floor, ranking, greedy packing, and fallback to
// candidates. The input slice is not modified.
func Select(candidates []types.ScoreRecord, cfg types.ContextConfiguration) (Result, error) {
	if len(candidates) == 0 {
		return Result{}, ErrNoCandidates
	}

	ranked := Rank(candidates)

	var res Result
	var selectedScores []float64
	cumulative := 0.0
	for i := range ranked {
		c := &ranked[i]
		c.Selected = false
		switch {
		case c.SynthesisScore < cfg.MinSynthesisQuality:
			c.Outcome = types.OutcomeBelowQualityFloor
		case cumulative+c.Cost <= cfg.BudgetCeiling+budgetEpsilon:
			c.Selected = true
			c.Outcome = types.OutcomeSelected
			cumulative += c.Cost
			res.Selected = append(res.Selected, c.SourceID)
			selectedScores = append(selectedScores, c.SynthesisScore)
		default:
			c.Outcome = types.OutcomeOverBudget
		}
	}

	if len(res.Selected) == 0 {
		best := &ranked[0]
		best.Selected = true
		best.Outcome = types.OutcomeFallback
		cumulative = best.Cost
		res.Selected = []string{best.SourceID}
		selectedScores = []float64{best.SynthesisScore}
		res.FallbackApplied = true
	}

	// selectedScores is never empty here, so Mean cannot fail.
	mean, _ := stats.Mean(selectedScores)

	res.Candidates = ranked
	res.TotalCost = cumulative
	res.AggregateSynthesisQuality = mean
	return res, nil
}

// Rank returns a copy of candidates ordered by synthesis score (desc), then
// cost (asc), then source id (asc).
func Rank(candidates []types.ScoreRecord) []types.ScoreRecord {
	ranked := make([]types.ScoreRecord, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.SynthesisScore != b.SynthesisScore {
			return a.SynthesisScore > b.SynthesisScore
		}
		if a.Cost != b.Cost {
			return a.Cost < b.Cost
		}
		return a.SourceID < b.SourceID
	})
	return ranked
}
