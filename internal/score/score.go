// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package score computes the dialectical score of each source for a query
// context. The thesis is the source's coverage value, the antithesis its
// quality per unit cost relative to the other candidates, and the synthesis
// a weighted blend of the two discounted by their disagreement (tension):
//
//	thesis     = clamp(coverage_weight * affinity)
//	antithesis = efficiency / max(efficiency over the candidate pool)
//	             where efficiency = authority / (1 + cost)
//	tension    = |thesis - antithesis|
//	synthesis  = (tw*thesis + aw*antithesis) * (1 - k*tension)
//
// Every score lies in [0, 1].
package score

import (
	"math"

	"github.com/pdiddy/source-engine/pkg/types"
)

// DefaultTensionPenalty is the default k in the synthesis formula.
const DefaultTensionPenalty = 0.1

// Scorer holds the scoring constants. The zero value uses no tension
// penalty; use New for the default.
type Scorer struct {
	// TensionPenalty is k, clamped to [0, 1] so synthesis never goes negative.
	TensionPenalty float64
}

// New returns a scorer with tension penalty k. Values outside [0, 1] fall
// back to DefaultTensionPenalty.
func New(k float64) Scorer {
	if math.IsNaN(k) || k < 0 || k > 1 {
		k = DefaultTensionPenalty
	}
	return Scorer{TensionPenalty: k}
}

// Efficiency is a source's raw quality per cost: authority / (1 + cost).
func Efficiency(p types.SourceProfile) float64 {
	return finite(p.AuthorityScore / (1 + p.CostPerCall))
}

// MaxEfficiency returns the largest Efficiency in profiles, or 0 for none.
func MaxEfficiency(profiles []types.SourceProfile) float64 {
	m := 0.0
	for _, p := range profiles {
		m = math.Max(m, Efficiency(p))
	}
	return m
}

// Score computes the record for one source given the pool's maximum
// efficiency. The record's Selected and Outcome fields are left for the
// selector.
func (s Scorer) Score(cfg types.ContextConfiguration, p types.SourceProfile, maxEfficiency float64) types.ScoreRecord {
	thesis := clamp(p.CoverageWeight * cfg.Affinity(p.ID))

	antithesis := 0.0
	if maxEfficiency > 0 {
		antithesis = clamp(Efficiency(p) / maxEfficiency)
	}

	tension := math.Abs(thesis - antithesis)
	k := clamp(s.TensionPenalty)
	blend := cfg.ThesisWeight*thesis + cfg.AntithesisWeight*antithesis
	synthesis := clamp(blend * (1 - k*tension))

	return types.ScoreRecord{
		SourceID:        p.ID,
		ThesisScore:     thesis,
		AntithesisScore: antithesis,
		Tension:         tension,
		SynthesisScore:  synthesis,
		Cost:            p.CostPerCall,
	}
}

// ScoreAll scores every profile against the pool they form, preserving
// input order.
func (s Scorer) ScoreAll(cfg types.ContextConfiguration, profiles []types.SourceProfile) []types.ScoreRecord {
	maxEff := MaxEfficiency(profiles)
	out := make([]types.ScoreRecord, len(profiles))
	for i, p := range profiles {
		out[i] = s.Score(cfg, p, maxEff)
	}
	return out
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, finite(v)))
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
