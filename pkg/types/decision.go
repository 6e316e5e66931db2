// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Outcome records what the selector did with a candidate.
type Outcome string

const (
	OutcomeSelected          Outcome = "selected"
	OutcomeFallback          Outcome = "fallback"
	OutcomeBelowQualityFloor Outcome = "below_quality_floor"
	OutcomeOverBudget        Outcome = "over_budget"
)

// ScoreRecord is the scoring provenance for one (query, source) pair.
type ScoreRecord struct {
	SourceID string `json:"source_id" yaml:"source_id"`

	// ThesisScore is the coverage value, in [0, 1].
	ThesisScore float64 `json:"thesis_score" yaml:"thesis_score"`

	// AntithesisScore is the quality-per-cost value normalized across the
	// candidate pool of the decision, in [0, 1].
	AntithesisScore float64 `json:"antithesis_score" yaml:"antithesis_score"`

	// Tension is |thesis - antithesis|.
	Tension float64 `json:"tension" yaml:"tension"`

	// SynthesisScore is the blended, tension-discounted score used for ranking.
	SynthesisScore float64 `json:"synthesis_score" yaml:"synthesis_score"`

	// Cost is the source's cost per call.
	Cost float64 `json:"cost" yaml:"cost"`

	Selected bool    `json:"selected" yaml:"selected"`
	Outcome  Outcome `json:"outcome,omitempty" yaml:"outcome,omitempty"`
}

// SelectionDecision is the immutable result of one Decide call. It carries
// no timestamps or generated ids, so equal inputs give equal decisions.
type SelectionDecision struct {
	Context    QueryContext `json:"context" yaml:"context"`
	Confidence float64      `json:"confidence" yaml:"confidence"`

	// Selected lists the chosen source ids in rank order.
	Selected []string `json:"selected" yaml:"selected"`

	// Candidates holds every scored source, selected and rejected, in rank order.
	Candidates []ScoreRecord `json:"candidates" yaml:"candidates"`

	TotalCost float64 `json:"total_cost" yaml:"total_cost"`

	// AggregateSynthesisQuality is the mean synthesis score of the selected sources.
	AggregateSynthesisQuality float64 `json:"aggregate_synthesis_quality" yaml:"aggregate_synthesis_quality"`

	// FallbackApplied is set when no source fit the budget and the single
	// best source was chosen regardless of budget.
	FallbackApplied bool `json:"fallback_applied" yaml:"fallback_applied"`

	BudgetCeiling float64 `json:"budget_ceiling" yaml:"budget_ceiling"`

	// RegistryVersion and RegistryStale describe the snapshot the decision used.
	RegistryVersion uint64 `json:"registry_version" yaml:"registry_version"`
	RegistryStale   bool   `json:"registry_stale" yaml:"registry_stale"`
}

// Candidate returns the score record for sourceID.
func (d SelectionDecision) Candidate(sourceID string) (ScoreRecord, bool) {
	for _, c := range d.Candidates {
		if c.SourceID == sourceID {
			return c, true
		}
	}
	return ScoreRecord{}, false
}
