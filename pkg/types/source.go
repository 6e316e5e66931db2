// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"math"
)

// SourceProfile holds the static attributes of one external intelligence
// source. Profiles are immutable once published in a registry snapshot;
// authority refreshes produce new profiles rather than editing these.
type SourceProfile struct {
	// ID uniquely identifies the source (e.g. "reddit", "hackernews").
	ID string `json:"id" yaml:"id" toml:"id"`

	// BaseQuality is the configured signal quality in [0, 1].
	BaseQuality float64 `json:"base_quality" yaml:"base_quality" toml:"base_quality"`

	// AuthorityScore is the domain-reputation score in [0, 1]. It defaults to
	// BaseQuality until an authority enhancement pass supplies a value.
	AuthorityScore float64 `json:"authority_score" yaml:"authority_score" toml:"authority_score"`

	// CostPerCall is the positive cost of one call in abstract cost units.
	CostPerCall float64 `json:"cost_per_call" yaml:"cost_per_call" toml:"cost_per_call"`

	// CoverageWeight is how much unique signal the source contributes, in [0, 1].
	CoverageWeight float64 `json:"coverage_weight" yaml:"coverage_weight" toml:"coverage_weight"`
}

// Validate checks the profile's field ranges.
func (p SourceProfile) Validate() error {
	var errs []error
	if p.ID == "" {
		errs = append(errs, errors.New("source id is empty"))
	}
	if !inUnit(p.BaseQuality) {
		errs = append(errs, fmt.Errorf("base_quality %v outside [0,1]", p.BaseQuality))
	}
	if !inUnit(p.AuthorityScore) {
		errs = append(errs, fmt.Errorf("authority_score %v outside [0,1]", p.AuthorityScore))
	}
	if math.IsNaN(p.CostPerCall) || math.IsInf(p.CostPerCall, 0) || p.CostPerCall <= 0 {
		errs = append(errs, fmt.Errorf("cost_per_call %v must be positive", p.CostPerCall))
	}
	if !inUnit(p.CoverageWeight) {
		errs = append(errs, fmt.Errorf("coverage_weight %v outside [0,1]", p.CoverageWeight))
	}
	if len(errs) > 0 {
		return fmt.Errorf("source %q: %w", p.ID, errors.Join(errs...))
	}
	return nil
}

// WeightEpsilon is the tolerance for thesis_weight + antithesis_weight == 1.
const WeightEpsilon = 1e-9

// ContextConfiguration is the scoring and selection policy for one context.
type ContextConfiguration struct {
	// SourceAffinity maps source id to a context-specific relevance
	// multiplier. Unlisted sources use 1.0.
	SourceAffinity map[string]float64 `json:"source_affinity,omitempty" yaml:"source_affinity,omitempty"`

	// BudgetCeiling is the maximum total cost units a decision may spend.
	BudgetCeiling float64 `json:"budget_ceiling" yaml:"budget_ceiling"`

	// MinSynthesisQuality excludes sources scoring below it regardless of budget.
	MinSynthesisQuality float64 `json:"min_synthesis_quality" yaml:"min_synthesis_quality"`

	// ThesisWeight and AntithesisWeight blend coverage against efficiency
	// and must sum to 1.
	ThesisWeight     float64 `json:"thesis_weight" yaml:"thesis_weight"`
	AntithesisWeight float64 `json:"antithesis_weight" yaml:"antithesis_weight"`
}

// Affinity returns the multiplier for sourceID, or 1.0 when unlisted.
func (c ContextConfiguration) Affinity(sourceID string) float64 {
	if v, ok := c.SourceAffinity[sourceID]; ok {
		return v
	}
	return 1.0
}

// Validate checks weights, budget, floor and affinity ranges.
func (c ContextConfiguration) Validate() error {
	var errs []error
	if !inUnit(c.ThesisWeight) || !inUnit(c.AntithesisWeight) {
		errs = append(errs, fmt.Errorf("weights (%v, %v) must be in [0,1]", c.ThesisWeight, c.AntithesisWeight))
	} else if math.Abs(c.ThesisWeight+c.AntithesisWeight-1) > WeightEpsilon {
		errs = append(errs, fmt.Errorf("thesis_weight + antithesis_weight = %v, want 1", c.ThesisWeight+c.AntithesisWeight))
	}
	if math.IsNaN(c.BudgetCeiling) || c.BudgetCeiling <= 0 {
		errs = append(errs, fmt.Errorf("budget_ceiling %v must be positive", c.BudgetCeiling))
	}
	if !inUnit(c.MinSynthesisQuality) {
		errs = append(errs, fmt.Errorf("min_synthesis_quality %v outside [0,1]", c.MinSynthesisQuality))
	}
	for id, v := range c.SourceAffinity {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			errs = append(errs, fmt.Errorf("source_affinity[%s] = %v must be a non-negative number", id, v))
		}
	}
	return errors.Join(errs...)
}

func inUnit(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}
