// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package policy

import "github.com/pdiddy/source-engine/pkg/types"

// DefaultTable returns the built-in policy for the default source catalog.
func DefaultTable() Table {
	return Table{
		types.ContextPainPointDiscovery: {
			SourceAffinity: map[string]float64{
				"reddit": 1.2, "hackernews": 1.0, "twitter": 0.9, "producthunt": 0.8, "github": 0.4,
			},
			BudgetCeiling:       3.0,
			MinSynthesisQuality: 0.55,
			ThesisWeight:        0.5,
			AntithesisWeight:    0.5,
		},
		types.ContextTechnicalTrends: {
			SourceAffinity: map[string]float64{
				"github": 1.4, "hackernews": 1.3, "twitter": 0.9, "reddit": 0.8, "producthunt": 0.7,
			},
			BudgetCeiling:       3.5,
			MinSynthesisQuality: 0.45,
			ThesisWeight:        0.5,
			AntithesisWeight:    0.5,
		},
		types.ContextMarketValidation: {
			SourceAffinity: map[string]float64{
				"producthunt": 1.6, "reddit": 1.1, "twitter": 0.9, "hackernews": 0.9, "github": 0.5,
			},
			BudgetCeiling:       5.0,
			MinSynthesisQuality: 0.4,
			ThesisWeight:        0.6,
			AntithesisWeight:    0.4,
		},
		types.ContextDeveloperInsights: {
			SourceAffinity: map[string]float64{
				"github": 1.6, "hackernews": 1.3, "reddit": 1.0, "twitter": 0.6, "producthunt": 0.4,
			},
			BudgetCeiling:       3.0,
			MinSynthesisQuality: 0.5,
			ThesisWeight:        0.4,
			AntithesisWeight:    0.6,
		},
		// Breadth first: coverage only, cost efficiency ignored.
		types.ContextRealTimeMonitoring: {
			SourceAffinity: map[string]float64{
				"twitter": 1.3, "reddit": 1.1, "hackernews": 0.9, "github": 0.4, "producthunt": 0.3,
			},
			BudgetCeiling:       4.0,
			MinSynthesisQuality: 0.3,
			ThesisWeight:        1.0,
			AntithesisWeight:    0.0,
		},
		types.ContextCompetitive: {
			SourceAffinity: map[string]float64{
				"producthunt": 1.4, "twitter": 1.0, "reddit": 1.0, "hackernews": 1.0, "github": 0.7,
			},
			BudgetCeiling:       6.0,
			MinSynthesisQuality: 0.4,
			ThesisWeight:        0.5,
			AntithesisWeight:    0.5,
		},
		types.ContextSentiment: {
			SourceAffinity: map[string]float64{
				"twitter": 1.3, "reddit": 1.3, "producthunt": 0.9, "hackernews": 0.8, "github": 0.3,
			},
			BudgetCeiling:       3.5,
			MinSynthesisQuality: 0.45,
			ThesisWeight:        0.6,
			AntithesisWeight:    0.4,
		},
		types.ContextGeneralExploration: {
			BudgetCeiling:       4.0,
			MinSynthesisQuality: 0.4,
			ThesisWeight:        0.5,
			AntithesisWeight:    0.5,
		},
	}
}
