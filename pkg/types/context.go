// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// QueryContext is the discrete intent class assigned to a query. The set is
// closed: adding a variant requires a matching ContextConfiguration, which
// the policy table checks at load time.
type QueryContext string

const (
	ContextPainPointDiscovery QueryContext = "pain_point_discovery"
	ContextTechnicalTrends    QueryContext = "technical_trends"
	ContextMarketValidation   QueryContext = "market_validation"
	ContextDeveloperInsights  QueryContext = "developer_insights"
	ContextRealTimeMonitoring QueryContext = "real_time_monitoring"
	ContextCompetitive        QueryContext = "competitive_analysis"
	ContextSentiment          QueryContext = "sentiment_analysis"
	ContextGeneralExploration QueryContext = "general_exploration"
)

// DefaultContext is returned by the classifier when nothing matches or the
// top score is tied.
const DefaultContext = ContextGeneralExploration

// ErrUnknownContext is returned when a context name is not one of the
// known variants.
var ErrUnknownContext = errors.New("unknown query context")

var allContexts = []QueryContext{
	ContextPainPointDiscovery,
	ContextTechnicalTrends,
	ContextMarketValidation,
	ContextDeveloperInsights,
	ContextRealTimeMonitoring,
	ContextCompetitive,
	ContextSentiment,
	ContextGeneralExploration,
}

// AllContexts returns every known context in a fixed order.
func AllContexts() []QueryContext {
	out := make([]QueryContext, len(allContexts))
	copy(out, allContexts)
	return out
}

// IsValid reports whether c is one of the known contexts.
func (c QueryContext) IsValid() bool {
	for _, known := range allContexts {
		if c == known {
			return true
		}
	}
	return false
}

func (c QueryContext) String() string { return string(c) }

// ParseQueryContext converts a name into a QueryContext.
func ParseQueryContext(name string) (QueryContext, error) {
	c := QueryContext(name)
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownContext, name)
	}
	return c, nil
}
