// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import "github.com/pdiddy/source-engine/pkg/types"

// contextPatterns lists the match patterns per context. A pattern containing
// a space is a phrase matched on token boundaries; a trailing '*' marks a
// stem matched as a token prefix; anything else is an exact token.
var contextPatterns = map[types.QueryContext][]string{
	types.ContextPainPointDiscovery: {
		"hate", "slow", "pain", "painful", "broken", "wish", "difficult",
		"confusing", "frustrat*", "annoy*", "problem*", "struggl*", "complain*",
		"hard to", "fed up", "pain point", "pain points", "gives up",
	},
	types.ContextTechnicalTrends: {
		"trend*", "emerging", "adoption", "rising", "framework*", "popular",
		"growth", "hype", "future of", "state of", "next generation",
	},
	types.ContextMarketValidation: {
		"market", "demand", "pricing", "validate", "validation", "viable",
		"opportunity", "niche", "tam", "pay for", "willing to pay",
		"product market fit", "would people buy",
	},
	types.ContextDeveloperInsights: {
		"developer*", "devs", "api", "apis", "sdk", "library", "libraries",
		"code", "programming", "tooling", "github", "open source", "dx",
		"developer experience",
	},
	types.ContextRealTimeMonitoring: {
		"live", "breaking", "today", "monitor*", "alert*", "outage*",
		"incident*", "real time", "right now", "as it happens",
	},
	types.ContextCompetitive: {
		"competitor*", "vs", "versus", "alternative*", "rival*", "compare",
		"competitive", "compared to", "market share", "switching from",
	},
	types.ContextSentiment: {
		"sentiment", "feel*", "opinion*", "perception", "mood", "reaction*",
		"love", "positive", "negative", "think about", "how do people feel",
	},
	types.ContextGeneralExploration: {
		"overview", "explore", "landscape", "general", "anything",
		"learn about", "tell me about",
	},
}

// Patterns returns a copy of the patterns for ctx.
func Patterns(ctx types.QueryContext) []string {
	p := contextPatterns[ctx]
	out := make([]string, len(p))
	copy(out, p)
	return out
}
