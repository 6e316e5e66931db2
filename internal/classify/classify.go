// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify maps a raw query string to a QueryContext with a
// confidence score. Classification is a pure function of the query: a fixed
// table of keyword, stem, and phrase patterns per context is matched against
// the normalized query and the best-scoring context wins.
package classify

import (
	"strings"
	"unicode"

	"github.com/pdiddy/source-engine/pkg/types"
)

// Pattern weights. Phrases carry more intent than single words.
const (
	keywordWeight = 1.0
	phraseWeight  = 2.0
)

// Result is the outcome of classifying one query.
type Result struct {
	Context types.QueryContext `json:"context" yaml:"context"`

	// Confidence is the winner's share of the total match score, in [0, 1].
	// It is 0 when nothing matched or the top score was tied.
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// Scores holds the aggregate match score of every context that matched.
	Scores map[types.QueryContext]float64 `json:"scores,omitempty" yaml:"scores,omitempty"`
}

// Classify scores every context's patterns against query and returns the
// winner. Empty queries, queries with no matches, and ties at the top score
// resolve to types.DefaultContext with confidence 0.
func Classify(query string) Result {
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return Result{Context: types.DefaultContext}
	}

	tokenSet := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		tokenSet[t] = struct{}{}
	}
	padded := " " + strings.Join(tokens, " ") + " "

	scores := make(map[types.QueryContext]float64)
	total := 0.0
	for _, ctx := range types.AllContexts() {
		s := scorePatterns(contextPatterns[ctx], tokens, tokenSet, padded)
		if s > 0 {
			scores[ctx] = s
			total += s
		}
	}
	if total == 0 {
		return Result{Context: types.DefaultContext}
	}

	best := types.DefaultContext
	bestScore := 0.0
	tied := false
	for _, ctx := range types.AllContexts() {
		s := scores[ctx]
		switch {
		case s > bestScore:
			best, bestScore, tied = ctx, s, false
		case s == bestScore && s > 0:
			tied = true
		}
	}
	if tied {
		return Result{Context: types.DefaultContext, Scores: scores}
	}

	return Result{
		Context:    best,
		Confidence: bestScore / total,
		Scores:     scores,
	}
}

// Normalize returns the canonical form of query used for matching and as a
// cache key: lower-cased tokens joined by single spaces.
func Normalize(query string) string {
	return strings.Join(Tokenize(query), " ")
}

// Tokenize lower-cases query and splits it into runs of letters and digits.
func Tokenize(query string) []string {
	return strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func scorePatterns(patterns []string, tokens []string, tokenSet map[string]struct{}, padded string) float64 {
	score := 0.0
	for _, p := range patterns {
		switch {
		case strings.Contains(p, " "):
			if strings.Contains(padded, " "+p+" ") {
				score += phraseWeight
			}
		case strings.HasSuffix(p, "*"):
			stem := strings.TrimSuffix(p, "*")
			for _, t := range tokens {
				if strings.HasPrefix(t, stem) {
					score += keywordWeight
					break
				}
			}
		default:
			if _, ok := tokenSet[p]; ok {
				score += keywordWeight
			}
		}
	}
	return score
}
