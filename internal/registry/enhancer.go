// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"context"
	"errors"

	"github.com/pdiddy/source-engine/pkg/types"
)

// ErrEnhancerUnavailable reports that the authority service could not be reached.
var ErrEnhancerUnavailable = errors.New("authority enhancer unavailable")

// Enhancer supplies authority scores for a set of sources. Implementations
// return scores keyed by source id; sources they omit keep their current
// authority.
type Enhancer interface {
	Enhance(ctx context.Context, profiles []types.SourceProfile) (map[string]float64, error)
}

// StaticEnhancer returns a fixed set of authority scores.
type StaticEnhancer map[string]float64

// Enhance returns the scores for the given profiles that appear in the map.
func (s StaticEnhancer) Enhance(_ context.Context, profiles []types.SourceProfile) (map[string]float64, error) {
	out := make(map[string]float64, len(profiles))
	for _, p := range profiles {
		if v, ok := s[p.ID]; ok {
			out[p.ID] = v
		}
	}
	return out, nil
}

// EnhancerFunc adapts a function to the Enhancer interface.
type EnhancerFunc func(ctx context.Context, profiles []types.SourceProfile) (map[string]float64, error)

// Enhance calls f.
func (f EnhancerFunc) Enhance(ctx context.Context, profiles []types.SourceProfile) (map[string]float64, error) {
	return f(ctx, profiles)
}
