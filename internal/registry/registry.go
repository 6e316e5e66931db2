// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package registry holds the source profile table behind an atomically
// swapped, immutable snapshot. Readers take one snapshot for the whole
// decision; writers build a complete new snapshot and publish it with a
// single pointer store, so no decision sees a partially refreshed table.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/pdiddy/source-engine/internal/logging"
	"github.com/pdiddy/source-engine/pkg/types"
)

// Snapshot is an immutable, id-ordered view of the source profiles.
type Snapshot struct {
	version  uint64
	stale    bool
	profiles []types.SourceProfile
	index    map[string]int
}

// NewSnapshot validates profiles and returns them as a snapshot ordered by id.
// Duplicate ids are rejected. An empty profile list is allowed; deciding
// against it fails with the engine's RegistryEmpty error.
func NewSnapshot(version uint64, profiles []types.SourceProfile) (*Snapshot, error) {
	sorted := make([]types.SourceProfile, len(profiles))
	copy(sorted, profiles)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var errs []error
	index := make(map[string]int, len(sorted))
	for i, p := range sorted {
		if err := p.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := index[p.ID]; dup {
			errs = append(errs, fmt.Errorf("duplicate source id %q", p.ID))
			continue
		}
		index[p.ID] = i
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid source profiles: %w", errors.Join(errs...))
	}

	return &Snapshot{version: version, profiles: sorted, index: index}, nil
}

// Version increases each time new profiles are published.
func (s *Snapshot) Version() uint64 { return s.version }

// Stale reports whether the last authority refresh failed and this snapshot
// carries the previous scores.
func (s *Snapshot) Stale() bool { return s.stale }

// Len returns the number of profiles.
func (s *Snapshot) Len() int { return len(s.profiles) }

// Get returns the profile for id.
func (s *Snapshot) Get(id string) (types.SourceProfile, bool) {
	i, ok := s.index[id]
	if !ok {
		return types.SourceProfile{}, false
	}
	return s.profiles[i], true
}

// All returns a copy of the profiles ordered by id.
func (s *Snapshot) All() []types.SourceProfile {
	out := make([]types.SourceProfile, len(s.profiles))
	copy(out, s.profiles)
	return out
}

// withStale returns a copy sharing the same profiles with the stale flag set.
func (s *Snapshot) withStale(stale bool) *Snapshot {
	next := *s
	next.stale = stale
	return &next
}

// withAuthority returns a new snapshot whose profiles carry the given
// authority scores. Sources absent from scores keep their current value.
func (s *Snapshot) withAuthority(version uint64, scores map[string]float64) *Snapshot {
	profiles := make([]types.SourceProfile, len(s.profiles))
	copy(profiles, s.profiles)
	for i := range profiles {
		if v, ok := scores[profiles[i].ID]; ok && !math.IsNaN(v) {
			profiles[i].AuthorityScore = math.Max(0, math.Min(1, v))
		}
	}
	return &Snapshot{version: version, profiles: profiles, index: s.index}
}

// Registry publishes source profile snapshots.
type Registry struct {
	current atomic.Pointer[Snapshot]

	// mu serializes writers; readers never take it.
	mu     sync.Mutex
	logger *slog.Logger

	// authority holds the clamped scores from successful refreshes, by id.
	authority map[string]float64
}

// New returns a registry whose first snapshot (version 1) holds profiles.
func New(profiles []types.SourceProfile, logger *slog.Logger) (*Registry, error) {
	snap, err := NewSnapshot(1, profiles)
	if err != nil {
		return nil, err
	}
	r := &Registry{logger: logging.OrDiscard(logger)}
	r.current.Store(snap)
	return r, nil
}

// Current returns the published snapshot. Callers should hold on to it for
// the duration of one decision.
func (r *Registry) Current() *Snapshot {
	return r.current.Load()
}

// Get returns the profile for id from the current snapshot.
func (r *Registry) Get(id string) (types.SourceProfile, bool) {
	return r.Current().Get(id)
}

// All returns the profiles of the current snapshot.
func (r *Registry) All() []types.SourceProfile {
	return r.Current().All()
}

// Stale reports whether the current snapshot is stale.
func (r *Registry) Stale() bool {
	return r.Current().Stale()
}

// Replace validates profiles and publishes them as the next version. Used
// when the catalog itself is reloaded. Sources that a refresh has scored
// keep that authority score, and the stale flag carries over.
func (r *Registry) Replace(profiles []types.SourceProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.Current()
	next, err := NewSnapshot(prev.Version()+1, profiles)
	if err != nil {
		return err
	}
	if len(r.authority) > 0 {
		next = next.withAuthority(next.Version(), r.authority)
	}
	next.stale = prev.Stale()
	r.current.Store(next)
	r.logger.Info("source catalog replaced", "version", next.Version(), "sources", next.Len())
	return nil
}

// Refresh asks e for fresh authority scores and publishes them as a new
// snapshot. When e fails, the previous profiles stay in place, re-published
// with the stale flag set, and the error is returned. Refresh never blocks
// readers.
func (r *Registry) Refresh(ctx context.Context, e Enhancer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.Current()
	scores, err := e.Enhance(ctx, prev.All())
	if err != nil {
		if !prev.Stale() {
			r.current.Store(prev.withStale(true))
		}
		r.logger.Warn("authority refresh failed; keeping previous snapshot",
			"version", prev.Version(), "error", err)
		return fmt.Errorf("enhancing authority scores: %w", err)
	}

	next := prev.withAuthority(prev.Version()+1, scores)
	if r.authority == nil {
		r.authority = make(map[string]float64, len(scores))
	}
	for _, p := range next.profiles {
		if v, ok := scores[p.ID]; ok && !math.IsNaN(v) {
			r.authority[p.ID] = p.AuthorityScore
		}
	}
	r.current.Store(next)
	r.logger.Info("authority scores refreshed", "version", next.Version(), "updated", len(scores))
	return nil
}
