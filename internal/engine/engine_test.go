// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/source-engine/internal/policy"
	"github.com/pdiddy/source-engine/internal/registry"
	"github.com/pdiddy/source-engine/internal/report"
	"github.com/pdiddy/source-engine/internal/score"
	"github.com/pdiddy/source-engine/pkg/types"
)

const painQuery = "customers hate how slow our onboarding form is"

func defaultSnapshot(t *testing.T) *registry.Snapshot {
	t.Helper()
	snap, err := registry.NewSnapshot(1, registry.DefaultProfiles())
	require.NoError(t, err)
	return snap
}

func newEngine(t *testing.T, table policy.Table, opts Options) *Engine {
	t.Helper()
	reg, err := registry.New(registry.DefaultProfiles(), nil)
	require.NoError(t, err)
	e, err := New(reg, table, opts)
	require.NoError(t, err)
	return e
}

func TestDecidePainPointScenario(t *testing.T) {
	d, err := Decide(painQuery, defaultSnapshot(t), policy.DefaultTable(), score.New(score.DefaultTensionPenalty))
	require.NoError(t, err)

	assert.Equal(t, types.ContextPainPointDiscovery, d.Context)
	assert.Equal(t, 1.0, d.Confidence)
	assert.Equal(t, []string{"reddit", "hackernews"}, d.Selected)
	assert.InDelta(t, 1.5, d.TotalCost, 1e-12)
	assert.LessOrEqual(t, d.TotalCost, d.BudgetCeiling)
	assert.False(t, d.FallbackApplied)
	assert.Equal(t, uint64(1), d.RegistryVersion)
	require.Len(t, d.Candidates, 5)

	reddit, ok := d.Candidate("reddit")
	require.True(t, ok)
	assert.InDelta(t, 0.98*(1-0.1*0.04), reddit.SynthesisScore, 1e-9)
	assert.Equal(t, types.OutcomeSelected, reddit.Outcome)

	for _, id := range []string{"github", "twitter", "producthunt"} {
		c, ok := d.Candidate(id)
		require.True(t, ok, id)
		assert.Equal(t, types.OutcomeBelowQualityFloor, c.Outcome, id)
		assert.Less(t, c.SynthesisScore, 0.55, id)
	}

	mean := (reddit.SynthesisScore + d.Candidates[1].SynthesisScore) / 2
	assert.InDelta(t, mean, d.AggregateSynthesisQuality, 1e-12)
}

func TestDecideUnclassifiedQueryUsesDefaultContext(t *testing.T) {
	d, err := Decide("", defaultSnapshot(t), policy.DefaultTable(), score.New(score.DefaultTensionPenalty))
	require.NoError(t, err)
	assert.Equal(t, types.DefaultContext, d.Context)
	assert.Zero(t, d.Confidence)
	assert.NotEmpty(t, d.Selected)
}

func TestDecideRegistryEmpty(t *testing.T) {
	empty, err := registry.NewSnapshot(1, nil)
	require.NoError(t, err)

	_, err = Decide(painQuery, empty, policy.DefaultTable(), score.New(score.DefaultTensionPenalty))
	assert.True(t, errors.Is(err, ErrRegistryEmpty))

	_, err = Decide(painQuery, nil, policy.DefaultTable(), score.New(score.DefaultTensionPenalty))
	assert.ErrorIs(t, err, ErrRegistryEmpty)
}

func TestDecideMissingConfiguration(t *testing.T) {
	table := policy.DefaultTable()
	delete(table, types.ContextPainPointDiscovery)

	_, err := Decide(painQuery, defaultSnapshot(t), table, score.New(score.DefaultTensionPenalty))
	assert.ErrorIs(t, err, policy.ErrMissingConfiguration)
}

func TestDecideBudgetInfeasibleFallback(t *testing.T) {
	table := policy.DefaultTable()
	cfg := table[types.ContextPainPointDiscovery]
	cfg.BudgetCeiling = 0.1
	table[types.ContextPainPointDiscovery] = cfg

	d, err := Decide(painQuery, defaultSnapshot(t), table, score.New(score.DefaultTensionPenalty))
	require.NoError(t, err)
	assert.True(t, d.FallbackApplied)
	assert.Equal(t, []string{"reddit"}, d.Selected)
	assert.Equal(t, 0.5, d.TotalCost)

	c, _ := d.Candidate("reddit")
	assert.Equal(t, types.OutcomeFallback, c.Outcome)
}

func TestDecideDeterministic(t *testing.T) {
	snap := defaultSnapshot(t)
	table := policy.DefaultTable()
	scorer := score.New(score.DefaultTensionPenalty)

	for _, q := range []string{painQuery, "emerging frameworks", "notion vs obsidian", "", "the weather"} {
		first, err := Decide(q, snap, table, scorer)
		require.NoError(t, err)
		for i := 0; i < 5; i++ {
			again, err := Decide(q, snap, table, scorer)
			require.NoError(t, err)
			assert.Equal(t, first, again, q)
		}
	}
}

func TestDecideEveryContextWithinBudget(t *testing.T) {
	snap := defaultSnapshot(t)
	table := policy.DefaultTable()
	queries := map[types.QueryContext]string{
		types.ContextPainPointDiscovery: painQuery,
		types.ContextTechnicalTrends:    "emerging frameworks and their adoption",
		types.ContextMarketValidation:   "would anyone pay for a niche calendar app",
		types.ContextDeveloperInsights:  "which sdk do developers prefer",
		types.ContextRealTimeMonitoring: "monitor the outage right now",
		types.ContextCompetitive:        "notion vs obsidian alternatives",
		types.ContextSentiment:          "how do people feel about the rebrand",
		types.ContextGeneralExploration: "give me an overview of the landscape",
	}
	for ctx, q := range queries {
		t.Run(string(ctx), func(t *testing.T) {
			d, err := Decide(q, snap, table, score.New(score.DefaultTensionPenalty))
			require.NoError(t, err)
			assert.Equal(t, ctx, d.Context)
			assert.NotEmpty(t, d.Selected)
			if !d.FallbackApplied {
				assert.LessOrEqual(t, d.TotalCost, table[ctx].BudgetCeiling+1e-9)
			}
		})
	}
}

func TestNewValidates(t *testing.T) {
	reg, err := registry.New(registry.DefaultProfiles(), nil)
	require.NoError(t, err)

	table := policy.DefaultTable()
	delete(table, types.ContextSentiment)
	_, err = New(reg, table, Options{})
	assert.ErrorIs(t, err, policy.ErrMissingConfiguration)

	empty, err := registry.New(nil, nil)
	require.NoError(t, err)
	_, err = New(empty, policy.DefaultTable(), Options{})
	assert.ErrorIs(t, err, ErrRegistryEmpty)
}

func TestNewClonesTable(t *testing.T) {
	table := policy.DefaultTable()
	e := newEngine(t, table, Options{})

	cfg := table[types.ContextPainPointDiscovery]
	cfg.BudgetCeiling = 0.1
	table[types.ContextPainPointDiscovery] = cfg

	d, err := e.Decide(context.Background(), painQuery)
	require.NoError(t, err)
	assert.False(t, d.FallbackApplied)
}

func TestNewDefaultsTensionPenalty(t *testing.T) {
	e := newEngine(t, policy.DefaultTable(), Options{})
	got, err := e.Decide(context.Background(), painQuery)
	require.NoError(t, err)

	want, err := Decide(painQuery, defaultSnapshot(t), policy.DefaultTable(), score.New(score.DefaultTensionPenalty))
	require.NoError(t, err)
	assert.Equal(t, want.Candidates, got.Candidates)

	reddit, ok := got.Candidate("reddit")
	require.True(t, ok)
	assert.InDelta(t, 0.98*(1-0.1*0.04), reddit.SynthesisScore, 1e-9)

	noPenalty := score.New(0)
	e = newEngine(t, policy.DefaultTable(), Options{Scorer: &noPenalty})
	got, err = e.Decide(context.Background(), painQuery)
	require.NoError(t, err)
	reddit, ok = got.Candidate("reddit")
	require.True(t, ok)
	assert.InDelta(t, 0.98, reddit.SynthesisScore, 1e-9)
}

type memorySink struct {
	mu      sync.Mutex
	queries []string
	err     error
}

func (s *memorySink) Record(_ context.Context, query string, _ types.SelectionDecision) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.queries = append(s.queries, query)
	return "id", nil
}

func TestEngineDecideRecords(t *testing.T) {
	rep := report.NewReporter(types.ReporterConfig{WindowSize: 10})
	sink := &memorySink{}
	e := newEngine(t, policy.DefaultTable(), Options{Reporter: rep, Sink: sink, CacheSize: 8})

	want, err := Decide(painQuery, defaultSnapshot(t), policy.DefaultTable(), score.New(score.DefaultTensionPenalty))
	require.NoError(t, err)

	got, err := e.Decide(context.Background(), painQuery)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	assert.Equal(t, 1, rep.Stats().Decisions)
	assert.Equal(t, []string{painQuery}, sink.queries)
	assert.Same(t, rep, e.Reporter())
}

func TestEngineSinkFailureDoesNotFailDecision(t *testing.T) {
	e := newEngine(t, policy.DefaultTable(), Options{Sink: &memorySink{err: errors.New("disk full")}})
	d, err := e.Decide(context.Background(), painQuery)
	require.NoError(t, err)
	assert.NotEmpty(t, d.Selected)
}

func TestEngineDecideCanceled(t *testing.T) {
	e := newEngine(t, policy.DefaultTable(), Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Decide(ctx, painQuery)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngineStaleRegistry(t *testing.T) {
	e := newEngine(t, policy.DefaultTable(), Options{})

	failing := registry.EnhancerFunc(func(context.Context, []types.SourceProfile) (map[string]float64, error) {
		return nil, registry.ErrEnhancerUnavailable
	})
	require.Error(t, e.Registry().Refresh(context.Background(), failing))

	d, err := e.Decide(context.Background(), painQuery)
	require.NoError(t, err)
	assert.True(t, d.RegistryStale)
	assert.Equal(t, []string{"reddit", "hackernews"}, d.Selected, "stale profiles still serve decisions")
}

func TestEngineClassifyCache(t *testing.T) {
	e := newEngine(t, policy.DefaultTable(), Options{CacheSize: 2})

	first := e.Classify("Emerging  FRAMEWORKS")
	second := e.Classify("emerging frameworks")
	assert.Equal(t, first, second)
	assert.Equal(t, 1, e.cache.Len(), "normalized queries share a cache entry")

	first.Scores[types.ContextTechnicalTrends] = 99
	assert.NotEqual(t, 99.0, e.Classify("emerging frameworks").Scores[types.ContextTechnicalTrends])
}

func TestEngineConcurrentDecideDuringRefresh(t *testing.T) {
	e := newEngine(t, policy.DefaultTable(), Options{
		Reporter:  report.NewReporter(types.ReporterConfig{WindowSize: 100}),
		CacheSize: 16,
	})

	ctx := context.Background()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			scores := registry.StaticEnhancer{"reddit": float64(i%10) / 10}
			_ = e.Registry().Refresh(ctx, scores)
		}
	}()

	queries := []string{painQuery, "emerging frameworks", "notion vs obsidian", "the weather"}
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				d, err := e.Decide(ctx, queries[(g+i)%len(queries)])
				assert.NoError(t, err)
				assert.NotEmpty(t, d.Selected)
				assert.Len(t, d.Candidates, 5)
			}
		}(g)
	}
	wg.Wait()
	assert.Equal(t, 100, e.Reporter().Len())
}
