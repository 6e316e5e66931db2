// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package decisionlog

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/source-engine/internal/report"
	"github.com/pdiddy/source-engine/pkg/types"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(types.DecisionLogConfig{Path: filepath.Join(t.TempDir(), "log", "decisions.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func painDecision() types.SelectionDecision {
	return types.SelectionDecision{
		Context:    types.ContextPainPointDiscovery,
		Confidence: 1,
		Selected:   []string{"reddit", "hackernews"},
		Candidates: []types.ScoreRecord{
			{SourceID: "reddit", ThesisScore: 0.96, AntithesisScore: 1, Tension: 0.04, SynthesisScore: 0.976, Cost: 0.5, Selected: true, Outcome: types.OutcomeSelected},
			{SourceID: "hackernews", ThesisScore: 0.7, AntithesisScore: 0.857, Tension: 0.157, SynthesisScore: 0.766, Cost: 1, Selected: true, Outcome: types.OutcomeSelected},
			{SourceID: "twitter", ThesisScore: 0.675, AntithesisScore: 0.33, Tension: 0.345, SynthesisScore: 0.488, Cost: 2.5, Outcome: types.OutcomeBelowQualityFloor},
		},
		TotalCost:                 1.5,
		AggregateSynthesisQuality: 0.871,
		BudgetCeiling:             3,
		RegistryVersion:           4,
	}
}

func fallbackDecision() types.SelectionDecision {
	return types.SelectionDecision{
		Context:  types.ContextSentiment,
		Selected: []string{"twitter"},
		Candidates: []types.ScoreRecord{
			{SourceID: "twitter", SynthesisScore: 0.6, Cost: 2.5, Selected: true, Outcome: types.OutcomeFallback},
		},
		TotalCost:                 2.5,
		AggregateSynthesisQuality: 0.6,
		FallbackApplied:           true,
		BudgetCeiling:             1,
		RegistryVersion:           5,
		RegistryStale:             true,
	}
}

func TestRecordAndRecent(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	id1, err := s.Record(ctx, "customers hate slow onboarding", painDecision())
	require.NoError(t, err)
	id2, err := s.Record(ctx, "how do people feel", fallbackDecision())
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	entries, err := s.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, id2, entries[0].ID, "newest first")
	assert.Equal(t, fallbackDecision(), entries[0].Decision)
	assert.Equal(t, id1, entries[1].ID)
	assert.Equal(t, "customers hate slow onboarding", entries[1].Query)
	assert.Equal(t, painDecision(), entries[1].Decision)
	assert.WithinDuration(t, time.Now(), entries[1].RecordedAt, time.Minute)

	limited, err := s.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, id2, limited[0].ID)
}

func TestRecentEmpty(t *testing.T) {
	entries, err := openStore(t).Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRecentAcrossCandidateBatches(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	prev := candidateBatchSize
	candidateBatchSize = 2
	t.Cleanup(func() { candidateBatchSize = prev })

	for i := 0; i < 5; i++ {
		_, err := s.Record(ctx, "batch", painDecision())
		require.NoError(t, err)
	}

	entries, err := s.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 5)
	for _, e := range entries {
		assert.Equal(t, painDecision(), e.Decision)
	}
}

func TestRecentBeyondSQLiteVariableLimit(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO decisions (id, query, context, confidence, total_cost, aggregate_quality,
			fallback_applied, budget_ceiling, registry_version, registry_stale, recorded_at)
		WITH RECURSIVE n(i) AS (SELECT 1 UNION ALL SELECT i + 1 FROM n WHERE i < 33000)
		SELECT printf('bulk-%05d', i), 'q', 'general_exploration', 0, 0, 0, 0, 1, 1, 0,
			'2026-01-01T00:00:00Z' FROM n`)
	require.NoError(t, err)
	id, err := s.Record(ctx, "latest", painDecision())
	require.NoError(t, err)

	entries, err := s.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 33001)
	assert.Equal(t, id, entries[0].ID)
	assert.Equal(t, painDecision(), entries[0].Decision)

	var buf bytes.Buffer
	require.NoError(t, s.Export(ctx, FormatJSON, &buf, 0))
}

func TestReopenKeepsDecisions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions.db")
	s, err := Open(types.DecisionLogConfig{Path: path})
	require.NoError(t, err)
	_, err = s.Record(context.Background(), "q", painDecision())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(types.DecisionLogConfig{Path: path})
	require.NoError(t, err)
	defer s.Close()
	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRecordConcurrent(t *testing.T) {
	s := openStore(t)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				_, err := s.Record(context.Background(), "q", painDecision())
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20, n)
}

func TestReplay(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := s.Record(ctx, "q", painDecision())
		require.NoError(t, err)
	}
	_, err := s.Record(ctx, "q", fallbackDecision())
	require.NoError(t, err)

	rep := report.NewReporter(types.ReporterConfig{WindowSize: 10})
	n, err := s.Replay(ctx, rep, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	stats := rep.Stats()
	assert.Equal(t, 4, stats.Decisions)
	assert.Equal(t, 3, stats.SelectionFrequency["reddit"])
	assert.InDelta(t, 0.25, stats.FallbackRate, 1e-12)

	small := report.NewReporter(types.ReporterConfig{WindowSize: 1})
	_, err = s.Replay(ctx, small, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, small.Stats().ContextCounts[types.ContextSentiment], "the newest decision is replayed last")
}

func TestExportYAMLAndJSON(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	_, err := s.Record(ctx, "customers hate slow onboarding", painDecision())
	require.NoError(t, err)

	var yamlBuf bytes.Buffer
	require.NoError(t, s.ExportYAML(ctx, &yamlBuf, 0))
	var fromYAML []ExportEntry
	require.NoError(t, yaml.Unmarshal(yamlBuf.Bytes(), &fromYAML))
	require.Len(t, fromYAML, 1)
	assert.Equal(t, []string{"reddit", "hackernews"}, fromYAML[0].Selected)
	assert.Equal(t, "pain_point_discovery", fromYAML[0].Context)

	var jsonBuf bytes.Buffer
	require.NoError(t, s.Export(ctx, "JSON", &jsonBuf, 0))
	var fromJSON []ExportEntry
	require.NoError(t, json.Unmarshal(jsonBuf.Bytes(), &fromJSON))
	require.Len(t, fromJSON, 1)
	assert.Equal(t, 1.5, fromJSON[0].TotalCost)
	assert.Equal(t, fromYAML[0].ID, fromJSON[0].ID)
}

func TestExportXLSX(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	_, err := s.Record(ctx, "customers hate slow onboarding", painDecision())
	require.NoError(t, err)
	_, err = s.Record(ctx, "how do people feel", fallbackDecision())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, s.Export(ctx, FormatXLSX, &buf, 0))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	decisions, err := f.GetRows(decisionsSheet)
	require.NoError(t, err)
	require.Len(t, decisions, 3)
	assert.Equal(t, decisionHeaders, decisions[0])
	assert.Equal(t, "how do people feel", decisions[1][2])
	assert.Equal(t, "reddit,hackernews", decisions[2][5])

	candidates, err := f.GetRows(candidatesSheet)
	require.NoError(t, err)
	assert.Len(t, candidates, 1+1+3)
	assert.Equal(t, "fallback", candidates[1][9])
}

func TestExportUnknownFormat(t *testing.T) {
	err := openStore(t).Export(context.Background(), "csv", &bytes.Buffer{}, 0)
	assert.ErrorContains(t, err, "unknown export format")
}

func TestDecisionFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decision.yaml")
	require.NoError(t, WriteDecisionFile(path, "customers hate slow onboarding", painDecision()))

	df, err := ReadDecisionFile(path)
	require.NoError(t, err)
	assert.Equal(t, "customers hate slow onboarding", df.Query)
	assert.Equal(t, painDecision(), df.Decision)
	assert.Equal(t, 3, df.Summary.Candidates)
	assert.Equal(t, 2, df.Summary.Selected)
	assert.False(t, df.Summary.Timestamp.IsZero())
}

func TestReadDecisionFileErrors(t *testing.T) {
	_, err := ReadDecisionFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "reading decision file")
}
