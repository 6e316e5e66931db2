// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package decisionlog persists selection decisions to SQLite for offline
// analysis: every decision with its full candidate provenance, recent-history
// queries, replay into a reporter, and YAML/JSON/XLSX exports.
package decisionlog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/source-engine/internal/report"
	"github.com/pdiddy/source-engine/pkg/types"
)

// DefaultPath is used when the configuration leaves the path empty.
const DefaultPath = "decisions.db"

// Entry is one stored decision.
type Entry struct {
	ID         string                  `json:"id" yaml:"id"`
	Query      string                  `json:"query" yaml:"query"`
	RecordedAt time.Time               `json:"recorded_at" yaml:"recorded_at"`
	Decision   types.SelectionDecision `json:"decision" yaml:"decision"`
}

type decisionRow struct {
	ID              string  `db:"id"`
	Query           string  `db:"query"`
	Context         string  `db:"context"`
	Confidence      float64 `db:"confidence"`
	TotalCost       float64 `db:"total_cost"`
	Quality         float64 `db:"aggregate_quality"`
	FallbackApplied bool    `db:"fallback_applied"`
	BudgetCeiling   float64 `db:"budget_ceiling"`
	RegistryVersion int64   `db:"registry_version"`
	RegistryStale   bool    `db:"registry_stale"`
	RecordedAt      string  `db:"recorded_at"`
}

type candidateRow struct {
	DecisionID string  `db:"decision_id"`
	Rank       int     `db:"rank"`
	SourceID   string  `db:"source_id"`
	Thesis     float64 `db:"thesis"`
	Antithesis float64 `db:"antithesis"`
	Tension    float64 `db:"tension"`
	Synthesis  float64 `db:"synthesis"`
	Cost       float64 `db:"cost"`
	Selected   bool    `db:"selected"`
	Outcome    string  `db:"outcome"`
}

// Store is the SQLite decision log. It is safe for concurrent use.
type Store struct {
	db      *sqlx.DB
	nowFunc func() time.Time
}

// Open opens or creates the decision log at cfg.Path, creating the schema
// if needed.
func Open(cfg types.DecisionLogConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = DefaultPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating decision log directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// SQLite allows one writer; a single connection queues writers in Go
	// instead of failing them with SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, nowFunc: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS decisions (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			query TEXT NOT NULL,
			context TEXT NOT NULL,
			confidence REAL NOT NULL,
			total_cost REAL NOT NULL,
			aggregate_quality REAL NOT NULL,
			fallback_applied INTEGER NOT NULL,
			budget_ceiling REAL NOT NULL,
			registry_version INTEGER NOT NULL,
			registry_stale INTEGER NOT NULL,
			recorded_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS candidates (
			decision_id TEXT NOT NULL REFERENCES decisions(id) ON DELETE CASCADE,
			rank INTEGER NOT NULL,
			source_id TEXT NOT NULL,
			thesis REAL NOT NULL,
			antithesis REAL NOT NULL,
			tension REAL NOT NULL,
			synthesis REAL NOT NULL,
			cost REAL NOT NULL,
			selected INTEGER NOT NULL,
			outcome TEXT NOT NULL,
			PRIMARY KEY (decision_id, rank)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_decisions_context ON decisions(context)`,
		`CREATE INDEX IF NOT EXISTS idx_candidates_source ON candidates(source_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores d with its candidates in one transaction and returns the
// id assigned to it.
func (s *Store) Record(ctx context.Context, query string, d types.SelectionDecision) (string, error) {
	id := uuid.NewString()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	row := decisionRow{
		ID:              id,
		Query:           query,
		Context:         string(d.Context),
		Confidence:      d.Confidence,
		TotalCost:       d.TotalCost,
		Quality:         d.AggregateSynthesisQuality,
		FallbackApplied: d.FallbackApplied,
		BudgetCeiling:   d.BudgetCeiling,
		RegistryVersion: int64(d.RegistryVersion),
		RegistryStale:   d.RegistryStale,
		RecordedAt:      s.nowFunc().UTC().Format(time.RFC3339Nano),
	}
	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO decisions (id, query, context, confidence, total_cost, aggregate_quality,
			fallback_applied, budget_ceiling, registry_version, registry_stale, recorded_at)
		VALUES (:id, :query, :context, :confidence, :total_cost, :aggregate_quality,
			:fallback_applied, :budget_ceiling, :registry_version, :registry_stale, :recorded_at)`,
		row); err != nil {
		return "", fmt.Errorf("inserting decision: %w", err)
	}

	for i, c := range d.Candidates {
		cr := candidateRow{
			DecisionID: id,
			Rank:       i + 1,
			SourceID:   c.SourceID,
			Thesis:     c.ThesisScore,
			Antithesis: c.AntithesisScore,
			Tension:    c.Tension,
			Synthesis:  c.SynthesisScore,
			Cost:       c.Cost,
			Selected:   c.Selected,
			Outcome:    string(c.Outcome),
		}
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO candidates (decision_id, rank, source_id, thesis, antithesis, tension,
				synthesis, cost, selected, outcome)
			VALUES (:decision_id, :rank, :source_id, :thesis, :antithesis, :tension,
				:synthesis, :cost, :selected, :outcome)`,
			cr); err != nil {
			return "", fmt.Errorf("inserting candidate %s: %w", c.SourceID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing decision: %w", err)
	}
	return id, nil
}

// Count returns the number of stored decisions.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT count(*) FROM decisions`); err != nil {
		return 0, fmt.Errorf("counting decisions: %w", err)
	}
	return n, nil
}

// Recent returns up to limit stored decisions, newest first. A limit of zero
// or less returns all of them.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, query, context, confidence, total_cost, aggregate_quality,
		fallback_applied, budget_ceiling, registry_version, registry_stale, recorded_at
		FROM decisions ORDER BY seq DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows []decisionRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("querying decisions: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	candidates, err := s.candidates(ctx, ids)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, len(rows))
	for i, r := range rows {
		e, err := r.entry(candidates[r.ID])
		if err != nil {
			return nil, err
		}
		entries[i] = e
	}
	return entries, nil
}

// candidateBatchSize bounds the ids bound into one IN clause; SQLite rejects
// statements with more than 32766 variables.
var candidateBatchSize = 500

func (s *Store) candidates(ctx context.Context, ids []string) (map[string][]candidateRow, error) {
	out := make(map[string][]candidateRow, len(ids))
	for start := 0; start < len(ids); start += candidateBatchSize {
		end := min(start+candidateBatchSize, len(ids))
		query, args, err := sqlx.In(`SELECT decision_id, rank, source_id, thesis, antithesis, tension,
			synthesis, cost, selected, outcome
			FROM candidates WHERE decision_id IN (?) ORDER BY decision_id, rank`, ids[start:end])
		if err != nil {
			return nil, fmt.Errorf("building candidate query: %w", err)
		}

		var rows []candidateRow
		if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
			return nil, fmt.Errorf("querying candidates: %w", err)
		}
		for _, r := range rows {
			out[r.DecisionID] = append(out[r.DecisionID], r)
		}
	}
	return out, nil
}

func (r decisionRow) entry(candidates []candidateRow) (Entry, error) {
	at, err := time.Parse(time.RFC3339Nano, r.RecordedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("decision %s: invalid recorded_at %q: %w", r.ID, r.RecordedAt, err)
	}

	d := types.SelectionDecision{
		Context:                   types.QueryContext(r.Context),
		Confidence:                r.Confidence,
		TotalCost:                 r.TotalCost,
		AggregateSynthesisQuality: r.Quality,
		FallbackApplied:           r.FallbackApplied,
		BudgetCeiling:             r.BudgetCeiling,
		RegistryVersion:           uint64(r.RegistryVersion),
		RegistryStale:             r.RegistryStale,
		Candidates:                make([]types.ScoreRecord, len(candidates)),
	}
	for i, c := range candidates {
		d.Candidates[i] = types.ScoreRecord{
			SourceID:        c.SourceID,
			ThesisScore:     c.Thesis,
			AntithesisScore: c.Antithesis,
			Tension:         c.Tension,
			SynthesisScore:  c.Synthesis,
			Cost:            c.Cost,
			Selected:        c.Selected,
			Outcome:         types.Outcome(c.Outcome),
		}
		if c.Selected {
			d.Selected = append(d.Selected, c.SourceID)
		}
	}

	return Entry{ID: r.ID, Query: r.Query, RecordedAt: at, Decision: d}, nil
}

// Replay feeds up to limit stored decisions into r, oldest first, and
// returns how many were replayed.
func (s *Store) Replay(ctx context.Context, r *report.Reporter, limit int) (int, error) {
	entries, err := s.Recent(ctx, limit)
	if err != nil {
		return 0, err
	}
	for i := len(entries) - 1; i >= 0; i-- {
		r.Record(entries[i].Decision)
	}
	return len(entries), nil
}
