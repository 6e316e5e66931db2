// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package decisionlog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.yaml.in/yaml/v3"
)

// ExportEntry is the flat form of a stored decision used by exports.
type ExportEntry struct {
	ID                        string    `json:"id" yaml:"id"`
	Query                     string    `json:"query" yaml:"query"`
	RecordedAt                time.Time `json:"recorded_at" yaml:"recorded_at"`
	Context                   string    `json:"context" yaml:"context"`
	Confidence                float64   `json:"confidence" yaml:"confidence"`
	Selected                  []string  `json:"selected" yaml:"selected"`
	TotalCost                 float64   `json:"total_cost" yaml:"total_cost"`
	BudgetCeiling             float64   `json:"budget_ceiling" yaml:"budget_ceiling"`
	AggregateSynthesisQuality float64   `json:"aggregate_synthesis_quality" yaml:"aggregate_synthesis_quality"`
	FallbackApplied           bool      `json:"fallback_applied" yaml:"fallback_applied"`
	RegistryVersion           uint64    `json:"registry_version" yaml:"registry_version"`
	RegistryStale             bool      `json:"registry_stale" yaml:"registry_stale"`
}

// Export formats accepted by Export.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

// Export writes up to limit decisions to w in the named format.
func (s *Store) Export(ctx context.Context, format string, w io.Writer, limit int) error {
	switch strings.ToLower(format) {
	case FormatYAML:
		return s.ExportYAML(ctx, w, limit)
	case FormatJSON:
		return s.ExportJSON(ctx, w, limit)
	case FormatXLSX:
		return s.ExportXLSX(ctx, w, limit)
	default:
		return fmt.Errorf("unknown export format %q (want yaml, json, or xlsx)", format)
	}
}

// ExportYAML writes up to limit decisions, newest first, as YAML.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer, limit int) error {
	entries, err := s.exportEntries(ctx, limit)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// ExportJSON writes up to limit decisions, newest first, as indented JSON.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer, limit int) error {
	entries, err := s.exportEntries(ctx, limit)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}

const (
	decisionsSheet  = "Decisions"
	candidatesSheet = "Candidates"
)

var (
	decisionHeaders = []string{
		"id", "recorded_at", "query", "context", "confidence", "selected",
		"total_cost", "budget_ceiling", "aggregate_synthesis_quality",
		"fallback_applied", "registry_version", "registry_stale",
	}
	candidateHeaders = []string{
		"decision_id", "rank", "source_id", "thesis", "antithesis", "tension",
		"synthesis", "cost", "selected", "outcome",
	}
)

// ExportXLSX writes up to limit decisions as a workbook with one sheet of
// decisions and one of candidate score records.
func (s *Store) ExportXLSX(ctx context.Context, w io.Writer, limit int) error {
	entries, err := s.Recent(ctx, limit)
	if err != nil {
		return fmt.Errorf("querying for export: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", decisionsSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(candidatesSheet); err != nil {
		return err
	}

	if err := writeRow(f, decisionsSheet, 1, toAny(decisionHeaders)); err != nil {
		return err
	}
	if err := writeRow(f, candidatesSheet, 1, toAny(candidateHeaders)); err != nil {
		return err
	}

	candRow := 2
	for i, e := range entries {
		d := e.Decision
		if err := writeRow(f, decisionsSheet, i+2, []any{
			e.ID, e.RecordedAt.Format(time.RFC3339), e.Query, string(d.Context), d.Confidence,
			strings.Join(d.Selected, ","), d.TotalCost, d.BudgetCeiling,
			d.AggregateSynthesisQuality, d.FallbackApplied, d.RegistryVersion, d.RegistryStale,
		}); err != nil {
			return err
		}
		for rank, c := range d.Candidates {
			if err := writeRow(f, candidatesSheet, candRow, []any{
				e.ID, rank + 1, c.SourceID, c.ThesisScore, c.AntithesisScore, c.Tension,
				c.SynthesisScore, c.Cost, c.Selected, string(c.Outcome),
			}); err != nil {
				return err
			}
			candRow++
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("setting %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func (s *Store) exportEntries(ctx context.Context, limit int) ([]ExportEntry, error) {
	entries, err := s.Recent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	out := make([]ExportEntry, len(entries))
	for i, e := range entries {
		d := e.Decision
		out[i] = ExportEntry{
			ID:                        e.ID,
			Query:                     e.Query,
			RecordedAt:                e.RecordedAt,
			Context:                   string(d.Context),
			Confidence:                d.Confidence,
			Selected:                  d.Selected,
			TotalCost:                 d.TotalCost,
			BudgetCeiling:             d.BudgetCeiling,
			AggregateSynthesisQuality: d.AggregateSynthesisQuality,
			FallbackApplied:           d.FallbackApplied,
			RegistryVersion:           d.RegistryVersion,
			RegistryStale:             d.RegistryStale,
		}
	}
	return out, nil
}
