// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/pdiddy/source-engine/pkg/types"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// FormatDecisionTable writes a human-readable table of a decision's
// candidates, selected rows highlighted.
func FormatDecisionTable(d types.SelectionDecision, w io.Writer) {
	fmt.Fprintf(w, "%s %s (confidence %.2f)\n", bold("Context:"), d.Context, d.Confidence)
	fmt.Fprintf(w, "%s v%d", bold("Registry:"), d.RegistryVersion)
	if d.RegistryStale {
		fmt.Fprintf(w, " %s", yellow("(stale)"))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%-4s  %-16s  %-6s  %-6s  %-6s  %-6s  %-6s  %s\n",
		"Rank", "Source", "Thesis", "Anti", "Tens", "Synth", "Cost", "Outcome")
	fmt.Fprintln(w, strings.Repeat("-", 80))

	for i, c := range d.Candidates {
		line := fmt.Sprintf("%-4d  %-16s  %-6.3f  %-6.3f  %-6.3f  %-6.3f  %-6.2f  %s",
			i+1, truncate(c.SourceID, 16), c.ThesisScore, c.AntithesisScore,
			c.Tension, c.SynthesisScore, c.Cost, c.Outcome)
		switch {
		case c.Outcome == types.OutcomeFallback:
			line = yellow(line)
		case c.Selected:
			line = green(line)
		default:
			line = gray(line)
		}
		fmt.Fprintln(w, line)
	}

	fmt.Fprintf(w, "\nSelected %s: cost %.2f of %.2f, quality %.3f",
		strings.Join(d.Selected, ", "), d.TotalCost, d.BudgetCeiling, d.AggregateSynthesisQuality)
	if d.FallbackApplied {
		fmt.Fprintf(w, " %s", yellow("(budget infeasible, fallback applied)"))
	}
	fmt.Fprintln(w)
}

// FormatDecisionJSON writes the decision as indented JSON to w.
func FormatDecisionJSON(d types.SelectionDecision, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

// FormatStatsTable writes a summary of s to w.
func FormatStatsTable(s Stats, w io.Writer) {
	if s.Decisions == 0 {
		fmt.Fprintln(w, "No decisions recorded.")
		return
	}

	fmt.Fprintf(w, "Decisions:        %d\n", s.Decisions)
	fmt.Fprintf(w, "Avg quality:      %.3f\n", s.AverageSynthesisQuality)
	fmt.Fprintf(w, "Avg cost:         %.2f (p95 %.2f)\n", s.AverageCost, s.CostP95)
	fmt.Fprintf(w, "Avg sources:      %.2f\n", s.AverageSourcesSelected)
	fmt.Fprintf(w, "Fallback rate:    %.1f%%\n", s.FallbackRate*100)
	fmt.Fprintf(w, "Stale rate:       %.1f%%\n", s.StaleRate*100)

	fmt.Fprintf(w, "\n%-16s  %-8s  %s\n", "Source", "Selected", "Rate")
	fmt.Fprintln(w, strings.Repeat("-", 36))
	for _, id := range s.SourceIDs() {
		fmt.Fprintf(w, "%-16s  %-8d  %.1f%%\n", truncate(id, 16), s.SelectionFrequency[id], s.SelectionRate[id]*100)
	}

	fmt.Fprintf(w, "\n%-24s  %s\n", "Context", "Decisions")
	fmt.Fprintln(w, strings.Repeat("-", 36))
	for _, ctx := range types.AllContexts() {
		if n := s.ContextCounts[ctx]; n > 0 {
			fmt.Fprintf(w, "%-24s  %d\n", ctx, n)
		}
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
