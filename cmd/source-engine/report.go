// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/source-engine/internal/decisionlog"
	"github.com/pdiddy/source-engine/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize decisions recorded in the decision log",
	Long: `Report replays recent decisions from the decision log into a rolling
window and prints selection frequency per source, average synthesis quality,
average cost, and the fallback and stale rates.

Use --export to write the recorded decisions as yaml, json, or xlsx to the
--output file (stdout when omitted).`,
	RunE: runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, _, err := engineConfig()
	if err != nil {
		return err
	}
	if path, _ := cmd.Flags().GetString("db"); path != "" {
		cfg.DecisionLog.Path = path
	}
	if cfg.DecisionLog.Path == "" {
		cfg.DecisionLog.Path = decisionlog.DefaultPath
	}

	store, err := decisionlog.Open(cfg.DecisionLog)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	out := cmd.OutOrStdout()

	if format, _ := cmd.Flags().GetString("export"); format != "" {
		w := out
		if path, _ := cmd.Flags().GetString("output"); path != "" {
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("creating export file: %w", err)
			}
			defer f.Close()
			w = f
		}
		return store.Export(cmd.Context(), format, w, limit)
	}

	rep := report.NewReporter(cfg.Reporter)
	if _, err := store.Replay(cmd.Context(), rep, limit); err != nil {
		return err
	}

	stats := rep.Stats()
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}
	report.FormatStatsTable(stats, out)
	return nil
}

func init() {
	reportCmd.Flags().String("db", "", "decision log database (default: decision_log.path or decisions.db)")
	reportCmd.Flags().Int("limit", 0, "only use the most recent N decisions (0 = reporter window)")
	reportCmd.Flags().Bool("json", false, "output statistics as JSON")
	reportCmd.Flags().String("export", "", "export decisions instead: yaml, json, or xlsx")
	reportCmd.Flags().String("output", "", "export destination file (default: stdout)")
	rootCmd.AddCommand(reportCmd)
}
