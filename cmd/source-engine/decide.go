// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/source-engine/internal/decisionlog"
	"github.com/pdiddy/source-engine/internal/report"
)

var decideCmd = &cobra.Command{
	Use:   "decide [query]",
	Short: "Select the data sources to query for a research question",
	Long: `Decide classifies the query, scores every source in the catalog for the
resulting context, and prints the selected sources with the full scoring
provenance of every candidate.

Use --save to write the query and decision to a YAML file, and --load to
print a previously saved decision without re-running it.`,
	RunE: runDecide,
}

func runDecide(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	out := cmd.OutOrStdout()

	if loadPath, _ := cmd.Flags().GetString("load"); loadPath != "" {
		df, err := decisionlog.ReadDecisionFile(loadPath)
		if err != nil {
			return err
		}
		if jsonOutput {
			return report.FormatDecisionJSON(df.Decision, out)
		}
		fmt.Fprintf(out, "Query: %s\n", df.Query)
		report.FormatDecisionTable(df.Decision, out)
		return nil
	}

	query := strings.Join(args, " ")
	if q, _ := cmd.Flags().GetString("query"); q != "" {
		query = q
	}

	cfg, logger, err := engineConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	d, err := a.engine.Decide(cmd.Context(), query)
	if err != nil {
		return err
	}

	if savePath, _ := cmd.Flags().GetString("save"); savePath != "" {
		if err := decisionlog.WriteDecisionFile(savePath, query, d); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Decision saved to %s\n", savePath)
	}

	if jsonOutput {
		return report.FormatDecisionJSON(d, out)
	}
	report.FormatDecisionTable(d, out)
	return nil
}

func init() {
	decideCmd.Flags().String("query", "", "research question (alternative to positional arguments)")
	decideCmd.Flags().Bool("json", false, "output the decision as JSON")
	decideCmd.Flags().String("save", "", "write the query and decision to a YAML file")
	decideCmd.Flags().String("load", "", "print a decision saved with --save instead of deciding")

	rootCmd.AddCommand(decideCmd)
}
