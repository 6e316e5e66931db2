// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/source-engine/internal/policy"
)

var contextsCmd = &cobra.Command{
	Use:   "contexts",
	Short: "Show the context configuration table",
	Long: `Contexts prints the budget ceiling, quality floor, thesis/antithesis
weights, and source affinities of every query context.

With --validate, the configured policy file is checked for exhaustiveness and
internal consistency and nothing else is printed. Use --write to save the
effective table as a starting point for a custom policy file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := engineConfig()
		if err != nil {
			return err
		}

		table := policy.DefaultTable()
		if cfg.Policy.Path != "" {
			// LoadTable validates.
			t, err := policy.LoadTable(cfg.Policy.Path)
			if err != nil {
				return err
			}
			table = t
		}

		out := cmd.OutOrStdout()
		if validate, _ := cmd.Flags().GetBool("validate"); validate {
			if err := table.Validate(); err != nil {
				return err
			}
			fmt.Fprintf(out, "%d contexts configured, all valid\n", len(table))
			return nil
		}

		if path, _ := cmd.Flags().GetString("write"); path != "" {
			if err := policy.WriteTable(path, table); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Policy written to %s\n", path)
		}

		fmt.Fprintf(out, "%-24s  %-6s  %-5s  %-9s  %s\n", "Context", "Budget", "Floor", "Weights", "Affinity")
		fmt.Fprintln(out, strings.Repeat("-", 90))
		for _, ctx := range table.Contexts() {
			c := table[ctx]
			fmt.Fprintf(out, "%-24s  %-6.2f  %-5.2f  %.1f/%.1f    %s\n",
				ctx, c.BudgetCeiling, c.MinSynthesisQuality, c.ThesisWeight, c.AntithesisWeight,
				formatAffinity(c.SourceAffinity))
		}
		return nil
	},
}

func formatAffinity(aff map[string]float64) string {
	if len(aff) == 0 {
		return "-"
	}
	ids := make([]string, 0, len(aff))
	for id := range aff {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%s=%.1f", id, aff[id])
	}
	return strings.Join(parts, " ")
}

func init() {
	contextsCmd.Flags().Bool("validate", false, "validate the policy and exit")
	contextsCmd.Flags().String("write", "", "write the effective table to a YAML file")
	rootCmd.AddCommand(contextsCmd)
}
