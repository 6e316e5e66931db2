// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/source-engine/internal/classify"
	"github.com/pdiddy/source-engine/pkg/types"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [query]",
	Short: "Show which query context a research question maps to",
	Long: `Classify prints the context a query resolves to, the classifier's
confidence, and the match score of every context that matched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		res := classify.Classify(strings.Join(args, " "))
		out := cmd.OutOrStdout()

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}

		fmt.Fprintf(out, "Context:    %s\n", res.Context)
		fmt.Fprintf(out, "Confidence: %.2f\n", res.Confidence)
		if len(res.Scores) > 0 {
			fmt.Fprintln(out)
			for _, ctx := range types.AllContexts() {
				if s, ok := res.Scores[ctx]; ok {
					fmt.Fprintf(out, "  %-24s  %.0f\n", ctx, s)
				}
			}
		}
		return nil
	},
}

func init() {
	classifyCmd.Flags().Bool("json", false, "output the classification as JSON")
	rootCmd.AddCommand(classifyCmd)
}
