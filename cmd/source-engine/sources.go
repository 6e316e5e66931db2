// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/source-engine/internal/registry"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the sources in the catalog",
	Long: `Sources prints every source profile in the configured catalog (or the
built-in catalog). With --refresh, authority scores are fetched from the
configured authority service first.

Use --write to save the catalog, for example to seed a custom catalog file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := engineConfig()
		if err != nil {
			return err
		}
		a, err := newApp(cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		if refresh, _ := cmd.Flags().GetBool("refresh"); refresh {
			e := a.enhancer()
			if e == nil {
				return fmt.Errorf("no authority service configured (registry.authority.base_url)")
			}
			if err := a.registry.Refresh(cmd.Context(), e); err != nil {
				return err
			}
		}

		snap := a.registry.Current()
		if path, _ := cmd.Flags().GetString("write"); path != "" {
			if err := registry.WriteCatalog(path, snap.All()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Catalog written to %s\n", path)
		}

		out := cmd.OutOrStdout()
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(snap.All())
		}

		fmt.Fprintf(out, "%-16s  %-7s  %-9s  %-6s  %s\n", "Source", "Quality", "Authority", "Cost", "Coverage")
		fmt.Fprintln(out, strings.Repeat("-", 56))
		for _, p := range snap.All() {
			fmt.Fprintf(out, "%-16s  %-7.2f  %-9.2f  %-6.2f  %.2f\n",
				p.ID, p.BaseQuality, p.AuthorityScore, p.CostPerCall, p.CoverageWeight)
		}
		fmt.Fprintf(out, "\n%d sources (registry v%d", snap.Len(), snap.Version())
		if snap.Stale() {
			fmt.Fprint(out, ", stale")
		}
		fmt.Fprintln(out, ")")
		return nil
	},
}

func init() {
	sourcesCmd.Flags().Bool("json", false, "output profiles as JSON")
	sourcesCmd.Flags().Bool("refresh", false, "refresh authority scores before listing")
	sourcesCmd.Flags().String("write", "", "write the catalog to a YAML or TOML file")
	rootCmd.AddCommand(sourcesCmd)
}
