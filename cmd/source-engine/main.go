// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the source-engine CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/source-engine/internal/logging"
	"github.com/pdiddy/source-engine/internal/secrets"
	"github.com/pdiddy/source-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// authorityKey holds the authority service key loaded at startup.
var authorityKey string

// rootCmd is the base command for the source-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "source-engine",
	Short: "Decide which data sources to query for a research question",
	Long: `source-engine classifies a research query into a context, scores every
configured data source on coverage (thesis) and cost efficiency (antithesis),
and selects the subset that best balances the two within the context's budget.

Use decide for a single query, serve to run the engine as an HTTP service,
and report to summarize decisions recorded in the decision log.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := secrets.LoadEnv(".env"); err != nil {
			return err
		}
		dir, _ := cmd.Flags().GetString("secrets-dir")
		key, err := secrets.AuthorityKey(dir, nil)
		if err != nil {
			return err
		}
		authorityKey = key
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./source-engine.yaml or ~/.config/source-engine/config.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", secrets.DefaultDir, "directory of secret key files")
	rootCmd.PersistentFlags().String("catalog", "", "source catalog file (YAML or TOML)")
	rootCmd.PersistentFlags().String("policy", "", "context configuration file (YAML)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")

	_ = viper.BindPFlag("registry.catalog_path", rootCmd.PersistentFlags().Lookup("catalog"))
	_ = viper.BindPFlag("policy.path", rootCmd.PersistentFlags().Lookup("policy"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("source-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "source-engine"))
		}
	}

	setDefaults(viper.GetViper(), types.DefaultEngineConfig())
	viper.SetEnvPrefix("SOURCE_ENGINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// engineConfig returns the merged configuration and a logger built from it.
func engineConfig() (types.EngineConfig, *slog.Logger, error) {
	cfg, err := decodeConfig(viper.GetViper())
	if err != nil {
		return cfg, nil, err
	}
	if authorityKey != "" && cfg.Registry.Authority.APIKey == "" {
		cfg.Registry.Authority.APIKey = authorityKey
	}
	return cfg, logging.New(cfg.Log, os.Stderr), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
