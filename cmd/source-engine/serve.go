// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/source-engine/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the engine as an HTTP service",
	Long: `Serve exposes decisions over HTTP (POST /v1/decisions) together with the
rolling report, the registry, the context table, health, and Prometheus
metrics. When an authority service is configured, authority scores are
refreshed in the background; with registry.watch set, catalog file edits are
picked up without a restart.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := engineConfig()
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}

		a, err := newApp(cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		bgCtx, cancelBg := context.WithCancel(ctx)
		bgDone := make(chan struct{})
		go func() {
			a.runBackground(bgCtx)
			close(bgDone)
		}()
		defer func() {
			cancelBg()
			<-bgDone
		}()

		return server.New(a.engine, a.metrics, logger).ListenAndServe(ctx, cfg.Server.Addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default: server.addr or :8080)")
	rootCmd.AddCommand(serveCmd)
}
