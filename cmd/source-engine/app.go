// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/pdiddy/source-engine/internal/decisionlog"
	"github.com/pdiddy/source-engine/internal/engine"
	"github.com/pdiddy/source-engine/internal/policy"
	"github.com/pdiddy/source-engine/internal/registry"
	"github.com/pdiddy/source-engine/internal/report"
	"github.com/pdiddy/source-engine/internal/score"
	"github.com/pdiddy/source-engine/pkg/types"
)

// app wires the engine and its collaborators from configuration.
type app struct {
	cfg      types.EngineConfig
	logger   *slog.Logger
	registry *registry.Registry
	table    policy.Table
	engine   *engine.Engine
	reporter *report.Reporter
	store    *decisionlog.Store
	metrics  *prometheus.Registry
}

// newApp loads the catalog and policy and builds the engine. The decision log
// is opened only when a path is configured.
func newApp(cfg types.EngineConfig, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	profiles := registry.DefaultProfiles()
	if cfg.Registry.CatalogPath != "" {
		p, err := registry.LoadCatalog(cfg.Registry.CatalogPath)
		if err != nil {
			return nil, err
		}
		profiles = p
	}
	reg, err := registry.New(profiles, logger)
	if err != nil {
		return nil, err
	}
	a.registry = reg

	a.table = policy.DefaultTable()
	if cfg.Policy.Path != "" {
		t, err := policy.LoadTable(cfg.Policy.Path)
		if err != nil {
			return nil, err
		}
		a.table = t
	}

	a.reporter = report.NewReporter(cfg.Reporter)
	a.metrics = prometheus.NewRegistry()
	a.metrics.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := report.NewMetrics(a.metrics)
	if err != nil {
		return nil, err
	}

	scorer := score.New(cfg.Scoring.TensionPenalty)
	opts := engine.Options{
		Scorer:    &scorer,
		Reporter:  a.reporter,
		Metrics:   m,
		Logger:    logger,
		CacheSize: cfg.Cache.ClassificationCacheSize,
	}
	if cfg.DecisionLog.Path != "" {
		store, err := decisionlog.Open(cfg.DecisionLog)
		if err != nil {
			return nil, err
		}
		a.store = store
		opts.Sink = store
	}

	e, err := engine.New(reg, a.table, opts)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.engine = e
	return a, nil
}

// enhancer returns the authority client, or nil when no service is configured.
func (a *app) enhancer() registry.Enhancer {
	auth := a.cfg.Registry.Authority
	if auth.BaseURL == "" {
		return nil
	}
	return registry.NewAuthorityClient(&http.Client{Timeout: auth.Timeout}, auth)
}

// runBackground starts the authority refresher and catalog watcher as
// configured and blocks until ctx is done.
func (a *app) runBackground(ctx context.Context) {
	done := make(chan struct{}, 2)
	running := 0

	if e := a.enhancer(); e != nil {
		running++
		r := &registry.Refresher{
			Registry: a.registry,
			Enhancer: e,
			Interval: a.cfg.Registry.RefreshInterval,
			Logger:   a.logger,
		}
		go func() {
			_ = r.Run(ctx)
			done <- struct{}{}
		}()
	}
	if a.cfg.Registry.Watch && a.cfg.Registry.CatalogPath != "" {
		running++
		go func() {
			if err := registry.Watch(ctx, a.registry, a.cfg.Registry.CatalogPath, a.logger); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("catalog watch stopped", "error", err)
			}
			done <- struct{}{}
		}()
	}

	for ; running > 0; running-- {
		<-done
	}
}

// Close releases the decision log.
func (a *app) Close() error {
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}
