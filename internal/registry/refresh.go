// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/pdiddy/source-engine/internal/logging"
)

// DefaultRefreshInterval is the authority refresh period when none is configured.
const DefaultRefreshInterval = time.Hour

// Refresher periodically refreshes a registry's authority scores.
type Refresher struct {
	Registry *Registry
	Enhancer Enhancer
	Interval time.Duration
	Logger   *slog.Logger
}

// Run refreshes once immediately and then on every tick until ctx is
// cancelled. Refresh failures are logged and leave the registry stale; they
// do not stop the loop.
func (r *Refresher) Run(ctx context.Context) error {
	interval := r.Interval
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	logger := logging.OrDiscard(r.Logger)

	r.refresh(ctx, logger)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.refresh(ctx, logger)
		}
	}
}

func (r *Refresher) refresh(ctx context.Context, logger *slog.Logger) {
	if err := r.Registry.Refresh(ctx, r.Enhancer); err != nil {
		logger.Warn("registry is stale", "error", err)
	}
}

// Watch reloads the catalog at path into reg whenever the file is written or
// recreated, until ctx is cancelled. The parent directory is watched so that
// editors that replace the file atomically are handled. A catalog that fails
// to load, or loads empty, is logged and the last good snapshot stays
// published. Reloaded profiles keep the authority scores of the last
// successful refresh, and a stale registry stays stale until a refresh
// succeeds.
func Watch(ctx context.Context, reg *Registry, path string, logger *slog.Logger) error {
	logger = logging.OrDiscard(logger)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	target := filepath.Clean(path)
	if err := w.Add(filepath.Dir(target)); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			profiles, err := LoadCatalog(target)
			if err != nil {
				logger.Warn("catalog reload failed; keeping previous snapshot", "path", target, "error", err)
				continue
			}
			// Truncate-then-write shows up as an empty file first.
			if len(profiles) == 0 {
				logger.Warn("catalog is empty; keeping previous snapshot", "path", target)
				continue
			}
			if err := reg.Replace(profiles); err != nil {
				logger.Warn("catalog rejected", "path", target, "error", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("catalog watcher error", "error", err)
		}
	}
}
