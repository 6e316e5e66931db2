// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the engine over HTTP.
//
//	POST /v1/decisions   {"query": "..."} -> SelectionDecision
//	GET  /v1/classify?q= classification only
//	GET  /v1/report      rolling-window statistics
//	GET  /v1/sources     current registry snapshot
//	GET  /v1/contexts    context configuration table
//	GET  /healthz        liveness and registry staleness
//	GET  /metrics        Prometheus metrics
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pdiddy/source-engine/internal/engine"
	"github.com/pdiddy/source-engine/internal/logging"
	"github.com/pdiddy/source-engine/internal/report"
	"github.com/pdiddy/source-engine/pkg/types"
)

const (
	maxBodyBytes    = 64 << 10
	shutdownTimeout = 10 * time.Second
)

// Server routes HTTP requests to an engine.
type Server struct {
	engine   *engine.Engine
	gatherer prometheus.Gatherer
	logger   *slog.Logger
	router   *chi.Mux
}

// New returns a server for e. Metrics are served from gatherer; a nil
// gatherer disables /metrics.
func New(e *engine.Engine, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	s := &Server{
		engine:   e,
		gatherer: gatherer,
		logger:   logging.OrDiscard(logger),
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.requestLogger)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	if s.gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	s.router.Route("/v1", func(r chi.Router) {
		r.Post("/decisions", s.handleDecide)
		r.Get("/classify", s.handleClassify)
		r.Get("/report", s.handleReport)
		r.Get("/sources", s.handleSources)
		r.Get("/contexts", s.handleContexts)
	})
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method, "path", r.URL.Path, "status", ww.Status(),
			"duration", time.Since(start), "request_id", middleware.GetReqID(r.Context()))
	})
}

type decideRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleDecide(w http.ResponseWriter, r *http.Request) {
	var req decideRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "request body must be a JSON object with a query field")
		return
	}

	d, err := s.engine.Decide(r.Context(), req.Query)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, d)
	case errors.Is(err, engine.ErrRegistryEmpty):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Error("decision failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Classify(r.URL.Query().Get("q")))
}

func (s *Server) handleReport(w http.ResponseWriter, _ *http.Request) {
	rep := s.engine.Reporter()
	if rep == nil {
		writeJSON(w, http.StatusOK, report.Summarize(nil))
		return
	}
	writeJSON(w, http.StatusOK, rep.Stats())
}

type sourcesResponse struct {
	Version uint64                `json:"version"`
	Stale   bool                  `json:"stale"`
	Sources []types.SourceProfile `json:"sources"`
}

func (s *Server) handleSources(w http.ResponseWriter, _ *http.Request) {
	snap := s.engine.Registry().Current()
	writeJSON(w, http.StatusOK, sourcesResponse{
		Version: snap.Version(),
		Stale:   snap.Stale(),
		Sources: snap.All(),
	})
}

func (s *Server) handleContexts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Table())
}

type healthResponse struct {
	Status          string `json:"status"`
	RegistryVersion uint64 `json:"registry_version"`
	RegistryStale   bool   `json:"registry_stale"`
	Sources         int    `json:"sources"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	snap := s.engine.Registry().Current()
	resp := healthResponse{
		Status:          "ok",
		RegistryVersion: snap.Version(),
		RegistryStale:   snap.Stale(),
		Sources:         snap.Len(),
	}
	if snap.Stale() {
		resp.Status = "degraded"
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
