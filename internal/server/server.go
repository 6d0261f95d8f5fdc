// Package server exposes the analysis pipeline over HTTP. It is deliberately
// thin: structural decoding, client identification, and rate limiting live
// here; everything with algorithmic content lives in the pipeline.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/scrollsense/scrollsense/internal/config"
	"github.com/scrollsense/scrollsense/internal/pipeline"
	"github.com/scrollsense/scrollsense/internal/ratelimit"
	"github.com/scrollsense/scrollsense/internal/validate"
)

// Server wires the router, pipeline, and per-client limiter.
type Server struct {
	pipeline *pipeline.Pipeline
	limiter  *ratelimit.Limiter
	cfg      config.ServerConfig
}

// New creates a Server.
func New(p *pipeline.Pipeline, limiter *ratelimit.Limiter, cfg config.ServerConfig) *Server {
	return &Server{pipeline: p, limiter: limiter, cfg: cfg}
}

// Router builds the chi router with CORS, request IDs, and all routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	origins := s.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(requestID)
	r.Use(requestLogger)

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Get("/cache/stats", s.handleCacheStats)
	})

	return r
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Port),
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("starting server", zap.Int("port", s.cfg.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server listen")
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	client := clientID(r)
	decision := s.limiter.Allow(client)
	if !decision.Permitted {
		w.Header().Set("Retry-After", strconv.Itoa(decision.RetryAfterSeconds))
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":               "rate limit exceeded",
			"retry_after_seconds": decision.RetryAfterSeconds,
		})
		return
	}

	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := s.pipeline.Analyze(r.Context(), payload)
	if err != nil {
		var verr *validate.Error
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error": "validation failed",
				"field": verr.Field,
				"rule":  verr.Rule,
			})
			return
		}
		zap.L().Error("analyze handler: unexpected error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.pipeline.CacheStats())
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Warn("server: write response", zap.Error(err))
	}
}

// clientID identifies the caller for rate limiting: the first hop of
// X-Forwarded-For when present (we sit behind a proxy in production), else
// the remote address host.
func clientID(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx >= 0 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
