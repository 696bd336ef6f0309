// Package api exposes the engine over HTTP: streaming scan
// submission, a one-shot task endpoint, health, and metrics.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/agentrank/engine/pkg/config"
	"github.com/agentrank/engine/pkg/logging"
	"github.com/agentrank/engine/pkg/scan"
	"github.com/agentrank/engine/pkg/stream"
)

// ScanRunner starts scans and hands back their event streams.
type ScanRunner interface {
	Run(ctx context.Context, req scan.Request) <-chan stream.Event
}

// Server is the engine HTTP server.
type Server struct {
	orch       ScanRunner
	limiter    *rate.Limiter
	logger     *logging.Logger
	httpServer *http.Server
}

// ServerConfig configures the API server.
type ServerConfig struct {
	// Address to listen on (default :8080).
	Address string

	// Orchestrator runs submitted scans.
	Orchestrator ScanRunner

	// ScanRatePerMinute and ScanBurst bound scan submissions.
	ScanRatePerMinute int
	ScanBurst         int

	Logger *logging.Logger
}

// NewServer creates the API server.
func NewServer(cfg ServerConfig) *Server {
	if cfg.Address == "" {
		cfg.Address = config.DefaultAddress
	}
	if cfg.ScanRatePerMinute <= 0 {
		cfg.ScanRatePerMinute = config.DefaultScanRatePerMinute
	}
	if cfg.ScanBurst <= 0 {
		cfg.ScanBurst = config.DefaultScanBurst
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.New("api", slog.LevelInfo)
	}

	s := &Server{
		orch:    cfg.Orchestrator,
		limiter: rate.NewLimiter(rate.Limit(cfg.ScanRatePerMinute)/60, cfg.ScanBurst),
		logger:  cfg.Logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/scan/stream", s.handleScanStream)
	r.Post("/task/stream", s.handleTaskStream)
	r.Post("/task", s.handleTask)

	s.httpServer = &http.Server{
		Addr:              cfg.Address,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler, for embedding in test servers.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start runs the server until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api server listening", "address", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown drains in-flight requests with a short grace period.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"video_recording": true,
		"streaming":       true,
	})
}

// allowScan applies the submission rate limit, answering 429 when the
// caller is over budget.
func (s *Server) allowScan(w http.ResponseWriter) bool {
	if s.limiter.Allow() {
		return true
	}
	writeError(w, http.StatusTooManyRequests, "scan rate limit exceeded, retry later")
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
