// Package server exposes the HTTP API over the prioritization adapter
// and the session store, plus health probe endpoints and the embedded
// static client.
//
// It implements graceful shutdown with connection draining and a
// configurable shutdown timeout.
package server

import (
	"context"
	"embed"
	"io/fs"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/prioritizer/internal/health"
	"github.com/felixgeelhaar/prioritizer/internal/log"
	"github.com/felixgeelhaar/prioritizer/internal/session"
	"github.com/felixgeelhaar/prioritizer/internal/store"
)

//go:embed static
var staticFiles embed.FS

// TaskPrioritizer is the adapter seam the API layer calls for
// prioritization. *prioritize.Prioritizer satisfies it.
type TaskPrioritizer interface {
	Prioritize(ctx context.Context, goal string, tasks []string) ([]session.Task, error)
}

// Server provides the HTTP API with health endpoints.
type Server struct {
	httpServer      *http.Server
	probeManager    *health.ProbeManager
	prioritizer     TaskPrioritizer
	store           *store.Store
	logger          *log.Logger
	inShutdown      atomic.Bool
	shutdownTimeout time.Duration
}

// Config holds server configuration.
type Config struct {
	// Address is the listen address (e.g., ":8080", "0.0.0.0:8080")
	Address string

	// ShutdownTimeout is the maximum time to wait for connections to
	// drain during shutdown. Defaults to 30 seconds.
	ShutdownTimeout time.Duration

	// ReadTimeout is the maximum duration for reading the entire request.
	// Defaults to 10 seconds.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum duration before timing out writes of
	// the response. Defaults to 30 seconds; it must cover the upstream
	// AI call made by the prioritize handler.
	WriteTimeout time.Duration

	// IdleTimeout is the maximum amount of time to wait for the next
	// request. Defaults to 60 seconds.
	IdleTimeout time.Duration
}

// NewServer creates the HTTP server with all routes registered.
func NewServer(p TaskPrioritizer, st *store.Store, pm *health.ProbeManager, logger *log.Logger, cfg Config) *Server {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 60 * time.Second
	}
	if logger == nil {
		logger = log.DefaultLogger()
	}

	s := &Server{
		probeManager:    pm,
		prioritizer:     p,
		store:           st,
		logger:          logger,
		shutdownTimeout: cfg.ShutdownTimeout,
	}

	mux := http.NewServeMux()

	// API routes
	mux.HandleFunc("POST /api/prioritize", s.handlePrioritize)
	mux.HandleFunc("GET /api/load", s.handleLoad)
	mux.HandleFunc("POST /api/save", s.handleSave)
	mux.HandleFunc("PUT /api/tasks/{index}", s.handleUpdateTask)

	// Health probes
	mux.HandleFunc("GET /health/live", s.handleLiveness)
	mux.HandleFunc("GET /health/ready", s.handleReadiness)
	mux.HandleFunc("GET /health/startup", s.handleStartup)
	mux.HandleFunc("GET /healthz", s.handleReadiness)

	// Static client; registered last conceptually but the "/" pattern
	// only matches what no API route claimed.
	static, _ := fs.Sub(staticFiles, "static")
	mux.Handle("GET /", http.FileServerFS(static))

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.withRequestLogging(mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// Handler returns the server's root handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server. This is a blocking call that returns
// when the server is stopped or encounters an error. Returns
// http.ErrServerClosed when the server is shut down gracefully.
func (s *Server) Start() error {
	s.probeManager.MarkInitialized()
	return s.httpServer.ListenAndServe()
}

// Shutdown performs graceful shutdown of the HTTP server: readiness
// probes start failing, keep-alives stop, and existing connections
// drain for up to ShutdownTimeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.inShutdown.Store(true)
	s.probeManager.MarkShutdown()

	s.httpServer.SetKeepAlivesEnabled(false)

	shutdownCtx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()

	return s.httpServer.Shutdown(shutdownCtx)
}

// IsShuttingDown returns whether the server is shutting down.
func (s *Server) IsShuttingDown() bool {
	return s.inShutdown.Load()
}

// handleLiveness handles liveness probe requests.
// GET /health/live — always 200 while the process is responsive.
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	result := s.probeManager.CheckLiveness(r.Context())
	s.writeProbeResponse(w, result, http.StatusOK)
}

// handleReadiness handles readiness probe requests.
// GET /health/ready — 503 when shutting down or dependencies are unhealthy.
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	result := s.probeManager.CheckReadiness(r.Context())
	s.writeProbeResponse(w, result, http.StatusServiceUnavailable)
}

// handleStartup handles startup probe requests.
// GET /health/startup — 503 until initialization completes.
func (s *Server) handleStartup(w http.ResponseWriter, r *http.Request) {
	result := s.probeManager.CheckStartup(r.Context())
	s.writeProbeResponse(w, result, http.StatusServiceUnavailable)
}

func (s *Server) writeProbeResponse(w http.ResponseWriter, result *health.ProbeResult, unhealthyStatus int) {
	status := http.StatusOK
	if result.Status == health.StatusUnhealthy {
		status = unhealthyStatus
	}
	writeJSON(w, status, result)
}
