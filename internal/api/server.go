package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"crowdcache/internal/cache"
	"crowdcache/internal/syncer"
)

// Server represents the HTTP API server
// Provides endpoints for Prometheus metrics, health checks, and the cached
// project read paths
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	store      cache.Store
	sync       *syncer.Synchronizer
	port       int
}

// NewServer creates a new API server instance
// The store is made available to all handlers; the synchronizer backs the
// manual sync trigger
func NewServer(port int, store cache.Store, sync *syncer.Synchronizer) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		mux:   mux,
		store: store,
		sync:  sync,
		port:  port,
	}

	s.registerRoutes()

	return s
}

// registerRoutes sets up all HTTP routes
func (s *Server) registerRoutes() {
	// Core endpoints
	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.Handle("/metrics", s.handleMetrics())

	// Project endpoints
	s.mux.HandleFunc("/projects", s.handleProjects)
	s.mux.HandleFunc("/projects/", s.handleProjectRoutes)

	// Sync trigger
	s.mux.HandleFunc("/sync", s.handleSync)
}

// handleProjects routes to list/search (without trailing slash)
func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.handleListProjects(w, r)
}

// handleProjectRoutes routes project sub-endpoints (with trailing slash)
func (s *Server) handleProjectRoutes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/projects/")
	parts := strings.Split(path, "/")

	// GET /projects/{id}
	if len(parts) == 1 {
		s.handleGetProject(w, r)
		return
	}

	// GET /projects/{id}/stage
	if len(parts) == 2 && parts[1] == "stage" {
		s.handleGetStage(w, r)
		return
	}

	s.sendError(w, "Endpoint not found", http.StatusNotFound)
}

// Start starts the HTTP server in a goroutine
// Returns immediately after starting the server
func (s *Server) Start() error {
	go func() {
		slog.Info("API server starting",
			"port", s.port,
			"endpoints", []string{"/", "/health", "/metrics", "/projects", "/sync"},
		)

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Shutdown gracefully shuts down the HTTP server
// Waits for active connections to close or context to timeout
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("API server shutting down...")
	return s.httpServer.Shutdown(ctx)
}
