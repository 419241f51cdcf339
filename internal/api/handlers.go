package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"crowdcache/internal/cache"
	"crowdcache/internal/metrics"
	"crowdcache/internal/models"
	"crowdcache/internal/stage"
	"crowdcache/internal/syncer"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// handleIndex returns basic service information
// GET / - Returns service info and available endpoints
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	info := map[string]interface{}{
		"service":     "crowdcache",
		"version":     "1.0.0",
		"description": "Local cache of crowdfunding project records mirrored from the ledger",
		"endpoints": map[string]string{
			"GET /":                     "This page - Service information",
			"GET /health":               "Health check endpoint",
			"GET /metrics":              "Prometheus metrics for monitoring",
			"GET /projects":             "List cached projects (supports ?q=, ?limit=, ?offset=)",
			"GET /projects/{id}":        "Get a single cached project",
			"GET /projects/{id}/stage":  "Get the project's current lifecycle stage",
			"POST /sync":                "Trigger a catch-up sync (supports ?clear=true)",
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(info)
}

// handleHealth returns health status
// GET /health - Health check for monitoring systems
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		slog.Error("Health check failed", "error", err)
		s.sendError(w, "Cache store unhealthy", http.StatusServiceUnavailable)
		return
	}

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "crowdcache",
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

// handleMetrics returns Prometheus metrics
// GET /metrics - Prometheus scraping endpoint
func (s *Server) handleMetrics() http.Handler {
	return promhttp.Handler()
}

// handleListProjects lists cached projects with optional title search
// GET /projects?q=garden&limit=50&offset=0
func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	metrics.APIRequests.WithLabelValues("list_projects").Inc()

	query := r.URL.Query()

	// Pagination
	limit := 50 // default
	if limitStr := query.Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	offset := 0
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	var (
		projects []models.Project
		total    int
		err      error
	)

	if q := query.Get("q"); q != "" {
		projects, err = s.store.Search(ctx, q, limit, offset)
		total = offset + len(projects)
	} else {
		projects, err = s.store.List(ctx, limit, offset)
		if err == nil {
			total, err = s.store.Count(ctx)
		}
	}
	if err != nil {
		slog.Error("Failed to list projects", "error", err)
		s.sendError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if projects == nil {
		projects = []models.Project{}
	}

	page := (offset / limit) + 1

	response := models.ProjectListResponse{
		Projects: projects,
		Total:    total,
		Page:     page,
		PageSize: limit,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleGetProject returns a single cached project
// GET /projects/{id}
func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	metrics.APIRequests.WithLabelValues("get_project").Inc()

	project, ok := s.projectFromPath(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(project)
}

// handleGetStage returns the project's lifecycle stage evaluated now
// GET /projects/{id}/stage
func (s *Server) handleGetStage(w http.ResponseWriter, r *http.Request) {
	metrics.APIRequests.WithLabelValues("get_stage").Inc()

	project, ok := s.projectFromPath(w, r)
	if !ok {
		return
	}

	now := time.Now()
	eval := stage.Evaluate(now, stage.Milestones{
		StartedAt:        project.StartedAt,
		EndedAt:          project.EndedAt,
		VestingStartTime: project.VestingStartTime,
		VestingEndTime:   project.VestingEndTime,
		VestingInterval:  project.VestingInterval,
		ForceStopped:     project.ForceStopped(),
	})

	response := models.StageResponse{
		ProjectID:   project.ID,
		Stage:       eval.Stage.String(),
		EvaluatedAt: now.UnixMilli(),
	}

	if eval.HasRemaining {
		ms := eval.Remaining.Milliseconds()
		response.RemainingMs = &ms

		countdown := stage.RenderCountdown(eval.Remaining)
		response.Countdown = &models.CountdownResponse{
			Time: countdown.Time,
			Unit: countdown.Unit,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// handleSync triggers a catch-up sync
// POST /sync?clear=true - Full resync when clear is set
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	metrics.APIRequests.WithLabelValues("sync").Inc()

	clear := r.URL.Query().Get("clear") == "true"

	if err := s.sync.Synchronize(ctx, clear); err != nil {
		if errors.Is(err, syncer.ErrInFlight) {
			s.sendError(w, "A sync is already running", http.StatusConflict)
			return
		}
		slog.Error("Manual sync failed", "error", err)
		s.sendError(w, err.Error(), http.StatusBadGateway)
		return
	}

	cached, err := s.store.Count(ctx)
	if err != nil {
		slog.Error("Failed to count projects after sync", "error", err)
		cached = -1
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.SyncResponse{
		Status:  "ok",
		Cached:  cached,
		Cleared: clear,
	})
}

// projectFromPath extracts the project id from the URL and loads the record
func (s *Server) projectFromPath(w http.ResponseWriter, r *http.Request) (*models.Project, bool) {
	path := strings.TrimPrefix(r.URL.Path, "/projects/")
	idStr := strings.Split(path, "/")[0]

	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		s.sendError(w, "Invalid project id", http.StatusBadRequest)
		return nil, false
	}

	project, err := s.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			s.sendError(w, "Project not found", http.StatusNotFound)
			return nil, false
		}
		slog.Error("Failed to get project", "project_id", id, "error", err)
		s.sendError(w, "Internal server error", http.StatusInternalServerError)
		return nil, false
	}

	return project, true
}

// sendError sends a JSON error response
func (s *Server) sendError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: message,
		Code:    code,
	})
}
