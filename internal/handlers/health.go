package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"docquery/internal/contextutil"
)

// HealthChecker checks a dependency.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	index              HealthChecker
	generator          HealthChecker
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler. generator may be nil.
func NewHealthHandler(index, generator HealthChecker) *HealthHandler {
	return &HealthHandler{
		index:              index,
		generator:          generator,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
//
// swagger:model HealthResponse
type HealthResponse struct {
	// Overall health status: "healthy", "degraded", or "unhealthy"
	Status string `json:"status"`

	// Timestamp of the health check
	Timestamp string `json:"timestamp"`

	// Individual check results
	Checks map[string]string `json:"checks"`

	// List of issues (only present if status is degraded or unhealthy)
	Issues []string `json:"issues,omitempty"`
}

// ServeHTTP handles HTTP requests for health checks.
//
// Returns 200 OK when the index is reachable, with status "degraded" if only the
// generative backend is down, and 503 Service Unavailable when the index is down.
//
// swagger:route GET /api/health healthCheck
//
// # Health check endpoint
//
// ---
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: System is healthy or degraded
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
//	'503':
//	  description: System is unhealthy
//	  schema:
//	    "$ref": "#/definitions/HealthResponse"
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	checks := make(map[string]string)
	var issues []string

	indexOK := h.check(checkCtx, logger, "index", h.index)
	if indexOK {
		checks["index"] = "ok"
	} else {
		checks["index"] = "error"
		issues = append(issues, "index_unavailable")
	}

	generatorOK := h.check(checkCtx, logger, "generator", h.generator)
	if generatorOK {
		checks["generator"] = "ok"
	} else {
		checks["generator"] = "error"
		issues = append(issues, "generator_unavailable")
	}

	status := "healthy"
	httpStatus := http.StatusOK
	switch {
	case !indexOK:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	case !generatorOK:
		status = "degraded"
	}

	writeJSON(ctx, w, httpStatus, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Issues:    issues,
	})
}

func (h *HealthHandler) check(ctx context.Context, logger *slog.Logger, name string, checker HealthChecker) bool {
	if checker == nil {
		logger.WarnContext(ctx, "health check not configured", "component", name)
		return false
	}
	if err := checker.Health(ctx); err != nil {
		logger.WarnContext(ctx, "health check failed", "component", name, "error", err)
		return false
	}
	return true
}
