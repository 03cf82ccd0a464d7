package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/fortuna/scaha-mcp/internal/store"
)

const (
	serviceName    = "scaha-mcp"
	serviceVersion = "1.0.0"

	defaultRecentLimit = 50
	maxRecentLimit     = 500
)

// RecentQueries lists logged query runs
type RecentQueries interface {
	Recent(ctx context.Context, limit int) ([]store.QueryRun, error)
}

// HealthChecker reports whether a backing store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	queryLog RecentQueries
	database HealthChecker
}

// NewHandler creates a new handler
func NewHandler(queryLog RecentQueries, database HealthChecker) *Handler {
	return &Handler{queryLog: queryLog, database: database}
}

// HealthCheck handles health check requests. The query log database is
// optional, so its failure degrades the status without failing the service.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.database != nil {
		if err := h.database.HealthCheck(r.Context()); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":   "degraded",
				"service":  serviceName,
				"version":  serviceVersion,
				"database": err.Error(),
			})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
	})
}

type queryRunResponse struct {
	ID         string     `json:"id"`
	Tool       string     `json:"tool"`
	Transport  string     `json:"transport"`
	Season     string     `json:"season,omitempty"`
	Division   string     `json:"division,omitempty"`
	Team       string     `json:"team,omitempty"`
	Status     string     `json:"status"`
	Rows       int        `json:"rows"`
	DurationMS int64      `json:"duration_ms"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
}

// RecentQueries returns the latest logged query runs
func (h *Handler) RecentQueries(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = min(n, maxRecentLimit)
	}

	runs, err := h.queryLog.Recent(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch recent queries", err)
		return
	}

	out := make([]queryRunResponse, 0, len(runs))
	for _, run := range runs {
		resp := queryRunResponse{
			ID:         run.ID,
			Tool:       run.Tool,
			Transport:  run.Transport,
			Season:     run.Season,
			Division:   run.Division,
			Team:       run.Team,
			Status:     run.Status,
			Rows:       run.Rows,
			DurationMS: run.DurationMS,
			Error:      run.Error,
			StartedAt:  run.StartedAt,
		}
		if run.FinishedAt.Valid {
			finished := run.FinishedAt.Time
			resp.FinishedAt = &finished
		}
		out = append(out, resp)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"queries": out,
		"count":   len(out),
	})
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}
	if err != nil {
		response["details"] = err.Error()
	}
	respondJSON(w, status, response)
}
