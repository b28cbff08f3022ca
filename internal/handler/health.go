package handler

import (
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/safeplay/platform/internal/infra"
	"github.com/safeplay/platform/internal/service"
)

// HealthHandler reports service and dependency health.
type HealthHandler struct {
	pool      *pgxpool.Pool
	summaries *service.SummaryService
}

func NewHealthHandler(pool *pgxpool.Pool, summaries *service.SummaryService) *HealthHandler {
	return &HealthHandler{pool: pool, summaries: summaries}
}

// Health checks the database and the Steam API and reports per-dependency
// status. Returns 503 when any dependency is down.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK

	dbStatus := "healthy"
	if h.pool == nil {
		dbStatus = "not configured"
	} else if err := infra.HealthCheck(r.Context(), h.pool); err != nil {
		dbStatus = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	steam := h.summaries.CheckHealth(r.Context())
	if !steam.Healthy() {
		status = http.StatusServiceUnavailable
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}

	RespondJSON(w, status, map[string]interface{}{
		"status":   overall,
		"database": dbStatus,
		"steam":    steam,
	})
}
