package handler

import (
	"net/http"
	"time"

	"subtrack/internal/application/service"
	"subtrack/internal/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping() error
}

// HealthStatus is the payload of GET /health.
type HealthStatus struct {
	Status   string               `json:"status"`
	Database string               `json:"database"`
	NextRuns map[string]time.Time `json:"next_runs,omitempty"`
}

// HealthHandler reports store connectivity and the upcoming job runs.
type HealthHandler struct {
	db        Pinger
	scheduler service.SchedulerService
	log       logger.Logger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db Pinger, scheduler service.SchedulerService, log logger.Logger) *HealthHandler {
	return &HealthHandler{db: db, scheduler: scheduler, log: log}
}

// Health handles GET /health.
func (h *HealthHandler) Health(c echo.Context) error {
	status := HealthStatus{Status: "ok", Database: "ok", NextRuns: h.scheduler.NextRuns()}
	if err := h.db.Ping(); err != nil {
		h.log.Error("Health check: database ping failed", err)
		status.Status = "degraded"
		status.Database = "unreachable"
		return c.JSON(http.StatusServiceUnavailable, Response{Success: false, Data: status, Error: "database_unreachable"})
	}
	return respondOK(c, http.StatusOK, status, "")
}
