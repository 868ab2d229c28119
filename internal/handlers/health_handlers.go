package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"stockroom/internal/caching"
	"stockroom/internal/store"
)

// HealthHandlers exposes liveness and readiness probes.
type HealthHandlers struct {
	store    store.Store
	cacheSvc caching.CacheService
}

func NewHealthHandlers(st store.Store, cacheSvc caching.CacheService) *HealthHandlers {
	return &HealthHandlers{
		store:    st,
		cacheSvc: cacheSvc,
	}
}

// HealthStatus reports per-dependency health.
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

func (h *HealthHandlers) HealthCheck(c echo.Context) error {
	ctx := c.Request().Context()
	health := &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  make(map[string]string),
	}

	if err := h.store.Ping(ctx); err != nil {
		health.Services["storage"] = "unhealthy"
		health.Status = "degraded"
	} else {
		health.Services["storage"] = "healthy"
	}

	if err := h.cacheSvc.Ping(ctx); err != nil {
		// Cache is best-effort; a dead cache degrades but does not fail.
		health.Services["cache"] = "unhealthy"
		health.Status = "degraded"
	} else {
		health.Services["cache"] = "healthy"
	}

	statusCode := http.StatusOK
	if health.Status == "degraded" {
		statusCode = http.StatusPartialContent
	}
	return c.JSON(statusCode, health)
}

// ReadinessCheck fails only when the persistence backend is unreachable.
func (h *HealthHandlers) ReadinessCheck(c echo.Context) error {
	if err := h.store.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status":  "not_ready",
			"message": "persistence backend unavailable",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ready",
		"message": "all systems operational",
	})
}
