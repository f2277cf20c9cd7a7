package handler

import (
	"net/http"
	"time"

	"github.com/stylecast/stylecast/internal/api/models"
	"github.com/stylecast/stylecast/internal/api/response"
)

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	ready     func() bool
}

// NewOpsHandler creates a new OpsHandler. The ready probe is optional; a nil
// probe reports ready.
func NewOpsHandler(version, buildTime string, ready func() bool) *OpsHandler {
	return &OpsHandler{version: version, buildTime: buildTime, ready: ready}
}

// HealthCheck handles GET /health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   time.Now().UTC(),
		Details: map[string]any{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /ready - readiness check.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	status := models.HealthStatusOK
	code := http.StatusOK
	if h.ready != nil && !h.ready() {
		status = models.HealthStatusDegraded
		code = http.StatusServiceUnavailable
	}

	response.JSON(w, r, code, models.Health{
		Status: status,
		Time:   time.Now().UTC(),
	})
}
