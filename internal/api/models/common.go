package models

import "time"

// Health is the payload of the liveness and readiness endpoints.
type Health struct {
	Status  string         `json:"status"`
	Time    time.Time      `json:"time"`
	Details map[string]any `json:"details,omitempty"`
}

// Health status values.
const (
	HealthStatusOK       = "healthy"
	HealthStatusDegraded = "degraded"
)
