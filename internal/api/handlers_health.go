// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package api

import (
	"net/http"
	"time"

	"github.com/areyes-dev/lodestar/internal/models"
)

// HealthStatus is the payload returned by the health endpoint.
type HealthStatus struct {
	Status            string     `json:"status"`
	Version           string     `json:"version"`
	DatabaseConnected bool       `json:"database_connected"`
	ModelTrained      bool       `json:"model_trained"`
	ModelVersion      int        `json:"model_version"`
	LastTrainedAt     *time.Time `json:"last_trained_at,omitempty"`
	JournalPending    int64      `json:"journal_pending"`
	Uptime            float64    `json:"uptime_seconds"`
}

// Health handles GET /api/v1/health.
// Returns overall service health: database connectivity, model state, and
// the feedback journal backlog. The service reports degraded rather than
// failing when the database is unreachable, so monitors can tell a dead
// process from a broken dependency.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	dbConnected := h.db != nil && h.db.Ping(r.Context()) == nil

	status := "healthy"
	if !dbConnected {
		status = "degraded"
	}

	health := HealthStatus{
		Status:            status,
		Version:           "1.0.0",
		DatabaseConnected: dbConnected,
		Uptime:            time.Since(h.startTime).Seconds(),
	}

	if h.engine != nil {
		es := h.engine.Status()
		health.ModelTrained = es.ModelVersion > 0
		health.ModelVersion = es.ModelVersion
		if !es.LastTrainedAt.IsZero() {
			trainedAt := es.LastTrainedAt
			health.LastTrainedAt = &trainedAt
		}
	}

	if h.journal != nil {
		health.JournalPending = h.journal.Stats().PendingCount
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   health,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// HealthLive handles GET /api/v1/health/live (Kubernetes-style liveness).
// Returns 200 OK if the process is alive, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"alive":  true,
			"uptime": time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// HealthReady handles GET /api/v1/health/ready (Kubernetes-style readiness).
// Returns 200 only when the service can actually serve: the database must
// be reachable. An untrained model does not block readiness; cold-start
// recommendations work without one.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	dbConnected := h.db != nil && h.db.Ping(r.Context()) == nil

	statusCode := http.StatusOK
	status := "ready"
	if !dbConnected {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	respondJSON(w, statusCode, &models.APIResponse{
		Status: status,
		Data: map[string]interface{}{
			"database_connected": dbConnected,
			"ready_to_serve":     dbConnected,
			"uptime":             time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}
