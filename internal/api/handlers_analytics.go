// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package api

import (
	"context"
	"net/http"
	"time"
)

// GetEngagementAnalytics handles GET /api/v1/analytics/engagement.
// Returns corpus-wide engagement: totals, click-through and acceptance
// rates, and rating aggregates over all recorded interactions.
func (h *Handler) GetEngagementAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	start := time.Now()
	overview, err := h.db.EngagementOverview(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to compute engagement analytics", err)
		return
	}

	respondSuccess(w, r, http.StatusOK, overview, time.Since(start))
}

// GetProgramAnalytics handles GET /api/v1/analytics/programs.
// Returns per-program engagement, highest acceptance first.
func (h *Handler) GetProgramAnalytics(w http.ResponseWriter, r *http.Request) {
	limit := getIntParam(r, "limit", 20)

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	start := time.Now()
	stats, err := h.db.ProgramPerformanceStats(ctx, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to compute program analytics", err)
		return
	}

	respondSuccess(w, r, http.StatusOK, map[string]interface{}{
		"programs": stats,
		"count":    len(stats),
	}, time.Since(start))
}

// GetDashboard handles GET /api/v1/analytics/dashboard.
// Returns the combined dashboard payload: engagement overview, top
// performing programs, and catalog size in a single round trip.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	start := time.Now()
	dashboard, err := h.db.Dashboard(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to compute dashboard", err)
		return
	}

	respondSuccess(w, r, http.StatusOK, dashboard, time.Since(start))
}

// GetPerformanceStats handles GET /api/v1/analytics/performance.
// Returns per-endpoint latency percentiles over the recent request
// window. This is the service watching itself, not the study data.
func (h *Handler) GetPerformanceStats(w http.ResponseWriter, r *http.Request) {
	stats := h.perfMon.GetStats()

	respondSuccess(w, r, http.StatusOK, map[string]interface{}{
		"endpoints": stats,
		"count":     len(stats),
	}, 0)
}
