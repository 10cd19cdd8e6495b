// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/areyes-dev/lodestar/internal/middleware"
)

// --- Test: GetEngagementAnalytics ---

func TestGetEngagementAnalytics(t *testing.T) {
	h := setupTestHandler(t)
	seedCatalog(t, h.db)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/engagement", nil)
	w := httptest.NewRecorder()
	h.GetEngagementAnalytics(w, req)

	assertStatus(t, w, http.StatusOK)
	data := dataAsMap(t, decodeEnvelope(t, w))

	// The fixture records 5 clicks, 3 accepts and 2 ratings across its
	// interactions; nothing has been served yet, so the recommendation
	// counts stay zero.
	if clicks, _ := data["total_clicks"].(float64); int(clicks) != 5 {
		t.Errorf("total_clicks = %v, want 5", data["total_clicks"])
	}
	if accepts, _ := data["total_accepts"].(float64); int(accepts) != 3 {
		t.Errorf("total_accepts = %v, want 3", data["total_accepts"])
	}
	if ratings, _ := data["num_ratings"].(float64); int(ratings) != 2 {
		t.Errorf("num_ratings = %v, want 2", data["num_ratings"])
	}
	if served, _ := data["total_recommendations"].(float64); int(served) != 0 {
		t.Errorf("total_recommendations = %v, want 0 before serving", data["total_recommendations"])
	}
}

func TestGetEngagementAnalytics_EmptyDatabase(t *testing.T) {
	h := setupTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/engagement", nil)
	w := httptest.NewRecorder()
	h.GetEngagementAnalytics(w, req)

	assertStatus(t, w, http.StatusOK)
	data := dataAsMap(t, decodeEnvelope(t, w))
	if total, _ := data["total_recommendations"].(float64); int(total) != 0 {
		t.Errorf("total_recommendations = %v, want 0", data["total_recommendations"])
	}
}

// --- Test: GetProgramAnalytics ---

func TestGetProgramAnalytics(t *testing.T) {
	h := setupTestHandler(t)
	seedCatalog(t, h.db)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/programs?limit=2", nil)
	w := httptest.NewRecorder()
	h.GetProgramAnalytics(w, req)

	assertStatus(t, w, http.StatusOK)
	data := dataAsMap(t, decodeEnvelope(t, w))

	programs, ok := data["programs"].([]interface{})
	if !ok {
		t.Fatalf("programs is %T, want array", data["programs"])
	}
	if len(programs) == 0 || len(programs) > 2 {
		t.Fatalf("got %d programs, want 1-2 (limit=2)", len(programs))
	}

	first, _ := programs[0].(map[string]interface{})
	if first["program_name"] == nil || first["program_name"] == "" {
		t.Error("program_name missing from performance row")
	}
	if _, ok := first["ctr"]; !ok {
		t.Error("ctr missing from performance row")
	}
}

// --- Test: GetDashboard ---

func TestGetDashboard(t *testing.T) {
	h := setupTestHandler(t)
	seedCatalog(t, h.db)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/dashboard", nil)
	w := httptest.NewRecorder()
	h.GetDashboard(w, req)

	assertStatus(t, w, http.StatusOK)
	data := dataAsMap(t, decodeEnvelope(t, w))

	engagement, ok := data["engagement"].(map[string]interface{})
	if !ok {
		t.Fatalf("engagement is %T, want map", data["engagement"])
	}
	if clicks, _ := engagement["total_clicks"].(float64); int(clicks) != 5 {
		t.Errorf("engagement.total_clicks = %v, want 5", engagement["total_clicks"])
	}
	if total, _ := data["total_programs"].(float64); int(total) != 4 {
		t.Errorf("total_programs = %v, want 4", data["total_programs"])
	}
	if _, ok := data["top_performing_programs"]; !ok {
		t.Error("top_performing_programs missing from dashboard")
	}
}

// --- Test: GetPerformanceStats ---

func TestGetPerformanceStats(t *testing.T) {
	h := setupTestHandler(t)

	// Drive a few requests through the performance monitor first.
	for _, duration := range []int64{12, 18} {
		h.perfMon.RecordRequest(&middleware.RequestMetrics{
			Path:       "/api/v1/programs",
			Method:     http.MethodGet,
			DurationMS: duration,
			StatusCode: http.StatusOK,
			Timestamp:  time.Now(),
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/performance", nil)
	w := httptest.NewRecorder()
	h.GetPerformanceStats(w, req)

	assertStatus(t, w, http.StatusOK)
	data := dataAsMap(t, decodeEnvelope(t, w))

	endpoints, ok := data["endpoints"].([]interface{})
	if !ok {
		t.Fatalf("endpoints is %T, want array", data["endpoints"])
	}
	if len(endpoints) != 1 {
		t.Fatalf("got %d endpoint stats, want 1", len(endpoints))
	}

	stats, _ := endpoints[0].(map[string]interface{})
	if count, _ := stats["request_count"].(float64); int(count) != 2 {
		t.Errorf("request_count = %v, want 2", stats["request_count"])
	}
}
