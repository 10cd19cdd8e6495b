// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package database

import (
	"context"
	"testing"
	"time"

	"github.com/areyes-dev/lodestar/internal/models"
)

// seedAnalyticsFixture loads a small engagement history:
//
//	prog-a: served 4x, 2 clicks, 1 accept, ratings 5 and 3
//	prog-b: served 1x, 1 accept, no ratings
//	prog-c: never served
func seedAnalyticsFixture(t *testing.T, db *DB) {
	t.Helper()
	ctx := context.Background()

	programs := []*models.Program{
		{ID: "prog-a", Name: "Data Science"},
		{ID: "prog-b", Name: "Fine Arts"},
		{ID: "prog-c", Name: "Quiet Studies"},
	}
	for _, p := range programs {
		p.Description = p.Name
		if err := db.CreateProgram(ctx, p); err != nil {
			t.Fatalf("CreateProgram(%s) error = %v", p.ID, err)
		}
	}

	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	records := []models.RecommendationRecord{
		{StudentID: "stu-1", ProgramID: "prog-a", Score: 0.9, CreatedAt: base},
		{StudentID: "stu-1", ProgramID: "prog-a", Score: 0.8, CreatedAt: base.Add(time.Hour)},
		{StudentID: "stu-2", ProgramID: "prog-a", Score: 0.7, CreatedAt: base},
		{StudentID: "stu-2", ProgramID: "prog-a", Score: 0.6, CreatedAt: base.Add(time.Hour)},
		{StudentID: "stu-1", ProgramID: "prog-b", Score: 0.5, CreatedAt: base},
	}
	if err := db.InsertRecommendations(ctx, records); err != nil {
		t.Fatalf("InsertRecommendations() error = %v", err)
	}

	feedback := []*models.Interaction{
		{StudentID: "stu-1", ProgramID: "prog-a", Clicked: true, Rating: intPtr(5)},
		{StudentID: "stu-2", ProgramID: "prog-a", Clicked: true, Accepted: true, Rating: intPtr(3)},
		{StudentID: "stu-1", ProgramID: "prog-b", Accepted: true},
	}
	for _, f := range feedback {
		if err := db.InsertInteraction(ctx, f); err != nil {
			t.Fatalf("InsertInteraction() error = %v", err)
		}
	}
}

// --- Test: Engagement overview ---

func TestEngagementOverview(t *testing.T) {
	db := setupTestDB(t)
	seedAnalyticsFixture(t, db)

	got, err := db.EngagementOverview(context.Background())
	if err != nil {
		t.Fatalf("EngagementOverview() error = %v", err)
	}

	want := models.EngagementMetrics{
		TotalRecommendations: 5,
		TotalClicks:          2,
		TotalAccepts:         2,
		CTR:                  40,
		AcceptanceRate:       40,
		AvgRating:            4,
		NumRatings:           2,
		UniqueStudents:       2,
		UniquePrograms:       2,
	}
	if *got != want {
		t.Errorf("EngagementOverview() = %+v, want %+v", *got, want)
	}
}

func TestEngagementOverview_EmptyDatabase(t *testing.T) {
	db := setupTestDB(t)

	got, err := db.EngagementOverview(context.Background())
	if err != nil {
		t.Fatalf("EngagementOverview() error = %v", err)
	}

	if *got != (models.EngagementMetrics{}) {
		t.Errorf("EngagementOverview() on empty database = %+v, want zero values", *got)
	}
}

// --- Test: Per-program performance ---

func TestProgramPerformanceStats(t *testing.T) {
	db := setupTestDB(t)
	seedAnalyticsFixture(t, db)

	stats, err := db.ProgramPerformanceStats(context.Background(), 10)
	if err != nil {
		t.Fatalf("ProgramPerformanceStats() error = %v", err)
	}
	if len(stats) != 3 {
		t.Fatalf("got %d programs, want 3", len(stats))
	}

	// Most recommended first; never-served programs still listed.
	wantOrder := []string{"prog-a", "prog-b", "prog-c"}
	for i, want := range wantOrder {
		if stats[i].ProgramID != want {
			t.Errorf("stats[%d].ProgramID = %q, want %q", i, stats[i].ProgramID, want)
		}
	}

	a := stats[0]
	if a.TimesRecommended != 4 || a.Clicks != 2 || a.Accepts != 1 {
		t.Errorf("prog-a counts = %d/%d/%d, want 4/2/1", a.TimesRecommended, a.Clicks, a.Accepts)
	}
	if a.CTR != 50 || a.AcceptanceRate != 25 {
		t.Errorf("prog-a rates = %v/%v, want 50/25", a.CTR, a.AcceptanceRate)
	}
	if a.AvgRating != 4 || a.NumRatings != 2 {
		t.Errorf("prog-a ratings = %v (%d), want 4 (2)", a.AvgRating, a.NumRatings)
	}

	b := stats[1]
	if b.TimesRecommended != 1 || b.Clicks != 0 || b.Accepts != 1 {
		t.Errorf("prog-b counts = %d/%d/%d, want 1/0/1", b.TimesRecommended, b.Clicks, b.Accepts)
	}
	if b.CTR != 0 || b.AcceptanceRate != 100 {
		t.Errorf("prog-b rates = %v/%v, want 0/100", b.CTR, b.AcceptanceRate)
	}

	c := stats[2]
	if c.TimesRecommended != 0 || c.CTR != 0 || c.AcceptanceRate != 0 {
		t.Errorf("prog-c = %+v, want all-zero stats", c)
	}
}

func TestTopProgramsByAcceptance(t *testing.T) {
	db := setupTestDB(t)
	seedAnalyticsFixture(t, db)

	top, err := db.TopProgramsByAcceptance(context.Background(), 5)
	if err != nil {
		t.Fatalf("TopProgramsByAcceptance() error = %v", err)
	}

	// prog-c was never served and must not appear.
	if len(top) != 2 {
		t.Fatalf("got %d programs, want 2", len(top))
	}
	if top[0].ProgramID != "prog-b" || top[1].ProgramID != "prog-a" {
		t.Errorf("order = [%s, %s], want [prog-b, prog-a] by acceptance rate",
			top[0].ProgramID, top[1].ProgramID)
	}
}

// --- Test: Dashboard ---

func TestDashboard(t *testing.T) {
	db := setupTestDB(t)
	seedAnalyticsFixture(t, db)

	dashboard, err := db.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}

	if dashboard.Engagement.TotalRecommendations != 5 {
		t.Errorf("Engagement.TotalRecommendations = %d, want 5", dashboard.Engagement.TotalRecommendations)
	}
	if len(dashboard.TopPerformingPrograms) != 2 {
		t.Errorf("TopPerformingPrograms has %d entries, want 2", len(dashboard.TopPerformingPrograms))
	}
	if dashboard.TotalPrograms != 3 {
		t.Errorf("TotalPrograms = %d, want 3", dashboard.TotalPrograms)
	}
}
