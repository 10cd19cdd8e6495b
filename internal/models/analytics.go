// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package models

// EngagementMetrics aggregates recommendation engagement across all students.
//
// CTR and AcceptanceRate are percentages of total served recommendations,
// rounded to two decimals. AvgRating is the mean of all submitted ratings.
type EngagementMetrics struct {
	TotalRecommendations int     `json:"total_recommendations"`
	TotalClicks          int     `json:"total_clicks"`
	TotalAccepts         int     `json:"total_accepts"`
	CTR                  float64 `json:"ctr"`
	AcceptanceRate       float64 `json:"acceptance_rate"`
	AvgRating            float64 `json:"avg_rating"`
	NumRatings           int     `json:"num_ratings"`
	UniqueStudents       int     `json:"unique_students"`
	UniquePrograms       int     `json:"unique_programs"`
}

// ProgramPerformance aggregates engagement for a single program.
type ProgramPerformance struct {
	ProgramID        string  `json:"program_id"`
	ProgramName      string  `json:"program_name"`
	TimesRecommended int     `json:"times_recommended"`
	Clicks           int     `json:"clicks"`
	Accepts          int     `json:"accepts"`
	CTR              float64 `json:"ctr"`
	AcceptanceRate   float64 `json:"acceptance_rate"`
	AvgRating        float64 `json:"avg_rating"`
	NumRatings       int     `json:"num_ratings"`
}

// AnalyticsDashboard combines engagement and program performance into a
// single dashboard payload.
type AnalyticsDashboard struct {
	Engagement            EngagementMetrics    `json:"engagement"`
	TopPerformingPrograms []ProgramPerformance `json:"top_performing_programs"`
	TotalPrograms         int                  `json:"total_programs"`
}
