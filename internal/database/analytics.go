// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package database

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"github.com/areyes-dev/lodestar/internal/models"
)

// Engagement and program-performance aggregations over the
// served-recommendation log and the feedback stream.
//
// COUNT(CASE WHEN ...) is used instead of SUM so the aggregates stay
// BIGINT; DuckDB widens SUM over integers to HUGEINT, which does not scan
// into Go ints.

// EngagementOverview aggregates recommendation engagement across all
// students. Rates are percentages of total served recommendations,
// rounded to two decimals.
func (db *DB) EngagementOverview(ctx context.Context) (overview *models.EngagementMetrics, err error) {
	defer observe("select", "analytics", time.Now(), &err)

	query := `
		WITH served AS (
			SELECT
				COUNT(*) AS total_recommendations,
				COUNT(DISTINCT student_id) AS unique_students,
				COUNT(DISTINCT program_id) AS unique_programs
			FROM recommendations
		),
		feedback AS (
			SELECT
				COUNT(CASE WHEN clicked THEN 1 END) AS total_clicks,
				COUNT(CASE WHEN accepted THEN 1 END) AS total_accepts,
				COALESCE(AVG(rating), 0) AS avg_rating,
				COUNT(rating) AS num_ratings
			FROM interactions
		)
		SELECT
			s.total_recommendations, s.unique_students, s.unique_programs,
			f.total_clicks, f.total_accepts, f.avg_rating, f.num_ratings
		FROM served s, feedback f
	`

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var m models.EngagementMetrics
	err = db.conn.QueryRowContext(ctx, query).Scan(
		&m.TotalRecommendations, &m.UniqueStudents, &m.UniquePrograms,
		&m.TotalClicks, &m.TotalAccepts, &m.AvgRating, &m.NumRatings,
	)
	if err != nil {
		return nil, fmt.Errorf("query engagement overview: %w", err)
	}

	if m.TotalRecommendations > 0 {
		m.CTR = round2(100 * float64(m.TotalClicks) / float64(m.TotalRecommendations))
		m.AcceptanceRate = round2(100 * float64(m.TotalAccepts) / float64(m.TotalRecommendations))
	}
	m.AvgRating = round2(m.AvgRating)

	return &m, nil
}

// ProgramPerformanceStats aggregates engagement per program, most
// recommended first. Programs never served still appear with zero counts.
func (db *DB) ProgramPerformanceStats(ctx context.Context, limit int) (stats []models.ProgramPerformance, err error) {
	defer observe("select", "analytics", time.Now(), &err)

	if limit <= 0 {
		limit = 100
	}

	query := programPerformanceCTE + `
		SELECT
			p.id,
			p.name,
			COALESCE(s.times_recommended, 0) AS times_recommended,
			COALESCE(f.clicks, 0) AS clicks,
			COALESCE(f.accepts, 0) AS accepts,
			COALESCE(f.avg_rating, 0) AS avg_rating,
			COALESCE(f.num_ratings, 0) AS num_ratings
		FROM programs p
		LEFT JOIN served s ON s.program_id = p.id
		LEFT JOIN feedback f ON f.program_id = p.id
		ORDER BY times_recommended DESC, p.name, p.id
		LIMIT ?
	`

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query program performance: %w", err)
	}
	defer rows.Close()

	return scanProgramPerformance(rows)
}

// TopProgramsByAcceptance returns the best-converting programs that have
// been served at least once, by acceptance rate.
func (db *DB) TopProgramsByAcceptance(ctx context.Context, limit int) (stats []models.ProgramPerformance, err error) {
	defer observe("select", "analytics", time.Now(), &err)

	if limit <= 0 {
		limit = 5
	}

	query := programPerformanceCTE + `
		SELECT
			p.id,
			p.name,
			s.times_recommended,
			COALESCE(f.clicks, 0) AS clicks,
			COALESCE(f.accepts, 0) AS accepts,
			COALESCE(f.avg_rating, 0) AS avg_rating,
			COALESCE(f.num_ratings, 0) AS num_ratings
		FROM programs p
		JOIN served s ON s.program_id = p.id
		LEFT JOIN feedback f ON f.program_id = p.id
		ORDER BY CAST(COALESCE(f.accepts, 0) AS DOUBLE) / s.times_recommended DESC,
			s.times_recommended DESC, p.name, p.id
		LIMIT ?
	`

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query top programs: %w", err)
	}
	defer rows.Close()

	return scanProgramPerformance(rows)
}

// Dashboard combines the engagement overview with the top-performing
// programs into a single payload.
func (db *DB) Dashboard(ctx context.Context) (*models.AnalyticsDashboard, error) {
	engagement, err := db.EngagementOverview(ctx)
	if err != nil {
		return nil, err
	}

	top, err := db.TopProgramsByAcceptance(ctx, 5)
	if err != nil {
		return nil, err
	}

	total, err := db.CountPrograms(ctx)
	if err != nil {
		return nil, err
	}

	return &models.AnalyticsDashboard{
		Engagement:            *engagement,
		TopPerformingPrograms: top,
		TotalPrograms:         total,
	}, nil
}

// programPerformanceCTE is the shared served/feedback aggregation for the
// per-program queries.
const programPerformanceCTE = `
		WITH served AS (
			SELECT program_id, COUNT(*) AS times_recommended
			FROM recommendations
			GROUP BY program_id
		),
		feedback AS (
			SELECT program_id,
				COUNT(CASE WHEN clicked THEN 1 END) AS clicks,
				COUNT(CASE WHEN accepted THEN 1 END) AS accepts,
				COALESCE(AVG(rating), 0) AS avg_rating,
				COUNT(rating) AS num_ratings
			FROM interactions
			GROUP BY program_id
		)
`

func scanProgramPerformance(rows *sql.Rows) ([]models.ProgramPerformance, error) {
	stats := make([]models.ProgramPerformance, 0)
	for rows.Next() {
		var p models.ProgramPerformance
		if err := rows.Scan(
			&p.ProgramID, &p.ProgramName, &p.TimesRecommended,
			&p.Clicks, &p.Accepts, &p.AvgRating, &p.NumRatings,
		); err != nil {
			return nil, fmt.Errorf("scan program performance: %w", err)
		}

		if p.TimesRecommended > 0 {
			p.CTR = round2(100 * float64(p.Clicks) / float64(p.TimesRecommended))
			p.AcceptanceRate = round2(100 * float64(p.Accepts) / float64(p.TimesRecommended))
		}
		p.AvgRating = round2(p.AvgRating)

		stats = append(stats, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate program performance: %w", err)
	}

	return stats, nil
}

// round2 rounds to two decimal places for API-facing rates.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
