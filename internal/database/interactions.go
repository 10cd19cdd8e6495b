// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/areyes-dev/lodestar/internal/logging"
	"github.com/areyes-dev/lodestar/internal/models"
)

// InsertInteraction appends one behavioral feedback event.
// Interactions are append-only: repeated feedback for the same
// (student, program) pair inserts a new row, and the engine aggregates
// per pair when deriving confidence weights. Re-inserting the same ID is a
// no-op, which keeps journal replay idempotent when a crash lands between
// the insert and the journal confirmation.
func (db *DB) InsertInteraction(ctx context.Context, interaction *models.Interaction) (err error) {
	defer observe("insert", "interactions", time.Now(), &err)

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if interaction.ID == "" {
		interaction.ID = uuid.New().String()
	}
	if interaction.RecommendedAt.IsZero() {
		interaction.RecommendedAt = time.Now().UTC()
	}

	query := `INSERT INTO interactions (id, student_id, program_id, clicked, accepted, rating, recommended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`

	_, err = db.conn.ExecContext(ctx, query,
		interaction.ID, interaction.StudentID, interaction.ProgramID,
		interaction.Clicked, interaction.Accepted, ratingValue(interaction.Rating),
		interaction.RecommendedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert interaction: %w", err)
	}

	return nil
}

// InsertRecommendations logs a batch of served recommendations in a single
// transaction, so one response's items land atomically. Rows that collide
// on ID are skipped rather than failing the batch.
func (db *DB) InsertRecommendations(ctx context.Context, records []models.RecommendationRecord) (err error) {
	defer observe("insert", "recommendations", time.Now(), &err)

	if len(records) == 0 {
		return nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error().
					Err(rbErr).
					AnErr("original_error", err).
					Msg("Transaction rollback failed")
			}
		}
	}()

	query := `INSERT INTO recommendations (id, student_id, program_id, score, explanation, algorithm, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer closeQuietly(stmt)

	now := time.Now().UTC()
	for i := range records {
		r := &records[i]
		if r.ID == "" {
			r.ID = uuid.New().String()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}

		if _, err = stmt.ExecContext(ctx,
			r.ID, r.StudentID, r.ProgramID, r.Score, r.Explanation, r.Algorithm, r.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert recommendation %s: %w", r.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListInteractions returns the merged behavioral stream for one student, or
// for all students when studentID is empty.
//
// The merge unions explicit feedback rows with served-recommendation log
// rows surfaced as bare interactions (no signals set). The engine's
// confidence weighting and popularity counts both expect this combined
// stream. Ordered by event time so downstream index assignment is stable.
func (db *DB) ListInteractions(ctx context.Context, studentID string) (interactions []models.Interaction, err error) {
	defer observe("select", "interactions", time.Now(), &err)

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	where := ""
	args := []any{}
	if studentID != "" {
		where = " WHERE student_id = ?"
		args = []any{studentID, studentID}
	}

	query := `SELECT id, student_id, program_id, clicked, accepted, rating, recommended_at
		FROM interactions` + where + `
	UNION ALL
	SELECT id, student_id, program_id, FALSE, FALSE, NULL, created_at
		FROM recommendations` + where + `
	ORDER BY recommended_at, id`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	defer rows.Close()

	interactions = make([]models.Interaction, 0)
	for rows.Next() {
		var it models.Interaction
		var rating sql.NullInt64

		if err := rows.Scan(
			&it.ID, &it.StudentID, &it.ProgramID,
			&it.Clicked, &it.Accepted, &rating, &it.RecommendedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}

		if rating.Valid {
			v := int(rating.Int64)
			it.Rating = &v
		}
		interactions = append(interactions, it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating interactions: %w", err)
	}

	return interactions, nil
}

// RecommendationHistory returns a student's served recommendations joined
// with program names, newest first.
func (db *DB) RecommendationHistory(ctx context.Context, studentID string, limit int) ([]models.RecommendationHistoryItem, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 50
	}

	query := `SELECT r.id, r.student_id, r.program_id, r.score, r.explanation, r.algorithm, r.created_at,
			COALESCE(p.name, '') AS program_name
		FROM recommendations r
		LEFT JOIN programs p ON p.id = r.program_id
		WHERE r.student_id = ?
		ORDER BY r.created_at DESC, r.id
		LIMIT ?`

	rows, err := db.conn.QueryContext(ctx, query, studentID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendation history: %w", err)
	}
	defer rows.Close()

	history := make([]models.RecommendationHistoryItem, 0, limit)
	for rows.Next() {
		var item models.RecommendationHistoryItem
		if err := rows.Scan(
			&item.ID, &item.StudentID, &item.ProgramID, &item.Score,
			&item.Explanation, &item.Algorithm, &item.CreatedAt,
			&item.ProgramName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		history = append(history, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recommendation history: %w", err)
	}

	return history, nil
}

// ratingValue converts an optional rating into a driver-bindable value.
func ratingValue(rating *int) any {
	if rating == nil {
		return nil
	}
	return *rating
}
