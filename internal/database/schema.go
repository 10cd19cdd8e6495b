// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

/*
schema.go - Database Schema Management

This file manages the DuckDB database schema including table creation
and index management.

Tables:
  - students: Registered student profiles with interests and grades
  - programs: The study program catalog with tags, skills, and requirements
  - interactions: Append-only behavioral feedback events (clicks, accepts, ratings)
  - recommendations: Append-only log of every served recommendation

Schema Strategy (Pre-Release):
All columns are defined in the initial CREATE TABLE statement. This provides:
  - Single source of truth for the complete schema
  - Faster startup (no migrations to run)

Post-Release Migration Strategy:
After the first public release with real users, use versioned migrations in
migrations.go to add new columns without losing existing data.

Index Strategy:
Indexes cover the per-student lookups on interactions and recommendations
(the merged interaction stream and the history endpoint) and the per-program
joins used by the analytics aggregations.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := db.getTableCreationQueries()

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}

	return nil
}

// getTableCreationQueries returns the table creation SQL statements
func (db *DB) getTableCreationQueries() []string {
	return []string{
		// Student profiles. Interests are stored comma-separated; grades are
		// stored as a JSON object mapping subject -> score.
		`CREATE TABLE IF NOT EXISTS students (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			interests TEXT NOT NULL DEFAULT '',
			grades TEXT NOT NULL DEFAULT '{}',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,

		// Program catalog. Tags and skills are stored comma-separated;
		// requirements are stored as a JSON object.
		`CREATE TABLE IF NOT EXISTS programs (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			tags TEXT NOT NULL DEFAULT '',
			skills TEXT NOT NULL DEFAULT '',
			requirements TEXT NOT NULL DEFAULT '{}',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,

		// Behavioral feedback events. Append-only: each feedback submission
		// inserts a new row, history is never rewritten.
		`CREATE TABLE IF NOT EXISTS interactions (
			id TEXT PRIMARY KEY,
			student_id TEXT NOT NULL,
			program_id TEXT NOT NULL,
			clicked BOOLEAN NOT NULL DEFAULT FALSE,
			accepted BOOLEAN NOT NULL DEFAULT FALSE,
			rating INTEGER,
			recommended_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,

		// Served recommendation log. One row per recommendation shown to a
		// student; feeds the history endpoint, the analytics aggregations,
		// and the engine's merged interaction stream.
		`CREATE TABLE IF NOT EXISTS recommendations (
			id TEXT PRIMARY KEY,
			student_id TEXT NOT NULL,
			program_id TEXT NOT NULL,
			score DOUBLE NOT NULL,
			explanation TEXT NOT NULL DEFAULT '',
			algorithm TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
	}
}

// createIndexes creates database indexes for query optimization
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	indexes := db.getIndexQueries()

	for _, query := range indexes {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute index query: %s: %w", query, err)
		}
	}

	return nil
}

// getIndexQueries returns index creation SQL statements
func (db *DB) getIndexQueries() []string {
	return []string{
		// Per-student lookups (merged interaction stream, history endpoint)
		`CREATE INDEX IF NOT EXISTS idx_interactions_student ON interactions(student_id);`,
		`CREATE INDEX IF NOT EXISTS idx_recommendations_student ON recommendations(student_id);`,

		// Per-program aggregations (analytics, popularity)
		`CREATE INDEX IF NOT EXISTS idx_interactions_program ON interactions(program_id);`,
		`CREATE INDEX IF NOT EXISTS idx_recommendations_program ON recommendations(program_id);`,

		// Time-ordered reads
		`CREATE INDEX IF NOT EXISTS idx_interactions_recommended_at ON interactions(recommended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_recommendations_created_at ON recommendations(created_at);`,

		// Roster lookups by email (duplicate detection, CSV ingest)
		`CREATE INDEX IF NOT EXISTS idx_students_email ON students(email);`,
	}
}
