// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/areyes-dev/lodestar/internal/models"
)

// Program errors
var (
	ErrProgramNotFound = errors.New("program not found")
)

// CreateProgram adds a program to the catalog.
// A missing ID is generated; CreatedAt defaults to now.
func (db *DB) CreateProgram(ctx context.Context, program *models.Program) (err error) {
	defer observe("insert", "programs", time.Now(), &err)

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if program.ID == "" {
		program.ID = uuid.New().String()
	}
	if program.CreatedAt.IsZero() {
		program.CreatedAt = time.Now().UTC()
	}

	requirements, err := marshalRequirements(program.Requirements)
	if err != nil {
		return err
	}

	query := `INSERT INTO programs (id, name, description, tags, skills, requirements, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = db.conn.ExecContext(ctx, query,
		program.ID, program.Name, program.Description,
		joinList(program.Tags), joinList(program.Skills), requirements,
		program.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create program: %w", err)
	}

	return nil
}

// GetProgram retrieves a program by ID.
func (db *DB) GetProgram(ctx context.Context, id string) (*models.Program, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT id, name, description, tags, skills, requirements, created_at
		FROM programs WHERE id = ?`

	return scanProgram(db.conn.QueryRowContext(ctx, query, id))
}

// ListPrograms retrieves the full program catalog.
// Ordered by name for stable, browsable results.
func (db *DB) ListPrograms(ctx context.Context) ([]models.Program, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT id, name, description, tags, skills, requirements, created_at
		FROM programs ORDER BY name, id`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list programs: %w", err)
	}
	defer rows.Close()

	programs := make([]models.Program, 0)
	for rows.Next() {
		program, err := scanProgramRows(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan program: %w", err)
		}
		programs = append(programs, *program)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating programs: %w", err)
	}

	return programs, nil
}

// CountPrograms returns the catalog size.
func (db *DB) CountPrograms(ctx context.Context) (int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM programs`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count programs: %w", err)
	}
	return count, nil
}

// UpdateProgram replaces a program's catalog entry.
func (db *DB) UpdateProgram(ctx context.Context, program *models.Program) (err error) {
	defer observe("update", "programs", time.Now(), &err)

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	requirements, err := marshalRequirements(program.Requirements)
	if err != nil {
		return err
	}

	query := `UPDATE programs SET name = ?, description = ?, tags = ?, skills = ?, requirements = ?
		WHERE id = ?`

	result, err := db.conn.ExecContext(ctx, query,
		program.Name, program.Description,
		joinList(program.Tags), joinList(program.Skills), requirements,
		program.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update program: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProgramNotFound
	}

	return nil
}

// DeleteProgram removes a program from the catalog.
// Historical interactions and the served-recommendation log are kept;
// analytics joins tolerate the missing program row.
func (db *DB) DeleteProgram(ctx context.Context, id string) (err error) {
	defer observe("delete", "programs", time.Now(), &err)

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	result, err := db.conn.ExecContext(ctx, `DELETE FROM programs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete program: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProgramNotFound
	}

	return nil
}

// scanProgram scans a single-row query result into a Program.
func scanProgram(row *sql.Row) (*models.Program, error) {
	var program models.Program
	var tags, skills, requirements string

	err := row.Scan(
		&program.ID, &program.Name, &program.Description, &tags, &skills,
		&requirements, &program.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProgramNotFound
		}
		return nil, fmt.Errorf("failed to scan program: %w", err)
	}

	program.Tags = splitAndTrim(tags)
	program.Skills = splitAndTrim(skills)
	if program.Requirements, err = unmarshalRequirements(requirements); err != nil {
		return nil, err
	}

	return &program, nil
}

// scanProgramRows scans the current row of a multi-row result into a Program.
func scanProgramRows(rows *sql.Rows) (*models.Program, error) {
	var program models.Program
	var tags, skills, requirements string

	err := rows.Scan(
		&program.ID, &program.Name, &program.Description, &tags, &skills,
		&requirements, &program.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	program.Tags = splitAndTrim(tags)
	program.Skills = splitAndTrim(skills)
	if program.Requirements, err = unmarshalRequirements(requirements); err != nil {
		return nil, err
	}

	return &program, nil
}
