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

	"github.com/areyes-dev/lodestar/internal/logging"
	"github.com/areyes-dev/lodestar/internal/models"
)

// Student errors
var (
	ErrStudentNotFound = errors.New("student not found")
	ErrDuplicateEmail  = errors.New("student with this email already exists")
)

// CreateStudent registers a new student profile.
// A missing ID is generated; timestamps default to now.
func (db *DB) CreateStudent(ctx context.Context, student *models.Student) (err error) {
	defer observe("insert", "students", time.Now(), &err)

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if student.ID == "" {
		student.ID = uuid.New().String()
	}
	if student.CreatedAt.IsZero() {
		student.CreatedAt = time.Now().UTC()
	}
	student.UpdatedAt = student.CreatedAt

	grades, err := marshalGrades(student.Grades)
	if err != nil {
		return err
	}

	query := `INSERT INTO students (id, name, email, interests, grades, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = db.conn.ExecContext(ctx, query,
		student.ID, student.Name, student.Email, joinList(student.Interests),
		grades, student.CreatedAt, student.UpdatedAt,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create student: %w", err)
	}

	return nil
}

// GetStudent retrieves a student by ID.
func (db *DB) GetStudent(ctx context.Context, id string) (*models.Student, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT id, name, email, interests, grades, created_at, updated_at
		FROM students WHERE id = ?`

	return scanStudent(db.conn.QueryRowContext(ctx, query, id))
}

// GetStudentByEmail retrieves a student by email (for roster deduplication).
func (db *DB) GetStudentByEmail(ctx context.Context, email string) (*models.Student, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT id, name, email, interests, grades, created_at, updated_at
		FROM students WHERE email = ?`

	return scanStudent(db.conn.QueryRowContext(ctx, query, email))
}

// ListStudents retrieves all students with full profiles.
// Ordered by creation time for stable results.
func (db *DB) ListStudents(ctx context.Context) ([]models.Student, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT id, name, email, interests, grades, created_at, updated_at
		FROM students ORDER BY created_at, id`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	defer rows.Close()

	students := make([]models.Student, 0)
	for rows.Next() {
		student, err := scanStudentRows(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, *student)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating students: %w", err)
	}

	return students, nil
}

// ListStudentSummaries retrieves a page of reduced student views for list
// endpoints. Ordered by creation time, newest first.
func (db *DB) ListStudentSummaries(ctx context.Context, limit, offset int) ([]models.StudentSummary, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT id, name, email, created_at
		FROM students ORDER BY created_at DESC, id LIMIT ? OFFSET ?`

	rows, err := db.conn.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list student summaries: %w", err)
	}
	defer rows.Close()

	summaries := make([]models.StudentSummary, 0, limit)
	for rows.Next() {
		var s models.StudentSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan student summary: %w", err)
		}
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating student summaries: %w", err)
	}

	return summaries, nil
}

// CountStudents returns the total number of registered students.
func (db *DB) CountStudents(ctx context.Context) (int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM students`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count students: %w", err)
	}
	return count, nil
}

// UpdateStudent updates a student's name, interests, and grades.
// Email is immutable after registration.
func (db *DB) UpdateStudent(ctx context.Context, student *models.Student) (err error) {
	defer observe("update", "students", time.Now(), &err)

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	student.UpdatedAt = time.Now().UTC()

	grades, err := marshalGrades(student.Grades)
	if err != nil {
		return err
	}

	query := `UPDATE students SET name = ?, interests = ?, grades = ?, updated_at = ?
		WHERE id = ?`

	result, err := db.conn.ExecContext(ctx, query,
		student.Name, joinList(student.Interests), grades, student.UpdatedAt, student.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update student: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrStudentNotFound
	}

	return nil
}

// DeleteStudent removes a student and their behavioral history.
// The served-recommendation log and feedback rows go with the profile so a
// deleted student leaves no per-student data behind.
func (db *DB) DeleteStudent(ctx context.Context, id string) (err error) {
	defer observe("delete", "students", time.Now(), &err)

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

	if _, err = tx.ExecContext(ctx, `DELETE FROM interactions WHERE student_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete student interactions: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM recommendations WHERE student_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete student recommendations: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM students WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete student: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		err = ErrStudentNotFound
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// scanStudent scans a single-row query result into a Student.
func scanStudent(row *sql.Row) (*models.Student, error) {
	var student models.Student
	var interests, grades string

	err := row.Scan(
		&student.ID, &student.Name, &student.Email, &interests, &grades,
		&student.CreatedAt, &student.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to scan student: %w", err)
	}

	student.Interests = splitAndTrim(interests)
	if student.Grades, err = unmarshalGrades(grades); err != nil {
		return nil, err
	}

	return &student, nil
}

// scanStudentRows scans the current row of a multi-row result into a Student.
func scanStudentRows(rows *sql.Rows) (*models.Student, error) {
	var student models.Student
	var interests, grades string

	err := rows.Scan(
		&student.ID, &student.Name, &student.Email, &interests, &grades,
		&student.CreatedAt, &student.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	student.Interests = splitAndTrim(interests)
	if student.Grades, err = unmarshalGrades(grades); err != nil {
		return nil, err
	}

	return &student, nil
}
