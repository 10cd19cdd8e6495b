// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/areyes-dev/lodestar/internal/models"
)

// listSeparator splits multi-valued cells ("machine learning|statistics").
// Commas are taken by the CSV format itself, so cells use pipes.
const listSeparator = "|"

// gradeSeparator splits a subject from its score inside a grades cell
// ("math:95|physics:88").
const gradeSeparator = ":"

// row is one CSV record with its header mapping, so cells are addressed by
// column name and files stay robust against column reordering.
type row struct {
	header map[string]int
	cells  []string
	line   int
}

func (r *row) get(column string) string {
	idx, ok := r.header[column]
	if !ok || idx >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[idx])
}

// parseList splits a pipe-separated cell into trimmed, non-empty items.
func parseList(cell string) []string {
	if cell == "" {
		return nil
	}
	parts := strings.Split(cell, listSeparator)
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			items = append(items, p)
		}
	}
	if len(items) == 0 {
		return nil
	}
	return items
}

// parseGrades splits a "subject:score|subject:score" cell.
func parseGrades(cell string) (map[string]float64, error) {
	if cell == "" {
		return nil, nil
	}

	grades := make(map[string]float64)
	for _, pair := range strings.Split(cell, listSeparator) {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		subject, scoreText, found := strings.Cut(pair, gradeSeparator)
		subject = strings.TrimSpace(subject)
		if !found || subject == "" {
			return nil, fmt.Errorf("malformed grade pair %q", pair)
		}

		score, err := strconv.ParseFloat(strings.TrimSpace(scoreText), 64)
		if err != nil {
			return nil, fmt.Errorf("grade score for %q: %w", subject, err)
		}
		if score < 0 || score > 100 {
			return nil, fmt.Errorf("grade score for %q out of range: %g", subject, score)
		}
		grades[subject] = score
	}

	if len(grades) == 0 {
		return nil, nil
	}
	return grades, nil
}

// toProgram converts a programs.csv row. Expected columns:
// name, description, tags, skills, min_grade, difficulty, rating.
func toProgram(r *row) (*models.Program, error) {
	program := &models.Program{
		Name:        r.get("name"),
		Description: r.get("description"),
		Tags:        parseList(r.get("tags")),
		Skills:      parseList(r.get("skills")),
	}

	if program.Name == "" {
		return nil, fmt.Errorf("missing name")
	}
	if program.Description == "" {
		return nil, fmt.Errorf("missing description")
	}

	if cell := r.get("min_grade"); cell != "" {
		minGrade, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, fmt.Errorf("min_grade: %w", err)
		}
		if minGrade < 0 || minGrade > 100 {
			return nil, fmt.Errorf("min_grade out of range: %g", minGrade)
		}
		program.Requirements.MinGrade = minGrade
	}

	program.Requirements.Difficulty = r.get("difficulty")

	if cell := r.get("rating"); cell != "" {
		rating, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, fmt.Errorf("rating: %w", err)
		}
		if rating < 0 || rating > 5 {
			return nil, fmt.Errorf("rating out of range: %g", rating)
		}
		program.Requirements.Rating = rating
	}

	return program, nil
}

// toStudent converts a students.csv row. Expected columns:
// name, email, interests, grades.
func toStudent(r *row) (*models.Student, error) {
	student := &models.Student{
		Name:      r.get("name"),
		Email:     r.get("email"),
		Interests: parseList(r.get("interests")),
	}

	if student.Name == "" {
		return nil, fmt.Errorf("missing name")
	}
	if student.Email == "" || !strings.Contains(student.Email, "@") {
		return nil, fmt.Errorf("missing or malformed email %q", student.Email)
	}

	grades, err := parseGrades(r.get("grades"))
	if err != nil {
		return nil, err
	}
	student.Grades = grades

	return student, nil
}

// toInteraction converts an interactions.csv row. Expected columns:
// student_id, program_id, clicked, accepted, rating, recommended_at.
func toInteraction(r *row) (*models.Interaction, error) {
	interaction := &models.Interaction{
		StudentID: r.get("student_id"),
		ProgramID: r.get("program_id"),
	}

	if _, err := uuid.Parse(interaction.StudentID); err != nil {
		return nil, fmt.Errorf("student_id: %w", err)
	}
	if _, err := uuid.Parse(interaction.ProgramID); err != nil {
		return nil, fmt.Errorf("program_id: %w", err)
	}

	var err error
	if interaction.Clicked, err = parseFlag(r.get("clicked")); err != nil {
		return nil, fmt.Errorf("clicked: %w", err)
	}
	if interaction.Accepted, err = parseFlag(r.get("accepted")); err != nil {
		return nil, fmt.Errorf("accepted: %w", err)
	}

	if cell := r.get("rating"); cell != "" {
		rating, err := strconv.Atoi(cell)
		if err != nil {
			return nil, fmt.Errorf("rating: %w", err)
		}
		if rating < 1 || rating > 5 {
			return nil, fmt.Errorf("rating out of range: %d", rating)
		}
		interaction.Rating = &rating
	}

	if cell := r.get("recommended_at"); cell != "" {
		recommendedAt, err := time.Parse(time.RFC3339, cell)
		if err != nil {
			return nil, fmt.Errorf("recommended_at: %w", err)
		}
		interaction.RecommendedAt = recommendedAt
	}

	return interaction, nil
}

// parseFlag accepts true/false, 1/0, yes/no. An empty cell is false.
func parseFlag(cell string) (bool, error) {
	switch strings.ToLower(cell) {
	case "", "false", "0", "no":
		return false, nil
	case "true", "1", "yes":
		return true, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", cell)
	}
}
