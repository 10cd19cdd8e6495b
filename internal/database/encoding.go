// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package database

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/areyes-dev/lodestar/internal/models"
)

// Column codecs for the denormalized list and JSON columns.
// Interests, tags, and skills are flat string lists stored comma-separated;
// grades and requirements are structured and stored as JSON text.

// joinList serializes a string list into a comma-separated column value.
// Elements are trimmed and empty elements dropped, so round-tripping
// normalizes whitespace.
func joinList(items []string) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, ",")
}

// splitAndTrim splits a comma-separated column value into trimmed,
// non-empty elements. An empty column yields an empty (non-nil) slice so
// API responses marshal as [] rather than null.
func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func marshalGrades(grades map[string]float64) (string, error) {
	if len(grades) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(grades)
	if err != nil {
		return "", fmt.Errorf("failed to marshal grades: %w", err)
	}
	return string(b), nil
}

func unmarshalGrades(s string) (map[string]float64, error) {
	grades := make(map[string]float64)
	if s == "" || s == "{}" {
		return grades, nil
	}
	if err := json.Unmarshal([]byte(s), &grades); err != nil {
		return nil, fmt.Errorf("failed to unmarshal grades: %w", err)
	}
	return grades, nil
}

func marshalRequirements(req models.ProgramRequirements) (string, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal requirements: %w", err)
	}
	return string(b), nil
}

func unmarshalRequirements(s string) (models.ProgramRequirements, error) {
	var req models.ProgramRequirements
	if s == "" || s == "{}" {
		return req, nil
	}
	if err := json.Unmarshal([]byte(s), &req); err != nil {
		return req, fmt.Errorf("failed to unmarshal requirements: %w", err)
	}
	return req, nil
}

// isUniqueConstraintError reports whether err is a DuckDB unique
// constraint violation. DuckDB constraint error messages contain
// "UNIQUE constraint" or "Duplicate key".
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "unique constraint") || strings.Contains(errMsg, "duplicate key")
}
