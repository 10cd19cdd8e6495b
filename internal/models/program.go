// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package models

import (
	"time"
)

// Program represents a study program in the catalog.
//
// Tags and Skills are the primary matching surface for both the
// content-based scorer and the cold-start interest overlap. Description
// feeds the TF-IDF vector space together with the tags and skills.
type Program struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	Tags         []string            `json:"tags"`
	Skills       []string            `json:"skills"`
	Requirements ProgramRequirements `json:"requirements"`
	CreatedAt    time.Time           `json:"created_at"`
}

// ProgramRequirements holds the structured admission requirements of a program.
type ProgramRequirements struct {
	// MinGrade is the minimum average grade expected for admission (0-100).
	MinGrade float64 `json:"min_grade,omitempty"`

	// Difficulty is the program difficulty level (beginner, intermediate, advanced).
	Difficulty string `json:"difficulty,omitempty"`

	// Rating is the program's overall quality rating (0-5).
	Rating float64 `json:"rating,omitempty"`
}

// ProgramCreateRequest is the payload for adding a program to the catalog.
type ProgramCreateRequest struct {
	Name         string              `json:"name" validate:"required,min=1,max=300"`
	Description  string              `json:"description" validate:"required,min=1"`
	Tags         []string            `json:"tags" validate:"omitempty,dive,min=1,max=100"`
	Skills       []string            `json:"skills" validate:"omitempty,dive,min=1,max=100"`
	Requirements ProgramRequirements `json:"requirements"`
}
