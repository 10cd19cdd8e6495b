// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package models

import (
	"time"
)

// Student represents a registered student profile.
//
// Interests are free-form tags ("machine learning", "art history") matched
// against program tags and skills. Grades map subject names to scores on a
// 0-100 scale. Both drive the content-based half of the recommendation
// engine; behavioral signals accumulate separately as Interactions.
type Student struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Email     string             `json:"email"`
	Interests []string           `json:"interests"`
	Grades    map[string]float64 `json:"grades"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// StudentCreateRequest is the payload for registering a new student.
type StudentCreateRequest struct {
	Name      string             `json:"name" validate:"required,min=1,max=200"`
	Email     string             `json:"email" validate:"required,email,max=254"`
	Interests []string           `json:"interests" validate:"omitempty,dive,min=1,max=100"`
	Grades    map[string]float64 `json:"grades" validate:"omitempty,dive,gte=0,lte=100"`
}

// StudentUpdateRequest is the payload for updating an existing student.
// Nil fields are left unchanged; at least one field must be set.
type StudentUpdateRequest struct {
	Name      *string            `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Interests []string           `json:"interests,omitempty" validate:"omitempty,dive,min=1,max=100"`
	Grades    map[string]float64 `json:"grades,omitempty" validate:"omitempty,dive,gte=0,lte=100"`
}

// IsEmpty reports whether the update request carries no changes.
func (r *StudentUpdateRequest) IsEmpty() bool {
	return r.Name == nil && r.Interests == nil && r.Grades == nil
}

// StudentSummary is a reduced student view for list endpoints.
type StudentSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
