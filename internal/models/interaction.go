// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package models

import (
	"time"
)

// Interaction represents one immutable behavioral event for a
// (student, program) pair. Feedback appends new rows rather than
// mutating existing ones; served recommendations are logged separately
// as RecommendationRecords and surface to the engine as bare
// interactions (no signals set). The engine aggregates all events per
// pair when deriving confidence weights, so history is never rewritten.
type Interaction struct {
	ID            string    `json:"id"`
	StudentID     string    `json:"student_id"`
	ProgramID     string    `json:"program_id"`
	Clicked       bool      `json:"clicked"`
	Accepted      bool      `json:"accepted"`
	Rating        *int      `json:"rating,omitempty"`
	RecommendedAt time.Time `json:"recommended_at"`
}

// IsBare reports whether the interaction carries no behavioral signal
// beyond having been recommended. Bare rows contribute the base
// confidence weight and count as one "times recommended" for popularity.
func (i *Interaction) IsBare() bool {
	return !i.Clicked && !i.Accepted && i.Rating == nil
}

// FeedbackRequest is the payload for submitting behavioral feedback on a
// previously recommended program.
type FeedbackRequest struct {
	StudentID string `json:"student_id" validate:"required,uuid4"`
	ProgramID string `json:"program_id" validate:"required,uuid4"`
	Clicked   bool   `json:"clicked"`
	Accepted  bool   `json:"accepted"`
	Rating    *int   `json:"rating,omitempty" validate:"omitempty,gte=1,lte=5"`
}

// RecommendationRecord is a persisted log entry for a served recommendation.
// The history endpoint and the analytics aggregations read from this log.
type RecommendationRecord struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"student_id"`
	ProgramID   string    `json:"program_id"`
	Score       float64   `json:"score"`
	Explanation string    `json:"explanation"`
	Algorithm   string    `json:"algorithm"`
	CreatedAt   time.Time `json:"created_at"`
}
