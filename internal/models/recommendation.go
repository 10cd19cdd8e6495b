// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package models

import (
	"time"
)

// RecommendRequest is the payload for requesting recommendations.
type RecommendRequest struct {
	StudentID      string `json:"student_id" validate:"required,uuid4"`
	TopK           int    `json:"top_k,omitempty" validate:"omitempty,gte=1,lte=50"`
	ApplyDiversity *bool  `json:"apply_diversity,omitempty"`
}

// RecommendationItem is one served recommendation in an API response.
type RecommendationItem struct {
	ProgramID          string   `json:"program_id"`
	ProgramName        string   `json:"program_name"`
	ProgramDescription string   `json:"program_description"`
	Score              float64  `json:"score"`
	Explanation        string   `json:"explanation"`
	Algorithm          string   `json:"algorithm"`
	Tags               []string `json:"tags"`
	Skills             []string `json:"skills"`
}

// RecommendationsResponse wraps a served recommendation list with
// engine diagnostics.
type RecommendationsResponse struct {
	StudentID    string               `json:"student_id"`
	Items        []RecommendationItem `json:"items"`
	Strategy     string               `json:"strategy"`
	ModelVersion int                  `json:"model_version"`
	GeneratedAt  time.Time            `json:"generated_at"`
}

// StrategyInfo describes which blending strategy currently applies to a
// student and the weights the engine would use.
type StrategyInfo struct {
	StudentID              string  `json:"student_id"`
	FeedbackCount          int     `json:"feedback_count"`
	ContentWeight          float64 `json:"content_weight"`
	CollaborativeWeight    float64 `json:"collaborative_weight"`
	Strategy               string  `json:"strategy"`
	CollaborativeAvailable bool    `json:"cf_available"`
}

// SimilarProgramItem is one entry in a similar-programs response.
type SimilarProgramItem struct {
	ProgramID          string   `json:"program_id"`
	ProgramName        string   `json:"program_name"`
	ProgramDescription string   `json:"program_description"`
	SimilarityScore    float64  `json:"similarity_score"`
	Tags               []string `json:"tags"`
	Skills             []string `json:"skills"`
}

// SimilarProgramsResponse wraps a similar-programs query result.
type SimilarProgramsResponse struct {
	ProgramID       string               `json:"program_id"`
	SimilarPrograms []SimilarProgramItem `json:"similar_programs"`
}

// RetrainResponse reports the outcome of a training run.
type RetrainResponse struct {
	CollaborativeTrained bool      `json:"collaborative_trained"`
	ModelVersion         int       `json:"model_version"`
	UserCount            int       `json:"user_count"`
	ItemCount            int       `json:"item_count"`
	InteractionCount     int       `json:"interaction_count"`
	DurationMS           int64     `json:"duration_ms"`
	TrainedAt            time.Time `json:"trained_at"`
}

// RecommendationHistoryItem is one persisted recommendation joined with
// program metadata for the history endpoint.
type RecommendationHistoryItem struct {
	RecommendationRecord
	ProgramName string `json:"program_name"`
}
