// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package recommend

import (
	"context"
	"errors"
	"time"

	"github.com/areyes-dev/lodestar/internal/models"
)

// Algorithm tags attached to served recommendations.
const (
	AlgorithmContent       = "content"
	AlgorithmCollaborative = "collaborative"
	AlgorithmHybrid        = "hybrid"
	AlgorithmColdStart     = "cold_start"
)

// Sentinel errors surfaced by the engine.
var (
	// ErrStudentNotFound indicates the requested student id is absent from
	// the data snapshot.
	ErrStudentNotFound = errors.New("student not found")

	// ErrProgramNotFound indicates the requested program id is absent from
	// the data snapshot.
	ErrProgramNotFound = errors.New("program not found")

	// ErrModelUnavailable indicates no trained collaborative model exists
	// yet. Recommendation paths recover from this internally; it is only
	// surfaced by operations that require factors, such as GetSimilar.
	ErrModelUnavailable = errors.New("collaborative model not trained")

	// ErrInsufficientData indicates the interaction set is too small to fit
	// a meaningful factorization (fewer than 2 distinct students or fewer
	// than 2 distinct programs with positive-weight interactions).
	ErrInsufficientData = errors.New("insufficient training data")

	// ErrTrainingInProgress indicates another training run holds the
	// training lock.
	ErrTrainingInProgress = errors.New("training already in progress")
)

// DataProvider supplies the engine with its read-only data snapshot.
// Implementations are expected to merge explicit feedback and served
// recommendation log rows into a single interaction stream; a served
// recommendation with no feedback surfaces as a bare interaction.
type DataProvider interface {
	// GetStudent returns the student with the given id, or
	// ErrStudentNotFound.
	GetStudent(ctx context.Context, id string) (*models.Student, error)

	// ListStudents returns all registered students.
	ListStudents(ctx context.Context) ([]models.Student, error)

	// ListPrograms returns the full program catalog.
	ListPrograms(ctx context.Context) ([]models.Program, error)

	// ListInteractions returns interactions for one student, or for all
	// students when studentID is empty.
	ListInteractions(ctx context.Context, studentID string) ([]models.Interaction, error)
}

// ContentScorer scores candidate programs against a student profile using
// metadata similarity. Implementations must be safe for concurrent Score
// calls after Fit has returned.
type ContentScorer interface {
	// Fit builds the vector space over the given program corpus.
	Fit(ctx context.Context, programs []models.Program) error

	// Score returns a score in [0,1] for every candidate program id. A
	// student with no usable profile receives all-zero scores; that is a
	// valid result, not an error.
	Score(ctx context.Context, student *models.Student, candidates []string) (map[string]float64, error)

	// Fitted reports whether Fit has completed at least once.
	Fitted() bool
}

// CollaborativeFilter predicts preference scores from behavioral signals.
// Implementations must be safe for concurrent Predict and Similar calls
// after Train has returned.
type CollaborativeFilter interface {
	// Train fits the model over the full interaction set. Returns
	// ErrInsufficientData when fewer than 2 distinct students or programs
	// carry positive-weight interactions.
	Train(ctx context.Context, interactions []models.Interaction) error

	// Predict returns scores in [0,1] for the candidate programs,
	// min-max normalized across this candidate set. A nil map (with nil
	// error) means the student is unknown to the trained model, which
	// callers must treat as "signal unavailable" rather than a low score.
	Predict(ctx context.Context, studentID string, candidates []string) (map[string]float64, error)

	// Similar returns cosine similarities between the given program's
	// latent factors and each candidate's, excluding the program itself.
	// A nil map means the program is unknown to the trained model.
	Similar(ctx context.Context, programID string, candidates []string) (map[string]float64, error)

	// Trained reports whether a successful Train has completed.
	Trained() bool

	// Stats returns the dimensions of the trained model.
	Stats() ModelStats

	// Snapshot exports the trained factors for persistence. Returns nil
	// when untrained.
	Snapshot() *ModelSnapshot

	// Restore loads previously exported factors, marking the model
	// trained.
	Restore(snap *ModelSnapshot) error
}

// Reranker reorders a scored candidate list, typically to trade a small
// amount of score for diversity.
type Reranker interface {
	Rerank(ctx context.Context, candidates []ScoredRecommendation, topK int) []ScoredRecommendation
}

// Request is a single recommendation query.
type Request struct {
	StudentID string

	// TopK is the number of programs to return. Zero selects the
	// configured default; values above the configured maximum are capped
	// to it.
	TopK int

	// Diversity overrides the configured diversity default when non-nil.
	Diversity *bool
}

// ScoredRecommendation is one scored, explained program. Score is always
// in [0,1]. Algorithm is one of the Algorithm* constants.
type ScoredRecommendation struct {
	Program     models.Program
	Score       float64
	Explanation string
	Algorithm   string
}

// Result is a complete recommendation response. Strategy is the
// request-level path taken: cold_start, hybrid, or content when the
// collaborative signal was unavailable for the student.
type Result struct {
	StudentID    string
	Items        []ScoredRecommendation
	Strategy     string
	ModelVersion int
	GeneratedAt  time.Time
}

// ModelStore persists trained factorizations across restarts.
type ModelStore interface {
	// Save persists a snapshot under the given model version.
	Save(snap *ModelSnapshot, version int) error

	// LoadLatest returns the newest persisted snapshot and its version,
	// or (nil, 0, nil) when none exists.
	LoadLatest() (*ModelSnapshot, int, error)
}

// SimilarResult is one entry from a similar-programs query.
type SimilarResult struct {
	Program    models.Program
	Similarity float64
}

// ModelStats describes the dimensions of a trained collaborative model.
type ModelStats struct {
	Users        int
	Items        int
	Interactions int
	Factors      int
}

// ModelSnapshot is the persistable form of a trained factorization.
// StudentIDs and ProgramIDs are ordered to match the rows of UserFactors
// and ItemFactors respectively.
type ModelSnapshot struct {
	TrainedAt        time.Time
	Factors          int
	StudentIDs       []string
	ProgramIDs       []string
	UserFactors      [][]float64
	ItemFactors      [][]float64
	InteractionCount int
}

// TrainingResult reports the outcome of one training run.
type TrainingResult struct {
	CollaborativeTrained bool
	ModelVersion         int
	UserCount            int
	ItemCount            int
	InteractionCount     int
	Duration             time.Duration
	TrainedAt            time.Time
}

// TrainingStatus describes the engine's current model state.
type TrainingStatus struct {
	Training               bool
	ModelVersion           int
	LastTrainedAt          time.Time
	CollaborativeAvailable bool
	Stats                  ModelStats
}
