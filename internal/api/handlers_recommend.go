// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/areyes-dev/lodestar/internal/database"
	"github.com/areyes-dev/lodestar/internal/events"
	"github.com/areyes-dev/lodestar/internal/logging"
	"github.com/areyes-dev/lodestar/internal/metrics"
	"github.com/areyes-dev/lodestar/internal/models"
	"github.com/areyes-dev/lodestar/internal/recommend"
)

// trainingTimeout bounds a full background training run, including the
// factorization sweep over all interactions.
const trainingTimeout = 30 * time.Minute

// CreateRecommendations handles POST /api/v1/recommendations.
// Scores, explains, and returns top-K programs for a student, then
// persists the served list as the audit trail the analytics and the
// popularity signal read from.
func (h *Handler) CreateRecommendations(w http.ResponseWriter, r *http.Request) {
	var req models.RecommendRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	start := time.Now()
	result, err := h.engine.Recommend(ctx, recommend.Request{
		StudentID: req.StudentID,
		TopK:      req.TopK,
		Diversity: req.ApplyDiversity,
	})
	if err != nil {
		if errors.Is(err, recommend.ErrStudentNotFound) {
			respondError(w, http.StatusNotFound, "STUDENT_NOT_FOUND", "Student not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "RECOMMENDATION_ERROR", "Failed to generate recommendations", err)
		return
	}

	h.persistServed(ctx, result)

	respondSuccess(w, r, http.StatusOK, toRecommendationsResponse(result), time.Since(start))
}

// persistServed logs the served list to the recommendations table. The
// response does not depend on it: a student still gets recommendations
// when the audit insert fails, at the cost of a lost popularity signal.
func (h *Handler) persistServed(ctx context.Context, result *recommend.Result) {
	if len(result.Items) == 0 {
		return
	}

	records := make([]models.RecommendationRecord, len(result.Items))
	for i, item := range result.Items {
		records[i] = models.RecommendationRecord{
			ID:          uuid.New().String(),
			StudentID:   result.StudentID,
			ProgramID:   item.Program.ID,
			Score:       item.Score,
			Explanation: item.Explanation,
			Algorithm:   item.Algorithm,
			CreatedAt:   result.GeneratedAt,
		}
	}

	if err := h.db.InsertRecommendations(ctx, records); err != nil {
		logging.Error().Err(err).
			Str("student_id", result.StudentID).
			Int("count", len(records)).
			Msg("Persisting served recommendations failed")
	}
}

// toRecommendationsResponse flattens the engine result into the API shape.
func toRecommendationsResponse(result *recommend.Result) *models.RecommendationsResponse {
	items := make([]models.RecommendationItem, len(result.Items))
	for i, item := range result.Items {
		items[i] = models.RecommendationItem{
			ProgramID:          item.Program.ID,
			ProgramName:        item.Program.Name,
			ProgramDescription: item.Program.Description,
			Score:              item.Score,
			Explanation:        item.Explanation,
			Algorithm:          item.Algorithm,
			Tags:               item.Program.Tags,
			Skills:             item.Program.Skills,
		}
	}
	return &models.RecommendationsResponse{
		StudentID:    result.StudentID,
		Items:        items,
		Strategy:     result.Strategy,
		ModelVersion: result.ModelVersion,
		GeneratedAt:  result.GeneratedAt,
	}
}

// GetStrategy handles GET /api/v1/students/{id}/strategy.
// Reports the blend weights the engine would use for the student right
// now: interaction count, tier, and whether the collaborative signal
// covers them.
func (h *Handler) GetStrategy(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	start := time.Now()
	info, err := h.engine.GetStrategy(ctx, studentID)
	if err != nil {
		if errors.Is(err, recommend.ErrStudentNotFound) {
			respondError(w, http.StatusNotFound, "STUDENT_NOT_FOUND", "Student not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "STRATEGY_ERROR", "Failed to resolve strategy", err)
		return
	}

	respondSuccess(w, r, http.StatusOK, info, time.Since(start))
}

// GetSimilar handles GET /api/v1/programs/{id}/similar.
// Returns programs closest to the given one in the trained item-factor
// space. Requires a trained collaborative model; before the first
// training run the endpoint reports 503 so clients can distinguish "not
// ready yet" from "no similar programs".
func (h *Handler) GetSimilar(w http.ResponseWriter, r *http.Request) {
	programID := chi.URLParam(r, "id")
	limit := getIntParam(r, "limit", 0)

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	start := time.Now()
	similar, err := h.engine.GetSimilar(ctx, programID, limit)
	if err != nil {
		switch {
		case errors.Is(err, recommend.ErrProgramNotFound):
			respondError(w, http.StatusNotFound, "PROGRAM_NOT_FOUND", "Program not found", nil)
		case errors.Is(err, recommend.ErrModelUnavailable):
			respondError(w, http.StatusServiceUnavailable, "MODEL_NOT_TRAINED", "Collaborative model is not trained yet", nil)
		default:
			respondError(w, http.StatusInternalServerError, "SIMILAR_ERROR", "Failed to find similar programs", err)
		}
		return
	}

	items := make([]models.SimilarProgramItem, len(similar))
	for i, s := range similar {
		items[i] = models.SimilarProgramItem{
			ProgramID:          s.Program.ID,
			ProgramName:        s.Program.Name,
			ProgramDescription: s.Program.Description,
			SimilarityScore:    s.Similarity,
			Tags:               s.Program.Tags,
			Skills:             s.Program.Skills,
		}
	}

	respondSuccess(w, r, http.StatusOK, &models.SimilarProgramsResponse{
		ProgramID:       programID,
		SimilarPrograms: items,
	}, time.Since(start))
}

// GetHistory handles GET /api/v1/students/{id}/recommendations.
// Returns the persisted recommendation log for one student, newest first.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "id")
	limit := getIntParam(r, "limit", 50)

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if _, err := h.db.GetStudent(ctx, studentID); err != nil {
		if errors.Is(err, database.ErrStudentNotFound) {
			respondError(w, http.StatusNotFound, "STUDENT_NOT_FOUND", "Student not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load student", err)
		return
	}

	start := time.Now()
	history, err := h.db.RecommendationHistory(ctx, studentID, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load recommendation history", err)
		return
	}
	if history == nil {
		history = []models.RecommendationHistoryItem{}
	}

	respondSuccess(w, r, http.StatusOK, map[string]interface{}{
		"student_id": studentID,
		"items":      history,
		"count":      len(history),
	}, time.Since(start))
}

// TriggerRetrain handles POST /api/v1/retrain.
// Starts a full model training run in the background and returns 202.
// A run already in flight yields 409; the engine holds the training lock,
// so the check here only shortcuts the common case and the background
// goroutine tolerates losing the race.
func (h *Handler) TriggerRetrain(w http.ResponseWriter, r *http.Request) {
	if h.engine.Status().Training {
		respondError(w, http.StatusConflict, "TRAINING_IN_PROGRESS", "Training is already in progress", nil)
		return
	}

	go h.runTraining("api")

	respondJSON(w, http.StatusAccepted, &models.APIResponse{
		Status: "success",
		Data: map[string]string{
			"message": "Training started",
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
			RequestID: logging.RequestIDFromContext(r.Context()),
		},
	})
}

// runTraining executes one training run outside the request path and
// publishes the result.
func (h *Handler) runTraining(trigger string) {
	ctx, cancel := context.WithTimeout(context.Background(), trainingTimeout)
	defer cancel()

	start := time.Now()
	result, err := h.engine.Retrain(ctx)
	if err != nil {
		if errors.Is(err, recommend.ErrTrainingInProgress) {
			logging.Debug().Str("trigger", trigger).Msg("Training trigger lost the race, run already in flight")
			return
		}
		metrics.RecordTrainingRun(trigger, time.Since(start), false, err)
		logging.Error().Err(err).Str("trigger", trigger).Msg("Training run failed")
		return
	}

	metrics.RecordTrainingRun(trigger, result.Duration, !result.CollaborativeTrained, nil)

	if h.bus != nil {
		event := &events.ModelTrained{
			Version:              result.ModelVersion,
			Trigger:              trigger,
			CollaborativeTrained: result.CollaborativeTrained,
			Students:             result.UserCount,
			Programs:             result.ItemCount,
			TrainedAt:            result.TrainedAt,
		}
		if err := h.bus.PublishModelTrained(ctx, event); err != nil {
			logging.Warn().Err(err).Msg("Publishing model trained event failed")
		}
	}
}

// GetModelStatus handles GET /api/v1/model/status.
// Reports the engine's current model state for operators and the UI.
func (h *Handler) GetModelStatus(w http.ResponseWriter, r *http.Request) {
	status := h.engine.Status()

	respondSuccess(w, r, http.StatusOK, map[string]interface{}{
		"training":                status.Training,
		"model_version":           status.ModelVersion,
		"last_trained_at":         status.LastTrainedAt,
		"collaborative_available": status.CollaborativeAvailable,
		"stats": map[string]int{
			"students":     status.Stats.Users,
			"programs":     status.Stats.Items,
			"interactions": status.Stats.Interactions,
			"factors":      status.Stats.Factors,
		},
	}, 0)
}
