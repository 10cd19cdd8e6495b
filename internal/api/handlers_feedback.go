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

	"github.com/google/uuid"

	"github.com/areyes-dev/lodestar/internal/database"
	"github.com/areyes-dev/lodestar/internal/events"
	"github.com/areyes-dev/lodestar/internal/journal"
	"github.com/areyes-dev/lodestar/internal/logging"
	"github.com/areyes-dev/lodestar/internal/metrics"
	"github.com/areyes-dev/lodestar/internal/models"
)

// SubmitFeedback handles POST /api/v1/feedback.
// Records behavioral feedback (click, accept, rating) for a
// student/program pair. The interaction is journaled before the database
// insert and confirmed after it, so feedback survives a crash or a
// transient database failure between the two: the replay loop re-applies
// any entry that never got confirmed. When the insert fails but the
// journal holds the entry, the request is accepted (202) rather than
// failed, because replay will complete it.
func (h *Handler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var req models.FeedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		metrics.RecordFeedbackRejected("invalid_json")
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		metrics.RecordFeedbackRejected("validation")
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if _, err := h.db.GetStudent(ctx, req.StudentID); err != nil {
		if errors.Is(err, database.ErrStudentNotFound) {
			metrics.RecordFeedbackRejected("unknown_student")
			respondError(w, http.StatusNotFound, "STUDENT_NOT_FOUND", "Student not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load student", err)
		return
	}
	if _, err := h.db.GetProgram(ctx, req.ProgramID); err != nil {
		if errors.Is(err, database.ErrProgramNotFound) {
			metrics.RecordFeedbackRejected("unknown_program")
			respondError(w, http.StatusNotFound, "PROGRAM_NOT_FOUND", "Program not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load program", err)
		return
	}

	// The row id is generated here, not at insert time, so a journal
	// replay re-inserts the same id and the conflict-ignoring insert
	// keeps the operation idempotent.
	interaction := &models.Interaction{
		ID:            uuid.New().String(),
		StudentID:     req.StudentID,
		ProgramID:     req.ProgramID,
		Clicked:       req.Clicked,
		Accepted:      req.Accepted,
		Rating:        req.Rating,
		RecommendedAt: time.Now().UTC(),
	}

	entryID := h.journalFeedback(ctx, interaction)

	if err := h.db.InsertInteraction(ctx, interaction); err != nil {
		if entryID != "" {
			// The journal holds the entry; replay will apply it.
			logging.Warn().Err(err).
				Str("interaction_id", interaction.ID).
				Str("entry_id", entryID).
				Msg("Feedback insert failed, journal entry left pending for replay")
			respondSuccess(w, r, http.StatusAccepted, map[string]interface{}{
				"interaction_id": interaction.ID,
				"queued":         true,
			}, 0)
			return
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to record feedback", err)
		return
	}

	h.confirmFeedback(ctx, entryID)

	event := feedbackEvent(interaction)
	metrics.RecordFeedback(event.Kind())

	if h.bus != nil {
		if err := h.bus.PublishFeedbackRecorded(ctx, event); err != nil {
			logging.Warn().Err(err).
				Str("interaction_id", interaction.ID).
				Msg("Publishing feedback event failed")
		}
	}

	respondSuccess(w, r, http.StatusCreated, interaction, 0)
}

// journalFeedback writes the interaction to the durable journal. A
// journal failure is logged but does not reject the feedback: the direct
// insert path still works, only crash durability is lost for this event.
func (h *Handler) journalFeedback(ctx context.Context, interaction *models.Interaction) string {
	if h.journal == nil {
		return ""
	}

	entryID, err := h.journal.Write(ctx, interaction)
	if err != nil {
		logging.Warn().Err(err).
			Str("interaction_id", interaction.ID).
			Msg("Journaling feedback failed, continuing without durability")
		return ""
	}
	return entryID
}

// confirmFeedback marks the journal entry applied. A missing entry means
// the replay loop already applied and confirmed it; both outcomes leave
// the feedback recorded exactly once.
func (h *Handler) confirmFeedback(ctx context.Context, entryID string) {
	if h.journal == nil || entryID == "" {
		return
	}

	if err := h.journal.Confirm(ctx, entryID); err != nil && !errors.Is(err, journal.ErrEntryNotFound) {
		logging.Warn().Err(err).
			Str("entry_id", entryID).
			Msg("Confirming journal entry failed, replay will re-apply harmlessly")
	}
}

// feedbackEvent maps an interaction row to its bus event.
func feedbackEvent(interaction *models.Interaction) *events.FeedbackRecorded {
	return &events.FeedbackRecorded{
		InteractionID: interaction.ID,
		StudentID:     interaction.StudentID,
		ProgramID:     interaction.ProgramID,
		Clicked:       interaction.Clicked,
		Accepted:      interaction.Accepted,
		Rating:        interaction.Rating,
		OccurredAt:    interaction.RecommendedAt,
	}
}
