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
	"github.com/areyes-dev/lodestar/internal/models"
)

// ListPrograms handles GET /api/v1/programs.
// Returns the full program catalog. Catalogs are small (hundreds, not
// millions); no paging.
func (h *Handler) ListPrograms(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	start := time.Now()
	programs, err := h.db.ListPrograms(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to list programs", err)
		return
	}
	if programs == nil {
		programs = []models.Program{}
	}

	respondSuccess(w, r, http.StatusOK, map[string]interface{}{
		"programs": programs,
		"count":    len(programs),
	}, time.Since(start))
}

// GetProgram handles GET /api/v1/programs/{id}.
func (h *Handler) GetProgram(w http.ResponseWriter, r *http.Request) {
	programID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	start := time.Now()
	program, err := h.db.GetProgram(ctx, programID)
	if err != nil {
		if errors.Is(err, database.ErrProgramNotFound) {
			respondError(w, http.StatusNotFound, "PROGRAM_NOT_FOUND", "Program not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load program", err)
		return
	}

	respondSuccess(w, r, http.StatusOK, program, time.Since(start))
}

// CreateProgram handles POST /api/v1/programs.
// Adds a program to the catalog. New programs join the content model at
// the next training run; until then they are only reachable through
// cold-start interest matching against the live catalog read.
func (h *Handler) CreateProgram(w http.ResponseWriter, r *http.Request) {
	var req models.ProgramCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	program := &models.Program{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Description:  req.Description,
		Tags:         req.Tags,
		Skills:       req.Skills,
		Requirements: req.Requirements,
		CreatedAt:    time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.db.CreateProgram(ctx, program); err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create program", err)
		return
	}

	respondSuccess(w, r, http.StatusCreated, program, 0)
}

// DeleteProgram handles DELETE /api/v1/programs/{id}.
// Removes a program from the catalog. Interaction history referencing it
// is kept; the engine only recommends programs present in the catalog, so
// the history rows merely keep feeding the popularity signal.
func (h *Handler) DeleteProgram(w http.ResponseWriter, r *http.Request) {
	programID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.db.DeleteProgram(ctx, programID); err != nil {
		if errors.Is(err, database.ErrProgramNotFound) {
			respondError(w, http.StatusNotFound, "PROGRAM_NOT_FOUND", "Program not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete program", err)
		return
	}

	respondSuccess(w, r, http.StatusOK, map[string]string{
		"deleted": programID,
	}, 0)
}
