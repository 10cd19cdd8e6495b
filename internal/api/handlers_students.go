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

// CreateStudent handles POST /api/v1/students.
// Registers a new student profile. Email addresses are unique; a
// duplicate yields 400 with the DUPLICATE_EMAIL code.
func (h *Handler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var req models.StudentCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	now := time.Now().UTC()
	student := &models.Student{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Email:     req.Email,
		Interests: req.Interests,
		Grades:    req.Grades,
		CreatedAt: now,
		UpdatedAt: now,
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.db.CreateStudent(ctx, student); err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			respondError(w, http.StatusBadRequest, "DUPLICATE_EMAIL", "A student with this email already exists", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create student", err)
		return
	}

	respondSuccess(w, r, http.StatusCreated, student, 0)
}

// GetStudent handles GET /api/v1/students/{id}.
func (h *Handler) GetStudent(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	start := time.Now()
	student, err := h.db.GetStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, database.ErrStudentNotFound) {
			respondError(w, http.StatusNotFound, "STUDENT_NOT_FOUND", "Student not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load student", err)
		return
	}

	respondSuccess(w, r, http.StatusOK, student, time.Since(start))
}

// ListStudents handles GET /api/v1/students.
// Returns reduced student summaries, paged by limit/offset.
func (h *Handler) ListStudents(w http.ResponseWriter, r *http.Request) {
	limit := getIntParam(r, "limit", h.defaultPageSize())
	offset := getIntParam(r, "offset", 0)
	if max := h.maxPageSize(); limit > max {
		limit = max
	}
	if limit <= 0 || offset < 0 {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be positive and offset non-negative", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	start := time.Now()
	students, err := h.db.ListStudentSummaries(ctx, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to list students", err)
		return
	}
	if students == nil {
		students = []models.StudentSummary{}
	}

	total, err := h.db.CountStudents(ctx)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to count students", err)
		return
	}

	respondSuccess(w, r, http.StatusOK, map[string]interface{}{
		"students": students,
		"count":    len(students),
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	}, time.Since(start))
}

// UpdateStudent handles PUT /api/v1/students/{id}.
// Applies a partial update: nil fields keep their current value. Sending
// no fields at all is rejected rather than silently succeeding.
func (h *Handler) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "id")

	var req models.StudentUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body", err)
		return
	}
	if req.IsEmpty() {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Update requires at least one field", nil)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	student, err := h.db.GetStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, database.ErrStudentNotFound) {
			respondError(w, http.StatusNotFound, "STUDENT_NOT_FOUND", "Student not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load student", err)
		return
	}

	if req.Name != nil {
		student.Name = *req.Name
	}
	if req.Interests != nil {
		student.Interests = req.Interests
	}
	if req.Grades != nil {
		student.Grades = req.Grades
	}
	student.UpdatedAt = time.Now().UTC()

	if err := h.db.UpdateStudent(ctx, student); err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update student", err)
		return
	}

	respondSuccess(w, r, http.StatusOK, student, 0)
}

// DeleteStudent handles DELETE /api/v1/students/{id}.
// Removes the student together with their interactions and
// recommendation log rows.
func (h *Handler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.db.DeleteStudent(ctx, studentID); err != nil {
		if errors.Is(err, database.ErrStudentNotFound) {
			respondError(w, http.StatusNotFound, "STUDENT_NOT_FOUND", "Student not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete student", err)
		return
	}

	respondSuccess(w, r, http.StatusOK, map[string]string{
		"deleted": studentID,
	}, 0)
}

func (h *Handler) defaultPageSize() int {
	if h.config != nil && h.config.API.DefaultPageSize > 0 {
		return h.config.API.DefaultPageSize
	}
	return 50
}

func (h *Handler) maxPageSize() int {
	if h.config != nil && h.config.API.MaxPageSize > 0 {
		return h.config.API.MaxPageSize
	}
	return 500
}
