// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/areyes-dev/lodestar/internal/models"
)

// --- Test: ListPrograms ---

func TestListPrograms(t *testing.T) {
	h := setupTestHandler(t)

	t.Run("empty catalog", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/programs", nil)
		w := httptest.NewRecorder()
		h.ListPrograms(w, req)

		assertStatus(t, w, http.StatusOK)
		data := dataAsMap(t, decodeEnvelope(t, w))
		programs, ok := data["programs"].([]interface{})
		if !ok {
			t.Fatalf("programs is %T, want array", data["programs"])
		}
		if len(programs) != 0 {
			t.Errorf("got %d programs, want 0", len(programs))
		}
	})

	t.Run("seeded catalog", func(t *testing.T) {
		seedProgram(t, h.db, "CS BSc", "Computing.", []string{"software"}, nil)
		seedProgram(t, h.db, "Math BSc", "Numbers.", []string{"mathematics"}, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/programs", nil)
		w := httptest.NewRecorder()
		h.ListPrograms(w, req)

		assertStatus(t, w, http.StatusOK)
		data := dataAsMap(t, decodeEnvelope(t, w))
		if count, _ := data["count"].(float64); int(count) != 2 {
			t.Errorf("count = %v, want 2", data["count"])
		}
	})
}

// --- Test: GetProgram ---

func TestGetProgram(t *testing.T) {
	h := setupTestHandler(t)
	program := seedProgram(t, h.db, "Data Science MSc", "Statistics at scale.",
		[]string{"statistics"}, []string{"programming"})

	t.Run("found", func(t *testing.T) {
		req := withChiParam(httptest.NewRequest(http.MethodGet, "/api/v1/programs/"+program.ID, nil), "id", program.ID)
		w := httptest.NewRecorder()
		h.GetProgram(w, req)

		assertStatus(t, w, http.StatusOK)
		data := dataAsMap(t, decodeEnvelope(t, w))
		if data["name"] != "Data Science MSc" {
			t.Errorf("name = %v, want Data Science MSc", data["name"])
		}
	})

	t.Run("not found", func(t *testing.T) {
		missing := uuid.New().String()
		req := withChiParam(httptest.NewRequest(http.MethodGet, "/api/v1/programs/"+missing, nil), "id", missing)
		w := httptest.NewRecorder()
		h.GetProgram(w, req)

		assertStatus(t, w, http.StatusNotFound)
		assertErrorCode(t, w, "PROGRAM_NOT_FOUND")
	})
}

// --- Test: CreateProgram ---

func TestCreateProgram_Success(t *testing.T) {
	h := setupTestHandler(t)

	req := newJSONRequest(t, http.MethodPost, "/api/v1/programs", models.ProgramCreateRequest{
		Name:        "Robotics MSc",
		Description: "Perception, control and embedded systems.",
		Tags:        []string{"robotics", "engineering"},
		Skills:      []string{"programming", "control theory"},
		Requirements: models.ProgramRequirements{
			MinGrade:   75,
			Difficulty: "advanced",
			Rating:     4.5,
		},
	})
	w := httptest.NewRecorder()
	h.CreateProgram(w, req)

	assertStatus(t, w, http.StatusCreated)
	data := dataAsMap(t, decodeEnvelope(t, w))

	id, _ := data["id"].(string)
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("id %q is not a UUID: %v", id, err)
	}

	stored, err := h.db.GetProgram(context.Background(), id)
	if err != nil {
		t.Fatalf("GetProgram after create: %v", err)
	}
	if stored.Requirements.Difficulty != "advanced" {
		t.Errorf("difficulty = %q, want advanced", stored.Requirements.Difficulty)
	}
	if len(stored.Tags) != 2 {
		t.Errorf("tags = %v, want 2 entries", stored.Tags)
	}
}

func TestCreateProgram_ValidationErrors(t *testing.T) {
	h := setupTestHandler(t)

	tests := []struct {
		name    string
		request models.ProgramCreateRequest
	}{
		{
			name:    "missing name",
			request: models.ProgramCreateRequest{Description: "No name."},
		},
		{
			name:    "missing description",
			request: models.ProgramCreateRequest{Name: "No Description BSc"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newJSONRequest(t, http.MethodPost, "/api/v1/programs", tt.request)
			w := httptest.NewRecorder()
			h.CreateProgram(w, req)

			assertStatus(t, w, http.StatusBadRequest)
			assertErrorCode(t, w, "VALIDATION_ERROR")
		})
	}
}

// --- Test: DeleteProgram ---

func TestDeleteProgram(t *testing.T) {
	h := setupTestHandler(t)
	program := seedProgram(t, h.db, "Art History BA", "The renaissance onward.", nil, nil)

	t.Run("deletes", func(t *testing.T) {
		req := withChiParam(httptest.NewRequest(http.MethodDelete, "/api/v1/programs/"+program.ID, nil), "id", program.ID)
		w := httptest.NewRecorder()
		h.DeleteProgram(w, req)

		assertStatus(t, w, http.StatusOK)
		if _, err := h.db.GetProgram(context.Background(), program.ID); err == nil {
			t.Error("program still readable after delete")
		}
	})

	t.Run("second delete is 404", func(t *testing.T) {
		req := withChiParam(httptest.NewRequest(http.MethodDelete, "/api/v1/programs/"+program.ID, nil), "id", program.ID)
		w := httptest.NewRecorder()
		h.DeleteProgram(w, req)

		assertStatus(t, w, http.StatusNotFound)
		assertErrorCode(t, w, "PROGRAM_NOT_FOUND")
	})
}
