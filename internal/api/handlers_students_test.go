// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/areyes-dev/lodestar/internal/models"
)

// --- Test: CreateStudent ---

func TestCreateStudent_Success(t *testing.T) {
	h := setupTestHandler(t)

	req := newJSONRequest(t, http.MethodPost, "/api/v1/students", models.StudentCreateRequest{
		Name:      "Ada",
		Email:     "ada@example.com",
		Interests: []string{"machine learning"},
		Grades:    map[string]float64{"math": 95},
	})
	w := httptest.NewRecorder()
	h.CreateStudent(w, req)

	assertStatus(t, w, http.StatusCreated)
	response := decodeEnvelope(t, w)
	if response.Status != "success" {
		t.Fatalf("Expected status 'success', got %q", response.Status)
	}

	data := dataAsMap(t, response)
	if data["name"] != "Ada" {
		t.Errorf("name = %v, want Ada", data["name"])
	}
	id, _ := data["id"].(string)
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("id %q is not a UUID: %v", id, err)
	}

	// Created student must be readable back.
	stored, err := h.db.GetStudent(context.Background(), id)
	if err != nil {
		t.Fatalf("GetStudent(%s) after create: %v", id, err)
	}
	if stored.Email != "ada@example.com" {
		t.Errorf("stored email = %q, want ada@example.com", stored.Email)
	}
}

func TestCreateStudent_InvalidJSON(t *testing.T) {
	h := setupTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/students", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	h.CreateStudent(w, req)

	assertStatus(t, w, http.StatusBadRequest)
	assertErrorCode(t, w, "INVALID_JSON")
}

func TestCreateStudent_ValidationErrors(t *testing.T) {
	h := setupTestHandler(t)

	tests := []struct {
		name    string
		request models.StudentCreateRequest
	}{
		{
			name:    "missing name",
			request: models.StudentCreateRequest{Email: "x@example.com"},
		},
		{
			name:    "missing email",
			request: models.StudentCreateRequest{Name: "X"},
		},
		{
			name:    "malformed email",
			request: models.StudentCreateRequest{Name: "X", Email: "not-an-email"},
		},
		{
			name: "grade out of range",
			request: models.StudentCreateRequest{
				Name:   "X",
				Email:  "x@example.com",
				Grades: map[string]float64{"math": 150},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newJSONRequest(t, http.MethodPost, "/api/v1/students", tt.request)
			w := httptest.NewRecorder()
			h.CreateStudent(w, req)

			assertStatus(t, w, http.StatusBadRequest)
			assertErrorCode(t, w, "VALIDATION_ERROR")
		})
	}
}

func TestCreateStudent_DuplicateEmail(t *testing.T) {
	h := setupTestHandler(t)
	seedStudent(t, h.db, "Ada", "ada@example.com", nil, nil)

	req := newJSONRequest(t, http.MethodPost, "/api/v1/students", models.StudentCreateRequest{
		Name:  "Ada Again",
		Email: "ada@example.com",
	})
	w := httptest.NewRecorder()
	h.CreateStudent(w, req)

	assertStatus(t, w, http.StatusBadRequest)
	assertErrorCode(t, w, "DUPLICATE_EMAIL")
}

// --- Test: GetStudent ---

func TestGetStudent(t *testing.T) {
	h := setupTestHandler(t)
	student := seedStudent(t, h.db, "Ben", "ben@example.com", []string{"design"}, nil)

	t.Run("found", func(t *testing.T) {
		req := withChiParam(httptest.NewRequest(http.MethodGet, "/api/v1/students/"+student.ID, nil), "id", student.ID)
		w := httptest.NewRecorder()
		h.GetStudent(w, req)

		assertStatus(t, w, http.StatusOK)
		data := dataAsMap(t, decodeEnvelope(t, w))
		if data["id"] != student.ID {
			t.Errorf("id = %v, want %s", data["id"], student.ID)
		}
		if data["email"] != "ben@example.com" {
			t.Errorf("email = %v, want ben@example.com", data["email"])
		}
	})

	t.Run("not found", func(t *testing.T) {
		missing := uuid.New().String()
		req := withChiParam(httptest.NewRequest(http.MethodGet, "/api/v1/students/"+missing, nil), "id", missing)
		w := httptest.NewRecorder()
		h.GetStudent(w, req)

		assertStatus(t, w, http.StatusNotFound)
		assertErrorCode(t, w, "STUDENT_NOT_FOUND")
	})
}

// --- Test: ListStudents ---

func TestListStudents(t *testing.T) {
	h := setupTestHandler(t)
	seedStudent(t, h.db, "Ada", "ada@example.com", nil, nil)
	seedStudent(t, h.db, "Ben", "ben@example.com", nil, nil)
	seedStudent(t, h.db, "Cleo", "cleo@example.com", nil, nil)

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantCount  int
	}{
		{name: "default paging", query: "", wantStatus: http.StatusOK, wantCount: 3},
		{name: "limit applies", query: "?limit=2", wantStatus: http.StatusOK, wantCount: 2},
		{name: "offset applies", query: "?limit=2&offset=2", wantStatus: http.StatusOK, wantCount: 1},
		{name: "offset beyond end", query: "?offset=10", wantStatus: http.StatusOK, wantCount: 0},
		{name: "zero limit rejected", query: "?limit=0", wantStatus: http.StatusBadRequest},
		{name: "negative offset rejected", query: "?offset=-1", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/students"+tt.query, nil)
			w := httptest.NewRecorder()
			h.ListStudents(w, req)

			assertStatus(t, w, tt.wantStatus)
			if tt.wantStatus != http.StatusOK {
				return
			}

			data := dataAsMap(t, decodeEnvelope(t, w))
			students, ok := data["students"].([]interface{})
			if !ok {
				t.Fatalf("students is %T, want array", data["students"])
			}
			if len(students) != tt.wantCount {
				t.Errorf("got %d students, want %d", len(students), tt.wantCount)
			}
			if total, _ := data["total"].(float64); int(total) != 3 {
				t.Errorf("total = %v, want 3", data["total"])
			}
		})
	}
}

func TestListStudents_ClampsToMaxPageSize(t *testing.T) {
	h := setupTestHandler(t)
	seedStudent(t, h.db, "Ada", "ada@example.com", nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/students?limit=99999", nil)
	w := httptest.NewRecorder()
	h.ListStudents(w, req)

	assertStatus(t, w, http.StatusOK)
	data := dataAsMap(t, decodeEnvelope(t, w))
	if limit, _ := data["limit"].(float64); int(limit) != h.maxPageSize() {
		t.Errorf("limit = %v, want clamped to %d", data["limit"], h.maxPageSize())
	}
}

// --- Test: UpdateStudent ---

func TestUpdateStudent(t *testing.T) {
	h := setupTestHandler(t)
	student := seedStudent(t, h.db, "Ben", "ben@example.com", []string{"design"}, nil)

	t.Run("renames and keeps other fields", func(t *testing.T) {
		name := "Benjamin"
		req := withChiParam(
			newJSONRequest(t, http.MethodPut, "/api/v1/students/"+student.ID, models.StudentUpdateRequest{Name: &name}),
			"id", student.ID,
		)
		w := httptest.NewRecorder()
		h.UpdateStudent(w, req)

		assertStatus(t, w, http.StatusOK)

		stored, err := h.db.GetStudent(context.Background(), student.ID)
		if err != nil {
			t.Fatalf("GetStudent after update: %v", err)
		}
		if stored.Name != "Benjamin" {
			t.Errorf("name = %q, want Benjamin", stored.Name)
		}
		if len(stored.Interests) != 1 || stored.Interests[0] != "design" {
			t.Errorf("interests = %v, want [design] unchanged", stored.Interests)
		}
	})

	t.Run("replaces interests", func(t *testing.T) {
		req := withChiParam(
			newJSONRequest(t, http.MethodPut, "/api/v1/students/"+student.ID,
				models.StudentUpdateRequest{Interests: []string{"robotics", "ai"}}),
			"id", student.ID,
		)
		w := httptest.NewRecorder()
		h.UpdateStudent(w, req)

		assertStatus(t, w, http.StatusOK)

		stored, err := h.db.GetStudent(context.Background(), student.ID)
		if err != nil {
			t.Fatalf("GetStudent after update: %v", err)
		}
		if len(stored.Interests) != 2 {
			t.Errorf("interests = %v, want 2 entries", stored.Interests)
		}
	})

	t.Run("empty update rejected", func(t *testing.T) {
		req := withChiParam(
			newJSONRequest(t, http.MethodPut, "/api/v1/students/"+student.ID, models.StudentUpdateRequest{}),
			"id", student.ID,
		)
		w := httptest.NewRecorder()
		h.UpdateStudent(w, req)

		assertStatus(t, w, http.StatusBadRequest)
		assertErrorCode(t, w, "VALIDATION_ERROR")
	})

	t.Run("unknown student", func(t *testing.T) {
		missing := uuid.New().String()
		name := "Nobody"
		req := withChiParam(
			newJSONRequest(t, http.MethodPut, "/api/v1/students/"+missing, models.StudentUpdateRequest{Name: &name}),
			"id", missing,
		)
		w := httptest.NewRecorder()
		h.UpdateStudent(w, req)

		assertStatus(t, w, http.StatusNotFound)
		assertErrorCode(t, w, "STUDENT_NOT_FOUND")
	})
}

// --- Test: DeleteStudent ---

func TestDeleteStudent(t *testing.T) {
	h := setupTestHandler(t)
	student := seedStudent(t, h.db, "Cleo", "cleo@example.com", nil, nil)

	t.Run("deletes", func(t *testing.T) {
		req := withChiParam(httptest.NewRequest(http.MethodDelete, "/api/v1/students/"+student.ID, nil), "id", student.ID)
		w := httptest.NewRecorder()
		h.DeleteStudent(w, req)

		assertStatus(t, w, http.StatusOK)
		data := dataAsMap(t, decodeEnvelope(t, w))
		if data["deleted"] != student.ID {
			t.Errorf("deleted = %v, want %s", data["deleted"], student.ID)
		}

		if _, err := h.db.GetStudent(context.Background(), student.ID); err == nil {
			t.Error("student still readable after delete")
		}
	})

	t.Run("second delete is 404", func(t *testing.T) {
		req := withChiParam(httptest.NewRequest(http.MethodDelete, "/api/v1/students/"+student.ID, nil), "id", student.ID)
		w := httptest.NewRecorder()
		h.DeleteStudent(w, req)

		assertStatus(t, w, http.StatusNotFound)
		assertErrorCode(t, w, "STUDENT_NOT_FOUND")
	})
}
