// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package database

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/areyes-dev/lodestar/internal/models"
)

func sampleStudent(email string) *models.Student {
	return &models.Student{
		Name:      "Dana Whitfield",
		Email:     email,
		Interests: []string{"machine learning", "robotics"},
		Grades:    map[string]float64{"math": 92, "physics": 85.5},
	}
}

// --- Test: Create and Get ---

func TestCreateStudent_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	student := sampleStudent("dana@example.edu")
	if err := db.CreateStudent(ctx, student); err != nil {
		t.Fatalf("CreateStudent() error = %v", err)
	}

	if student.ID == "" {
		t.Fatal("CreateStudent() did not generate an ID")
	}
	if student.CreatedAt.IsZero() || student.UpdatedAt.IsZero() {
		t.Error("CreateStudent() did not set timestamps")
	}

	got, err := db.GetStudent(ctx, student.ID)
	if err != nil {
		t.Fatalf("GetStudent() error = %v", err)
	}

	if got.Name != student.Name {
		t.Errorf("Name = %q, want %q", got.Name, student.Name)
	}
	if got.Email != student.Email {
		t.Errorf("Email = %q, want %q", got.Email, student.Email)
	}
	if !reflect.DeepEqual(got.Interests, student.Interests) {
		t.Errorf("Interests = %v, want %v", got.Interests, student.Interests)
	}
	if !reflect.DeepEqual(got.Grades, student.Grades) {
		t.Errorf("Grades = %v, want %v", got.Grades, student.Grades)
	}
}

func TestCreateStudent_EmptyProfile(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	student := &models.Student{
		Name:  "Quinn Barrow",
		Email: "quinn@example.edu",
	}
	if err := db.CreateStudent(ctx, student); err != nil {
		t.Fatalf("CreateStudent() error = %v", err)
	}

	got, err := db.GetStudent(ctx, student.ID)
	if err != nil {
		t.Fatalf("GetStudent() error = %v", err)
	}

	if len(got.Interests) != 0 {
		t.Errorf("Interests = %v, want empty", got.Interests)
	}
	if got.Interests == nil {
		t.Error("Interests is nil, want empty slice for clean JSON marshaling")
	}
	if len(got.Grades) != 0 {
		t.Errorf("Grades = %v, want empty", got.Grades)
	}
}

func TestCreateStudent_DuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	first := sampleStudent("shared@example.edu")
	if err := db.CreateStudent(ctx, first); err != nil {
		t.Fatalf("CreateStudent() error = %v", err)
	}

	second := sampleStudent("shared@example.edu")
	err := db.CreateStudent(ctx, second)
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("CreateStudent() with duplicate email = %v, want ErrDuplicateEmail", err)
	}
}

func TestGetStudent_NotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetStudent(context.Background(), "no-such-student")
	if !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("GetStudent() = %v, want ErrStudentNotFound", err)
	}
}

func TestGetStudentByEmail(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	student := sampleStudent("lookup@example.edu")
	if err := db.CreateStudent(ctx, student); err != nil {
		t.Fatalf("CreateStudent() error = %v", err)
	}

	got, err := db.GetStudentByEmail(ctx, "lookup@example.edu")
	if err != nil {
		t.Fatalf("GetStudentByEmail() error = %v", err)
	}
	if got.ID != student.ID {
		t.Errorf("GetStudentByEmail() ID = %q, want %q", got.ID, student.ID)
	}

	if _, err := db.GetStudentByEmail(ctx, "missing@example.edu"); !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("GetStudentByEmail() for missing = %v, want ErrStudentNotFound", err)
	}
}

// --- Test: Listing ---

func TestListStudents(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	emails := []string{"a@example.edu", "b@example.edu", "c@example.edu"}
	for i, email := range emails {
		s := sampleStudent(email)
		s.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := db.CreateStudent(ctx, s); err != nil {
			t.Fatalf("CreateStudent(%s) error = %v", email, err)
		}
	}

	students, err := db.ListStudents(ctx)
	if err != nil {
		t.Fatalf("ListStudents() error = %v", err)
	}
	if len(students) != 3 {
		t.Fatalf("ListStudents() returned %d students, want 3", len(students))
	}

	// Oldest first.
	for i, email := range emails {
		if students[i].Email != email {
			t.Errorf("students[%d].Email = %q, want %q", i, students[i].Email, email)
		}
	}
}

func TestListStudentSummaries_Pagination(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	emails := []string{"a@example.edu", "b@example.edu", "c@example.edu", "d@example.edu"}
	for i, email := range emails {
		s := sampleStudent(email)
		s.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := db.CreateStudent(ctx, s); err != nil {
			t.Fatalf("CreateStudent(%s) error = %v", email, err)
		}
	}

	// Newest first: d, c, b, a.
	page, err := db.ListStudentSummaries(ctx, 2, 0)
	if err != nil {
		t.Fatalf("ListStudentSummaries() error = %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("first page has %d entries, want 2", len(page))
	}
	if page[0].Email != "d@example.edu" || page[1].Email != "c@example.edu" {
		t.Errorf("first page = [%s, %s], want [d@example.edu, c@example.edu]", page[0].Email, page[1].Email)
	}

	page, err = db.ListStudentSummaries(ctx, 2, 2)
	if err != nil {
		t.Fatalf("ListStudentSummaries() offset error = %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("second page has %d entries, want 2", len(page))
	}
	if page[0].Email != "b@example.edu" || page[1].Email != "a@example.edu" {
		t.Errorf("second page = [%s, %s], want [b@example.edu, a@example.edu]", page[0].Email, page[1].Email)
	}

	count, err := db.CountStudents(ctx)
	if err != nil {
		t.Fatalf("CountStudents() error = %v", err)
	}
	if count != 4 {
		t.Errorf("CountStudents() = %d, want 4", count)
	}
}

// --- Test: Update ---

func TestUpdateStudent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	student := sampleStudent("update@example.edu")
	if err := db.CreateStudent(ctx, student); err != nil {
		t.Fatalf("CreateStudent() error = %v", err)
	}

	student.Name = "Dana W. Whitfield"
	student.Interests = []string{"data science"}
	student.Grades = map[string]float64{"statistics": 97}
	if err := db.UpdateStudent(ctx, student); err != nil {
		t.Fatalf("UpdateStudent() error = %v", err)
	}

	got, err := db.GetStudent(ctx, student.ID)
	if err != nil {
		t.Fatalf("GetStudent() error = %v", err)
	}
	if got.Name != "Dana W. Whitfield" {
		t.Errorf("Name = %q, want updated name", got.Name)
	}
	if !reflect.DeepEqual(got.Interests, []string{"data science"}) {
		t.Errorf("Interests = %v, want [data science]", got.Interests)
	}
	if !reflect.DeepEqual(got.Grades, map[string]float64{"statistics": 97}) {
		t.Errorf("Grades = %v, want {statistics: 97}", got.Grades)
	}
	if got.Email != "update@example.edu" {
		t.Errorf("Email = %q, email must not change on update", got.Email)
	}
}

func TestUpdateStudent_NotFound(t *testing.T) {
	db := setupTestDB(t)

	ghost := sampleStudent("ghost@example.edu")
	ghost.ID = "missing-id"
	err := db.UpdateStudent(context.Background(), ghost)
	if !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("UpdateStudent() = %v, want ErrStudentNotFound", err)
	}
}

// --- Test: Delete ---

func TestDeleteStudent_RemovesHistory(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	student := sampleStudent("delete@example.edu")
	if err := db.CreateStudent(ctx, student); err != nil {
		t.Fatalf("CreateStudent() error = %v", err)
	}

	program := sampleProgram("Robotics")
	if err := db.CreateProgram(ctx, program); err != nil {
		t.Fatalf("CreateProgram() error = %v", err)
	}

	rec := models.RecommendationRecord{
		StudentID: student.ID,
		ProgramID: program.ID,
		Score:     0.9,
	}
	if err := db.InsertRecommendations(ctx, []models.RecommendationRecord{rec}); err != nil {
		t.Fatalf("InsertRecommendations() error = %v", err)
	}
	if err := db.InsertInteraction(ctx, &models.Interaction{
		StudentID: student.ID,
		ProgramID: program.ID,
		Clicked:   true,
	}); err != nil {
		t.Fatalf("InsertInteraction() error = %v", err)
	}

	if err := db.DeleteStudent(ctx, student.ID); err != nil {
		t.Fatalf("DeleteStudent() error = %v", err)
	}

	if _, err := db.GetStudent(ctx, student.ID); !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("GetStudent() after delete = %v, want ErrStudentNotFound", err)
	}

	interactions, err := db.ListInteractions(ctx, student.ID)
	if err != nil {
		t.Fatalf("ListInteractions() error = %v", err)
	}
	if len(interactions) != 0 {
		t.Errorf("deleted student still has %d interaction rows", len(interactions))
	}

	history, err := db.RecommendationHistory(ctx, student.ID, 10)
	if err != nil {
		t.Fatalf("RecommendationHistory() error = %v", err)
	}
	if len(history) != 0 {
		t.Errorf("deleted student still has %d recommendation rows", len(history))
	}
}

func TestDeleteStudent_NotFound(t *testing.T) {
	db := setupTestDB(t)

	err := db.DeleteStudent(context.Background(), "missing-id")
	if !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("DeleteStudent() = %v, want ErrStudentNotFound", err)
	}
}
