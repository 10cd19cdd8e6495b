// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/areyes-dev/lodestar/internal/config"
	"github.com/areyes-dev/lodestar/internal/database"
	"github.com/areyes-dev/lodestar/internal/events"
	"github.com/areyes-dev/lodestar/internal/journal"
	"github.com/areyes-dev/lodestar/internal/logging"
	"github.com/areyes-dev/lodestar/internal/middleware"
	"github.com/areyes-dev/lodestar/internal/models"
	"github.com/areyes-dev/lodestar/internal/recommend"
	"github.com/areyes-dev/lodestar/internal/recommend/algorithms"
	"github.com/areyes-dev/lodestar/internal/recommend/reranking"
)

func TestMain(m *testing.M) {
	logging.SetLogger(zerolog.Nop())
	os.Exit(m.Run())
}

// testDBSemaphore fully serializes DuckDB access across tests. Concurrent
// CGO calls from parallel tests can hang under CI resource pressure, so
// each test holds the semaphore for its entire lifetime, released via
// t.Cleanup when the test completes.
var testDBSemaphore = make(chan struct{}, 1)

// setupTestDB creates a fresh in-memory test database and serializes
// access to it for the lifetime of the test.
func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() {
		<-testDBSemaphore
	})

	cfg := &config.DatabaseConfig{
		Path:      ":memory:",
		MaxMemory: "512MB",
	}

	db, err := database.New(cfg)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Failed to close test database: %v", err)
		}
	})

	return db
}

// newTestEngine builds a real engine over the test database with small
// training parameters.
func newTestEngine(t *testing.T, db *database.DB) *recommend.Engine {
	t.Helper()

	cfg := recommend.DefaultConfig()
	cfg.ALS.Factors = 4
	cfg.ALS.Iterations = 3
	cfg.ALS.Workers = 1

	engine, err := recommend.NewEngine(
		database.NewRecommendationDataProvider(db),
		cfg,
		recommend.EngineOptions{
			ContentFactory: func() recommend.ContentScorer {
				return algorithms.NewContentBased(cfg.Content)
			},
			CollaborativeFactory: func() recommend.CollaborativeFilter {
				return algorithms.NewALS(cfg.ALS, nil)
			},
			Reranker: reranking.NewDiversityReranker(cfg.Diversity.Weight),
		},
	)
	if err != nil {
		t.Fatalf("Failed to create test engine: %v", err)
	}
	return engine
}

func testConfig() *config.Config {
	return &config.Config{
		API: config.APIConfig{
			DefaultPageSize: 50,
			MaxPageSize:     500,
		},
	}
}

// setupTestHandler creates a handler with a real in-memory database and a
// real engine. Journal is nil: feedback takes the direct-insert path.
func setupTestHandler(t *testing.T) *Handler {
	t.Helper()

	db := setupTestDB(t)
	engine := newTestEngine(t, db)

	bus := events.NewBus(&config.EventsConfig{BufferSize: 8})
	t.Cleanup(func() {
		if err := bus.Close(); err != nil {
			t.Errorf("Failed to close event bus: %v", err)
		}
	})

	return NewHandler(db, engine, nil, bus, testConfig())
}

// setupTestHandlerWithJournal is setupTestHandler plus a Badger journal in
// a temp directory, exercising the durable feedback path.
func setupTestHandlerWithJournal(t *testing.T) (*Handler, *journal.BadgerJournal) {
	t.Helper()

	db := setupTestDB(t)
	engine := newTestEngine(t, db)

	jrnl, err := journal.Open(&config.JournalConfig{Path: t.TempDir()})
	if err != nil {
		t.Fatalf("Failed to open test journal: %v", err)
	}
	t.Cleanup(func() {
		if err := jrnl.Close(); err != nil {
			t.Errorf("Failed to close test journal: %v", err)
		}
	})

	bus := events.NewBus(&config.EventsConfig{BufferSize: 8})
	t.Cleanup(func() {
		if err := bus.Close(); err != nil {
			t.Errorf("Failed to close event bus: %v", err)
		}
	})

	return NewHandler(db, engine, jrnl, bus, testConfig()), jrnl
}

// --- Seeding helpers ---

func seedStudent(t *testing.T, db *database.DB, name, email string, interests []string, grades map[string]float64) *models.Student {
	t.Helper()
	now := time.Now().UTC()
	student := &models.Student{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     email,
		Interests: interests,
		Grades:    grades,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.CreateStudent(context.Background(), student); err != nil {
		t.Fatalf("Failed to seed student %s: %v", name, err)
	}
	return student
}

func seedProgram(t *testing.T, db *database.DB, name, description string, tags, skills []string) *models.Program {
	t.Helper()
	program := &models.Program{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		Tags:        tags,
		Skills:      skills,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.CreateProgram(context.Background(), program); err != nil {
		t.Fatalf("Failed to seed program %s: %v", name, err)
	}
	return program
}

func seedInteraction(t *testing.T, db *database.DB, studentID, programID string, clicked, accepted bool, rating *int) {
	t.Helper()
	interaction := &models.Interaction{
		ID:            uuid.New().String(),
		StudentID:     studentID,
		ProgramID:     programID,
		Clicked:       clicked,
		Accepted:      accepted,
		Rating:        rating,
		RecommendedAt: time.Now().UTC(),
	}
	if err := db.InsertInteraction(context.Background(), interaction); err != nil {
		t.Fatalf("Failed to seed interaction: %v", err)
	}
}

// seedCatalog inserts a small but trainable fixture: three students with
// overlapping interests and four programs with shared tags, plus enough
// interactions for ALS to factorize.
func seedCatalog(t *testing.T, db *database.DB) (students []*models.Student, programs []*models.Program) {
	t.Helper()

	students = []*models.Student{
		seedStudent(t, db, "Ada", "ada@example.com",
			[]string{"machine learning", "mathematics"},
			map[string]float64{"math": 95, "physics": 88}),
		seedStudent(t, db, "Ben", "ben@example.com",
			[]string{"software engineering", "machine learning"},
			map[string]float64{"math": 82, "informatics": 91}),
		seedStudent(t, db, "Cleo", "cleo@example.com",
			[]string{"art history", "design"},
			map[string]float64{"history": 93, "art": 97}),
	}

	programs = []*models.Program{
		seedProgram(t, db, "Computer Science BSc",
			"Algorithms, systems and machine learning foundations.",
			[]string{"machine learning", "software engineering"},
			[]string{"programming", "mathematics"}),
		seedProgram(t, db, "Applied Mathematics BSc",
			"Calculus, linear algebra and statistical modeling.",
			[]string{"mathematics", "statistics"},
			[]string{"mathematics", "analysis"}),
		seedProgram(t, db, "Data Science MSc",
			"Statistical learning and large scale data engineering.",
			[]string{"machine learning", "statistics"},
			[]string{"programming", "statistics"}),
		seedProgram(t, db, "Art History BA",
			"European art from the renaissance to modernism.",
			[]string{"art history", "humanities"},
			[]string{"writing", "analysis"}),
	}

	rating := 5
	seedInteraction(t, db, students[0].ID, programs[0].ID, true, true, &rating)
	seedInteraction(t, db, students[0].ID, programs[1].ID, true, false, nil)
	seedInteraction(t, db, students[1].ID, programs[0].ID, true, false, nil)
	seedInteraction(t, db, students[1].ID, programs[2].ID, true, true, nil)
	seedInteraction(t, db, students[2].ID, programs[3].ID, true, true, &rating)

	return students, programs
}

// trainEngine runs a synchronous training pass so model-dependent
// endpoints have something to serve.
func trainEngine(t *testing.T, h *Handler) {
	t.Helper()
	if _, err := h.engine.Retrain(context.Background()); err != nil {
		t.Fatalf("Failed to train test engine: %v", err)
	}
}

// --- Request helpers ---

// newJSONRequest builds a request with a JSON-encoded body.
func newJSONRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// withChiParam injects a Chi URL parameter so handlers can be invoked
// directly without going through the router.
func withChiParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// --- Response helpers ---

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) *models.APIResponse {
	t.Helper()
	var response models.APIResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response envelope: %v", err)
	}
	return &response
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("Expected status %d, got %d (body: %s)", want, w.Code, w.Body.String())
	}
}

// assertErrorCode decodes the envelope and checks the error code.
func assertErrorCode(t *testing.T, w *httptest.ResponseRecorder, wantCode string) {
	t.Helper()
	response := decodeEnvelope(t, w)
	if response.Status != "error" {
		t.Fatalf("Expected status 'error', got %q", response.Status)
	}
	if response.Error == nil {
		t.Fatal("Expected error details, got nil")
	}
	if response.Error.Code != wantCode {
		t.Errorf("Error code = %q, want %q", response.Error.Code, wantCode)
	}
}

// dataAsMap extracts the envelope data as a map.
func dataAsMap(t *testing.T, response *models.APIResponse) map[string]interface{} {
	t.Helper()
	data, ok := response.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Response data is %T, want map", response.Data)
	}
	return data
}
