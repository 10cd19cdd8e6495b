// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package algorithms

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/areyes-dev/lodestar/internal/models"
	"github.com/areyes-dev/lodestar/internal/recommend"
)

// clusterInteractions builds two disjoint preference clusters: user-a and
// user-b accepted p1 and p2, user-c and user-d accepted p3 and p4.
func clusterInteractions() []models.Interaction {
	var out []models.Interaction
	for _, pair := range []struct{ student, program string }{
		{"user-a", "p1"}, {"user-a", "p2"},
		{"user-b", "p1"}, {"user-b", "p2"},
		{"user-c", "p3"}, {"user-c", "p4"},
		{"user-d", "p3"}, {"user-d", "p4"},
	} {
		out = append(out, models.Interaction{
			StudentID: pair.student,
			ProgramID: pair.program,
			Accepted:  true,
		})
	}
	return out
}

func trainALS(t *testing.T, cfg recommend.ALSConfig, interactions []models.Interaction) *ALS {
	t.Helper()
	model := NewALS(cfg, nil)
	if err := model.Train(context.Background(), interactions); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	return model
}

// --- Test: Train ---

func TestALS_InsufficientData(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		interactions []models.Interaction
	}{
		{name: "empty", interactions: nil},
		{
			name: "single student",
			interactions: []models.Interaction{
				{StudentID: "user-a", ProgramID: "p1", Accepted: true},
				{StudentID: "user-a", ProgramID: "p2", Accepted: true},
			},
		},
		{
			name: "single program",
			interactions: []models.Interaction{
				{StudentID: "user-a", ProgramID: "p1", Accepted: true},
				{StudentID: "user-b", ProgramID: "p1", Accepted: true},
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			model := NewALS(recommend.ALSConfig{}, nil)
			err := model.Train(context.Background(), tt.interactions)
			if !errors.Is(err, recommend.ErrInsufficientData) {
				t.Errorf("Train() error = %v, want ErrInsufficientData", err)
			}
			if model.Trained() {
				t.Error("Trained() = true after failed training")
			}
		})
	}
}

func TestALS_TrainCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	model := NewALS(recommend.ALSConfig{}, nil)
	if err := model.Train(ctx, clusterInteractions()); !errors.Is(err, context.Canceled) {
		t.Errorf("Train() error = %v, want context.Canceled", err)
	}
}

func TestALS_LearnsPreferenceClusters(t *testing.T) {
	t.Parallel()

	cfg := recommend.ALSConfig{Factors: 8, Iterations: 15, Regularization: 0.1, Workers: 2}
	model := trainALS(t, cfg, clusterInteractions())

	scores, err := model.Predict(context.Background(), "user-a", []string{"p1", "p2", "p3", "p4"})
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if len(scores) != 4 {
		t.Fatalf("len(scores) = %d, want 4", len(scores))
	}

	for id, score := range scores {
		if score < 0 || score > 1 {
			t.Errorf("%s score = %v, want within [0,1]", id, score)
		}
	}

	// user-a's own cluster must clearly outrank the other one.
	own := math.Min(scores["p1"], scores["p2"])
	other := math.Max(scores["p3"], scores["p4"])
	if own <= other+0.5 {
		t.Errorf("cluster separation too weak: min(own) = %v, max(other) = %v", own, other)
	}

	stats := model.Stats()
	if stats.Users != 4 || stats.Items != 4 {
		t.Errorf("Stats() = %d users, %d items, want 4 and 4", stats.Users, stats.Items)
	}
	if stats.Interactions != 8 {
		t.Errorf("Stats().Interactions = %d, want 8", stats.Interactions)
	}
	// 8 requested factors shrink to min(users, items).
	if stats.Factors != 4 {
		t.Errorf("Stats().Factors = %d, want 4", stats.Factors)
	}
}

func TestALS_FactorsShrinkToData(t *testing.T) {
	t.Parallel()

	interactions := []models.Interaction{
		{StudentID: "user-a", ProgramID: "p1", Accepted: true},
		{StudentID: "user-b", ProgramID: "p2", Accepted: true},
	}
	model := trainALS(t, recommend.ALSConfig{Factors: 50}, interactions)

	if got := model.Stats().Factors; got != 2 {
		t.Errorf("Stats().Factors = %d, want 2 for a 2x2 dataset", got)
	}
}

func TestALS_Deterministic(t *testing.T) {
	t.Parallel()

	cfg := recommend.ALSConfig{Factors: 4, Iterations: 10, Regularization: 0.1, Workers: 3}
	model1 := trainALS(t, cfg, clusterInteractions())
	model2 := trainALS(t, cfg, clusterInteractions())

	candidates := []string{"p1", "p2", "p3", "p4"}
	for _, student := range []string{"user-a", "user-b", "user-c", "user-d"} {
		scores1, err := model1.Predict(context.Background(), student, candidates)
		if err != nil {
			t.Fatalf("Predict(%s) error = %v", student, err)
		}
		scores2, err := model2.Predict(context.Background(), student, candidates)
		if err != nil {
			t.Fatalf("Predict(%s) error = %v", student, err)
		}
		if !reflect.DeepEqual(scores1, scores2) {
			t.Errorf("two identical trainings disagree for %s:\n1 = %v\n2 = %v", student, scores1, scores2)
		}
	}
}

// --- Test: Predict ---

func TestALS_PredictUntrained(t *testing.T) {
	t.Parallel()

	model := NewALS(recommend.ALSConfig{}, nil)
	_, err := model.Predict(context.Background(), "user-a", []string{"p1"})
	if !errors.Is(err, recommend.ErrModelUnavailable) {
		t.Errorf("Predict() error = %v, want ErrModelUnavailable", err)
	}
}

func TestALS_PredictUnknownStudent(t *testing.T) {
	t.Parallel()

	model := trainALS(t, recommend.ALSConfig{Factors: 2, Iterations: 5}, clusterInteractions())

	scores, err := model.Predict(context.Background(), "ghost", []string{"p1"})
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	// nil distinguishes "outside the training snapshot" from a valid
	// empty result.
	if scores != nil {
		t.Errorf("Predict() = %v, want nil map for an unknown student", scores)
	}
}

func TestALS_PredictSkipsUnknownCandidates(t *testing.T) {
	t.Parallel()

	model := trainALS(t, recommend.ALSConfig{Factors: 2, Iterations: 5}, clusterInteractions())

	scores, err := model.Predict(context.Background(), "user-a", []string{"p1", "ghost"})
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if _, ok := scores["ghost"]; ok {
		t.Error("unknown candidate appeared in the score map")
	}
	if len(scores) != 1 {
		t.Fatalf("len(scores) = %d, want 1", len(scores))
	}
	// A single surviving score min-max normalizes to the midpoint.
	if scores["p1"] != 0.5 {
		t.Errorf("p1 score = %v, want 0.5", scores["p1"])
	}
}

// --- Test: Similar ---

func TestALS_SimilarRanksOwnCluster(t *testing.T) {
	t.Parallel()

	cfg := recommend.ALSConfig{Factors: 8, Iterations: 15, Regularization: 0.1}
	model := trainALS(t, cfg, clusterInteractions())

	scores, err := model.Similar(context.Background(), "p1", []string{"p1", "p2", "p3", "p4"})
	if err != nil {
		t.Fatalf("Similar() error = %v", err)
	}

	if _, ok := scores["p1"]; ok {
		t.Error("Similar() includes the source program")
	}
	// p2 shares its entire audience with p1.
	if scores["p2"] < 0.999 {
		t.Errorf("p2 similarity = %v, want ~1 for an identical audience", scores["p2"])
	}
	if scores["p2"] <= scores["p3"] || scores["p2"] <= scores["p4"] {
		t.Errorf("cross-cluster programs outrank the cluster mate: %v", scores)
	}
}

func TestALS_SimilarUnknownProgram(t *testing.T) {
	t.Parallel()

	model := trainALS(t, recommend.ALSConfig{Factors: 2, Iterations: 5}, clusterInteractions())

	scores, err := model.Similar(context.Background(), "ghost", []string{"p1"})
	if err != nil {
		t.Fatalf("Similar() error = %v", err)
	}
	if scores != nil {
		t.Errorf("Similar() = %v, want nil map for an unknown program", scores)
	}
}

func TestALS_SimilarUntrained(t *testing.T) {
	t.Parallel()

	model := NewALS(recommend.ALSConfig{}, nil)
	_, err := model.Similar(context.Background(), "p1", []string{"p2"})
	if !errors.Is(err, recommend.ErrModelUnavailable) {
		t.Errorf("Similar() error = %v, want ErrModelUnavailable", err)
	}
}

// --- Test: Snapshot / Restore ---

func TestALS_SnapshotRestoreRoundtrip(t *testing.T) {
	t.Parallel()

	cfg := recommend.ALSConfig{Factors: 4, Iterations: 10, Regularization: 0.1}
	trained := trainALS(t, cfg, clusterInteractions())

	snap := trained.Snapshot()
	if snap == nil {
		t.Fatal("Snapshot() = nil for a trained model")
	}

	restored := NewALS(cfg, nil)
	if err := restored.Restore(snap); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if !restored.Trained() {
		t.Fatal("Trained() = false after restore")
	}

	candidates := []string{"p1", "p2", "p3", "p4"}
	wantPredict, err := trained.Predict(context.Background(), "user-a", candidates)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	gotPredict, err := restored.Predict(context.Background(), "user-a", candidates)
	if err != nil {
		t.Fatalf("restored Predict() error = %v", err)
	}
	if !reflect.DeepEqual(gotPredict, wantPredict) {
		t.Errorf("restored Predict() = %v, want %v", gotPredict, wantPredict)
	}

	wantSimilar, err := trained.Similar(context.Background(), "p1", candidates)
	if err != nil {
		t.Fatalf("Similar() error = %v", err)
	}
	gotSimilar, err := restored.Similar(context.Background(), "p1", candidates)
	if err != nil {
		t.Fatalf("restored Similar() error = %v", err)
	}
	if !reflect.DeepEqual(gotSimilar, wantSimilar) {
		t.Errorf("restored Similar() = %v, want %v", gotSimilar, wantSimilar)
	}

	if got, want := restored.Stats(), trained.Stats(); got != want {
		t.Errorf("restored Stats() = %+v, want %+v", got, want)
	}
}

func TestALS_SnapshotUntrained(t *testing.T) {
	t.Parallel()

	model := NewALS(recommend.ALSConfig{}, nil)
	if snap := model.Snapshot(); snap != nil {
		t.Errorf("Snapshot() = %+v, want nil for an untrained model", snap)
	}
}

func TestALS_RestoreValidation(t *testing.T) {
	t.Parallel()

	valid := func() *recommend.ModelSnapshot {
		return &recommend.ModelSnapshot{
			Factors:     2,
			StudentIDs:  []string{"user-a", "user-b"},
			ProgramIDs:  []string{"p1", "p2"},
			UserFactors: [][]float64{{0.1, 0.2}, {0.3, 0.4}},
			ItemFactors: [][]float64{{0.5, 0.6}, {0.7, 0.8}},
		}
	}

	tests := []struct {
		name   string
		mutate func(*recommend.ModelSnapshot) *recommend.ModelSnapshot
	}{
		{
			name:   "nil snapshot",
			mutate: func(*recommend.ModelSnapshot) *recommend.ModelSnapshot { return nil },
		},
		{
			name: "user row count mismatch",
			mutate: func(s *recommend.ModelSnapshot) *recommend.ModelSnapshot {
				s.UserFactors = s.UserFactors[:1]
				return s
			},
		},
		{
			name: "item row count mismatch",
			mutate: func(s *recommend.ModelSnapshot) *recommend.ModelSnapshot {
				s.ItemFactors = append(s.ItemFactors, []float64{0.9, 1.0})
				return s
			},
		},
		{
			name: "user factor width mismatch",
			mutate: func(s *recommend.ModelSnapshot) *recommend.ModelSnapshot {
				s.UserFactors[1] = []float64{0.3}
				return s
			},
		},
		{
			name: "item factor width mismatch",
			mutate: func(s *recommend.ModelSnapshot) *recommend.ModelSnapshot {
				s.ItemFactors[0] = []float64{0.5, 0.6, 0.7}
				return s
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			model := NewALS(recommend.ALSConfig{}, nil)
			if err := model.Restore(tt.mutate(valid())); err == nil {
				t.Error("Restore() = nil error, want validation failure")
			}
			if model.Trained() {
				t.Error("Trained() = true after rejected restore")
			}
		})
	}

	t.Run("valid snapshot accepted", func(t *testing.T) {
		t.Parallel()
		model := NewALS(recommend.ALSConfig{}, nil)
		if err := model.Restore(valid()); err != nil {
			t.Fatalf("Restore() error = %v", err)
		}
		if !model.Trained() {
			t.Error("Trained() = false after valid restore")
		}
	})
}

// --- Test: score helpers ---

func TestNormalizeScores(t *testing.T) {
	t.Parallel()

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		got := normalizeScores(map[string]float64{})
		if len(got) != 0 {
			t.Errorf("normalizeScores(empty) = %v, want empty", got)
		}
	})

	t.Run("all equal maps to midpoint", func(t *testing.T) {
		t.Parallel()
		got := normalizeScores(map[string]float64{"a": 2.5, "b": 2.5})
		if got["a"] != 0.5 || got["b"] != 0.5 {
			t.Errorf("normalizeScores() = %v, want all 0.5", got)
		}
	})

	t.Run("spread maps to unit range", func(t *testing.T) {
		t.Parallel()
		got := normalizeScores(map[string]float64{"a": 2, "b": 4, "c": 6})
		want := map[string]float64{"a": 0, "b": 0.5, "c": 1}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("normalizeScores() = %v, want %v", got, want)
		}
	})
}

func TestCosineSimilarity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a    []float64
		b    []float64
		want float64
	}{
		{name: "parallel", a: []float64{1, 2}, b: []float64{2, 4}, want: 1},
		{name: "orthogonal", a: []float64{1, 0}, b: []float64{0, 1}, want: 0},
		{name: "opposite", a: []float64{1, 0}, b: []float64{-1, 0}, want: -1},
		{name: "zero vector", a: []float64{0, 0}, b: []float64{1, 1}, want: 0},
		{name: "length mismatch", a: []float64{1}, b: []float64{1, 1}, want: 0},
		{name: "empty", a: nil, b: nil, want: 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := cosineSimilarity(tt.a, tt.b); !almostEqual(got, tt.want) {
				t.Errorf("cosineSimilarity(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
