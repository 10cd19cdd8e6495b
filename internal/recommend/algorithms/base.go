// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package algorithms

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/areyes-dev/lodestar/internal/recommend"
)

// BaseAlgorithm provides the shared identity and locking for all models.
type BaseAlgorithm struct {
	name          string
	trained       bool
	lastTrainedAt time.Time
	mu            sync.RWMutex
}

// NewBaseAlgorithm creates a new base algorithm with the given name.
func NewBaseAlgorithm(name string) BaseAlgorithm {
	return BaseAlgorithm{
		name: name,
	}
}

// Name returns the algorithm identifier.
func (b *BaseAlgorithm) Name() string {
	return b.name
}

// Trained returns whether the model has completed a fit.
func (b *BaseAlgorithm) Trained() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.trained
}

// LastTrainedAt returns when the model was last fitted.
func (b *BaseAlgorithm) LastTrainedAt() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastTrainedAt
}

// markTrained updates the trained state.
// Must be called while holding the training lock (acquireTrainLock).
func (b *BaseAlgorithm) markTrained() {
	b.trained = true
	b.lastTrainedAt = time.Now()
}

// acquireTrainLock acquires the exclusive training lock.
func (b *BaseAlgorithm) acquireTrainLock() {
	b.mu.Lock()
}

// releaseTrainLock releases the exclusive training lock.
func (b *BaseAlgorithm) releaseTrainLock() {
	b.mu.Unlock()
}

// acquirePredictLock acquires the shared prediction lock.
func (b *BaseAlgorithm) acquirePredictLock() {
	b.mu.RLock()
}

// releasePredictLock releases the shared prediction lock.
func (b *BaseAlgorithm) releasePredictLock() {
	b.mu.RUnlock()
}

// normalizeScores normalizes scores to [0, 1] using min-max normalization
// over the given set. All-equal inputs map to 0.5 so a lone score stays
// usable as a relevance signal.
func normalizeScores(scores map[string]float64) map[string]float64 {
	if len(scores) == 0 {
		return scores
	}

	var minScore, maxScore float64
	first := true
	for _, score := range scores {
		if first {
			minScore, maxScore = score, score
			first = false
			continue
		}
		if score < minScore {
			minScore = score
		}
		if score > maxScore {
			maxScore = score
		}
	}

	rang := maxScore - minScore
	if rang == 0 {
		for id := range scores {
			scores[id] = 0.5
		}
		return scores
	}

	for id, score := range scores {
		scores[id] = (score - minScore) / rang
	}

	return scores
}

// cosineSimilarity computes cosine similarity between two vectors.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// ContextCancelled checks if the context has been canceled.
func ContextCancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// Ensure the models implement the engine interfaces.
var (
	_ recommend.ContentScorer       = (*ContentBased)(nil)
	_ recommend.CollaborativeFilter = (*ALS)(nil)
)
