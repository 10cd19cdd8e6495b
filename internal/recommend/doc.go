// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

// Package recommend implements the hybrid study-program recommendation engine.
//
// # Architecture
//
// The engine combines two scoring signals and two fallback paths:
//
//   - Content-Based Scoring: TF-IDF similarity between a student's
//     interests/high-grade subjects and program descriptions/tags/skills
//   - Collaborative Filtering: implicit-feedback ALS over click, accept,
//     and rating signals
//   - Hybrid Blending: adaptive per-student weights with per-program
//     adjustment, plus optional diversity re-ranking
//   - Cold Start: interest-overlap or popularity ranking for students with
//     no interaction history
//
// Every served program carries a natural-language explanation assembled
// from the signals that actually contributed to its score.
//
// # Strategy Selection
//
// The strategy is chosen per request from the student's interaction count:
//
//   - 0 interactions: cold-start handler (interest overlap, then popularity)
//   - 1+ interactions: hybrid blend; degrades to content-only scoring when
//     the collaborative model is untrained or does not cover the student
//
// # Model Lifecycle
//
// Training is a batch operation over the full interaction set. Each run
// fits a fresh TF-IDF corpus and, when enough distinct students and
// programs exist, a fresh ALS factorization. The completed model set is
// installed with a single atomic pointer swap, so in-flight requests never
// observe a half-updated model. There is no incremental update path.
//
// # Usage
//
//	cfg := recommend.DefaultConfig()
//	engine := recommend.NewEngine(provider, cfg, recommend.EngineOptions{
//	    ContentFactory: func() recommend.ContentScorer {
//	        return algorithms.NewContentScorer(cfg.Content)
//	    },
//	    CollaborativeFactory: func() recommend.CollaborativeFilter {
//	        return algorithms.NewALS(cfg.ALS, recommend.DefaultSignalWeights())
//	    },
//	    Reranker: reranking.NewDiversityReranker(cfg.Diversity.Weight),
//	})
//
//	if _, err := engine.Retrain(ctx); err != nil { ... }
//
//	recs, err := engine.Recommend(ctx, recommend.Request{
//	    StudentID: studentID,
//	    TopK:      5,
//	})
//
// # Thread Safety
//
// The engine is safe for concurrent use. Scoring requests are read-only
// against the current model set; only one training run may be in flight at
// a time and concurrent Retrain calls fail fast with
// ErrTrainingInProgress.
package recommend
