// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package main

import (
	"context"
	"fmt"

	"github.com/areyes-dev/lodestar/internal/config"
	"github.com/areyes-dev/lodestar/internal/database"
	"github.com/areyes-dev/lodestar/internal/logging"
	"github.com/areyes-dev/lodestar/internal/recommend"
	"github.com/areyes-dev/lodestar/internal/recommend/algorithms"
	"github.com/areyes-dev/lodestar/internal/recommend/reranking"
	"github.com/areyes-dev/lodestar/internal/recommend/storage"
)

// snapshotKeep bounds how many model snapshot versions survive each save.
const snapshotKeep = 3

// initEngine builds the recommendation engine over the database, wires the
// snapshot store, and loads the newest persisted model so the API answers
// with trained scores immediately after a restart.
func initEngine(cfg *config.Config, db *database.DB) (*recommend.Engine, error) {
	engineCfg := engineConfig(&cfg.Recommend)

	store, err := storage.NewSnapshotStore(cfg.Recommend.ModelPath, snapshotKeep)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot store at %s: %w", cfg.Recommend.ModelPath, err)
	}

	engine, err := recommend.NewEngine(
		database.NewRecommendationDataProvider(db),
		engineCfg,
		recommend.EngineOptions{
			ContentFactory: func() recommend.ContentScorer {
				return algorithms.NewContentBased(engineCfg.Content)
			},
			CollaborativeFactory: func() recommend.CollaborativeFilter {
				return algorithms.NewALS(engineCfg.ALS, nil)
			},
			Reranker: reranking.NewDiversityReranker(engineCfg.Diversity.Weight),
			Store:    store,
		},
	)
	if err != nil {
		return nil, err
	}

	// A missing snapshot is normal on first start; a corrupt one is worth
	// a warning but not a refusal to boot. The trainer rebuilds models
	// from the database either way.
	loaded, err := engine.LoadPersisted(context.Background())
	switch {
	case err != nil:
		logging.Warn().Err(err).Msg("Loading persisted model failed, starting untrained")
	case loaded:
		logging.Info().Msg("Loaded persisted model snapshot")
	default:
		logging.Info().Msg("No persisted model snapshot, starting untrained")
	}

	return engine, nil
}

// engineConfig maps the application config onto the engine's tuning knobs.
func engineConfig(cfg *config.RecommendConfig) recommend.Config {
	return recommend.Config{
		DefaultTopK: cfg.DefaultTopK,
		MaxTopK:     cfg.MaxTopK,
		Content: recommend.ContentConfig{
			MaxFeatures:        cfg.Content.MaxFeatures,
			HighGradeThreshold: cfg.Content.HighGradeThreshold,
			InterestRepeat:     cfg.Content.InterestRepeat,
			SubjectRepeat:      cfg.Content.SubjectRepeat,
		},
		ALS: recommend.ALSConfig{
			Factors:        cfg.ALS.Factors,
			Iterations:     cfg.ALS.Iterations,
			Regularization: cfg.ALS.Regularization,
			Workers:        cfg.ALS.Workers,
		},
		Diversity: recommend.DiversityConfig{
			Enabled: cfg.Diversity.Enabled,
			Weight:  cfg.Diversity.Weight,
		},
	}
}
