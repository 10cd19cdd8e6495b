// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package main

import (
	"context"

	"github.com/areyes-dev/lodestar/internal/config"
	"github.com/areyes-dev/lodestar/internal/database"
	"github.com/areyes-dev/lodestar/internal/ingest"
	"github.com/areyes-dev/lodestar/internal/logging"
)

// runStartupIngest loads the configured CSV files before the supervision
// tree starts, so the first training pass sees the imported data. A no-op
// unless INGEST_ENABLED is set.
func runStartupIngest(ctx context.Context, cfg *config.Config, db *database.DB) error {
	if !cfg.Ingest.Enabled {
		return nil
	}

	report, err := ingest.NewIngestor(cfg.Ingest, db).Run(ctx)
	if err != nil {
		return err
	}

	if report.DryRun {
		logging.Info().
			Int("valid", report.Programs.Skipped+report.Students.Skipped+report.Interactions.Skipped).
			Int("invalid", report.TotalInvalid()).
			Msg("Dry-run ingestion finished, nothing written")
	}
	return nil
}
