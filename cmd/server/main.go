// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

// Package main is the entry point for the Lodestar server.
//
// Lodestar recommends study programs to students by blending a TF-IDF
// content scorer with implicit-feedback ALS collaborative filtering. It
// serves a REST API for managing students, programs, and feedback, and
// retrains its models in the background as new feedback arrives.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Koanf v2 layered sources (env vars, config.yaml, defaults)
//  2. Database: DuckDB with embedded schema migrations
//  3. Catalog: optional seeding and CSV ingestion
//  4. Engine: recommendation engine with persisted model snapshots
//  5. Journal: BadgerDB feedback journal with background replay
//  6. Event bus: Watermill channel for feedback and training events
//  7. HTTP API: Chi router with CORS, rate limiting, and Prometheus metrics
//  8. Supervision: Suture tree running the replay loop, trainer, and server
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, then config.yaml, then built-in
// defaults. Commonly tuned settings:
//
//   - HTTP_PORT: listen port (default: 8080)
//   - DUCKDB_PATH: database file, or :memory: (default: /data/lodestar.db)
//   - SEED_CATALOG: load the built-in program catalog on first start
//   - RECOMMEND_TRAIN_INTERVAL: scheduled retrain cadence (default: 6h)
//   - JOURNAL_PATH: BadgerDB feedback journal directory (default: /data/journal)
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: the supervision
// tree stops its services (HTTP server drains in-flight requests, the
// trainer and replay loop exit), then the event bus, journal, and database
// close in dependency order.
//
// # Example Usage
//
// Development with an in-memory database and seeded catalog:
//
//	export DUCKDB_PATH=:memory:
//	export SEED_CATALOG=true
//	export LOG_FORMAT=console
//	./lodestar
//
// Production with CSV ingestion on first start:
//
//	export DUCKDB_PATH=/data/lodestar.db
//	export INGEST_ENABLED=true
//	export INGEST_PROGRAMS_PATH=/data/import/programs.csv
//	export INGEST_STUDENTS_PATH=/data/import/students.csv
//	./lodestar
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/areyes-dev/lodestar/internal/api"
	"github.com/areyes-dev/lodestar/internal/config"
	"github.com/areyes-dev/lodestar/internal/database"
	"github.com/areyes-dev/lodestar/internal/events"
	"github.com/areyes-dev/lodestar/internal/journal"
	"github.com/areyes-dev/lodestar/internal/logging"
	"github.com/areyes-dev/lodestar/internal/models"
	"github.com/areyes-dev/lodestar/internal/supervisor"
	"github.com/areyes-dev/lodestar/internal/supervisor/services"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Msg("Starting Lodestar with supervisor tree")
	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("addr", cfg.Server.Address()).
		Dur("train_interval", cfg.Recommend.TrainInterval).
		Bool("train_on_startup", cfg.Recommend.TrainOnStartup).
		Msg("Configuration loaded")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	if cfg.Database.SeedCatalog {
		if err := db.SeedCatalog(context.Background()); err != nil {
			// Close database before fatal exit so the defer runs
			if closeErr := db.Close(); closeErr != nil {
				logging.Error().Err(closeErr).Msg("Error closing database")
			}
			logging.Fatal().Err(err).Msg("Failed to seed program catalog")
		}
	}

	if err := runStartupIngest(context.Background(), cfg, db); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error().Err(closeErr).Msg("Error closing database")
		}
		logging.Fatal().Err(err).Msg("CSV ingestion failed")
	}

	engine, err := initEngine(cfg, db)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize recommendation engine")
	}

	jrnl, err := journal.Open(&cfg.Journal)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open feedback journal")
	}
	defer func() {
		if err := jrnl.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing feedback journal")
		}
	}()
	logging.Info().Str("path", cfg.Journal.Path).Msg("Feedback journal opened")

	bus := events.NewBus(&cfg.Events)
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	// The replay loop re-applies journaled feedback that never reached the
	// database. InsertInteraction is idempotent on the interaction ID, so
	// replaying an entry the handler already applied is harmless.
	replay := journal.NewReplayLoop(jrnl, journal.SinkFunc(
		func(ctx context.Context, entry *journal.Entry) error {
			var interaction models.Interaction
			if err := entry.UnmarshalPayload(&interaction); err != nil {
				return fmt.Errorf("decoding journal entry %s: %w", entry.ID, err)
			}
			return db.InsertInteraction(ctx, &interaction)
		},
	))

	handler := api.NewHandler(db, engine, jrnl, bus, cfg)
	router := api.NewRouter(handler, api.NewChiMiddlewareFromConfig(&cfg.API))

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddDataService(services.NewReplayService(replay))
	tree.AddTrainingService(services.NewTrainerService(engine, bus, services.TrainerConfig{
		TrainOnStartup: cfg.Recommend.TrainOnStartup,
		TrainInterval:  cfg.Recommend.TrainInterval,
		Debounce:       cfg.Recommend.TrainDebounce,
	}))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("Services added to supervisor tree")

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// Wait for supervisor to finish (either from signal or error)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
