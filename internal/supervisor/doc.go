// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

/*
Package supervisor provides process supervision for Lodestar using suture v4.

This package implements a hierarchical supervisor tree that manages the lifecycle
of all long-running services in the application. It provides Erlang/OTP-style
supervision with automatic restart, failure isolation, and graceful shutdown.

# Overview

The supervisor tree organizes services into three layers for failure isolation:

	RootSupervisor ("lodestar")
	├── DataSupervisor ("data-layer")
	│   └── ReplayService (journal replay, if journal enabled)
	├── TrainingSupervisor ("training-layer")
	│   └── TrainerService (startup, scheduled, and feedback-driven training)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

This hierarchy ensures that:
  - A crash in the trainer doesn't take down request serving
  - Journal replay failures don't impact API availability
  - Each layer can restart independently

# Key Features

Automatic Restart:
  - Crashed services are automatically restarted
  - Exponential backoff prevents restart storms
  - Configurable failure thresholds and decay rates

Graceful Shutdown:
  - Context cancellation triggers orderly shutdown
  - Configurable shutdown timeout per service
  - UnstoppedServiceReport for debugging hangs

Structured Logging:
  - Supervisor events flow through the sutureslog adapter into the
    application's zerolog logger (via logging.NewSlogHandler)

# Usage Example

Basic setup in main.go:

	logger := slog.New(logging.NewSlogHandler())
	tree, err := supervisor.NewSupervisorTree(logger, supervisor.DefaultTreeConfig())
	if err != nil {
	    log.Fatal(err)
	}

	tree.AddDataService(services.NewReplayService(replayLoop))
	tree.AddTrainingService(services.NewTrainerService(engine, bus, trainerCfg))
	tree.AddAPIService(services.NewHTTPServerService(server, 15*time.Second))

	// Start the tree (blocks until context canceled)
	if err := tree.Serve(ctx); err != nil {
	    log.Printf("Supervisor stopped: %v", err)
	}

# Configuration

The TreeConfig controls restart behavior:

	config := supervisor.TreeConfig{
	    FailureThreshold: 5.0,              // Failures before backoff
	    FailureDecay:     30.0,             // Seconds for failures to decay
	    FailureBackoff:   15 * time.Second, // Backoff duration
	    ShutdownTimeout:  10 * time.Second, // Per-service shutdown timeout
	}

Default values match suture's production-ready defaults.

# Service Interface

All services must implement suture.Service:

	type Service interface {
	    Serve(ctx context.Context) error
	}

Return behavior:
  - Return nil: Service stopped cleanly, will not be restarted
  - Return error: Service crashed, will be restarted
  - Context canceled: Shutdown requested, return promptly

# What Is NOT Supervised

DuckDB is intentionally not supervised:
  - It's an embedded library, not a long-running service
  - Connections are managed by the database package
  - Crashes in DuckDB would require process restart anyway

The event bus is likewise created and closed directly by main: it owns no
goroutines that need restarting, only channels.

# See Also

  - internal/supervisor/services: Service wrappers
  - github.com/thejerf/suture/v4: Underlying library
*/
package supervisor
