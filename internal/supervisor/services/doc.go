// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

/*
Package services provides suture.Service wrappers for Lodestar's long-running
components.

Each wrapper adapts one component's native lifecycle to the single method
suture supervises:

	type Service interface {
	    Serve(ctx context.Context) error
	}

# Wrappers

HTTPServerService adapts http.Server's blocking ListenAndServe to the
context-driven Serve pattern, with graceful Shutdown on cancellation.

TrainerService owns model training: an optional run at startup, a run per
schedule tick, and debounced runs in response to feedback events from the
bus. All three triggers funnel into the engine's single-flight Retrain.

ReplayService adapts the journal replay loop's Start/Stop lifecycle, so a
crashed replay loop is restarted without touching the API or trainer.

# Conventions

Wrappers declare the narrow interface they consume (HTTPServer, TrainingEngine,
ReplayRunner) instead of importing the concrete component, which keeps them
testable with in-package mocks and free of dependency cycles.

A wrapper returns ctx.Err() on orderly shutdown and a real error on failure;
suture restarts only the latter.
*/
package services
