// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

/*
Package api provides the HTTP layer for the recommendation engine.

The package is organized around two types: Handler holds the dependencies
every endpoint needs (database, engine, feedback journal, event bus) and
carries the handler methods, split across files by resource; Router wires
those methods into a Chi mux with the full middleware stack.

Handler method files:

  - handlers.go: Handler struct and constructor
  - handlers_helpers.go: response envelope, validation, and param helpers
  - handlers_recommend.go: recommendation serving, strategy, similar,
    history, retrain
  - handlers_feedback.go: journaled feedback submission
  - handlers_students.go: student CRUD
  - handlers_programs.go: program catalog CRUD
  - handlers_analytics.go: engagement, program performance, dashboard,
    endpoint latency stats
  - handlers_health.go: health, liveness, readiness

Every response uses the models.APIResponse envelope:

	{
	  "status": "success" | "error",
	  "data": ...,
	  "metadata": {"timestamp": ..., "request_id": ..., "query_time_ms": ...},
	  "error": {"code": ..., "message": ..., "details": ...}
	}

Routing:

	handler := api.NewHandler(db, engine, jrnl, bus, cfg)
	router := api.NewRouter(handler, api.NewChiMiddlewareFromConfig(&cfg.API))
	http.ListenAndServe(cfg.Server.Address(), router.SetupChi())

The middleware stack (chi_middleware.go) layers request IDs, panic
recovery, CORS, per-group rate limits, security headers, Prometheus
instrumentation, and gzip compression around the handlers. All endpoints
are unauthenticated.
*/
package api
