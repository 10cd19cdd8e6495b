// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package api

import (
	"time"

	"github.com/areyes-dev/lodestar/internal/config"
	"github.com/areyes-dev/lodestar/internal/database"
	"github.com/areyes-dev/lodestar/internal/events"
	"github.com/areyes-dev/lodestar/internal/journal"
	"github.com/areyes-dev/lodestar/internal/middleware"
	"github.com/areyes-dev/lodestar/internal/recommend"
)

// requestTimeout bounds the database and engine work done for a single
// request. Callers keep their own deadlines; this is the server-side cap.
const requestTimeout = 10 * time.Second

// Handler contains dependencies for API handlers.
//
// Handler methods are split across multiple files:
//   - handlers.go: Handler struct and constructor (this file)
//   - handlers_helpers.go: shared helper functions
//   - handlers_recommend.go: recommendation serving, strategy, similar,
//     history, retrain
//   - handlers_feedback.go: journaled feedback submission
//   - handlers_students.go: student CRUD
//   - handlers_programs.go: program catalog CRUD
//   - handlers_analytics.go: analytics aggregations
//   - handlers_health.go: health and probe endpoints
type Handler struct {
	db      *database.DB
	engine  *recommend.Engine
	journal journal.Journal // optional; feedback degrades to direct inserts
	bus     *events.Bus     // optional; nil disables event publishing
	config  *config.Config

	startTime time.Time
	perfMon   *middleware.PerformanceMonitor
}

// NewHandler creates a new API handler with all required dependencies.
//
// The database and engine are required. The feedback journal and the event
// bus are optional: without a journal, feedback is inserted directly with
// no crash durability; without a bus, no events are published. Both
// degradations are for tests and reduced deployments, not production.
func NewHandler(db *database.DB, engine *recommend.Engine, jrnl journal.Journal, bus *events.Bus, cfg *config.Config) *Handler {
	return &Handler{
		db:        db,
		engine:    engine,
		journal:   jrnl,
		bus:       bus,
		config:    cfg,
		startTime: time.Now(),
		perfMon:   middleware.NewPerformanceMonitor(1000), // keep last 1000 requests
	}
}

// PerformanceMonitor exposes the request latency window for the router's
// middleware stack and the analytics performance endpoint.
func (h *Handler) PerformanceMonitor() *middleware.PerformanceMonitor {
	return h.perfMon
}
