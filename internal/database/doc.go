// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

// Package database provides DuckDB-backed persistence for students,
// programs, interactions, and the served-recommendation log.
//
// The package owns the schema (schema.go), versioned migrations
// (migrations.go), CRUD access for each entity, and the analytics
// aggregations. It also exposes a RecommendationDataProvider adapter
// that feeds the recommendation engine a merged interaction stream.
//
// All write paths go through a single *sql.DB connection pool tuned for
// DuckDB's embedded threading model. Callers pass a context; methods
// without a deadline get a 30-second default.
package database
