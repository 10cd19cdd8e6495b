// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package ingest

import (
	"time"
)

// Stats holds the outcome of ingesting one CSV file.
type Stats struct {
	// Rows is the number of data rows read from the file (header excluded).
	Rows int

	// Inserted is the number of rows written to the database.
	Inserted int

	// Skipped is the number of valid rows not written, either because the
	// record already exists (re-runs are expected) or because of dry-run mode.
	Skipped int

	// Invalid is the number of rows rejected by validation or by the
	// database. Invalid rows are logged and never abort the run.
	Invalid int
}

// Report summarizes a full ingestion run across all configured files.
type Report struct {
	Programs     Stats
	Students     Stats
	Interactions Stats

	StartTime time.Time
	EndTime   time.Time
	DryRun    bool
}

// Duration returns how long the run took (or has taken so far).
func (r *Report) Duration() time.Duration {
	if r.EndTime.IsZero() {
		return time.Since(r.StartTime)
	}
	return r.EndTime.Sub(r.StartTime)
}

// TotalInserted sums inserted rows across all entities.
func (r *Report) TotalInserted() int {
	return r.Programs.Inserted + r.Students.Inserted + r.Interactions.Inserted
}

// TotalInvalid sums rejected rows across all entities.
func (r *Report) TotalInvalid() int {
	return r.Programs.Invalid + r.Students.Invalid + r.Interactions.Invalid
}
