// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

// Package ingest bulk-loads program catalogs, student rosters, and
// interaction histories from CSV files into the database.
//
// Ingestion runs once at startup when INGEST_ENABLED is set, before the
// supervision tree starts, so the recommendation engine's first training
// pass sees the loaded data.
//
// # File Formats
//
// Files are ordinary CSV with a header row. Columns are matched by name,
// case-insensitively, in any order. Cells holding lists (tags, skills,
// interests) separate items with "|"; grade cells pair subject and score
// with ":" ("math:95|physics:88").
//
//   - programs.csv: name, description, tags, skills, min_grade,
//     difficulty, rating
//   - students.csv: name, email, interests, grades
//   - interactions.csv: student_id, program_id, clicked, accepted,
//     rating, recommended_at
//
// # Error Tolerance
//
// A file that cannot be opened or whose header row is unusable aborts the
// run. Everything below the header is tolerated: malformed rows are
// counted, logged with their line number, and skipped. The Report returned
// by Run carries per-entity counts of inserted, skipped, and invalid rows.
//
// # Re-runnability
//
// Pointing the ingestor at the same files twice is safe. Programs are
// deduplicated by name, students by email, and interactions that reference
// an unknown student or program are rejected rather than inserted. DryRun
// parses and validates everything without writing.
//
// # Example Usage
//
//	ing := ingest.NewIngestor(cfg.Ingest, db)
//	report, err := ing.Run(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Printf("loaded %d rows", report.TotalInserted())
package ingest
