// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/areyes-dev/lodestar/internal/config"
	"github.com/areyes-dev/lodestar/internal/database"
	"github.com/areyes-dev/lodestar/internal/logging"
	"github.com/areyes-dev/lodestar/internal/metrics"
	"github.com/areyes-dev/lodestar/internal/models"
)

// Store is the slice of the database the ingestor writes through. Satisfied
// by *database.DB.
type Store interface {
	CreateProgram(ctx context.Context, program *models.Program) error
	CreateStudent(ctx context.Context, student *models.Student) error
	InsertInteraction(ctx context.Context, interaction *models.Interaction) error
	ListPrograms(ctx context.Context) ([]models.Program, error)
	ListStudents(ctx context.Context) ([]models.Student, error)
}

// Ingestor bulk-loads program catalogs, student rosters, and interaction
// histories from CSV files.
//
// Runs are tolerant and re-runnable: malformed rows are counted and logged
// but never abort the file, and rows that already exist (program by name,
// student by email) are skipped, so pointing the ingestor at the same files
// twice is safe.
type Ingestor struct {
	cfg   config.IngestConfig
	store Store
}

// NewIngestor creates an ingestor over the given store.
func NewIngestor(cfg config.IngestConfig, store Store) *Ingestor {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 500
	}
	return &Ingestor{cfg: cfg, store: store}
}

// Run ingests every configured file in referential order: programs, then
// students, then interactions. A file that cannot be opened or whose header
// is unusable aborts the run; row-level problems do not.
func (ing *Ingestor) Run(ctx context.Context) (*Report, error) {
	report := &Report{StartTime: time.Now(), DryRun: ing.cfg.DryRun}

	logging.Info().
		Str("programs", ing.cfg.ProgramsPath).
		Str("students", ing.cfg.StudentsPath).
		Str("interactions", ing.cfg.InteractionsPath).
		Bool("dry_run", ing.cfg.DryRun).
		Msg("Starting CSV ingestion")

	if ing.cfg.ProgramsPath != "" {
		stats, err := ing.ingestPrograms(ctx)
		if err != nil {
			return report, fmt.Errorf("ingesting programs: %w", err)
		}
		report.Programs = *stats
	}

	if ing.cfg.StudentsPath != "" {
		stats, err := ing.ingestStudents(ctx)
		if err != nil {
			return report, fmt.Errorf("ingesting students: %w", err)
		}
		report.Students = *stats
	}

	if ing.cfg.InteractionsPath != "" {
		stats, err := ing.ingestInteractions(ctx)
		if err != nil {
			return report, fmt.Errorf("ingesting interactions: %w", err)
		}
		report.Interactions = *stats
	}

	report.EndTime = time.Now()

	logging.Info().
		Int("inserted", report.TotalInserted()).
		Int("invalid", report.TotalInvalid()).
		Dur("duration", report.Duration()).
		Msg("CSV ingestion complete")

	return report, nil
}

func (ing *Ingestor) ingestPrograms(ctx context.Context) (*Stats, error) {
	start := time.Now()

	// Existing program names short-circuit re-runs.
	existing := make(map[string]struct{})
	programs, err := ing.store.ListPrograms(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing existing programs: %w", err)
	}
	for i := range programs {
		existing[strings.ToLower(programs[i].Name)] = struct{}{}
	}

	stats, err := ing.ingestFile(ctx, ing.cfg.ProgramsPath, "programs", func(ctx context.Context, r *row) (rowOutcome, error) {
		program, err := toProgram(r)
		if err != nil {
			return rowInvalid, err
		}

		key := strings.ToLower(program.Name)
		if _, ok := existing[key]; ok {
			return rowSkipped, nil
		}
		if ing.cfg.DryRun {
			existing[key] = struct{}{}
			return rowSkipped, nil
		}

		if err := ing.store.CreateProgram(ctx, program); err != nil {
			return rowInvalid, err
		}
		existing[key] = struct{}{}
		return rowInserted, nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordIngest("programs", stats.Inserted, stats.Skipped, stats.Invalid, time.Since(start))
	return stats, nil
}

func (ing *Ingestor) ingestStudents(ctx context.Context) (*Stats, error) {
	start := time.Now()

	stats, err := ing.ingestFile(ctx, ing.cfg.StudentsPath, "students", func(ctx context.Context, r *row) (rowOutcome, error) {
		student, err := toStudent(r)
		if err != nil {
			return rowInvalid, err
		}
		if ing.cfg.DryRun {
			return rowSkipped, nil
		}

		err = ing.store.CreateStudent(ctx, student)
		switch {
		case err == nil:
			return rowInserted, nil
		case errors.Is(err, database.ErrDuplicateEmail):
			return rowSkipped, nil
		default:
			return rowInvalid, err
		}
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordIngest("students", stats.Inserted, stats.Skipped, stats.Invalid, time.Since(start))
	return stats, nil
}

func (ing *Ingestor) ingestInteractions(ctx context.Context) (*Stats, error) {
	start := time.Now()

	// Interactions reference students and programs by ID. Preloading both
	// ID sets turns each reference check into a map lookup instead of a
	// query per row.
	studentIDs, programIDs, err := ing.loadReferenceIDs(ctx)
	if err != nil {
		return nil, err
	}

	stats, err := ing.ingestFile(ctx, ing.cfg.InteractionsPath, "interactions", func(ctx context.Context, r *row) (rowOutcome, error) {
		interaction, err := toInteraction(r)
		if err != nil {
			return rowInvalid, err
		}

		if _, ok := studentIDs[interaction.StudentID]; !ok {
			return rowInvalid, fmt.Errorf("unknown student %s", interaction.StudentID)
		}
		if _, ok := programIDs[interaction.ProgramID]; !ok {
			return rowInvalid, fmt.Errorf("unknown program %s", interaction.ProgramID)
		}
		if ing.cfg.DryRun {
			return rowSkipped, nil
		}

		if err := ing.store.InsertInteraction(ctx, interaction); err != nil {
			return rowInvalid, err
		}
		return rowInserted, nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordIngest("interactions", stats.Inserted, stats.Skipped, stats.Invalid, time.Since(start))
	return stats, nil
}

func (ing *Ingestor) loadReferenceIDs(ctx context.Context) (studentIDs, programIDs map[string]struct{}, err error) {
	students, err := ing.store.ListStudents(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("listing students: %w", err)
	}
	programs, err := ing.store.ListPrograms(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("listing programs: %w", err)
	}

	studentIDs = make(map[string]struct{}, len(students))
	for i := range students {
		studentIDs[students[i].ID] = struct{}{}
	}
	programIDs = make(map[string]struct{}, len(programs))
	for i := range programs {
		programIDs[programs[i].ID] = struct{}{}
	}
	return studentIDs, programIDs, nil
}

// rowOutcome classifies what happened to one row.
type rowOutcome int

const (
	rowInserted rowOutcome = iota
	rowSkipped
	rowInvalid
)

// rowFunc processes one parsed row. Returning rowInvalid with an error logs
// the row and moves on; the error never aborts the file.
type rowFunc func(ctx context.Context, r *row) (rowOutcome, error)

// ingestFile streams one CSV file through process, checking for cancellation
// and logging progress at every batch boundary.
func (ing *Ingestor) ingestFile(ctx context.Context, path, entity string, process rowFunc) (*Stats, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			logging.Warn().Err(closeErr).Str("path", path).Msg("Closing CSV file failed")
		}
	}()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	// Ragged rows are a row-level problem, not a file-level one.
	reader.FieldsPerRecord = -1

	header, err := readHeader(reader)
	if err != nil {
		return nil, fmt.Errorf("reading header of %s: %w", path, err)
	}

	stats := &Stats{}
	line := 1
	for {
		if stats.Rows%ing.cfg.BatchSize == 0 {
			select {
			case <-ctx.Done():
				return stats, ctx.Err()
			default:
			}
			if stats.Rows > 0 {
				logging.Info().
					Str("entity", entity).
					Int("rows", stats.Rows).
					Int("inserted", stats.Inserted).
					Int("invalid", stats.Invalid).
					Msg("Ingestion progress")
			}
		}

		cells, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			// Unparseable CSV line (bad quoting). Count and continue.
			stats.Rows++
			stats.Invalid++
			logging.Warn().Err(err).Str("entity", entity).Int("line", line).Msg("Unreadable CSV row")
			continue
		}

		stats.Rows++
		outcome, err := process(ctx, &row{header: header, cells: cells, line: line})
		switch outcome {
		case rowInserted:
			stats.Inserted++
		case rowSkipped:
			stats.Skipped++
		case rowInvalid:
			stats.Invalid++
			logging.Warn().Err(err).Str("entity", entity).Int("line", line).Msg("Rejected CSV row")
		}
	}

	logging.Info().
		Str("entity", entity).
		Int("rows", stats.Rows).
		Int("inserted", stats.Inserted).
		Int("skipped", stats.Skipped).
		Int("invalid", stats.Invalid).
		Msg("File ingested")

	return stats, nil
}

// readHeader reads and normalizes the header row into a column index.
func readHeader(reader *csv.Reader) (map[string]int, error) {
	cells, err := reader.Read()
	if err != nil {
		return nil, err
	}

	header := make(map[string]int, len(cells))
	for i, cell := range cells {
		name := strings.ToLower(strings.TrimSpace(cell))
		if name == "" {
			continue
		}
		if _, dup := header[name]; dup {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		header[name] = i
	}
	if len(header) == 0 {
		return nil, fmt.Errorf("empty header row")
	}
	return header, nil
}
