// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package database

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/areyes-dev/lodestar/internal/config"
	"github.com/areyes-dev/lodestar/internal/logging"
	"github.com/areyes-dev/lodestar/internal/metrics"
)

// DB wraps the DuckDB connection and provides data access methods
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig
}

// New creates a new database connection and initializes the schema
func New(cfg *config.DatabaseConfig) (*DB, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	// Ensure parent directory exists for database file
	// This prevents "No such file or directory" errors when the data directory doesn't exist
	// Use 0750 permissions (owner: rwx, group: rx, other: none) per gosec G301
	dbDir := filepath.Dir(cfg.Path)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
		}
	}

	// Build connection string with tuning options
	// preserve_insertion_order=false reduces memory usage but may change result order
	preserveOrder := "true"
	if !cfg.PreserveInsertionOrder {
		preserveOrder = "false"
	}

	// Disable auto-install/auto-load of extensions to prevent hangs in
	// restricted network environments. The schema uses no extension functions.
	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&preserve_insertion_order=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, numThreads, cfg.MaxMemory, preserveOrder)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{
		conn: conn,
		cfg:  cfg,
	}

	if err := db.configureConnectionPool(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to configure connection pool: %w", err)
	}

	if err := db.initialize(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.enableProfiling(); err != nil {
		logging.Warn().Err(err).Msg("Query profiling not enabled")
	}

	return db, nil
}

// configureConnectionPool tunes the database/sql pool for DuckDB.
// DuckDB is embedded, so connections are cheap handles into the same
// process; the pool mainly bounds concurrent CGO calls.
func (db *DB) configureConnectionPool() error {
	db.conn.SetMaxOpenConns(runtime.NumCPU())
	db.conn.SetMaxIdleConns(2)
	db.conn.SetConnMaxLifetime(1 * time.Hour)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
	return nil
}

// initialize creates tables, runs migrations, and builds indexes
func (db *DB) initialize() error {
	if err := db.createTables(); err != nil {
		return err
	}

	// Run versioned migrations (tracks applied migrations in schema_migrations)
	if err := db.runVersionedMigrations(); err != nil {
		return err
	}

	if err := db.createIndexes(); err != nil {
		return err
	}

	// Force a checkpoint after schema initialization to flush the WAL.
	// Ensures the schema is durable before normal operations start and
	// keeps WAL replay on restart from re-executing DDL.
	checkpointCtx, checkpointCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer checkpointCancel()
	if err := db.Checkpoint(checkpointCtx); err != nil {
		logging.Warn().Err(err).Msg("Failed to checkpoint after schema initialization")
	}

	return nil
}

// Close closes the database connection.
// It performs a CHECKPOINT before closing to flush the WAL to the main
// database file, keeping startup WAL replay short on the next run.
func (db *DB) Close() error {
	if db.conn != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := db.Checkpoint(ctx); err != nil {
			// Log warning but don't fail - best effort checkpoint
			logging.Warn().Err(err).Msg("Failed to checkpoint database before close")
		}
		cancel()

		return db.conn.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}

// Conn returns the underlying SQL database connection.
// This is used by packages that need direct database access, such as the
// ingest package for bulk CSV loading.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Checkpoint forces a WAL checkpoint
func (db *DB) Checkpoint(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, "CHECKPOINT")
	if err != nil {
		return fmt.Errorf("checkpoint failed: %w", err)
	}
	return nil
}

// Path returns the path to the database file
func (db *DB) Path() string {
	return db.cfg.Path
}

// ensureContext creates a context with 30-second timeout if none provided
func (db *DB) ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), 30*time.Second)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		return context.WithTimeout(ctx, 30*time.Second)
	}

	return ctx, func() {}
}

// enableProfiling enables DuckDB query profiling for performance debugging
func (db *DB) enableProfiling() error {
	if os.Getenv("ENABLE_QUERY_PROFILING") != "true" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := db.conn.ExecContext(ctx, "PRAGMA enable_profiling"); err != nil {
		return fmt.Errorf("failed to enable profiling: %w", err)
	}

	if _, err := db.conn.ExecContext(ctx, "PRAGMA profiling_mode = 'detailed'"); err != nil {
		return fmt.Errorf("failed to set profiling mode: %w", err)
	}

	logging.Info().Msg("Query profiling enabled (detailed mode)")
	return nil
}

// observe records query duration and errors for a write or aggregate path.
// Call with a named error return: defer observe("insert", "students", time.Now(), &err)
func observe(operation, table string, start time.Time, err *error) {
	metrics.RecordDBQuery(operation, table, time.Since(start), *err)
}

// closeQuietly closes a resource and explicitly ignores any error
// Use this for cleanup operations in error paths where Close() errors are not actionable
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close() // Explicitly ignore error - cleanup is best-effort
	}
}
