// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration loaded from defaults, an optional
// YAML config file, and environment variables.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all settings
//  2. Config File: Optional YAML config file (config.yaml) for persistent settings
//  3. Environment Variables: Override any setting via environment variables
//
// Thread Safety:
// Config is immutable after Load() and safe for concurrent read access from
// multiple goroutines.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	API       APIConfig       `koanf:"api"`
	Recommend RecommendConfig `koanf:"recommend"`
	Journal   JournalConfig   `koanf:"journal"`
	Ingest    IngestConfig    `koanf:"ingest"`    // Optional: CSV catalog/roster ingestion
	Events    EventsConfig    `koanf:"events"`    // In-process event bus sizing
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
//
// Environment Variables:
//   - HTTP_PORT: Listen port (default: 8000)
//   - HTTP_HOST: Bind address (default: 0.0.0.0)
//   - SERVER_TIMEOUT: Request read/write timeout (default: 30s)
//   - SERVER_SHUTDOWN_TIMEOUT: Graceful shutdown deadline (default: 15s)
//   - ENVIRONMENT: "development", "staging", or "production" (default: development)
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"`
}

// Address returns the host:port pair the HTTP server binds to.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	Path                   string `koanf:"path"`
	MaxMemory              string `koanf:"max_memory"`
	Threads                int    `koanf:"threads"`                  // Number of DuckDB threads (0 = use NumCPU)
	PreserveInsertionOrder bool   `koanf:"preserve_insertion_order"` // Whether to preserve insertion order (default true)
	SeedCatalog            bool   `koanf:"seed_catalog"`             // Seed the built-in program catalog when the programs table is empty
}

// APIConfig holds API pagination, rate limiting, and CORS settings.
type APIConfig struct {
	DefaultPageSize   int           `koanf:"default_page_size"`
	MaxPageSize       int           `koanf:"max_page_size"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// RecommendConfig holds recommendation engine tuning.
//
// The engine blends a content-based scorer (TF-IDF over program text) with a
// collaborative scorer (implicit-feedback ALS). Most deployments only ever
// touch TrainInterval and ModelPath; the algorithm sub-sections exist for
// tuning against unusual catalog shapes.
//
// Environment Variables:
//   - RECOMMEND_DEFAULT_TOP_K: Recommendations per request when unspecified (default: 5)
//   - RECOMMEND_MAX_TOP_K: Upper bound on requested top_k (default: 50)
//   - RECOMMEND_TRAIN_INTERVAL: Scheduled retrain interval (default: 6h)
//   - RECOMMEND_TRAIN_ON_STARTUP: Train models at startup (default: true)
//   - RECOMMEND_TRAIN_DEBOUNCE: Minimum gap between event-driven retrains (default: 30s)
//   - RECOMMEND_MODEL_PATH: Directory for persisted model snapshots (default: /data/models)
//
// Algorithm-Specific Settings:
//   - RECOMMEND_MAX_FEATURES: TF-IDF vocabulary size (default: 500)
//   - RECOMMEND_HIGH_GRADE_THRESHOLD: Grade cutoff for profile subjects (default: 80)
//   - RECOMMEND_ALS_FACTORS: ALS latent factors (default: 50)
//   - RECOMMEND_ALS_ITERATIONS: ALS training iterations (default: 15)
//   - RECOMMEND_ALS_REGULARIZATION: ALS regularization (default: 0.1)
//   - RECOMMEND_DIVERSITY_ENABLED: Apply diversity re-ranking (default: true)
//   - RECOMMEND_DIVERSITY_WEIGHT: Tag-overlap penalty strength (default: 0.1)
type RecommendConfig struct {
	// DefaultTopK is the number of recommendations returned when the request
	// does not specify one.
	DefaultTopK int `koanf:"default_top_k"`

	// MaxTopK caps the per-request top_k. Requests above it are rejected.
	MaxTopK int `koanf:"max_top_k"`

	// TrainInterval is how often to retrain models on a schedule.
	// Default: 6h
	TrainInterval time.Duration `koanf:"train_interval"`

	// TrainOnStartup triggers model training on application startup.
	// Default: true (the API serves cold-start answers until training finishes)
	TrainOnStartup bool `koanf:"train_on_startup"`

	// TrainDebounce is the minimum gap between retrains triggered by
	// feedback events. Scheduled and manual retrains ignore it.
	TrainDebounce time.Duration `koanf:"train_debounce"`

	// ModelPath is the directory for persisting trained model snapshots.
	// Default: /data/models
	ModelPath string `koanf:"model_path"`

	Content   ContentConfig   `koanf:"content"`
	ALS       ALSConfig       `koanf:"als"`
	Diversity DiversityConfig `koanf:"diversity"`
}

// ContentConfig holds TF-IDF content scorer settings.
type ContentConfig struct {
	// MaxFeatures is the vocabulary size kept after document-frequency
	// ranking. Unigrams and bigrams compete for the same slots.
	// Default: 500
	MaxFeatures int `koanf:"max_features"`

	// HighGradeThreshold is the minimum grade (0-100) for a subject to count
	// toward the student's interest profile.
	// Default: 80
	HighGradeThreshold float64 `koanf:"high_grade_threshold"`

	// InterestRepeat is how many times declared interests are repeated in the
	// student profile document, weighting them above subjects.
	// Default: 3
	InterestRepeat int `koanf:"interest_repeat"`

	// SubjectRepeat is how many times high-grade subjects are repeated in the
	// student profile document.
	// Default: 2
	SubjectRepeat int `koanf:"subject_repeat"`
}

// ALSConfig holds implicit-feedback ALS settings.
type ALSConfig struct {
	// Factors is the latent factor count. The effective rank is capped by the
	// interaction matrix dimensions at training time.
	// Default: 50
	Factors int `koanf:"factors"`

	// Iterations is the number of alternating least squares sweeps.
	// Default: 15
	Iterations int `koanf:"iterations"`

	// Regularization is the L2 penalty lambda.
	// Default: 0.1
	Regularization float64 `koanf:"regularization"`

	// Workers bounds the goroutines solving factor rows in parallel
	// (0 = use NumCPU).
	Workers int `koanf:"workers"`
}

// DiversityConfig holds diversity re-ranking settings.
type DiversityConfig struct {
	// Enabled applies greedy tag-diversity re-ranking to recommendation
	// lists. Requests may override it per call.
	// Default: true
	Enabled bool `koanf:"enabled"`

	// Weight scales the tag-overlap penalty (0 disables, 1 maximal).
	// Default: 0.1
	Weight float64 `koanf:"weight"`
}

// JournalConfig holds the durable feedback journal settings (BadgerDB).
// Feedback writes land in the journal first and are replayed into DuckDB by a
// background worker, so a database hiccup never loses a signal.
type JournalConfig struct {
	// Path is the BadgerDB directory.
	// Default: /data/journal
	Path string `koanf:"path"`

	// SyncWrites forces an fsync per journal write. Safer, slower.
	// Default: false
	SyncWrites bool `koanf:"sync_writes"`

	// RetryInterval is how often the replay worker drains pending entries.
	// Default: 30s
	RetryInterval time.Duration `koanf:"retry_interval"`

	// MaxRetries is the replay attempt limit per entry before it is parked
	// for operator attention.
	// Default: 5
	MaxRetries int `koanf:"max_retries"`

	// GCInterval is how often Badger value-log garbage collection runs.
	// Default: 5m
	GCInterval time.Duration `koanf:"gc_interval"`
}

// IngestConfig holds CSV ingestion settings for bulk-loading the program
// catalog and student rosters.
//
// Environment Variables:
//   - INGEST_ENABLED: Run ingestion at startup (default: false)
//   - INGEST_PROGRAMS_PATH: Path to the programs CSV file
//   - INGEST_STUDENTS_PATH: Path to the students CSV file
//   - INGEST_INTERACTIONS_PATH: Path to the interactions CSV file
//   - INGEST_BATCH_SIZE: Rows per progress batch (default: 500)
//   - INGEST_DRY_RUN: Validate files without writing (default: false)
type IngestConfig struct {
	Enabled          bool   `koanf:"enabled"`
	ProgramsPath     string `koanf:"programs_path"`
	StudentsPath     string `koanf:"students_path"`
	InteractionsPath string `koanf:"interactions_path"`
	BatchSize        int    `koanf:"batch_size"`
	DryRun           bool   `koanf:"dry_run"`
}

// EventsConfig holds in-process event bus settings (Watermill gochannel).
type EventsConfig struct {
	// BufferSize is the per-subscriber channel buffer.
	// Default: 64
	BufferSize int `koanf:"buffer_size"`

	// Persistent retains published messages for late subscribers.
	// Default: false
	Persistent bool `koanf:"persistent"`
}

// LoggingConfig holds logging settings for zerolog.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false - include caller file:line (default: false)
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// JSON is recommended for production (structured, machine-parseable).
	// Console is human-readable for development.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	// Adds slight performance overhead.
	// Default: false
	Caller bool `koanf:"caller"`
}
