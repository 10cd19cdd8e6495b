// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are the locations checked for a YAML config file,
// in priority order. The first existing file wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/lodestar/config.yaml",
	"/data/config.yaml",
}

// ConfigPathEnvVar overrides the config file search path when set.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns the built-in defaults. Every field the rest of the
// application reads must have a usable zero-configuration value here.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8000,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			Environment:     "development",
		},
		Database: DatabaseConfig{
			Path:                   "/data/lodestar.duckdb",
			MaxMemory:              "2GB",
			Threads:                0,
			PreserveInsertionOrder: true,
			SeedCatalog:            true,
		},
		API: APIConfig{
			DefaultPageSize:   50,
			MaxPageSize:       500,
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
		},
		Recommend: RecommendConfig{
			DefaultTopK:    5,
			MaxTopK:        50,
			TrainInterval:  6 * time.Hour,
			TrainOnStartup: true,
			TrainDebounce:  30 * time.Second,
			ModelPath:      "/data/models",
			Content: ContentConfig{
				MaxFeatures:        500,
				HighGradeThreshold: 80,
				InterestRepeat:     3,
				SubjectRepeat:      2,
			},
			ALS: ALSConfig{
				Factors:        50,
				Iterations:     15,
				Regularization: 0.1,
				Workers:        0,
			},
			Diversity: DiversityConfig{
				Enabled: true,
				Weight:  0.1,
			},
		},
		Journal: JournalConfig{
			Path:          "/data/journal",
			SyncWrites:    false,
			RetryInterval: 30 * time.Second,
			MaxRetries:    5,
			GCInterval:    5 * time.Minute,
		},
		Ingest: IngestConfig{
			Enabled:   false,
			BatchSize: 500,
			DryRun:    false,
		},
		Events: EventsConfig{
			BufferSize: 64,
			Persistent: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration from defaults, an optional YAML file, and
// environment variables, then validates the result.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// LoadWithKoanf performs the three-layer load:
//
//  1. Built-in defaults (structs provider)
//  2. Optional YAML config file (file provider)
//  3. Environment variables (env provider with explicit key mapping)
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: optional YAML file
	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// Layer 3: environment variables
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Comma-separated env values for slice fields arrive as strings;
	// normalize them before unmarshaling.
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// findConfigFile returns the path of the config file to load, or "" when
// none exists. CONFIG_PATH takes priority over the default search paths.
func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
		// An explicit CONFIG_PATH that does not exist is ignored rather than
		// fatal so containers can mount the file after first boot.
		return ""
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths lists config keys holding []string values that may arrive
// as comma-separated strings from environment variables.
var sliceConfigPaths = []string{
	"api.cors_origins",
}

// processSliceFields converts comma-separated string values to string slices
// for the keys in sliceConfigPaths. Values that are already slices (from the
// YAML file or defaults) pass through untouched.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		if !k.Exists(path) {
			continue
		}
		raw := k.Get(path)
		s, ok := raw.(string)
		if !ok {
			continue
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if err := k.Set(path, out); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to config keys. Unmapped
// variables return "" and are dropped, keeping unrelated environment noise
// (PATH, HOME, CI variables) out of the config tree.
func envTransformFunc(key string) string {
	mapping := map[string]string{
		// Server
		"HTTP_PORT":               "server.port",
		"HTTP_HOST":               "server.host",
		"SERVER_TIMEOUT":          "server.timeout",
		"SERVER_SHUTDOWN_TIMEOUT": "server.shutdown_timeout",
		"ENVIRONMENT":             "server.environment",

		// Database
		"DUCKDB_PATH":                     "database.path",
		"DUCKDB_MAX_MEMORY":               "database.max_memory",
		"DUCKDB_THREADS":                  "database.threads",
		"DUCKDB_PRESERVE_INSERTION_ORDER": "database.preserve_insertion_order",
		"SEED_CATALOG":                    "database.seed_catalog",

		// API
		"API_DEFAULT_PAGE_SIZE": "api.default_page_size",
		"API_MAX_PAGE_SIZE":     "api.max_page_size",
		"RATE_LIMIT_REQS":       "api.rate_limit_reqs",
		"RATE_LIMIT_WINDOW":     "api.rate_limit_window",
		"RATE_LIMIT_DISABLED":   "api.rate_limit_disabled",
		"CORS_ORIGINS":          "api.cors_origins",

		// Recommendation engine
		"RECOMMEND_DEFAULT_TOP_K":        "recommend.default_top_k",
		"RECOMMEND_MAX_TOP_K":            "recommend.max_top_k",
		"RECOMMEND_TRAIN_INTERVAL":       "recommend.train_interval",
		"RECOMMEND_TRAIN_ON_STARTUP":     "recommend.train_on_startup",
		"RECOMMEND_TRAIN_DEBOUNCE":       "recommend.train_debounce",
		"RECOMMEND_MODEL_PATH":           "recommend.model_path",
		"RECOMMEND_MAX_FEATURES":         "recommend.content.max_features",
		"RECOMMEND_HIGH_GRADE_THRESHOLD": "recommend.content.high_grade_threshold",
		"RECOMMEND_INTEREST_REPEAT":      "recommend.content.interest_repeat",
		"RECOMMEND_SUBJECT_REPEAT":       "recommend.content.subject_repeat",
		"RECOMMEND_ALS_FACTORS":          "recommend.als.factors",
		"RECOMMEND_ALS_ITERATIONS":       "recommend.als.iterations",
		"RECOMMEND_ALS_REGULARIZATION":   "recommend.als.regularization",
		"RECOMMEND_ALS_WORKERS":          "recommend.als.workers",
		"RECOMMEND_DIVERSITY_ENABLED":    "recommend.diversity.enabled",
		"RECOMMEND_DIVERSITY_WEIGHT":     "recommend.diversity.weight",

		// Journal
		"JOURNAL_PATH":           "journal.path",
		"JOURNAL_SYNC_WRITES":    "journal.sync_writes",
		"JOURNAL_RETRY_INTERVAL": "journal.retry_interval",
		"JOURNAL_MAX_RETRIES":    "journal.max_retries",
		"JOURNAL_GC_INTERVAL":    "journal.gc_interval",

		// Ingest
		"INGEST_ENABLED":           "ingest.enabled",
		"INGEST_PROGRAMS_PATH":     "ingest.programs_path",
		"INGEST_STUDENTS_PATH":     "ingest.students_path",
		"INGEST_INTERACTIONS_PATH": "ingest.interactions_path",
		"INGEST_BATCH_SIZE":        "ingest.batch_size",
		"INGEST_DRY_RUN":           "ingest.dry_run",

		// Events
		"EVENTS_BUFFER_SIZE": "events.buffer_size",
		"EVENTS_PERSISTENT":  "events.persistent",

		// Logging
		"LOG_LEVEL":  "logging.level",
		"LOG_FORMAT": "logging.format",
		"LOG_CALLER": "logging.caller",
	}

	if mapped, ok := mapping[strings.ToUpper(key)]; ok {
		return mapped
	}
	return ""
}

// GetKoanfInstance returns a fresh koanf instance loaded the same way
// LoadWithKoanf loads, for callers that need raw key access (debug
// endpoints, config dumps). Errors are intentionally swallowed; the
// instance may be partially loaded.
func GetKoanfInstance() *koanf.Koanf {
	k := koanf.New(".")
	_ = k.Load(structs.Provider(defaultConfig(), "koanf"), nil)
	if path := findConfigFile(); path != "" {
		_ = k.Load(file.Provider(path), yaml.Parser())
	}
	_ = k.Load(env.Provider("", ".", envTransformFunc), nil)
	return k
}

// WatchConfigFile invokes callback whenever the config file at path changes.
// The callback should reload configuration and swap it atomically; this
// function only wires the file watcher.
func WatchConfigFile(path string, callback func()) error {
	f := file.Provider(path)
	return f.Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
