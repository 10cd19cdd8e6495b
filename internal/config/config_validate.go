// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateDatabase(); err != nil {
		return err
	}

	if err := c.validateAPI(); err != nil {
		return err
	}

	if err := c.validateRecommend(); err != nil {
		return err
	}

	if err := c.validateJournal(); err != nil {
		return err
	}

	if err := c.validateIngest(); err != nil {
		return err
	}

	if err := c.validateEvents(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validateServer validates HTTP server settings
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("SERVER_TIMEOUT must be positive, got %s", c.Server.Timeout)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("SERVER_SHUTDOWN_TIMEOUT must be positive, got %s", c.Server.ShutdownTimeout)
	}

	switch c.Server.Environment {
	case "development", "staging", "production":
		return nil
	default:
		return fmt.Errorf("ENVIRONMENT must be development, staging, or production, got %q", c.Server.Environment)
	}
}

// validateDatabase validates DuckDB settings
func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH must not be empty")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must be >= 0, got %d", c.Database.Threads)
	}
	return nil
}

// validateAPI validates pagination, rate limiting, and CORS settings
func (c *Config) validateAPI() error {
	if c.API.DefaultPageSize < 1 {
		return fmt.Errorf("API_DEFAULT_PAGE_SIZE must be >= 1, got %d", c.API.DefaultPageSize)
	}
	if c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("API_MAX_PAGE_SIZE (%d) must be >= API_DEFAULT_PAGE_SIZE (%d)",
			c.API.MaxPageSize, c.API.DefaultPageSize)
	}
	if !c.API.RateLimitDisabled {
		if c.API.RateLimitReqs < 1 {
			return fmt.Errorf("RATE_LIMIT_REQS must be >= 1, got %d", c.API.RateLimitReqs)
		}
		if c.API.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", c.API.RateLimitWindow)
		}
	}
	return c.validateCORSOrigins()
}

// validateCORSOrigins checks each configured origin is "*" or a valid
// http/https URL without a path
func (c *Config) validateCORSOrigins() error {
	for _, origin := range c.API.CORSOrigins {
		if origin == "*" {
			continue
		}
		u, err := url.Parse(origin)
		if err != nil {
			return fmt.Errorf("CORS_ORIGINS entry %q is not a valid URL: %w", origin, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("CORS_ORIGINS entry %q must use http or https", origin)
		}
		if u.Host == "" {
			return fmt.Errorf("CORS_ORIGINS entry %q is missing a host", origin)
		}
		if u.Path != "" && u.Path != "/" {
			return fmt.Errorf("CORS_ORIGINS entry %q must not include a path", origin)
		}
	}
	return nil
}

// validateRecommend validates recommendation engine tuning
func (c *Config) validateRecommend() error {
	r := c.Recommend

	if r.DefaultTopK < 1 {
		return fmt.Errorf("RECOMMEND_DEFAULT_TOP_K must be >= 1, got %d", r.DefaultTopK)
	}
	if r.MaxTopK < r.DefaultTopK {
		return fmt.Errorf("RECOMMEND_MAX_TOP_K (%d) must be >= RECOMMEND_DEFAULT_TOP_K (%d)",
			r.MaxTopK, r.DefaultTopK)
	}
	if r.TrainInterval <= 0 {
		return fmt.Errorf("RECOMMEND_TRAIN_INTERVAL must be positive, got %s", r.TrainInterval)
	}
	if r.TrainDebounce < 0 {
		return fmt.Errorf("RECOMMEND_TRAIN_DEBOUNCE must be >= 0, got %s", r.TrainDebounce)
	}
	if r.ModelPath == "" {
		return fmt.Errorf("RECOMMEND_MODEL_PATH must not be empty")
	}

	if err := c.validateContent(); err != nil {
		return err
	}
	if err := c.validateALS(); err != nil {
		return err
	}
	return c.validateDiversity()
}

// validateContent validates TF-IDF content scorer settings
func (c *Config) validateContent() error {
	ct := c.Recommend.Content

	if ct.MaxFeatures < 1 {
		return fmt.Errorf("RECOMMEND_MAX_FEATURES must be >= 1, got %d", ct.MaxFeatures)
	}
	if ct.HighGradeThreshold < 0 || ct.HighGradeThreshold > 100 {
		return fmt.Errorf("RECOMMEND_HIGH_GRADE_THRESHOLD must be between 0 and 100, got %g", ct.HighGradeThreshold)
	}
	if ct.InterestRepeat < 1 {
		return fmt.Errorf("RECOMMEND_INTEREST_REPEAT must be >= 1, got %d", ct.InterestRepeat)
	}
	if ct.SubjectRepeat < 1 {
		return fmt.Errorf("RECOMMEND_SUBJECT_REPEAT must be >= 1, got %d", ct.SubjectRepeat)
	}
	return nil
}

// validateALS validates collaborative filtering settings
func (c *Config) validateALS() error {
	als := c.Recommend.ALS

	if als.Factors < 1 {
		return fmt.Errorf("RECOMMEND_ALS_FACTORS must be >= 1, got %d", als.Factors)
	}
	if als.Iterations < 1 {
		return fmt.Errorf("RECOMMEND_ALS_ITERATIONS must be >= 1, got %d", als.Iterations)
	}
	if als.Regularization <= 0 {
		return fmt.Errorf("RECOMMEND_ALS_REGULARIZATION must be positive, got %g", als.Regularization)
	}
	if als.Workers < 0 {
		return fmt.Errorf("RECOMMEND_ALS_WORKERS must be >= 0, got %d", als.Workers)
	}
	return nil
}

// validateDiversity validates diversity re-ranking settings
func (c *Config) validateDiversity() error {
	d := c.Recommend.Diversity

	if d.Weight < 0 || d.Weight > 1 {
		return fmt.Errorf("RECOMMEND_DIVERSITY_WEIGHT must be between 0 and 1, got %g", d.Weight)
	}
	return nil
}

// validateJournal validates feedback journal settings
func (c *Config) validateJournal() error {
	if c.Journal.Path == "" {
		return fmt.Errorf("JOURNAL_PATH must not be empty")
	}
	if c.Journal.RetryInterval <= 0 {
		return fmt.Errorf("JOURNAL_RETRY_INTERVAL must be positive, got %s", c.Journal.RetryInterval)
	}
	if c.Journal.MaxRetries < 1 {
		return fmt.Errorf("JOURNAL_MAX_RETRIES must be >= 1, got %d", c.Journal.MaxRetries)
	}
	if c.Journal.GCInterval <= 0 {
		return fmt.Errorf("JOURNAL_GC_INTERVAL must be positive, got %s", c.Journal.GCInterval)
	}
	return nil
}

// validateIngest validates CSV ingestion settings (only if enabled)
func (c *Config) validateIngest() error {
	if !c.Ingest.Enabled {
		return nil
	}

	if c.Ingest.ProgramsPath == "" && c.Ingest.StudentsPath == "" && c.Ingest.InteractionsPath == "" {
		return fmt.Errorf("at least one of INGEST_PROGRAMS_PATH, INGEST_STUDENTS_PATH, INGEST_INTERACTIONS_PATH is required when INGEST_ENABLED=true")
	}
	if p := c.Ingest.ProgramsPath; p != "" && !strings.HasSuffix(strings.ToLower(p), ".csv") {
		return fmt.Errorf("INGEST_PROGRAMS_PATH must point to a .csv file, got %q", p)
	}
	if p := c.Ingest.StudentsPath; p != "" && !strings.HasSuffix(strings.ToLower(p), ".csv") {
		return fmt.Errorf("INGEST_STUDENTS_PATH must point to a .csv file, got %q", p)
	}
	if p := c.Ingest.InteractionsPath; p != "" && !strings.HasSuffix(strings.ToLower(p), ".csv") {
		return fmt.Errorf("INGEST_INTERACTIONS_PATH must point to a .csv file, got %q", p)
	}
	if c.Ingest.BatchSize < 1 {
		return fmt.Errorf("INGEST_BATCH_SIZE must be >= 1, got %d", c.Ingest.BatchSize)
	}
	return nil
}

// validateEvents validates event bus settings
func (c *Config) validateEvents() error {
	if c.Events.BufferSize < 0 {
		return fmt.Errorf("EVENTS_BUFFER_SIZE must be >= 0, got %d", c.Events.BufferSize)
	}
	return nil
}

// validateLogging validates logging settings
func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, got %q", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
}
