// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

/*
Package config provides centralized configuration management for Lodestar.

This package handles loading, validation, and parsing of configuration for
all application components. It ensures consistent configuration across the
backend services and provides sensible defaults for optional settings.

# Configuration Sources

Configuration is loaded in three layers, with later layers overriding
earlier ones:

 1. Built-in defaults for all settings
 2. Optional YAML config file (config.yaml, or CONFIG_PATH)
 3. Environment variables

# Configuration Structure

The package organizes configuration into logical groups:

  - ServerConfig: HTTP server settings (host, port, timeouts)
  - DatabaseConfig: DuckDB connection and performance tuning
  - APIConfig: Pagination, rate limiting, and CORS
  - RecommendConfig: Recommendation engine tuning (content, ALS, diversity)
  - JournalConfig: Durable feedback journal (BadgerDB)
  - IngestConfig: CSV catalog and roster ingestion
  - EventsConfig: In-process event bus sizing
  - LoggingConfig: Log levels and output formats

# Environment Variables

Common settings and their environment variables:

HTTP Server:
  - HTTP_HOST: Bind address (default: 0.0.0.0)
  - HTTP_PORT: Listen port (default: 8000)
  - SERVER_TIMEOUT: Request timeout (default: 30s)

Database:
  - DUCKDB_PATH: Database file path (default: /data/lodestar.duckdb)
  - DUCKDB_MAX_MEMORY: DuckDB memory limit (default: 2GB)
  - SEED_CATALOG: Seed the sample program catalog on first run (default: true)

Recommendation Engine:
  - RECOMMEND_TRAIN_INTERVAL: Scheduled retrain interval (default: 6h)
  - RECOMMEND_TRAIN_ON_STARTUP: Train models at startup (default: true)
  - RECOMMEND_ALS_FACTORS: ALS latent factor count (default: 50)
  - RECOMMEND_MODEL_PATH: Model snapshot directory (default: /data/models)

Logging:
  - LOG_LEVEL: trace, debug, info, warn, error (default: info)
  - LOG_FORMAT: json, console (default: json)

See koanf.go for the complete environment variable mapping.

# Usage

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal("Failed to load config:", err)
	}
	// cfg.Database.Path, cfg.Recommend.ALS.Factors, etc. are now populated

Config is immutable after Load() and safe for concurrent read access.
*/
package config
