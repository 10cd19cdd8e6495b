// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

/*
Package metrics provides Prometheus instrumentation for Lodestar.

All metrics are registered at package load via promauto and exposed on
/metrics by the HTTP server. Helper functions (RecordDBQuery,
RecordRecommendation, RecordTrainingRun, ...) keep label handling in one
place so call sites stay single-line.

Metric families:

  - duckdb_*: database query latency and errors
  - api_*: HTTP request throughput, latency, rate limiting
  - recommend_*: recommendation serving by strategy and algorithm
  - training_*: model training runs, duration, and model shape
  - feedback_*: feedback ingestion by signal kind
  - journal_*: durable feedback journal activity
  - events_*: in-process event bus traffic
  - ingest_*: CSV ingestion volume and duration
*/
package metrics
