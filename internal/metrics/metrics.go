// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	DBConnectionPoolSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "duckdb_connection_pool_size",
			Help: "Current number of database connections in use",
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Recommendation Serving Metrics
	RecommendationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_requests_total",
			Help: "Total recommendation requests by serving strategy",
		},
		[]string{"strategy"}, // "cold_start", "hybrid"
	)

	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommend_duration_seconds",
			Help:    "End-to-end recommendation serving duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"strategy"},
	)

	RecommendationItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_items_total",
			Help: "Total recommendation items served by per-item algorithm tag",
		},
		[]string{"algorithm"}, // "cold_start", "content", "hybrid", "collaborative"
	)

	RecommendationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_errors_total",
			Help: "Total recommendation serving failures",
		},
		[]string{"reason"},
	)

	ColdStartSource = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_cold_start_source_total",
			Help: "Cold-start recommendations by candidate source",
		},
		[]string{"source"}, // "interest_match", "popularity", "generic"
	)

	SimilarRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommend_similar_requests_total",
			Help: "Total similar-program lookups",
		},
	)

	// Training Metrics
	TrainingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "training_runs_total",
			Help: "Total model training runs by trigger and outcome",
		},
		[]string{"trigger", "outcome"}, // trigger: "startup", "scheduled", "manual", "feedback"; outcome: "success", "skipped", "error"
	)

	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "training_duration_seconds",
			Help:    "Model training duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
	)

	TrainingLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "training_last_success_timestamp_seconds",
			Help: "Unix timestamp of the last successful training run",
		},
	)

	ModelVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "training_model_version",
			Help: "Monotonic version of the currently served model snapshot",
		},
	)

	ModelUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "training_model_users",
			Help: "Distinct students in the current collaborative model",
		},
	)

	ModelItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "training_model_items",
			Help: "Distinct programs in the current collaborative model",
		},
	)

	ModelInteractions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "training_model_interactions",
			Help: "Interaction rows used to train the current model",
		},
	)

	ModelFactors = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "training_model_factors",
			Help: "Effective latent factor count of the current model",
		},
	)

	// Feedback Metrics
	FeedbackEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedback_events_total",
			Help: "Total feedback events recorded by signal kind",
		},
		[]string{"kind"}, // "clicked", "accepted", "rated", "bare"
	)

	FeedbackRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedback_rejected_total",
			Help: "Total feedback submissions rejected before persistence",
		},
		[]string{"reason"},
	)

	// Journal Metrics
	JournalWrites = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "journal_writes_total",
			Help: "Total entries written to the feedback journal",
		},
	)

	JournalWriteErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "journal_write_errors_total",
			Help: "Total journal write failures",
		},
	)

	JournalReplays = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "journal_replays_total",
			Help: "Total journal replay attempts by outcome",
		},
		[]string{"outcome"}, // "success", "retry", "parked"
	)

	JournalPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "journal_pending_entries",
			Help: "Journal entries not yet confirmed into the database",
		},
	)

	// Event Bus Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total events published to the in-process bus",
		},
		[]string{"topic"},
	)

	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_consumed_total",
			Help: "Total events consumed from the in-process bus",
		},
		[]string{"topic"},
	)

	// Ingest Metrics
	IngestRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_rows_total",
			Help: "Total CSV rows processed by entity and outcome",
		},
		[]string{"entity", "outcome"}, // entity: "programs", "students"; outcome: "inserted", "skipped", "invalid"
	)

	IngestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ingest_duration_seconds",
			Help:    "CSV ingestion duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
		[]string{"entity"},
	)
)

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		// Truncate long error messages
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRecommendation records a served recommendation list
func RecordRecommendation(strategy string, algorithms []string, duration time.Duration) {
	RecommendationRequests.WithLabelValues(strategy).Inc()
	RecommendationDuration.WithLabelValues(strategy).Observe(duration.Seconds())
	for _, algo := range algorithms {
		RecommendationItems.WithLabelValues(algo).Inc()
	}
}

// RecordRecommendationError records a recommendation serving failure
func RecordRecommendationError(reason string) {
	RecommendationErrors.WithLabelValues(reason).Inc()
}

// RecordColdStartSource records which candidate source produced a
// cold-start item
func RecordColdStartSource(source string) {
	ColdStartSource.WithLabelValues(source).Inc()
}

// RecordTrainingRun records a completed training attempt. Skipped runs
// (insufficient data) are not errors; pass skipped=true with err=nil.
func RecordTrainingRun(trigger string, duration time.Duration, skipped bool, err error) {
	outcome := "success"
	switch {
	case err != nil:
		outcome = "error"
	case skipped:
		outcome = "skipped"
	default:
		TrainingLastSuccess.Set(float64(time.Now().Unix()))
	}
	TrainingRuns.WithLabelValues(trigger, outcome).Inc()
	TrainingDuration.Observe(duration.Seconds())
}

// SetModelStats publishes the shape of the currently served model snapshot
func SetModelStats(version int64, users, items, interactions, factors int) {
	ModelVersion.Set(float64(version))
	ModelUsers.Set(float64(users))
	ModelItems.Set(float64(items))
	ModelInteractions.Set(float64(interactions))
	ModelFactors.Set(float64(factors))
}

// RecordFeedback records an accepted feedback event by its strongest signal
func RecordFeedback(kind string) {
	FeedbackEvents.WithLabelValues(kind).Inc()
}

// RecordFeedbackRejected records a feedback submission rejected before
// persistence
func RecordFeedbackRejected(reason string) {
	FeedbackRejected.WithLabelValues(reason).Inc()
}

// RecordJournalWrite records a journal append
func RecordJournalWrite(err error) {
	if err != nil {
		JournalWriteErrors.Inc()
		return
	}
	JournalWrites.Inc()
}

// RecordJournalReplay records a replay attempt outcome
func RecordJournalReplay(outcome string) {
	JournalReplays.WithLabelValues(outcome).Inc()
}

// SetJournalPending publishes the current journal backlog size
func SetJournalPending(n int) {
	JournalPending.Set(float64(n))
}

// RecordEventPublished records a bus publish
func RecordEventPublished(topic string) {
	EventsPublished.WithLabelValues(topic).Inc()
}

// RecordEventConsumed records a bus consume
func RecordEventConsumed(topic string) {
	EventsConsumed.WithLabelValues(topic).Inc()
}

// RecordIngest records a finished CSV ingestion pass for one entity
func RecordIngest(entity string, inserted, skipped, invalid int, duration time.Duration) {
	IngestRows.WithLabelValues(entity, "inserted").Add(float64(inserted))
	IngestRows.WithLabelValues(entity, "skipped").Add(float64(skipped))
	IngestRows.WithLabelValues(entity, "invalid").Add(float64(invalid))
	IngestDuration.WithLabelValues(entity).Observe(duration.Seconds())
}
