// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

/*
Package middleware provides HTTP middleware components for the application.

This package implements infrastructure middleware for compression, performance
monitoring, request ID tracking, and Prometheus metrics instrumentation. The
api package composes these with its Chi middleware stack (CORS, rate limits,
security headers) into the full request pipeline.

Key Components:

  - Compression: Gzip compression for clients that accept it
  - Performance Monitor: Request latency tracking with percentile calculations
  - Request ID: UUID-based request tracking for log correlation
  - Prometheus Metrics: HTTP request/response instrumentation

Usage Example - Request ID:

	import "github.com/areyes-dev/lodestar/internal/middleware"

	http.HandleFunc("/api/v1/recommendations",
	    middleware.RequestID(handler),
	)

	// Handlers read the ID back for log correlation:
	requestID := middleware.GetRequestID(r.Context())

Usage Example - Performance Monitor:

	pm := middleware.NewPerformanceMonitor(1000)
	router.Use(pm.Middleware)

	// Later, for the analytics surface:
	stats := pm.GetStats() // per-endpoint p50/p95/p99 latencies

All middleware in this package is safe for concurrent use.
*/
package middleware
