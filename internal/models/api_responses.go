// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package models

import (
	"time"
)

// APIResponse represents a standardized API response wrapper used by all HTTP endpoints.
// It provides consistent structure for both successful and error responses, with metadata
// for observability.
//
// Status field values:
//   - "success": Request completed successfully, see Data field
//   - "error": Request failed, see Error field for details
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": {"items": [...]},
//	  "metadata": {
//	    "timestamp": "2026-08-23T12:00:00Z",
//	    "request_id": "7f9c2b8e-...",
//	    "query_time_ms": 12
//	  }
//	}
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "error": {
//	    "code": "STUDENT_NOT_FOUND",
//	    "message": "Student not found",
//	    "details": {"student_id": "..."}
//	  },
//	  "metadata": {"timestamp": "2026-08-23T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability and performance tracking.
//
// Fields:
//   - Timestamp: Server time when response was generated (RFC3339 format)
//   - RequestID: Unique request identifier for log correlation
//   - QueryTimeMS: Server-side processing time in milliseconds
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	RequestID   string    `json:"request_id,omitempty"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError represents an error response with structured error details.
// Provides consistent error format across all API endpoints.
//
// Common error codes:
//   - VALIDATION_ERROR: Invalid input parameters
//   - STUDENT_NOT_FOUND / PROGRAM_NOT_FOUND: Referenced entity doesn't exist
//   - DUPLICATE_EMAIL: Student email already registered
//   - MODEL_NOT_TRAINED: Collaborative model has no trained factors yet
//   - TRAINING_IN_PROGRESS: A training run is already underway
//   - DATABASE_ERROR: Query execution failure
//   - RATE_LIMIT_EXCEEDED: Too many requests
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
