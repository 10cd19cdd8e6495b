// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

/*
Package models defines data structures for the Lodestar application.

This package contains all data models used throughout the application:
database records, API request/response structures, and analytics result
types. It serves as the single source of truth for data structure
definitions shared between the persistence layer and the HTTP API.

Key Components:

  - Student: Registered student with interest tags and subject grades
  - Program: Study program catalog entry with tags, skills, and requirements
  - Interaction: Immutable behavioral event (recommended, clicked, accepted, rated)
  - RecommendationRecord: Persisted log of served recommendations
  - APIResponse: Standardized API response wrapper
  - EngagementMetrics / ProgramPerformance: Analytics result types

The recommendation engine in internal/recommend defines its own value
types; the database layer converts between the two at the persistence
boundary so that engine semantics never depend on storage or wire
representation.
*/
package models
