// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

// Package algorithms implements the scoring models behind the
// recommendation engine.
//
//   - ContentBased: TF-IDF similarity between a student's profile
//     (interests and high-grade subjects) and program metadata
//   - ALS: implicit-feedback alternating least squares over confidence
//     weights derived from clicks, accepts, and ratings
//
// Both satisfy the interfaces declared in the recommend package and are
// safe for concurrent scoring after fitting completes. Fitting and
// scoring are deterministic: identical inputs in identical order produce
// identical models and scores.
package algorithms
