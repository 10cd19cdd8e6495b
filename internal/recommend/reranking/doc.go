// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

// Package reranking implements post-scoring list adjustments.
//
// DiversityReranker trades a bounded fraction of score for topical
// variety: candidates whose tags and skills are already covered by
// earlier picks are penalized at selection time. The penalty is marginal
// only; once a program is picked, its position and score are final.
package reranking
