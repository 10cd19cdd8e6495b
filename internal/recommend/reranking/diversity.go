// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package reranking

import (
	"context"
	"strings"

	"github.com/areyes-dev/lodestar/internal/models"
	"github.com/areyes-dev/lodestar/internal/recommend"
)

// DiversityReranker greedily re-picks a scored candidate list so that
// redundant programs pay a penalty proportional to how much of their
// tag/skill vocabulary is already represented.
//
// Each round picks the remaining candidate maximizing
//
//	score * (1 - overlapRatio * weight)
//
// where overlapRatio is the fraction of the candidate's tags+skills
// already present in the union of the picks so far (0 for the first
// pick). The adjusted score becomes the candidate's served score, so
// re-ranking can lower a score but never raise one, and earlier picks
// are never revisited. Ties keep the incoming order, which makes the
// result deterministic for a sorted input.
type DiversityReranker struct {
	weight float64
}

// NewDiversityReranker creates a reranker with the given overlap penalty
// weight. Values outside (0, 1] fall back to 0.1.
func NewDiversityReranker(weight float64) *DiversityReranker {
	if weight <= 0 || weight > 1 {
		weight = 0.1
	}
	return &DiversityReranker{weight: weight}
}

// Rerank selects topK candidates by greedy marginal relevance. When topK
// covers the whole candidate set there is nothing to trade off and the
// input is returned unchanged.
func (r *DiversityReranker) Rerank(_ context.Context, candidates []recommend.ScoredRecommendation, topK int) []recommend.ScoredRecommendation {
	if topK <= 0 || len(candidates) == 0 {
		return nil
	}
	if topK >= len(candidates) {
		return candidates
	}

	type entry struct {
		rec   recommend.ScoredRecommendation
		terms map[string]struct{}
	}
	remaining := make([]entry, len(candidates))
	for i := range candidates {
		remaining[i] = entry{
			rec:   candidates[i],
			terms: collectTerms(&candidates[i].Program),
		}
	}

	selected := make([]recommend.ScoredRecommendation, 0, topK)
	selectedTerms := make(map[string]struct{})

	for len(selected) < topK && len(remaining) > 0 {
		bestIdx := -1
		var bestScore float64

		for i := range remaining {
			adjusted := remaining[i].rec.Score * (1 - overlapRatio(remaining[i].terms, selectedTerms)*r.weight)
			if bestIdx == -1 || adjusted > bestScore {
				bestIdx = i
				bestScore = adjusted
			}
		}

		pick := remaining[bestIdx].rec
		pick.Score = bestScore
		selected = append(selected, pick)

		for term := range remaining[bestIdx].terms {
			selectedTerms[term] = struct{}{}
		}
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return selected
}

// overlapRatio is the fraction of terms already covered by the selected
// union. Candidates without any terms are treated as fully novel.
func overlapRatio(terms, selectedTerms map[string]struct{}) float64 {
	if len(terms) == 0 || len(selectedTerms) == 0 {
		return 0
	}
	overlap := 0
	for term := range terms {
		if _, ok := selectedTerms[term]; ok {
			overlap++
		}
	}
	return float64(overlap) / float64(len(terms))
}

func collectTerms(program *models.Program) map[string]struct{} {
	terms := make(map[string]struct{}, len(program.Tags)+len(program.Skills))
	for _, t := range program.Tags {
		terms[strings.ToLower(t)] = struct{}{}
	}
	for _, s := range program.Skills {
		terms[strings.ToLower(s)] = struct{}{}
	}
	return terms
}

var _ recommend.Reranker = (*DiversityReranker)(nil)
