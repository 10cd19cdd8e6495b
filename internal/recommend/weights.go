// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package recommend

import (
	"fmt"

	"github.com/areyes-dev/lodestar/internal/models"
)

// SignalWeights is the single policy object for every signal-to-number
// mapping in the engine: interaction confidence for the factorization,
// popularity scoring for the cold-start fallback, and the adaptive blend
// tiers. Keeping them in one place prevents the confidence scheme and the
// popularity scheme from drifting apart.
type SignalWeights struct {
	// Confidence weights, summed per interaction event.
	Click       float64
	Accept      float64
	RatingScale float64
	Recommended float64

	// Popularity weights for the cold-start fallback ranking.
	PopularityAccept float64
	PopularityClick  float64
	PopularityServe  float64

	// Tiers is the adaptive blend table, ordered by ascending
	// MinInteractions starting at 0.
	Tiers []BlendTier
}

// BlendTier maps an interaction-count band to base blend weights.
// A tier applies to every count >= MinInteractions up to the next tier.
type BlendTier struct {
	MinInteractions int
	Content         float64
	Collaborative   float64
	Description     string
}

// DefaultSignalWeights returns the production weighting scheme.
func DefaultSignalWeights() *SignalWeights {
	return &SignalWeights{
		Click:       1.0,
		Accept:      3.0,
		RatingScale: 2.0,
		Recommended: 0.1,

		PopularityAccept: 3.0,
		PopularityClick:  1.0,
		PopularityServe:  0.1,

		Tiers: []BlendTier{
			{
				MinInteractions: 0,
				Content:         0.8,
				Collaborative:   0.2,
				Description:     "New user - relying primarily on interests and grades",
			},
			{
				MinInteractions: 3,
				Content:         0.6,
				Collaborative:   0.4,
				Description:     "Growing profile - balancing interests with behavioral patterns",
			},
			{
				MinInteractions: 11,
				Content:         0.4,
				Collaborative:   0.6,
				Description:     "Established user - emphasizing collaborative signals from similar students",
			},
		},
	}
}

// Validate checks the policy for values the engine cannot run with.
func (w *SignalWeights) Validate() error {
	if len(w.Tiers) == 0 {
		return fmt.Errorf("at least one blend tier is required")
	}
	if w.Tiers[0].MinInteractions != 0 {
		return fmt.Errorf("first blend tier must start at 0 interactions, got %d", w.Tiers[0].MinInteractions)
	}
	for i, tier := range w.Tiers {
		if i > 0 && tier.MinInteractions <= w.Tiers[i-1].MinInteractions {
			return fmt.Errorf("blend tiers must have strictly ascending min_interactions, got %d after %d",
				tier.MinInteractions, w.Tiers[i-1].MinInteractions)
		}
		if tier.Content < 0 || tier.Collaborative < 0 {
			return fmt.Errorf("blend tier %d has negative weights", i)
		}
		if tier.Content+tier.Collaborative == 0 {
			return fmt.Errorf("blend tier %d has zero total weight", i)
		}
	}
	return nil
}

// Confidence returns the confidence contribution of one interaction
// event. Signals are additive; an event carrying no signal at all still
// contributes the base recommended weight.
func (w *SignalWeights) Confidence(inter *models.Interaction) float64 {
	var c float64
	if inter.Clicked {
		c += w.Click
	}
	if inter.Accepted {
		c += w.Accept
	}
	if inter.Rating != nil {
		c += (float64(*inter.Rating) / 5.0) * w.RatingScale
	}
	if c == 0 {
		c = w.Recommended
	}
	return c
}

// Popularity returns the cold-start popularity score for a program given
// its aggregate accept, click, and served counts.
func (w *SignalWeights) Popularity(accepts, clicks, served int) float64 {
	return w.PopularityAccept*float64(accepts) +
		w.PopularityClick*float64(clicks) +
		w.PopularityServe*float64(served)
}

// TierFor returns the blend tier applying to the given interaction count.
func (w *SignalWeights) TierFor(interactions int) BlendTier {
	tier := w.Tiers[0]
	for _, t := range w.Tiers[1:] {
		if interactions >= t.MinInteractions {
			tier = t
		}
	}
	return tier
}

// AdjustFor applies the per-program weight adjustment to a tier's base
// weights and returns the final (content, collaborative) pair, clamped to
// [0,1] and renormalized to sum to exactly 1.
//
// An unavailable collaborative score forces (1, 0). A collaborative score
// below 0.1 shifts 0.2 toward content; a collaborative score above 0.8
// paired with a content score below 0.3 shifts 0.1 away from content.
func (w *SignalWeights) AdjustFor(tier BlendTier, contentScore, collaborativeScore float64, collaborativeAvailable bool) (float64, float64) {
	if !collaborativeAvailable {
		return 1.0, 0.0
	}

	cw, fw := tier.Content, tier.Collaborative
	switch {
	case collaborativeScore < 0.1:
		cw += 0.2
	case collaborativeScore > 0.8 && contentScore < 0.3:
		cw -= 0.1
	}

	cw = clamp01(cw)
	fw = clamp01(fw)

	total := cw + fw
	if total == 0 {
		return 1.0, 0.0
	}
	return cw / total, fw / total
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
