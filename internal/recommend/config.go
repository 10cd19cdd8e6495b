// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package recommend

import "fmt"

// Config contains the engine tuning knobs. The zero value is not usable;
// start from DefaultConfig.
type Config struct {
	// DefaultTopK is the number of recommendations returned when the
	// request does not specify one.
	DefaultTopK int

	// MaxTopK caps the per-request top_k.
	MaxTopK int

	Content   ContentConfig
	ALS       ALSConfig
	Diversity DiversityConfig
}

// ContentConfig tunes the TF-IDF content scorer.
type ContentConfig struct {
	// MaxFeatures caps the vocabulary at the N most frequent terms across
	// the program corpus.
	MaxFeatures int

	// HighGradeThreshold is the minimum grade for a subject to join the
	// student profile document.
	HighGradeThreshold float64

	// InterestRepeat and SubjectRepeat control how often interests and
	// high-grade subjects are repeated in the profile document, weighting
	// them against each other in term frequency.
	InterestRepeat int
	SubjectRepeat  int
}

// ALSConfig tunes the collaborative factorization.
type ALSConfig struct {
	// Factors is the requested latent dimensionality. The effective value
	// is lowered to min(#students, #programs) when the data is smaller.
	Factors int

	// Iterations is the number of alternating optimization rounds.
	Iterations int

	// Regularization is the L2 penalty added to the normal-equation
	// diagonal. Must be positive; it also guarantees the system stays
	// invertible.
	Regularization float64

	// Workers bounds the parallelism of factor updates. Values <= 0
	// select a small default.
	Workers int
}

// DiversityConfig tunes the greedy diversity re-ranking.
type DiversityConfig struct {
	// Enabled sets the default when a request does not ask explicitly.
	Enabled bool

	// Weight scales the overlap penalty: candidates are picked by
	// score * (1 - overlap_ratio * Weight).
	Weight float64
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		DefaultTopK: 5,
		MaxTopK:     50,
		Content: ContentConfig{
			MaxFeatures:        500,
			HighGradeThreshold: 80,
			InterestRepeat:     3,
			SubjectRepeat:      2,
		},
		ALS: ALSConfig{
			Factors:        50,
			Iterations:     15,
			Regularization: 0.1,
			Workers:        4,
		},
		Diversity: DiversityConfig{
			Enabled: true,
			Weight:  0.1,
		},
	}
}

// Validate checks the configuration for values the engine cannot run with.
func (c Config) Validate() error {
	if c.DefaultTopK < 1 {
		return fmt.Errorf("default top_k must be >= 1, got %d", c.DefaultTopK)
	}
	if c.MaxTopK < c.DefaultTopK {
		return fmt.Errorf("max top_k %d must be >= default top_k %d", c.MaxTopK, c.DefaultTopK)
	}
	if c.Content.MaxFeatures < 1 {
		return fmt.Errorf("content max_features must be >= 1, got %d", c.Content.MaxFeatures)
	}
	if c.Content.HighGradeThreshold < 0 || c.Content.HighGradeThreshold > 100 {
		return fmt.Errorf("high grade threshold must be in [0,100], got %v", c.Content.HighGradeThreshold)
	}
	if c.Content.InterestRepeat < 1 || c.Content.SubjectRepeat < 1 {
		return fmt.Errorf("profile repeat counts must be >= 1, got interest=%d subject=%d",
			c.Content.InterestRepeat, c.Content.SubjectRepeat)
	}
	if c.ALS.Factors < 1 {
		return fmt.Errorf("als factors must be >= 1, got %d", c.ALS.Factors)
	}
	if c.ALS.Iterations < 1 {
		return fmt.Errorf("als iterations must be >= 1, got %d", c.ALS.Iterations)
	}
	if c.ALS.Regularization <= 0 {
		return fmt.Errorf("als regularization must be > 0, got %v", c.ALS.Regularization)
	}
	if c.Diversity.Weight < 0 || c.Diversity.Weight > 1 {
		return fmt.Errorf("diversity weight must be in [0,1], got %v", c.Diversity.Weight)
	}
	return nil
}
