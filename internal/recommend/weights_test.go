// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package recommend

import (
	"math"
	"testing"

	"github.com/areyes-dev/lodestar/internal/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func intPtr(v int) *int {
	return &v
}

func TestDefaultSignalWeights(t *testing.T) {
	t.Parallel()

	w := DefaultSignalWeights()
	if err := w.Validate(); err != nil {
		t.Fatalf("Validate() error = %v, want nil for defaults", err)
	}
	if len(w.Tiers) != 3 {
		t.Fatalf("len(Tiers) = %d, want 3", len(w.Tiers))
	}
	if w.Tiers[0].MinInteractions != 0 || w.Tiers[1].MinInteractions != 3 || w.Tiers[2].MinInteractions != 11 {
		t.Errorf("tier boundaries = [%d %d %d], want [0 3 11]",
			w.Tiers[0].MinInteractions, w.Tiers[1].MinInteractions, w.Tiers[2].MinInteractions)
	}
}

func TestSignalWeights_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(w *SignalWeights)
		wantErr bool
	}{
		{
			name:   "defaults are valid",
			mutate: func(w *SignalWeights) {},
		},
		{
			name:    "no tiers",
			mutate:  func(w *SignalWeights) { w.Tiers = nil },
			wantErr: true,
		},
		{
			name:    "first tier not at zero",
			mutate:  func(w *SignalWeights) { w.Tiers[0].MinInteractions = 1 },
			wantErr: true,
		},
		{
			name:    "non-ascending tiers",
			mutate:  func(w *SignalWeights) { w.Tiers[2].MinInteractions = 3 },
			wantErr: true,
		},
		{
			name:    "negative weight",
			mutate:  func(w *SignalWeights) { w.Tiers[1].Content = -0.1 },
			wantErr: true,
		},
		{
			name: "zero total weight",
			mutate: func(w *SignalWeights) {
				w.Tiers[1].Content = 0
				w.Tiers[1].Collaborative = 0
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := DefaultSignalWeights()
			tt.mutate(w)
			err := w.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSignalWeights_Confidence(t *testing.T) {
	t.Parallel()

	w := DefaultSignalWeights()

	tests := []struct {
		name  string
		inter models.Interaction
		want  float64
	}{
		{
			name:  "bare recommendation",
			inter: models.Interaction{},
			want:  0.1,
		},
		{
			name:  "clicked",
			inter: models.Interaction{Clicked: true},
			want:  1.0,
		},
		{
			name:  "accepted",
			inter: models.Interaction{Accepted: true},
			want:  3.0,
		},
		{
			name:  "clicked and accepted",
			inter: models.Interaction{Clicked: true, Accepted: true},
			want:  4.0,
		},
		{
			name:  "top rating",
			inter: models.Interaction{Rating: intPtr(5)},
			want:  2.0,
		},
		{
			name:  "middling rating",
			inter: models.Interaction{Rating: intPtr(3)},
			want:  1.2,
		},
		{
			name:  "all signals",
			inter: models.Interaction{Clicked: true, Accepted: true, Rating: intPtr(5)},
			want:  6.0,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := w.Confidence(&tt.inter)
			if !almostEqual(got, tt.want) {
				t.Errorf("Confidence() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSignalWeights_Popularity(t *testing.T) {
	t.Parallel()

	w := DefaultSignalWeights()

	tests := []struct {
		name                    string
		accepts, clicks, served int
		want                    float64
	}{
		{name: "all zero", want: 0},
		{name: "serves only", served: 10, want: 1.0},
		{name: "mixed", accepts: 2, clicks: 3, served: 10, want: 10.0},
		{name: "accepts dominate", accepts: 1, clicks: 2, want: 5.0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := w.Popularity(tt.accepts, tt.clicks, tt.served)
			if !almostEqual(got, tt.want) {
				t.Errorf("Popularity(%d, %d, %d) = %v, want %v", tt.accepts, tt.clicks, tt.served, got, tt.want)
			}
		})
	}
}

func TestSignalWeights_TierFor(t *testing.T) {
	t.Parallel()

	w := DefaultSignalWeights()

	tests := []struct {
		interactions int
		wantContent  float64
	}{
		{interactions: 0, wantContent: 0.8},
		{interactions: 2, wantContent: 0.8},
		{interactions: 3, wantContent: 0.6},
		{interactions: 10, wantContent: 0.6},
		{interactions: 11, wantContent: 0.4},
		{interactions: 100, wantContent: 0.4},
	}

	for _, tt := range tests {
		tier := w.TierFor(tt.interactions)
		if !almostEqual(tier.Content, tt.wantContent) {
			t.Errorf("TierFor(%d).Content = %v, want %v", tt.interactions, tier.Content, tt.wantContent)
		}
		if tier.Description == "" {
			t.Errorf("TierFor(%d).Description is empty", tt.interactions)
		}
	}
}

func TestSignalWeights_AdjustFor(t *testing.T) {
	t.Parallel()

	w := DefaultSignalWeights()

	tests := []struct {
		name          string
		tier          BlendTier
		content       float64
		collaborative float64
		available     bool
		wantContent   float64
		wantCollab    float64
	}{
		{
			name:        "unavailable forces content only",
			tier:        BlendTier{Content: 0.4, Collaborative: 0.6},
			content:     0.9,
			available:   false,
			wantContent: 1.0,
			wantCollab:  0.0,
		},
		{
			name:          "weak collaborative boosts content",
			tier:          BlendTier{Content: 0.6, Collaborative: 0.4},
			content:       0.5,
			collaborative: 0.05,
			available:     true,
			wantContent:   0.8 / 1.2,
			wantCollab:    0.4 / 1.2,
		},
		{
			name:          "strong collaborative with weak content shifts away from content",
			tier:          BlendTier{Content: 0.4, Collaborative: 0.6},
			content:       0.2,
			collaborative: 0.9,
			available:     true,
			wantContent:   0.3 / 0.9,
			wantCollab:    0.6 / 0.9,
		},
		{
			name:          "strong collaborative with strong content stays put",
			tier:          BlendTier{Content: 0.4, Collaborative: 0.6},
			content:       0.5,
			collaborative: 0.9,
			available:     true,
			wantContent:   0.4,
			wantCollab:    0.6,
		},
		{
			name:          "boundary 0.1 takes no boost",
			tier:          BlendTier{Content: 0.6, Collaborative: 0.4},
			content:       0.5,
			collaborative: 0.1,
			available:     true,
			wantContent:   0.6,
			wantCollab:    0.4,
		},
		{
			name:          "boost clamps at one before renormalizing",
			tier:          BlendTier{Content: 0.9, Collaborative: 0.1},
			content:       0.5,
			collaborative: 0.05,
			available:     true,
			wantContent:   1.0 / 1.1,
			wantCollab:    0.1 / 1.1,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cw, fw := w.AdjustFor(tt.tier, tt.content, tt.collaborative, tt.available)
			if !almostEqual(cw, tt.wantContent) {
				t.Errorf("content weight = %v, want %v", cw, tt.wantContent)
			}
			if !almostEqual(fw, tt.wantCollab) {
				t.Errorf("collaborative weight = %v, want %v", fw, tt.wantCollab)
			}
			if !almostEqual(cw+fw, 1.0) {
				t.Errorf("weights sum = %v, want 1.0", cw+fw)
			}
		})
	}
}

// TestSignalWeights_EstablishedUserBoost walks the full tier-plus-adjustment
// path for an established student whose collaborative signal is strong on a
// program it barely matches on content: the effective collaborative weight
// must exceed the base 0.6.
func TestSignalWeights_EstablishedUserBoost(t *testing.T) {
	t.Parallel()

	w := DefaultSignalWeights()

	tier := w.TierFor(12)
	if !almostEqual(tier.Content, 0.4) || !almostEqual(tier.Collaborative, 0.6) {
		t.Fatalf("TierFor(12) = (%v, %v), want (0.4, 0.6)", tier.Content, tier.Collaborative)
	}

	cw, fw := w.AdjustFor(tier, 0.2, 0.9, true)
	if fw <= 0.6 {
		t.Errorf("adjusted collaborative weight = %v, want > 0.6", fw)
	}
	if !almostEqual(cw, 1.0/3.0) || !almostEqual(fw, 2.0/3.0) {
		t.Errorf("adjusted weights = (%v, %v), want (1/3, 2/3)", cw, fw)
	}
	if !almostEqual(cw+fw, 1.0) {
		t.Errorf("weights sum = %v, want 1.0", cw+fw)
	}
}
