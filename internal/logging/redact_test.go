// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package logging

import "testing"

func TestRedactEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"standard address", "maria.lopez@example.edu", "m***@example.edu"},
		{"single char local part", "a@example.edu", "a***@example.edu"},
		{"no at sign", "not-an-email", "***"},
		{"empty string", "", "***"},
		{"leading at sign", "@example.edu", "***"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := RedactEmail(tt.input); got != tt.want {
				t.Errorf("RedactEmail(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		n     int
		want  string
	}{
		{"shorter than limit", "short", 10, "short"},
		{"exactly at limit", "exact", 5, "exact"},
		{"longer than limit", "truncate me please", 8, "truncate..."},
		{"zero limit", "anything", 0, ""},
		{"multibyte runes", "héllo wörld", 5, "héllo..."},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Truncate(tt.input, tt.n); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.n, got, tt.want)
			}
		})
	}
}
