// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package recommend

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/areyes-dev/lodestar/internal/models"
)

// Explainer assembles natural-language explanations for served
// recommendations. Clauses are built independently from the signals that
// are actually present and joined into one sentence in a fixed order:
// interest overlap, high-grade subjects, social proof, acceptance rate,
// skills. Explain never returns empty text.
type Explainer struct {
	// HighGradeThreshold is the minimum grade for a subject to qualify as
	// high-performing.
	HighGradeThreshold float64
}

// NewExplainer creates an explainer with the given grade threshold.
func NewExplainer(highGradeThreshold float64) *Explainer {
	return &Explainer{HighGradeThreshold: highGradeThreshold}
}

// ExplainInput carries the per-recommendation signals the explainer draws
// clauses from. SimilarAccepted is the number of other students with an
// overlapping profile who accepted the program; AcceptanceRate is the
// program's accepts divided by its total served count.
type ExplainInput struct {
	Student *models.Student
	Program *models.Program

	ContentScore       float64
	CollaborativeScore float64

	// CollaborativeUsed reports whether the collaborative signal
	// participated in the final score. Social proof is only claimed when
	// it did.
	CollaborativeUsed bool

	SimilarAccepted int
	AcceptanceRate  float64
}

// Explain builds the explanation sentence for one recommendation.
func (e *Explainer) Explain(in ExplainInput) string {
	var parts []string

	matching := matchInterests(in.Student.Interests, in.Program)
	switch {
	case len(matching) == 1:
		parts = append(parts, fmt.Sprintf("This program aligns with your interest in %s", matching[0]))
	case len(matching) == 2:
		parts = append(parts, fmt.Sprintf("This program matches your interests in %s and %s", matching[0], matching[1]))
	case len(matching) > 2:
		parts = append(parts, fmt.Sprintf("This program strongly aligns with your interests in %s, and more",
			strings.Join(matching[:2], ", ")))
	}

	subjects := e.matchHighGradeSubjects(in.Student.Grades, in.Program)
	switch {
	case len(subjects) == 1:
		parts = append(parts, fmt.Sprintf("your excellent performance in %s suggests you'll excel here", subjects[0]))
	case len(subjects) > 1:
		parts = append(parts, fmt.Sprintf("your strong grades in %s indicate great potential for success",
			strings.Join(subjects[:2], " and ")))
	}

	if in.CollaborativeUsed && in.CollaborativeScore > 0.3 && in.SimilarAccepted > 0 {
		switch {
		case in.SimilarAccepted == 1:
			parts = append(parts, "a student with similar interests found this program valuable")
		case in.SimilarAccepted < 5:
			parts = append(parts, fmt.Sprintf("%d students with similar profiles were interested in this program",
				in.SimilarAccepted))
		default:
			parts = append(parts, fmt.Sprintf("this program is popular among students with similar backgrounds (%d+ accepted)",
				in.SimilarAccepted))
		}
	}

	if in.AcceptanceRate > 0.5 {
		parts = append(parts, "it has a high satisfaction rate among recommended students")
	}

	if len(in.Program.Skills) > 0 {
		parts = append(parts, fmt.Sprintf("you'll develop valuable skills including %s",
			strings.Join(firstN(in.Program.Skills, 3), ", ")))
	}

	if len(parts) == 0 {
		parts = append(parts, "This program matches your academic profile")
	}

	return joinClauses(parts)
}

// ExplainShort builds a one-clause explanation for compact surfaces.
func (e *Explainer) ExplainShort(in ExplainInput) string {
	matching := matchInterests(in.Student.Interests, in.Program)
	switch {
	case len(matching) == 1:
		return fmt.Sprintf("Matches your interest in %s", matching[0])
	case len(matching) > 1:
		return fmt.Sprintf("Aligns with your interests in %s", strings.Join(matching[:2], ", "))
	case in.ContentScore > 0.5:
		return "Strong match with your academic profile"
	default:
		return "Recommended based on your preferences"
	}
}

// matchInterests returns the student's interests that overlap the
// program's tags or skills, in the student's own order and casing. A
// match is substring containment in either direction, case-insensitive.
func matchInterests(interests []string, program *models.Program) []string {
	terms := programTermSet(program)

	var matching []string
	for _, interest := range interests {
		lower := strings.ToLower(interest)
		for term := range terms {
			if strings.Contains(term, lower) || strings.Contains(lower, term) {
				if !containsString(matching, interest) {
					matching = append(matching, interest)
				}
				break
			}
		}
	}
	return matching
}

// matchHighGradeSubjects returns the subjects at or above the threshold
// that overlap the program's tags or skills, sorted by subject name for
// stable clause text.
func (e *Explainer) matchHighGradeSubjects(grades map[string]float64, program *models.Program) []string {
	var high []string
	for subject, grade := range grades {
		if grade >= e.HighGradeThreshold {
			high = append(high, subject)
		}
	}
	sort.Strings(high)

	terms := programTermSet(program)

	var relevant []string
	for _, subject := range high {
		lower := strings.ToLower(subject)
		for term := range terms {
			if strings.Contains(term, lower) || strings.Contains(lower, term) {
				if !containsString(relevant, subject) {
					relevant = append(relevant, subject)
				}
				break
			}
		}
	}
	return relevant
}

// programTermSet returns the lowercased union of a program's tags and
// skills.
func programTermSet(program *models.Program) map[string]struct{} {
	terms := make(map[string]struct{}, len(program.Tags)+len(program.Skills))
	for _, t := range program.Tags {
		terms[strings.ToLower(t)] = struct{}{}
	}
	for _, s := range program.Skills {
		terms[strings.ToLower(s)] = struct{}{}
	}
	return terms
}

// joinClauses merges clause fragments into one sentence. The first clause
// is capitalized, middles are comma-separated, and the final clause is
// attached with ", and".
func joinClauses(parts []string) string {
	if len(parts) == 1 {
		return capitalizeFirst(parts[0]) + "."
	}

	main := parts[:len(parts)-1]
	last := parts[len(parts)-1]

	if len(main) == 1 {
		return capitalizeFirst(main[0]) + ", and " + last + "."
	}

	combined := capitalizeFirst(main[0]) + ", " + strings.Join(main[1:], ", ")
	return combined + ", and " + last + "."
}

// capitalizeFirst uppercases the first rune, leaving the rest untouched
// so proper nouns inside the clause keep their casing.
func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func firstN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

func containsString(items []string, s string) bool {
	for _, item := range items {
		if item == s {
			return true
		}
	}
	return false
}
