// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package recommend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/areyes-dev/lodestar/internal/models"
)

// ColdStart produces recommendations for students with no interaction
// history. The primary strategy ranks programs by exact tag/skill overlap
// with the student's interests; when nothing overlaps (or the student has
// no interests) it falls back to catalog popularity aggregated across all
// students. It never touches the collaborative model or grade logic, and
// all ties break on program id so results are deterministic.
type ColdStart struct {
	weights *SignalWeights
}

// NewColdStart creates a cold-start handler using the shared weighting
// policy for its popularity fallback.
func NewColdStart(weights *SignalWeights) *ColdStart {
	return &ColdStart{weights: weights}
}

// Cold-start sources, reported alongside results for observability.
const (
	ColdStartSourceInterest   = "interest_match"
	ColdStartSourcePopularity = "popularity"
	ColdStartSourceNone       = "none"
)

// Recommend returns up to topK scored programs tagged cold_start, plus
// the source that produced them. Interactions must cover all students;
// they only feed the popularity fallback.
func (c *ColdStart) Recommend(student *models.Student, programs []models.Program, interactions []models.Interaction, topK int) ([]ScoredRecommendation, string) {
	if len(programs) == 0 || topK <= 0 {
		return nil, ColdStartSourceNone
	}

	if len(student.Interests) > 0 {
		if recs := c.byInterestOverlap(student, programs, topK); len(recs) > 0 {
			return recs, ColdStartSourceInterest
		}
	}

	return c.byPopularity(programs, interactions, topK), ColdStartSourcePopularity
}

// byInterestOverlap ranks programs by the number of the student's
// interests appearing verbatim (case-insensitive) among the program's
// tags and skills. Programs with zero overlap are excluded; an empty
// result signals the caller to fall back to popularity.
func (c *ColdStart) byInterestOverlap(student *models.Student, programs []models.Program, topK int) []ScoredRecommendation {
	interests := make(map[string]struct{}, len(student.Interests))
	for _, interest := range student.Interests {
		interests[strings.ToLower(interest)] = struct{}{}
	}

	type overlapEntry struct {
		program models.Program
		overlap int
	}

	var entries []overlapEntry
	for _, program := range programs {
		overlap := 0
		for term := range programTermSet(&program) {
			if _, ok := interests[term]; ok {
				overlap++
			}
		}
		if overlap > 0 {
			entries = append(entries, overlapEntry{program: program, overlap: overlap})
		}
	}
	if len(entries) == 0 {
		return nil
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].overlap != entries[j].overlap {
			return entries[i].overlap > entries[j].overlap
		}
		return entries[i].program.ID < entries[j].program.ID
	})

	if len(entries) > topK {
		entries = entries[:topK]
	}

	recs := make([]ScoredRecommendation, 0, len(entries))
	for i := range entries {
		recs = append(recs, ScoredRecommendation{
			Program:     entries[i].program,
			Score:       clamp01(1.0 - float64(i)*0.1),
			Explanation: c.explainInterestMatch(student, &entries[i].program),
			Algorithm:   AlgorithmColdStart,
		})
	}
	return recs
}

// byPopularity ranks the whole catalog by the shared popularity score.
// With no interactions at all every program scores zero and the ordering
// degenerates to program id.
func (c *ColdStart) byPopularity(programs []models.Program, interactions []models.Interaction, topK int) []ScoredRecommendation {
	type programCounts struct {
		accepts int
		clicks  int
		served  int
	}
	counts := make(map[string]*programCounts, len(programs))
	for _, inter := range interactions {
		pc := counts[inter.ProgramID]
		if pc == nil {
			pc = &programCounts{}
			counts[inter.ProgramID] = pc
		}
		if inter.Accepted {
			pc.accepts++
		}
		if inter.Clicked {
			pc.clicks++
		}
		pc.served++
	}

	type popEntry struct {
		program models.Program
		score   float64
	}
	entries := make([]popEntry, 0, len(programs))
	for _, program := range programs {
		var score float64
		if pc := counts[program.ID]; pc != nil {
			score = c.weights.Popularity(pc.accepts, pc.clicks, pc.served)
		}
		entries = append(entries, popEntry{program: program, score: score})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].score != entries[j].score {
			return entries[i].score > entries[j].score
		}
		return entries[i].program.ID < entries[j].program.ID
	})

	if len(entries) > topK {
		entries = entries[:topK]
	}

	recs := make([]ScoredRecommendation, 0, len(entries))
	for i := range entries {
		recs = append(recs, ScoredRecommendation{
			Program:     entries[i].program,
			Score:       clamp01(0.8 - float64(i)*0.08),
			Explanation: explainPopular(&entries[i].program),
			Algorithm:   AlgorithmColdStart,
		})
	}
	return recs
}

// explainInterestMatch names the interests that drove the pick. Matching
// here is substring containment against tags only, mirroring the looser
// matching used for explanation text elsewhere.
func (c *ColdStart) explainInterestMatch(student *models.Student, program *models.Program) string {
	var matching []string
	for _, interest := range student.Interests {
		lower := strings.ToLower(interest)
		for _, tag := range program.Tags {
			tagLower := strings.ToLower(tag)
			if strings.Contains(tagLower, lower) || strings.Contains(lower, tagLower) {
				if !containsString(matching, interest) {
					matching = append(matching, interest)
				}
				break
			}
		}
	}

	if len(matching) > 0 {
		return fmt.Sprintf("Based on your interests in %s, this program could be a great fit. Many students with similar interests have found success here.",
			strings.Join(firstN(matching, 3), ", "))
	}
	return fmt.Sprintf("This program aligns with your interests and offers skills in %s.",
		strings.Join(firstN(program.Skills, 3), ", "))
}

func explainPopular(program *models.Program) string {
	return fmt.Sprintf("This is a popular program among students. It offers comprehensive training in %s and has high satisfaction ratings.",
		strings.Join(firstN(program.Skills, 3), ", "))
}
