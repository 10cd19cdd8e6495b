// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package algorithms

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/areyes-dev/lodestar/internal/models"
	"github.com/areyes-dev/lodestar/internal/recommend"
)

// ContentBased scores programs by TF-IDF cosine similarity between a
// student profile document and each program document.
//
// A program document is its description plus tags plus skills; a student
// document is the interest tags plus the names of subjects at or above
// the high-grade threshold, with interests repeated more often than
// subjects to weight them higher. Documents are built from sorted,
// deduplicated term sets so scores are invariant under any permutation of
// interests, tags, or skills.
type ContentBased struct {
	BaseAlgorithm
	cfg recommend.ContentConfig

	vocabulary map[string]int
	idf        []float64
	vectors    map[string][]float64
}

// NewContentBased creates a content scorer. Zero config values fall back
// to the engine defaults.
func NewContentBased(cfg recommend.ContentConfig) *ContentBased {
	if cfg.MaxFeatures <= 0 {
		cfg.MaxFeatures = 500
	}
	if cfg.HighGradeThreshold <= 0 {
		cfg.HighGradeThreshold = 80
	}
	if cfg.InterestRepeat <= 0 {
		cfg.InterestRepeat = 3
	}
	if cfg.SubjectRepeat <= 0 {
		cfg.SubjectRepeat = 2
	}

	return &ContentBased{
		BaseAlgorithm: NewBaseAlgorithm("content"),
		cfg:           cfg,
	}
}

// Fit builds the vocabulary, document frequencies, and per-program
// vectors over the given corpus. An empty corpus yields an empty vector
// space; Score then returns zero for every candidate.
func (c *ContentBased) Fit(ctx context.Context, programs []models.Program) error {
	c.acquireTrainLock()
	defer c.releaseTrainLock()

	if ContextCancelled(ctx) {
		return ctx.Err()
	}

	docs := make([][]string, len(programs))
	totalCounts := make(map[string]int)
	docFreq := make(map[string]int)

	for i, program := range programs {
		tokens := tokenize(programDocument(&program))
		docs[i] = tokens

		seen := make(map[string]struct{}, len(tokens))
		for _, term := range tokens {
			totalCounts[term]++
			if _, ok := seen[term]; !ok {
				seen[term] = struct{}{}
				docFreq[term]++
			}
		}
	}

	c.vocabulary = selectVocabulary(totalCounts, c.cfg.MaxFeatures)

	// Smoothed inverse document frequency: idf = ln((1+n)/(1+df)) + 1.
	n := float64(len(programs))
	c.idf = make([]float64, len(c.vocabulary))
	for term, col := range c.vocabulary {
		c.idf[col] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}

	c.vectors = make(map[string][]float64, len(programs))
	for i, program := range programs {
		c.vectors[program.ID] = c.vectorize(docs[i])
	}

	c.markTrained()
	return nil
}

// Score returns the cosine similarity in [0,1] between the student
// profile vector and each candidate program vector. Candidates outside
// the fitted corpus and students with empty profiles score zero.
func (c *ContentBased) Score(ctx context.Context, student *models.Student, candidates []string) (map[string]float64, error) {
	c.acquirePredictLock()
	defer c.releasePredictLock()

	if !c.trained {
		return nil, recommend.ErrModelUnavailable
	}
	if ContextCancelled(ctx) {
		return nil, ctx.Err()
	}

	profile := c.vectorize(tokenize(c.profileDocument(student)))

	scores := make(map[string]float64, len(candidates))
	for _, id := range candidates {
		var score float64
		if vec, ok := c.vectors[id]; ok {
			// Both vectors are L2-normalized, so the dot product is the
			// cosine similarity.
			for col := range profile {
				score += profile[col] * vec[col]
			}
		}
		scores[id] = score
	}
	return scores, nil
}

// Fitted reports whether Fit has completed at least once.
func (c *ContentBased) Fitted() bool {
	return c.Trained()
}

// profileDocument concatenates the student's interests and high-grade
// subject names, each group repeated per the configured weighting.
func (c *ContentBased) profileDocument(student *models.Student) string {
	interests := sortedUnique(student.Interests)

	var subjects []string
	for subject, grade := range student.Grades {
		if grade >= c.cfg.HighGradeThreshold {
			subjects = append(subjects, subject)
		}
	}
	subjects = sortedUnique(subjects)

	var parts []string
	for r := 0; r < c.cfg.InterestRepeat; r++ {
		parts = append(parts, interests...)
	}
	for r := 0; r < c.cfg.SubjectRepeat; r++ {
		parts = append(parts, subjects...)
	}
	return strings.Join(parts, " ")
}

// vectorize builds the L2-normalized TF-IDF vector for one token list.
// Must be called with at least the read lock held.
func (c *ContentBased) vectorize(tokens []string) []float64 {
	vec := make([]float64, len(c.vocabulary))
	for _, term := range tokens {
		if col, ok := c.vocabulary[term]; ok {
			vec[col] += c.idf[col]
		}
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for col := range vec {
			vec[col] /= norm
		}
	}
	return vec
}

// programDocument concatenates the searchable text of one program.
func programDocument(program *models.Program) string {
	parts := make([]string, 0, 3)
	parts = append(parts, program.Description)
	parts = append(parts, strings.Join(sortedUnique(program.Tags), " "))
	parts = append(parts, strings.Join(sortedUnique(program.Skills), " "))
	return strings.Join(parts, " ")
}

// selectVocabulary keeps the maxFeatures most frequent terms, breaking
// count ties alphabetically, and assigns column indexes in sorted term
// order.
func selectVocabulary(totalCounts map[string]int, maxFeatures int) map[string]int {
	type termStat struct {
		term  string
		count int
	}
	stats := make([]termStat, 0, len(totalCounts))
	for term, count := range totalCounts {
		stats = append(stats, termStat{term: term, count: count})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].count != stats[j].count {
			return stats[i].count > stats[j].count
		}
		return stats[i].term < stats[j].term
	})

	if len(stats) > maxFeatures {
		stats = stats[:maxFeatures]
	}

	terms := make([]string, len(stats))
	for i, s := range stats {
		terms[i] = s.term
	}
	sort.Strings(terms)

	vocab := make(map[string]int, len(terms))
	for col, term := range terms {
		vocab[term] = col
	}
	return vocab
}

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// tokenize lowercases text, extracts word tokens of two or more
// characters, drops stopwords, and appends bigrams formed from adjacent
// surviving tokens.
func tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)

	unigrams := make([]string, 0, len(raw))
	for _, tok := range raw {
		if _, stop := englishStopwords[tok]; stop {
			continue
		}
		unigrams = append(unigrams, tok)
	}

	tokens := make([]string, 0, 2*len(unigrams))
	tokens = append(tokens, unigrams...)
	for i := 0; i+1 < len(unigrams); i++ {
		tokens = append(tokens, unigrams[i]+" "+unigrams[i+1])
	}
	return tokens
}

// sortedUnique returns a sorted copy with duplicates removed.
func sortedUnique(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	out := make([]string, len(items))
	copy(out, items)
	sort.Strings(out)

	unique := out[:1]
	for _, item := range out[1:] {
		if item != unique[len(unique)-1] {
			unique = append(unique, item)
		}
	}
	return unique
}
