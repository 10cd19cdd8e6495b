// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/areyes-dev/lodestar/internal/logging"
	"github.com/areyes-dev/lodestar/internal/metrics"
	"github.com/areyes-dev/lodestar/internal/models"
)

// Engine orchestrates cold-start, content, and collaborative scoring into
// served recommendations. It reads all student, program, and interaction
// data through the DataProvider per request and holds no mutable state
// apart from the trained model set, which is replaced wholesale by an
// atomic pointer swap on retrain.
type Engine struct {
	provider  DataProvider
	cfg       Config
	weights   *SignalWeights
	explainer *Explainer
	coldStart *ColdStart
	reranker  Reranker
	store     ModelStore

	contentFactory func() ContentScorer
	cfFactory      func() CollaborativeFilter

	models  atomic.Pointer[modelSet]
	trainMu sync.Mutex

	log zerolog.Logger
}

// modelSet bundles everything one training run produced. Requests load
// the whole set at once, so a retrain can never mix an old content model
// with new factors. cf is nil when the factorization was unavailable.
type modelSet struct {
	content   ContentScorer
	cf        CollaborativeFilter
	version   int
	trainedAt time.Time
	stats     ModelStats
}

// EngineOptions wires the engine's collaborators. Both factories are
// required; each training run builds fresh instances so in-flight
// requests keep scoring against the previous set.
type EngineOptions struct {
	ContentFactory       func() ContentScorer
	CollaborativeFactory func() CollaborativeFilter

	// Reranker applies diversity re-ranking. Optional; without one the
	// engine serves the plain score order.
	Reranker Reranker

	// Weights overrides the default signal weighting policy.
	Weights *SignalWeights

	// Store persists trained models across restarts. Optional.
	Store ModelStore
}

// NewEngine creates a recommendation engine.
func NewEngine(provider DataProvider, cfg Config, opts EngineOptions) (*Engine, error) {
	if provider == nil {
		return nil, fmt.Errorf("data provider is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}
	if opts.ContentFactory == nil {
		return nil, fmt.Errorf("content scorer factory is required")
	}
	if opts.CollaborativeFactory == nil {
		return nil, fmt.Errorf("collaborative filter factory is required")
	}

	weights := opts.Weights
	if weights == nil {
		weights = DefaultSignalWeights()
	}
	if err := weights.Validate(); err != nil {
		return nil, fmt.Errorf("invalid signal weights: %w", err)
	}

	return &Engine{
		provider:       provider,
		cfg:            cfg,
		weights:        weights,
		explainer:      NewExplainer(cfg.Content.HighGradeThreshold),
		coldStart:      NewColdStart(weights),
		reranker:       opts.Reranker,
		store:          opts.Store,
		contentFactory: opts.ContentFactory,
		cfFactory:      opts.CollaborativeFactory,
		log:            logging.With().Str("component", "engine").Logger(),
	}, nil
}

// Recommend serves scored, explained programs for one student. The
// request-level strategy is cold_start for students with no interaction
// history and hybrid otherwise, degrading to content-only scoring when
// the collaborative signal is unavailable.
func (e *Engine) Recommend(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	topK := e.resolveTopK(req.TopK)

	student, err := e.provider.GetStudent(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}

	interactions, err := e.provider.ListInteractions(ctx, req.StudentID)
	if err != nil {
		return nil, fmt.Errorf("listing interactions for student %s: %w", req.StudentID, err)
	}

	programs, err := e.provider.ListPrograms(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing programs: %w", err)
	}

	result := &Result{
		StudentID:   req.StudentID,
		GeneratedAt: time.Now(),
	}
	if ms := e.models.Load(); ms != nil {
		result.ModelVersion = ms.version
	}
	if len(programs) == 0 {
		result.Strategy = AlgorithmColdStart
		return result, nil
	}

	if len(interactions) == 0 {
		if err := e.recommendColdStart(ctx, student, programs, topK, result); err != nil {
			return nil, err
		}
	} else {
		if err := e.recommendHybrid(ctx, student, programs, len(interactions), topK, req, result); err != nil {
			return nil, err
		}
	}

	algorithms := make([]string, len(result.Items))
	for i := range result.Items {
		algorithms[i] = result.Items[i].Algorithm
	}
	metrics.RecordRecommendation(result.Strategy, algorithms, time.Since(start))

	e.log.Debug().
		Str("student_id", req.StudentID).
		Str("strategy", result.Strategy).
		Int("items", len(result.Items)).
		Int("top_k", topK).
		Dur("duration", time.Since(start)).
		Msg("Recommendations served")

	return result, nil
}

// resolveTopK applies the configured default and maximum.
func (e *Engine) resolveTopK(topK int) int {
	if topK <= 0 {
		return e.cfg.DefaultTopK
	}
	if topK > e.cfg.MaxTopK {
		return e.cfg.MaxTopK
	}
	return topK
}

func (e *Engine) recommendColdStart(ctx context.Context, student *models.Student, programs []models.Program, topK int, result *Result) error {
	all, err := e.provider.ListInteractions(ctx, "")
	if err != nil {
		return fmt.Errorf("listing interactions: %w", err)
	}

	items, source := e.coldStart.Recommend(student, programs, all, topK)
	metrics.RecordColdStartSource(source)

	result.Items = items
	result.Strategy = AlgorithmColdStart
	return nil
}

// recommendHybrid blends the content and collaborative signals with the
// adaptive per-program weights, optionally diversity re-ranks, and
// explains the surviving picks.
func (e *Engine) recommendHybrid(ctx context.Context, student *models.Student, programs []models.Program, interactionCount, topK int, req Request, result *Result) error {
	candidates := make([]string, len(programs))
	for i := range programs {
		candidates[i] = programs[i].ID
	}

	ms := e.models.Load()

	contentScores := e.contentScores(ctx, ms, student, candidates)
	cfScores, cfAvailable := e.collaborativeScores(ctx, ms, student.ID, candidates)

	tier := e.weights.TierFor(interactionCount)

	scored := make([]ScoredRecommendation, 0, len(programs))
	for i := range programs {
		id := programs[i].ID
		cs := contentScores[id]
		fs, known := cfScores[id]
		available := cfAvailable && known

		cw, fw := e.weights.AdjustFor(tier, cs, fs, available)

		var collaborative float64
		if available {
			collaborative = fs
		}

		algorithm := AlgorithmContent
		if available {
			algorithm = AlgorithmHybrid
		}

		scored = append(scored, ScoredRecommendation{
			Program:   programs[i],
			Score:     cw*cs + fw*collaborative,
			Algorithm: algorithm,
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Program.ID < scored[j].Program.ID
	})

	applyDiversity := e.cfg.Diversity.Enabled
	if req.Diversity != nil {
		applyDiversity = *req.Diversity
	}

	if applyDiversity && e.reranker != nil && topK < len(scored) {
		scored = e.reranker.Rerank(ctx, scored, topK)
	} else if len(scored) > topK {
		scored = scored[:topK]
	}

	if err := e.explainItems(ctx, student, scored, contentScores, cfScores, cfAvailable); err != nil {
		return err
	}

	result.Items = scored
	result.Strategy = AlgorithmHybrid
	if !cfAvailable {
		result.Strategy = AlgorithmContent
	}
	return nil
}

// contentScores returns the content similarity per candidate, or all
// zeros when no fitted scorer exists yet. Scoring failures degrade the
// same way rather than failing the request.
func (e *Engine) contentScores(ctx context.Context, ms *modelSet, student *models.Student, candidates []string) map[string]float64 {
	if ms == nil || ms.content == nil {
		return map[string]float64{}
	}

	scores, err := ms.content.Score(ctx, student, candidates)
	if err != nil {
		metrics.RecordRecommendationError("content_score")
		e.log.Warn().Err(err).Str("student_id", student.ID).Msg("Content scoring failed, using zero scores")
		return map[string]float64{}
	}
	return scores
}

// collaborativeScores returns the normalized factor scores and whether
// the collaborative signal is usable for this student. Untrained models
// and students outside the training snapshot both come back unavailable.
func (e *Engine) collaborativeScores(ctx context.Context, ms *modelSet, studentID string, candidates []string) (map[string]float64, bool) {
	if ms == nil || ms.cf == nil {
		return nil, false
	}

	scores, err := ms.cf.Predict(ctx, studentID, candidates)
	if err != nil {
		if !errors.Is(err, ErrModelUnavailable) {
			metrics.RecordRecommendationError("collaborative_score")
			e.log.Warn().Err(err).Str("student_id", studentID).Msg("Collaborative scoring failed, falling back to content")
		}
		return nil, false
	}
	if scores == nil {
		return nil, false
	}
	return scores, true
}

// explainItems attaches explanation text to each selected item, drawing
// social proof from the global interaction log and student roster.
func (e *Engine) explainItems(ctx context.Context, student *models.Student, items []ScoredRecommendation, contentScores, cfScores map[string]float64, cfAvailable bool) error {
	if len(items) == 0 {
		return nil
	}

	all, err := e.provider.ListInteractions(ctx, "")
	if err != nil {
		return fmt.Errorf("listing interactions: %w", err)
	}
	roster, err := e.provider.ListStudents(ctx)
	if err != nil {
		return fmt.Errorf("listing students: %w", err)
	}

	audiences := buildAudiences(all)
	byID := make(map[string]*models.Student, len(roster))
	for i := range roster {
		byID[roster[i].ID] = &roster[i]
	}

	profile := newProfileTerms(student)

	for i := range items {
		id := items[i].Program.ID

		var similar int
		var rate float64
		if aud := audiences[id]; aud != nil {
			rate = aud.acceptanceRate()
			for acceptorID := range aud.acceptedBy {
				if acceptorID == student.ID {
					continue
				}
				if other, ok := byID[acceptorID]; ok && profile.overlaps(other) {
					similar++
				}
			}
		}

		items[i].Explanation = e.explainer.Explain(ExplainInput{
			Student:            student,
			Program:            &items[i].Program,
			ContentScore:       contentScores[id],
			CollaborativeScore: cfScores[id],
			CollaborativeUsed:  cfAvailable && items[i].Algorithm == AlgorithmHybrid,
			SimilarAccepted:    similar,
			AcceptanceRate:     rate,
		})
	}
	return nil
}

// programAudience aggregates one program's interaction history.
type programAudience struct {
	totalRows  int
	acceptRows int
	acceptedBy map[string]struct{}
}

func (a *programAudience) acceptanceRate() float64 {
	if a.totalRows == 0 {
		return 0
	}
	return float64(a.acceptRows) / float64(a.totalRows)
}

func buildAudiences(interactions []models.Interaction) map[string]*programAudience {
	audiences := make(map[string]*programAudience)
	for i := range interactions {
		inter := &interactions[i]
		aud := audiences[inter.ProgramID]
		if aud == nil {
			aud = &programAudience{acceptedBy: make(map[string]struct{})}
			audiences[inter.ProgramID] = aud
		}
		aud.totalRows++
		if inter.Accepted {
			aud.acceptRows++
			aud.acceptedBy[inter.StudentID] = struct{}{}
		}
	}
	return audiences
}

// profileTerms caches one student's lowercased interests and subjects for
// overlap checks against other students.
type profileTerms struct {
	interests map[string]struct{}
	subjects  map[string]struct{}
}

func newProfileTerms(student *models.Student) profileTerms {
	p := profileTerms{
		interests: make(map[string]struct{}, len(student.Interests)),
		subjects:  make(map[string]struct{}, len(student.Grades)),
	}
	for _, interest := range student.Interests {
		p.interests[strings.ToLower(interest)] = struct{}{}
	}
	for subject := range student.Grades {
		p.subjects[strings.ToLower(subject)] = struct{}{}
	}
	return p
}

// overlaps reports whether the other student shares at least one interest
// or one graded subject.
func (p profileTerms) overlaps(other *models.Student) bool {
	for _, interest := range other.Interests {
		if _, ok := p.interests[strings.ToLower(interest)]; ok {
			return true
		}
	}
	for subject := range other.Grades {
		if _, ok := p.subjects[strings.ToLower(subject)]; ok {
			return true
		}
	}
	return false
}

// GetStrategy reports which blending strategy currently applies to a
// student and the weights a request would start from, before per-program
// adjustment.
func (e *Engine) GetStrategy(ctx context.Context, studentID string) (*models.StrategyInfo, error) {
	if _, err := e.provider.GetStudent(ctx, studentID); err != nil {
		return nil, err
	}

	interactions, err := e.provider.ListInteractions(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("listing interactions for student %s: %w", studentID, err)
	}
	count := len(interactions)

	available := false
	if ms := e.models.Load(); ms != nil && ms.cf != nil {
		// Predict with no candidates distinguishes a covered student
		// (empty map) from one outside the training snapshot (nil map).
		scores, perr := ms.cf.Predict(ctx, studentID, nil)
		available = perr == nil && scores != nil
	}

	tier := e.weights.TierFor(count)
	cw, fw := e.weights.AdjustFor(tier, 0.5, 0.5, available)

	return &models.StrategyInfo{
		StudentID:              studentID,
		FeedbackCount:          count,
		ContentWeight:          cw,
		CollaborativeWeight:    fw,
		Strategy:               tier.Description,
		CollaborativeAvailable: available,
	}, nil
}

// GetSimilar returns the programs most similar to the given one by
// item-factor cosine similarity, sorted descending. Returns
// ErrModelUnavailable before the first successful training run; a
// program known to the catalog but absent from the training snapshot
// yields an empty list.
func (e *Engine) GetSimilar(ctx context.Context, programID string, limit int) ([]SimilarResult, error) {
	if limit <= 0 {
		limit = e.cfg.DefaultTopK
	}
	if limit > e.cfg.MaxTopK {
		limit = e.cfg.MaxTopK
	}

	programs, err := e.provider.ListPrograms(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing programs: %w", err)
	}

	byID := make(map[string]*models.Program, len(programs))
	candidates := make([]string, len(programs))
	for i := range programs {
		byID[programs[i].ID] = &programs[i]
		candidates[i] = programs[i].ID
	}
	if _, ok := byID[programID]; !ok {
		return nil, ErrProgramNotFound
	}

	ms := e.models.Load()
	if ms == nil || ms.cf == nil {
		return nil, ErrModelUnavailable
	}

	metrics.SimilarRequests.Inc()

	scores, err := ms.cf.Similar(ctx, programID, candidates)
	if err != nil {
		return nil, err
	}

	results := make([]SimilarResult, 0, len(scores))
	for id, score := range scores {
		results = append(results, SimilarResult{Program: *byID[id], Similarity: score})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].Program.ID < results[j].Program.ID
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Retrain fits a fresh model set over the full data snapshot and installs
// it atomically. Only one run may be in flight; concurrent calls fail
// fast with ErrTrainingInProgress. An interaction set too small for the
// factorization is not an error: the engine installs the content model
// alone and reports CollaborativeTrained=false.
func (e *Engine) Retrain(ctx context.Context) (*TrainingResult, error) {
	if !e.trainMu.TryLock() {
		return nil, ErrTrainingInProgress
	}
	defer e.trainMu.Unlock()

	start := time.Now()

	programs, err := e.provider.ListPrograms(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing programs: %w", err)
	}
	interactions, err := e.provider.ListInteractions(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("listing interactions: %w", err)
	}

	content := e.contentFactory()
	if err := content.Fit(ctx, programs); err != nil {
		return nil, fmt.Errorf("fitting content model: %w", err)
	}

	var cf CollaborativeFilter
	candidate := e.cfFactory()
	switch err := candidate.Train(ctx, interactions); {
	case err == nil:
		cf = candidate
	case errors.Is(err, ErrInsufficientData):
		e.log.Info().
			Int("interactions", len(interactions)).
			Msg("Too little data for collaborative training, serving content only")
	default:
		return nil, fmt.Errorf("training collaborative model: %w", err)
	}

	stats := interactionStats(interactions)
	if cf != nil {
		stats = cf.Stats()
	}

	version := 1
	if prev := e.models.Load(); prev != nil {
		version = prev.version + 1
	}

	trainedAt := time.Now()
	e.models.Store(&modelSet{
		content:   content,
		cf:        cf,
		version:   version,
		trainedAt: trainedAt,
		stats:     stats,
	})

	metrics.SetModelStats(int64(version), stats.Users, stats.Items, stats.Interactions, stats.Factors)

	if e.store != nil && cf != nil {
		if snap := cf.Snapshot(); snap != nil {
			if err := e.store.Save(snap, version); err != nil {
				e.log.Warn().Err(err).Int("version", version).Msg("Persisting model snapshot failed")
			}
		}
	}

	result := &TrainingResult{
		CollaborativeTrained: cf != nil,
		ModelVersion:         version,
		UserCount:            stats.Users,
		ItemCount:            stats.Items,
		InteractionCount:     len(interactions),
		Duration:             time.Since(start),
		TrainedAt:            trainedAt,
	}

	e.log.Info().
		Bool("collaborative_trained", result.CollaborativeTrained).
		Int("version", version).
		Int("users", stats.Users).
		Int("items", stats.Items).
		Int("interactions", len(interactions)).
		Dur("duration", result.Duration).
		Msg("Training run completed")

	return result, nil
}

// interactionStats counts distinct students and programs for runs where
// the factorization did not train.
func interactionStats(interactions []models.Interaction) ModelStats {
	users := make(map[string]struct{})
	items := make(map[string]struct{})
	for i := range interactions {
		users[interactions[i].StudentID] = struct{}{}
		items[interactions[i].ProgramID] = struct{}{}
	}
	return ModelStats{
		Users:        len(users),
		Items:        len(items),
		Interactions: len(interactions),
	}
}

// LoadPersisted restores the newest stored factorization, fits a content
// model over the current catalog, and installs both. Returns false when
// no snapshot exists. Meant for startup, before the first training run.
func (e *Engine) LoadPersisted(ctx context.Context) (bool, error) {
	if e.store == nil {
		return false, nil
	}

	snap, version, err := e.store.LoadLatest()
	if err != nil {
		return false, fmt.Errorf("loading model snapshot: %w", err)
	}
	if snap == nil {
		return false, nil
	}

	if !e.trainMu.TryLock() {
		return false, ErrTrainingInProgress
	}
	defer e.trainMu.Unlock()

	cf := e.cfFactory()
	if err := cf.Restore(snap); err != nil {
		return false, fmt.Errorf("restoring model snapshot: %w", err)
	}

	programs, err := e.provider.ListPrograms(ctx)
	if err != nil {
		return false, fmt.Errorf("listing programs: %w", err)
	}
	content := e.contentFactory()
	if err := content.Fit(ctx, programs); err != nil {
		return false, fmt.Errorf("fitting content model: %w", err)
	}

	stats := cf.Stats()
	e.models.Store(&modelSet{
		content:   content,
		cf:        cf,
		version:   version,
		trainedAt: snap.TrainedAt,
		stats:     stats,
	})
	metrics.SetModelStats(int64(version), stats.Users, stats.Items, stats.Interactions, stats.Factors)

	e.log.Info().
		Int("version", version).
		Time("trained_at", snap.TrainedAt).
		Int("users", stats.Users).
		Int("items", stats.Items).
		Msg("Restored persisted model")

	return true, nil
}

// Status reports the engine's current model state.
func (e *Engine) Status() TrainingStatus {
	status := TrainingStatus{}

	if e.trainMu.TryLock() {
		e.trainMu.Unlock()
	} else {
		status.Training = true
	}

	if ms := e.models.Load(); ms != nil {
		status.ModelVersion = ms.version
		status.LastTrainedAt = ms.trainedAt
		status.CollaborativeAvailable = ms.cf != nil
		status.Stats = ms.stats
	}
	return status
}
