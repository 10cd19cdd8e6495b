// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package algorithms

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/areyes-dev/lodestar/internal/models"
	"github.com/areyes-dev/lodestar/internal/recommend"
)

// ALS implements alternating least squares for implicit feedback.
// Reference: "Collaborative Filtering for Implicit Feedback Datasets"
// (Hu, Koren, Volinsky, 2008).
//
// The confidence c_ui for a (student, program) pair is the sum of the
// policy weights of all their interaction events; the binary preference
// p_ui is 1 for every observed pair. Each factor row solves the
// regularized normal equations over the observed entries only:
//
//	x_u = (lambda*I + sum_i c_ui * y_i * y_i')^-1 * (sum_i c_ui * y_i)
//
// The latent dimensionality is lowered to min(#students, #programs) when
// the data is smaller than the configured rank, and training refuses to
// run with fewer than 2 distinct students or programs. Training runs to
// completion once started; the context is only consulted on entry.
type ALS struct {
	BaseAlgorithm
	cfg     recommend.ALSConfig
	weights *recommend.SignalWeights

	factors int

	// X is the user factor matrix (numUsers x factors), Y the item
	// factor matrix (numItems x factors).
	X [][]float64
	Y [][]float64

	userIndex   map[string]int
	itemIndex   map[string]int
	indexToUser []string
	indexToItem []string

	interactionCount int
}

// NewALS creates an ALS model. Zero config values fall back to the
// engine defaults; a nil weights policy selects the default scheme.
func NewALS(cfg recommend.ALSConfig, weights *recommend.SignalWeights) *ALS {
	if cfg.Factors <= 0 {
		cfg.Factors = 50
	}
	if cfg.Iterations <= 0 {
		cfg.Iterations = 15
	}
	if cfg.Regularization <= 0 {
		cfg.Regularization = 0.1
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if weights == nil {
		weights = recommend.DefaultSignalWeights()
	}

	return &ALS{
		BaseAlgorithm: NewBaseAlgorithm("als"),
		cfg:           cfg,
		weights:       weights,
	}
}

// Train fits the factorization over the full interaction set.
func (a *ALS) Train(ctx context.Context, interactions []models.Interaction) error {
	a.acquireTrainLock()
	defer a.releaseTrainLock()

	if ContextCancelled(ctx) {
		return ctx.Err()
	}

	// Row assignment follows first appearance in the interaction stream,
	// keeping training reproducible for a fixed input order.
	userIndex := make(map[string]int)
	itemIndex := make(map[string]int)
	var indexToUser, indexToItem []string

	for i := range interactions {
		inter := &interactions[i]
		if _, ok := userIndex[inter.StudentID]; !ok {
			userIndex[inter.StudentID] = len(indexToUser)
			indexToUser = append(indexToUser, inter.StudentID)
		}
		if _, ok := itemIndex[inter.ProgramID]; !ok {
			itemIndex[inter.ProgramID] = len(indexToItem)
			indexToItem = append(indexToItem, inter.ProgramID)
		}
	}

	numUsers := len(indexToUser)
	numItems := len(indexToItem)
	if numUsers < 2 || numItems < 2 {
		return recommend.ErrInsufficientData
	}

	// Aggregate confidence per pair, summing across repeated events.
	userItems := make([]map[int]float64, numUsers)
	for u := range userItems {
		userItems[u] = make(map[int]float64)
	}
	for i := range interactions {
		inter := &interactions[i]
		u := userIndex[inter.StudentID]
		it := itemIndex[inter.ProgramID]
		userItems[u][it] += a.weights.Confidence(inter)
	}

	itemUsers := make([]map[int]float64, numItems)
	for it := range itemUsers {
		itemUsers[it] = make(map[int]float64)
	}
	for u, items := range userItems {
		for it, conf := range items {
			itemUsers[it][u] = conf
		}
	}

	factors := a.cfg.Factors
	if factors > numUsers {
		factors = numUsers
	}
	if factors > numItems {
		factors = numItems
	}

	X := initFactors(numUsers, factors)
	Y := initFactors(numItems, factors)

	lambda := a.cfg.Regularization
	for iter := 0; iter < a.cfg.Iterations; iter++ {
		// Update user factors with items fixed, then the reverse.
		updateFactors(X, Y, userItems, factors, lambda, a.cfg.Workers)
		updateFactors(Y, X, itemUsers, factors, lambda, a.cfg.Workers)
	}

	a.userIndex = userIndex
	a.itemIndex = itemIndex
	a.indexToUser = indexToUser
	a.indexToItem = indexToItem
	a.X = X
	a.Y = Y
	a.factors = factors
	a.interactionCount = len(interactions)
	a.markTrained()
	return nil
}

// initFactors seeds a factor matrix with small deterministic values.
func initFactors(rows, numFactors int) [][]float64 {
	m := make([][]float64, rows)
	for r := 0; r < rows; r++ {
		m[r] = make([]float64, numFactors)
		for f := 0; f < numFactors; f++ {
			m[r][f] = 0.1 * (float64((r*numFactors+f)%1000)/1000.0 - 0.5)
		}
	}
	return m
}

// updateFactors solves the least-squares update for every row of target,
// holding the other side's factor matrix fixed. observed[r] maps rows of
// fixed to the aggregated confidence for target row r. Rows are
// independent, so they are solved in parallel chunks.
func updateFactors(target, fixed [][]float64, observed []map[int]float64, numFactors int, lambda float64, workers int) {
	var wg sync.WaitGroup
	chunkSize := (len(target) + workers - 1) / workers

	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > len(target) {
			end = len(target)
		}
		if start >= end {
			break
		}

		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()

			for r := lo; r < hi; r++ {
				target[r] = solveRow(fixed, observed[r], numFactors, lambda)
			}
		}(start, end)
	}

	wg.Wait()
}

// solveRow builds the normal equations over the observed entries only and
// solves them by Cholesky decomposition:
//
//	A = lambda*I + sum_j c_j * v_j * v_j'
//	b = sum_j c_j * v_j
//
// Observed entries are visited in sorted order so the accumulated sums
// are bit-for-bit reproducible.
func solveRow(fixed [][]float64, observed map[int]float64, numFactors int, lambda float64) []float64 {
	A := make([][]float64, numFactors)
	for f := range A {
		A[f] = make([]float64, numFactors)
		A[f][f] = lambda
	}
	b := make([]float64, numFactors)

	cols := make([]int, 0, len(observed))
	for j := range observed {
		cols = append(cols, j)
	}
	sort.Ints(cols)

	for _, j := range cols {
		v := fixed[j]
		conf := observed[j]

		for f1 := 0; f1 < numFactors; f1++ {
			for f2 := f1; f2 < numFactors; f2++ {
				delta := conf * v[f1] * v[f2]
				A[f1][f2] += delta
				if f1 != f2 {
					A[f2][f1] += delta
				}
			}
			b[f1] += conf * v[f1]
		}
	}

	return solveLinearSystem(A, b)
}

// solveLinearSystem solves A*x = b using Cholesky decomposition. The
// lambda on the diagonal keeps A positive definite, so the decomposition
// cannot fail for valid inputs; the floor guards against accumulated
// rounding.
func solveLinearSystem(A [][]float64, b []float64) []float64 {
	n := len(b)

	L := make([][]float64, n)
	for i := range L {
		L[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := A[i][j]
			for k := 0; k < j; k++ {
				sum -= L[i][k] * L[j][k]
			}

			if i == j {
				if sum <= 0 {
					sum = 1e-10
				}
				L[i][j] = math.Sqrt(sum)
			} else {
				if L[j][j] != 0 {
					L[i][j] = sum / L[j][j]
				}
			}
		}
	}

	// Forward substitution: L * z = b.
	z := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := b[i]
		for j := 0; j < i; j++ {
			sum -= L[i][j] * z[j]
		}
		if L[i][i] != 0 {
			z[i] = sum / L[i][i]
		}
	}

	// Back substitution: L' * x = z.
	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := z[i]
		for j := i + 1; j < n; j++ {
			sum -= L[j][i] * x[j]
		}
		if L[i][i] != 0 {
			x[i] = sum / L[i][i]
		}
	}

	return x
}

// Predict returns inner-product scores for the candidate programs,
// min-max normalized across this candidate set. A nil map means the
// student was not part of the training snapshot; candidates absent from
// the snapshot are left out of the result.
func (a *ALS) Predict(ctx context.Context, studentID string, candidates []string) (map[string]float64, error) {
	a.acquirePredictLock()
	defer a.releasePredictLock()

	if !a.trained {
		return nil, recommend.ErrModelUnavailable
	}
	if ContextCancelled(ctx) {
		return nil, ctx.Err()
	}

	ui, ok := a.userIndex[studentID]
	if !ok {
		return nil, nil
	}

	userVec := a.X[ui]
	scores := make(map[string]float64, len(candidates))

	for _, id := range candidates {
		ii, ok := a.itemIndex[id]
		if !ok {
			continue
		}

		var score float64
		for f := range userVec {
			score += userVec[f] * a.Y[ii][f]
		}
		scores[id] = score
	}

	return normalizeScores(scores), nil
}

// Similar returns raw cosine similarities between the given program's
// factor vector and each candidate's, excluding the program itself. A
// nil map means the program was not part of the training snapshot.
func (a *ALS) Similar(ctx context.Context, programID string, candidates []string) (map[string]float64, error) {
	a.acquirePredictLock()
	defer a.releasePredictLock()

	if !a.trained {
		return nil, recommend.ErrModelUnavailable
	}
	if ContextCancelled(ctx) {
		return nil, ctx.Err()
	}

	src, ok := a.itemIndex[programID]
	if !ok {
		return nil, nil
	}

	scores := make(map[string]float64, len(candidates))
	for _, id := range candidates {
		if id == programID {
			continue
		}
		ci, ok := a.itemIndex[id]
		if !ok {
			continue
		}
		scores[id] = cosineSimilarity(a.Y[src], a.Y[ci])
	}

	return scores, nil
}

// Stats returns the dimensions of the trained model.
func (a *ALS) Stats() recommend.ModelStats {
	a.acquirePredictLock()
	defer a.releasePredictLock()

	return recommend.ModelStats{
		Users:        len(a.indexToUser),
		Items:        len(a.indexToItem),
		Interactions: a.interactionCount,
		Factors:      a.factors,
	}
}

// Snapshot exports the trained factors for persistence. Returns nil when
// untrained.
func (a *ALS) Snapshot() *recommend.ModelSnapshot {
	a.acquirePredictLock()
	defer a.releasePredictLock()

	if !a.trained {
		return nil
	}

	return &recommend.ModelSnapshot{
		TrainedAt:        a.lastTrainedAt,
		Factors:          a.factors,
		StudentIDs:       append([]string(nil), a.indexToUser...),
		ProgramIDs:       append([]string(nil), a.indexToItem...),
		UserFactors:      copyMatrix(a.X),
		ItemFactors:      copyMatrix(a.Y),
		InteractionCount: a.interactionCount,
	}
}

// Restore loads previously exported factors, marking the model trained.
func (a *ALS) Restore(snap *recommend.ModelSnapshot) error {
	if snap == nil {
		return fmt.Errorf("nil snapshot")
	}
	if len(snap.UserFactors) != len(snap.StudentIDs) {
		return fmt.Errorf("snapshot has %d user factor rows for %d students",
			len(snap.UserFactors), len(snap.StudentIDs))
	}
	if len(snap.ItemFactors) != len(snap.ProgramIDs) {
		return fmt.Errorf("snapshot has %d item factor rows for %d programs",
			len(snap.ItemFactors), len(snap.ProgramIDs))
	}
	for _, row := range snap.UserFactors {
		if len(row) != snap.Factors {
			return fmt.Errorf("user factor row has width %d, want %d", len(row), snap.Factors)
		}
	}
	for _, row := range snap.ItemFactors {
		if len(row) != snap.Factors {
			return fmt.Errorf("item factor row has width %d, want %d", len(row), snap.Factors)
		}
	}

	a.acquireTrainLock()
	defer a.releaseTrainLock()

	a.userIndex = make(map[string]int, len(snap.StudentIDs))
	a.indexToUser = append([]string(nil), snap.StudentIDs...)
	for i, id := range snap.StudentIDs {
		a.userIndex[id] = i
	}

	a.itemIndex = make(map[string]int, len(snap.ProgramIDs))
	a.indexToItem = append([]string(nil), snap.ProgramIDs...)
	for i, id := range snap.ProgramIDs {
		a.itemIndex[id] = i
	}

	a.X = copyMatrix(snap.UserFactors)
	a.Y = copyMatrix(snap.ItemFactors)
	a.factors = snap.Factors
	a.interactionCount = snap.InteractionCount
	a.trained = true
	a.lastTrainedAt = snap.TrainedAt
	return nil
}

func copyMatrix(m [][]float64) [][]float64 {
	if m == nil {
		return nil
	}
	out := make([][]float64, len(m))
	for i := range m {
		out[i] = make([]float64, len(m[i]))
		copy(out[i], m[i])
	}
	return out
}
