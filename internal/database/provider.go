// Lodestar - Study Program Recommendation Engine
// Copyright 2026 A. Reyes (areyes-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/areyes-dev/lodestar

package database

import (
	"context"
	"errors"

	"github.com/areyes-dev/lodestar/internal/models"
	"github.com/areyes-dev/lodestar/internal/recommend"
)

// RecommendationDataProvider implements recommend.DataProvider using the database.
//
// ListInteractions serves the merged stream the engine expects: explicit
// feedback rows unioned with served-recommendation log rows as bare
// interactions.
type RecommendationDataProvider struct {
	db *DB
}

// NewRecommendationDataProvider creates a new data provider.
func NewRecommendationDataProvider(db *DB) *RecommendationDataProvider {
	return &RecommendationDataProvider{db: db}
}

// GetStudent implements recommend.DataProvider.
func (p *RecommendationDataProvider) GetStudent(ctx context.Context, id string) (*models.Student, error) {
	student, err := p.db.GetStudent(ctx, id)
	if err != nil {
		if errors.Is(err, ErrStudentNotFound) {
			return nil, recommend.ErrStudentNotFound
		}
		return nil, err
	}
	return student, nil
}

// ListStudents implements recommend.DataProvider.
func (p *RecommendationDataProvider) ListStudents(ctx context.Context) ([]models.Student, error) {
	return p.db.ListStudents(ctx)
}

// ListPrograms implements recommend.DataProvider.
func (p *RecommendationDataProvider) ListPrograms(ctx context.Context) ([]models.Program, error) {
	return p.db.ListPrograms(ctx)
}

// ListInteractions implements recommend.DataProvider.
func (p *RecommendationDataProvider) ListInteractions(ctx context.Context, studentID string) ([]models.Interaction, error) {
	return p.db.ListInteractions(ctx, studentID)
}

// Ensure interface compliance.
var _ recommend.DataProvider = (*RecommendationDataProvider)(nil)
