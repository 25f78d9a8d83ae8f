package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/starscout/starscout/domain/star"
	"github.com/starscout/starscout/internal/database"
)

// RepositoryStore implements star.RepositoryStore on GORM.
type RepositoryStore struct {
	db     database.Database
	mapper repositoryMapper
}

// NewRepositoryStore creates a RepositoryStore.
func NewRepositoryStore(db database.Database) *RepositoryStore {
	return &RepositoryStore{db: db}
}

// Save upserts repositories by ID, last write wins.
func (s *RepositoryStore) Save(ctx context.Context, repos ...star.Repository) error {
	if len(repos) == 0 {
		return nil
	}

	models := make([]RepositoryModel, len(repos))
	for i, r := range repos {
		models[i] = s.mapper.ToModel(r)
	}

	err := s.db.Session(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"owner", "name", "description", "readme_content",
			"topics", "homepage_url", "embedding", "updated_at",
		}),
	}).Create(&models).Error
	if err != nil {
		return fmt.Errorf("save repositories: %w", err)
	}
	return nil
}

// Get returns a repository by ID, or star.ErrNotFound.
func (s *RepositoryStore) Get(ctx context.Context, id int64) (star.Repository, error) {
	var model RepositoryModel
	err := s.db.Session(ctx).First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return star.Repository{}, fmt.Errorf("repository %d: %w", id, star.ErrNotFound)
		}
		return star.Repository{}, fmt.Errorf("get repository %d: %w", id, err)
	}
	return s.mapper.ToDomain(model), nil
}

// Exists reports whether a repository is already indexed.
func (s *RepositoryStore) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := s.db.Session(ctx).Model(&RepositoryModel{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check repository %d: %w", id, err)
	}
	return count > 0, nil
}

// Count returns the number of indexed repositories.
func (s *RepositoryStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.Session(ctx).Model(&RepositoryModel{}).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count repositories: %w", err)
	}
	return count, nil
}
