package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/starscout/starscout/domain/star"
	"github.com/starscout/starscout/internal/database"
)

// StarStore implements star.StarStore on GORM.
type StarStore struct {
	db database.Database
}

// NewStarStore creates a StarStore.
func NewStarStore(db database.Database) *StarStore {
	return &StarStore{db: db}
}

// Replace overwrites the user's star set wholesale inside a transaction.
func (s *StarStore) Replace(ctx context.Context, set star.StarSet) error {
	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", set.UserID()).Delete(&UserStarModel{}).Error; err != nil {
			return err
		}

		repoIDs := set.RepoIDs()
		if len(repoIDs) == 0 {
			return nil
		}

		now := time.Now().UTC()
		models := make([]UserStarModel, len(repoIDs))
		for i, id := range repoIDs {
			models[i] = UserStarModel{
				UserID:         set.UserID(),
				RepoID:         id,
				GithubUsername: set.Login(),
				CreatedAt:      now,
				UpdatedAt:      now,
			}
		}
		return tx.CreateInBatches(&models, 500).Error
	})
	if err != nil {
		return fmt.Errorf("replace stars for user %d: %w", set.UserID(), err)
	}
	return nil
}

// RepoIDs returns the user's starred repository IDs.
func (s *StarStore) RepoIDs(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	err := s.db.Session(ctx).Model(&UserStarModel{}).
		Where("user_id = ?", userID).Order("repo_id").Pluck("repo_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("stars for user %d: %w", userID, err)
	}
	return ids, nil
}

// HasUser reports whether the user has a stored star set.
func (s *StarStore) HasUser(ctx context.Context, userID int64) (bool, error) {
	var count int64
	err := s.db.Session(ctx).Model(&UserStarModel{}).Where("user_id = ?", userID).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check user %d: %w", userID, err)
	}
	return count > 0, nil
}

// NoReadmeStore implements star.NoReadmeStore on GORM.
type NoReadmeStore struct {
	db database.Database
}

// NewNoReadmeStore creates a NoReadmeStore.
func NewNoReadmeStore(db database.Database) *NoReadmeStore {
	return &NoReadmeStore{db: db}
}

// Mark records that the repository has no README. Idempotent.
func (s *NoReadmeStore) Mark(ctx context.Context, repoID int64) error {
	model := RepoWithoutReadmeModel{RepoID: repoID, CreatedAt: time.Now().UTC()}
	err := s.db.Session(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&model).Error
	if err != nil {
		return fmt.Errorf("mark repo %d without readme: %w", repoID, err)
	}
	return nil
}

// IsMarked reports whether the repository is known to lack a README.
func (s *NoReadmeStore) IsMarked(ctx context.Context, repoID int64) (bool, error) {
	var count int64
	err := s.db.Session(ctx).Model(&RepoWithoutReadmeModel{}).Where("repo_id = ?", repoID).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check repo %d without readme: %w", repoID, err)
	}
	return count > 0, nil
}
