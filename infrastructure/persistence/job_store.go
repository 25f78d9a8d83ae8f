package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/starscout/starscout/domain/job"
	"github.com/starscout/starscout/internal/database"
)

// JobStore implements job.Store on GORM.
type JobStore struct {
	db     database.Database
	mapper jobMapper
}

// NewJobStore creates a JobStore.
func NewJobStore(db database.Database) *JobStore {
	return &JobStore{db: db}
}

// Save inserts the job and returns it with its assigned ID.
func (s *JobStore) Save(ctx context.Context, j job.Job) (job.Job, error) {
	model := s.mapper.ToModel(j)
	if err := s.db.Session(ctx).Create(&model).Error; err != nil {
		return job.Job{}, fmt.Errorf("save job: %w", err)
	}
	return j.WithID(model.ID), nil
}

// Update overwrites the job row identified by the job's ID.
func (s *JobStore) Update(ctx context.Context, j job.Job) error {
	if j.ID() == 0 {
		return errors.New("update job: missing id")
	}
	model := s.mapper.ToModel(j)
	err := s.db.Session(ctx).Model(&UserJobModel{}).Where("id = ?", model.ID).
		Select("status", "total_repos", "processed_repos", "failed_repos", "error_message", "updated_at", "completed_at").
		Updates(&model).Error
	if err != nil {
		return fmt.Errorf("update job %d: %w", j.ID(), err)
	}
	return nil
}

// Latest returns the most recently created job for the user, or
// job.ErrNotFound.
func (s *JobStore) Latest(ctx context.Context, userID int64) (job.Job, error) {
	var model UserJobModel
	err := s.db.Session(ctx).Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return job.Job{}, fmt.Errorf("user %d: %w", userID, job.ErrNotFound)
		}
		return job.Job{}, fmt.Errorf("latest job for user %d: %w", userID, err)
	}
	return s.mapper.ToDomain(model), nil
}

// FailStale marks active jobs last updated before cutoff as failed. Returns
// the number of jobs affected.
func (s *JobStore) FailStale(ctx context.Context, cutoff time.Time, reason string) (int64, error) {
	result := s.db.Session(ctx).Model(&UserJobModel{}).
		Where("status IN ?", []string{string(job.StatusPending), string(job.StatusProcessing)}).
		Where("updated_at < ?", cutoff).
		Updates(map[string]any{
			"status":        string(job.StatusFailed),
			"error_message": reason,
			"updated_at":    time.Now().UTC(),
			"completed_at":  time.Now().UTC(),
		})
	if result.Error != nil {
		return 0, fmt.Errorf("fail stale jobs: %w", result.Error)
	}
	return result.RowsAffected, nil
}
