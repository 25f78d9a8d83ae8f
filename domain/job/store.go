package job

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates no job exists for the requested user.
var ErrNotFound = errors.New("job not found")

// Store persists jobs.
type Store interface {
	// Save inserts the job and returns it with its assigned ID.
	Save(ctx context.Context, j Job) (Job, error)

	// Update overwrites the job row identified by the job's ID.
	Update(ctx context.Context, j Job) error

	// Latest returns the most recently created job for the user, or
	// ErrNotFound.
	Latest(ctx context.Context, userID int64) (Job, error)

	// FailStale marks active jobs last updated before cutoff as failed and
	// returns how many were affected. Used at startup to reconcile jobs
	// orphaned by a previous process.
	FailStale(ctx context.Context, cutoff time.Time, reason string) (int64, error)
}
