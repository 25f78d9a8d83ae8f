package job

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTransition indicates a disallowed status change.
var ErrInvalidTransition = errors.New("invalid job status transition")

// Job tracks one pass over a user's starred repositories. Progress counters
// are denormalized onto the job so status polling needs a single row.
type Job struct {
	id             int64
	userID         int64
	status         Status
	totalRepos     int
	processedRepos int
	failedRepos    int
	errorMessage   string
	createdAt      time.Time
	updatedAt      time.Time
	completedAt    *time.Time
}

// NewJob creates a pending job for the given user. The ID is assigned on
// first save.
func NewJob(userID int64) Job {
	now := time.Now().UTC()
	return Job{
		userID:    userID,
		status:    StatusPending,
		createdAt: now,
		updatedAt: now,
	}
}

// ReconstructJob rebuilds a Job from persisted state.
func ReconstructJob(id, userID int64, status Status, totalRepos, processedRepos, failedRepos int,
	errorMessage string, createdAt, updatedAt time.Time, completedAt *time.Time) Job {
	j := Job{
		id:             id,
		userID:         userID,
		status:         status,
		totalRepos:     totalRepos,
		processedRepos: processedRepos,
		failedRepos:    failedRepos,
		errorMessage:   errorMessage,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
	if completedAt != nil {
		t := completedAt.UTC()
		j.completedAt = &t
	}
	return j
}

// ID returns the job ID, zero before the first save.
func (j Job) ID() int64 { return j.id }

// UserID returns the GitHub user ID the job belongs to.
func (j Job) UserID() int64 { return j.userID }

// Status returns the job status.
func (j Job) Status() Status { return j.status }

// TotalRepos returns the number of repositories the job accounts for.
func (j Job) TotalRepos() int { return j.totalRepos }

// ProcessedRepos returns the number of successfully handled repositories,
// cache hits included.
func (j Job) ProcessedRepos() int { return j.processedRepos }

// FailedRepos returns the number of repositories that failed.
func (j Job) FailedRepos() int { return j.failedRepos }

// ErrorMessage returns the failure reason, empty unless the job failed.
func (j Job) ErrorMessage() string { return j.errorMessage }

// CreatedAt returns when the job was created.
func (j Job) CreatedAt() time.Time { return j.createdAt }

// UpdatedAt returns when the job was last modified.
func (j Job) UpdatedAt() time.Time { return j.updatedAt }

// CompletedAt returns when the job reached a terminal state, nil while it is
// still active. The pointer is a copy.
func (j Job) CompletedAt() *time.Time {
	if j.completedAt == nil {
		return nil
	}
	t := *j.completedAt
	return &t
}

// WithID returns a copy with the persisted ID set.
func (j Job) WithID(id int64) Job {
	j.id = id
	return j
}

// Start transitions the job to processing and records the total.
func (j Job) Start(totalRepos int) (Job, error) {
	if !j.status.CanTransitionTo(StatusProcessing) {
		return j, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.status, StatusProcessing)
	}
	j.status = StatusProcessing
	j.totalRepos = totalRepos
	j.updatedAt = time.Now().UTC()
	return j, nil
}

// WithProgress returns a copy with updated counters.
func (j Job) WithProgress(processed, failed int) Job {
	j.processedRepos = processed
	j.failedRepos = failed
	j.updatedAt = time.Now().UTC()
	return j
}

// Complete transitions the job to completed.
func (j Job) Complete() (Job, error) {
	if !j.status.CanTransitionTo(StatusCompleted) {
		return j, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.status, StatusCompleted)
	}
	now := time.Now().UTC()
	j.status = StatusCompleted
	j.updatedAt = now
	j.completedAt = &now
	return j, nil
}

// Fail transitions the job to failed with a reason. Failing is allowed from
// any active state.
func (j Job) Fail(reason string) (Job, error) {
	if !j.status.CanTransitionTo(StatusFailed) {
		return j, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.status, StatusFailed)
	}
	now := time.Now().UTC()
	j.status = StatusFailed
	j.errorMessage = reason
	j.updatedAt = now
	j.completedAt = &now
	return j, nil
}

// Snapshot is the poll-facing view of a user's job state.
type Snapshot struct {
	job             Job
	found           bool
	isRunning       bool
	totalActiveJobs int
}

// NewSnapshot creates a Snapshot for a user with a known latest job.
func NewSnapshot(j Job, isRunning bool, totalActiveJobs int) Snapshot {
	return Snapshot{job: j, found: true, isRunning: isRunning, totalActiveJobs: totalActiveJobs}
}

// EmptySnapshot creates a Snapshot for a user with no job history.
func EmptySnapshot(totalActiveJobs int) Snapshot {
	return Snapshot{totalActiveJobs: totalActiveJobs}
}

// Job returns the latest job; meaningful only when Found is true.
func (s Snapshot) Job() Job { return s.job }

// Found reports whether the user has any job history.
func (s Snapshot) Found() bool { return s.found }

// IsRunning reports whether a job is currently active for the user.
func (s Snapshot) IsRunning() bool { return s.isRunning }

// TotalActiveJobs returns the process-wide count of running jobs.
func (s Snapshot) TotalActiveJobs() int { return s.totalActiveJobs }
