package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starscout/starscout/domain/job"
	"github.com/starscout/starscout/domain/service"
	"github.com/starscout/starscout/domain/star"
)

// Defaults for the job manager.
const (
	DefaultWorkerCount   = 8
	DefaultStaleJobAfter = 30 * time.Minute
)

const staleJobReason = "job orphaned by a previous process"

// JobManager admits and runs star-processing jobs: at most one active job
// per user, a bounded worker pool per job, durable progress on the job row.
type JobManager struct {
	jobs          job.Store
	stars         star.StarStore
	lister        service.StarLister
	ingestor      *Ingestor
	logger        *slog.Logger
	workerCount   int
	starThreshold int
	staleJobAfter time.Duration

	mu     sync.Mutex
	active map[int64]job.Job

	// wg tracks running jobs so Close can drain them.
	wg sync.WaitGroup
}

// JobManagerConfig holds JobManager construction parameters.
type JobManagerConfig struct {
	Jobs          job.Store
	Stars         star.StarStore
	Lister        service.StarLister
	Ingestor      *Ingestor
	Logger        *slog.Logger
	WorkerCount   int
	StarThreshold int
	StaleJobAfter time.Duration
}

// NewJobManager creates a JobManager.
func NewJobManager(cfg JobManagerConfig) *JobManager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workerCount := cfg.WorkerCount
	if workerCount <= 0 {
		workerCount = DefaultWorkerCount
	}
	staleJobAfter := cfg.StaleJobAfter
	if staleJobAfter <= 0 {
		staleJobAfter = DefaultStaleJobAfter
	}

	return &JobManager{
		jobs:          cfg.Jobs,
		stars:         cfg.Stars,
		lister:        cfg.Lister,
		ingestor:      cfg.Ingestor,
		logger:        logger,
		workerCount:   workerCount,
		starThreshold: cfg.StarThreshold,
		staleJobAfter: staleJobAfter,
		active:        map[int64]job.Job{},
	}
}

// Initialize reconciles jobs orphaned by a previous process: any job still
// active in the database but not updated within the stale window is marked
// failed.
func (m *JobManager) Initialize(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-m.staleJobAfter)
	affected, err := m.jobs.FailStale(ctx, cutoff, staleJobReason)
	if err != nil {
		return fmt.Errorf("reconcile stale jobs: %w", err)
	}
	if affected > 0 {
		m.logger.Info("reconciled stale jobs", "count", affected)
	}
	return nil
}

// StartJob starts a background job for the user, or returns the latest job
// when one is already active. The second return reports whether a new job
// was started. apiKey, when non-empty, is used for embedding calls in place
// of the server key.
func (m *JobManager) StartJob(ctx context.Context, token, apiKey string, user service.User, force bool) (job.Job, bool, error) {
	m.mu.Lock()
	if cur, running := m.active[user.ID()]; running {
		m.mu.Unlock()
		// Prefer the stored row, which carries live progress.
		latest, err := m.jobs.Latest(ctx, user.ID())
		if err != nil {
			return cur, false, nil
		}
		return latest, false, nil
	}

	// The save happens under the admission lock so concurrent callers are
	// always deduplicated onto a job that already has its ID.
	j, err := m.jobs.Save(ctx, job.NewJob(user.ID()))
	if err != nil {
		m.mu.Unlock()
		return job.Job{}, false, fmt.Errorf("start job: %w", err)
	}
	m.active[user.ID()] = j
	m.mu.Unlock()

	m.wg.Add(1)
	go m.run(j, token, apiKey, user.Login(), force)

	m.logger.Info("job started", "job_id", j.ID(), "user_id", user.ID(), "force", force)
	return j, true, nil
}

// Status returns the user's latest job together with live admission state.
func (m *JobManager) Status(ctx context.Context, userID int64) (job.Snapshot, error) {
	m.mu.Lock()
	_, running := m.active[userID]
	totalActive := len(m.active)
	m.mu.Unlock()

	latest, err := m.jobs.Latest(ctx, userID)
	if errors.Is(err, job.ErrNotFound) {
		return job.EmptySnapshot(totalActive), nil
	}
	if err != nil {
		return job.Snapshot{}, fmt.Errorf("job status: %w", err)
	}
	return job.NewSnapshot(latest, running, totalActive), nil
}

// IsRunning reports whether the user currently has an active job.
func (m *JobManager) IsRunning(userID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, running := m.active[userID]
	return running
}

// Close waits for running jobs to finish.
func (m *JobManager) Close() {
	m.wg.Wait()
}

func (m *JobManager) release(userID int64) {
	m.mu.Lock()
	delete(m.active, userID)
	m.mu.Unlock()
}

// run executes one job to completion on a context detached from the HTTP
// request that started it.
func (m *JobManager) run(j job.Job, token, apiKey, login string, force bool) {
	ctx := context.Background()
	userID := j.UserID()

	defer m.wg.Done()
	defer m.release(userID)
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("job panicked", "job_id", j.ID(), "user_id", userID, "panic", r)
			m.failJob(ctx, j, fmt.Sprintf("panic: %v", r))
		}
	}()

	stream, err := m.lister.ListStarred(ctx, token)
	if err != nil {
		m.failJob(ctx, j, fmt.Sprintf("list stars: %v", err))
		return
	}

	candidates, starredIDs, err := m.collect(ctx, stream)
	if err != nil {
		m.failJob(ctx, j, fmt.Sprintf("list stars: %v", err))
		return
	}

	j, err = j.Start(len(candidates))
	if err != nil {
		m.logger.Error("job start transition failed", "job_id", j.ID(), "error", err)
		return
	}
	if err := m.jobs.Update(ctx, j); err != nil {
		m.logger.Error("job update failed", "job_id", j.ID(), "error", err)
	}

	var embedOpts []service.EmbedOption
	if apiKey != "" {
		embedOpts = append(embedOpts, service.WithAPIKey(apiKey))
	}

	processed, failed, err := m.processAll(ctx, j, token, candidates, force, embedOpts)
	j = j.WithProgress(processed, failed)
	if err != nil {
		m.failJob(ctx, j, fmt.Sprintf("embedding credential rejected: %v", err))
		return
	}

	// Only a fully-walked star list replaces the stored set.
	if err := m.stars.Replace(ctx, star.NewStarSet(userID, login, starredIDs)); err != nil {
		m.failJob(ctx, j, fmt.Sprintf("store star set: %v", err))
		return
	}

	completed, err := j.Complete()
	if err != nil {
		m.logger.Error("job complete transition failed", "job_id", j.ID(), "error", err)
		return
	}
	if err := m.jobs.Update(ctx, completed); err != nil {
		m.logger.Error("job update failed", "job_id", j.ID(), "error", err)
		return
	}

	m.logger.Info("job completed",
		"job_id", j.ID(), "user_id", userID,
		"total", completed.TotalRepos(),
		"processed", completed.ProcessedRepos(),
		"failed", completed.FailedRepos(),
	)
}

// collect walks the star stream, returning candidates above the star
// threshold for indexing and every starred repository ID for the star set.
func (m *JobManager) collect(ctx context.Context, stream service.StarStream) ([]star.RepoCandidate, []int64, error) {
	var candidates []star.RepoCandidate
	var starredIDs []int64

	for {
		page, ok, err := stream.NextPage(ctx)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			break
		}
		for _, c := range page {
			starredIDs = append(starredIDs, c.ID())
			if c.Stargazers() >= m.starThreshold {
				candidates = append(candidates, c)
			}
		}
	}
	return candidates, starredIDs, nil
}

// processAll runs the candidates through a bounded worker pool. Per-item
// failures are counted and do not fail the job; a rejected embedding
// credential aborts the whole job and is returned.
func (m *JobManager) processAll(ctx context.Context, j job.Job, token string, candidates []star.RepoCandidate, force bool, embedOpts []service.EmbedOption) (int, int, error) {
	var processed, failed atomic.Int32
	var flushMu sync.Mutex

	flush := func() {
		flushMu.Lock()
		defer flushMu.Unlock()
		update := j.WithProgress(int(processed.Load()), int(failed.Load()))
		if err := m.jobs.Update(ctx, update); err != nil {
			m.logger.Warn("progress flush failed", "job_id", j.ID(), "error", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workerCount)

	for _, candidate := range candidates {
		g.Go(func() error {
			res, err := m.ingestor.Resolve(gctx, candidate, force)
			if err == nil {
				if res.Cached() {
					processed.Add(1)
					flush()
					return nil
				}
				err = m.ingestor.Process(gctx, token, candidate, res, embedOpts...)
			}

			if err != nil {
				if errors.Is(err, service.ErrAuthInvalid) {
					return err
				}
				if gctx.Err() != nil {
					// The pool is already shutting down; don't count items
					// cancelled by another worker's abort.
					return nil
				}
				failed.Add(1)
				m.logger.Warn("repository processing failed",
					"job_id", j.ID(), "repo", candidate.FullName(), "error", err)
				flush()
				return nil
			}

			processed.Add(1)
			flush()
			return nil
		})
	}

	err := g.Wait()
	return int(processed.Load()), int(failed.Load()), err
}

func (m *JobManager) failJob(ctx context.Context, j job.Job, reason string) {
	failed, err := j.Fail(reason)
	if err != nil {
		m.logger.Error("job fail transition failed", "job_id", j.ID(), "error", err)
		return
	}
	if err := m.jobs.Update(ctx, failed); err != nil {
		m.logger.Error("job update failed", "job_id", j.ID(), "error", err)
	}
	m.logger.Warn("job failed", "job_id", j.ID(), "user_id", j.UserID(), "reason", reason)
}
