package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starscout/starscout/domain/job"
	"github.com/starscout/starscout/domain/search"
	"github.com/starscout/starscout/domain/star"
	"github.com/starscout/starscout/internal/database"
)

// newTestDB creates a migrated in-memory SQLite database.
func newTestDB(t *testing.T) database.Database {
	t.Helper()
	ctx := context.Background()
	db, err := database.NewDatabase(ctx, "sqlite:///:memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, AutoMigrate(db))
	return db
}

func testRepository(id int64, name string, embedding []float64) star.Repository {
	candidate := star.NewRepoCandidate(id, "owner", name, "desc "+name, "https://github.com/owner/"+name,
		[]string{"go", "search"}, 100)
	return star.NewRepository(candidate, "# "+name, embedding)
}

func TestRepositoryStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewRepositoryStore(newTestDB(t))

	repo := testRepository(1, "alpha", []float64{0.1, 0.2, 0.3})
	require.NoError(t, store.Save(ctx, repo))

	got, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID())
	assert.Equal(t, "owner/alpha", got.Candidate().FullName())
	assert.Equal(t, "# alpha", got.Readme())
	assert.Equal(t, []string{"go", "search"}, got.Candidate().Topics())
	assert.InDelta(t, 0.2, got.Embedding()[1], 1e-9)
}

func TestRepositoryStore_UpsertLastWriteWins(t *testing.T) {
	ctx := context.Background()
	store := NewRepositoryStore(newTestDB(t))

	require.NoError(t, store.Save(ctx, testRepository(1, "alpha", []float64{1})))
	require.NoError(t, store.Save(ctx, testRepository(1, "alpha-renamed", []float64{2})))

	got, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "alpha-renamed", got.Candidate().Name())
	assert.Equal(t, []float64{2}, got.Embedding())

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRepositoryStore_GetMissing(t *testing.T) {
	store := NewRepositoryStore(newTestDB(t))

	_, err := store.Get(context.Background(), 404)
	assert.True(t, errors.Is(err, star.ErrNotFound))
}

func TestRepositoryStore_Exists(t *testing.T) {
	ctx := context.Background()
	store := NewRepositoryStore(newTestDB(t))

	require.NoError(t, store.Save(ctx, testRepository(5, "e", []float64{1})))

	exists, err := store.Exists(ctx, 5)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.Exists(ctx, 6)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestJobStore_SaveAssignsID(t *testing.T) {
	ctx := context.Background()
	store := NewJobStore(newTestDB(t))

	saved, err := store.Save(ctx, job.NewJob(42))
	require.NoError(t, err)
	assert.NotZero(t, saved.ID())
	assert.Equal(t, job.StatusPending, saved.Status())
}

func TestJobStore_UpdateAndLatest(t *testing.T) {
	ctx := context.Background()
	store := NewJobStore(newTestDB(t))

	saved, err := store.Save(ctx, job.NewJob(42))
	require.NoError(t, err)

	started, err := saved.Start(10)
	require.NoError(t, err)
	started = started.WithProgress(4, 1)
	require.NoError(t, store.Update(ctx, started))

	latest, err := store.Latest(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, saved.ID(), latest.ID())
	assert.Equal(t, job.StatusProcessing, latest.Status())
	assert.Equal(t, 10, latest.TotalRepos())
	assert.Equal(t, 4, latest.ProcessedRepos())
	assert.Equal(t, 1, latest.FailedRepos())
	assert.Nil(t, latest.CompletedAt())

	completed, err := started.Complete()
	require.NoError(t, err)
	require.NoError(t, store.Update(ctx, completed))

	latest, err = store.Latest(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, job.StatusCompleted, latest.Status())
	require.NotNil(t, latest.CompletedAt())
	assert.WithinDuration(t, time.Now().UTC(), *latest.CompletedAt(), time.Minute)
}

func TestJobStore_LatestPicksNewest(t *testing.T) {
	ctx := context.Background()
	store := NewJobStore(newTestDB(t))

	first, err := store.Save(ctx, job.NewJob(42))
	require.NoError(t, err)
	failed, err := first.Fail("old")
	require.NoError(t, err)
	require.NoError(t, store.Update(ctx, failed))

	second, err := store.Save(ctx, job.NewJob(42))
	require.NoError(t, err)

	latest, err := store.Latest(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, second.ID(), latest.ID())
}

func TestJobStore_LatestMissing(t *testing.T) {
	store := NewJobStore(newTestDB(t))

	_, err := store.Latest(context.Background(), 999)
	assert.True(t, errors.Is(err, job.ErrNotFound))
}

func TestJobStore_FailStale(t *testing.T) {
	ctx := context.Background()
	store := NewJobStore(newTestDB(t))

	stale, err := store.Save(ctx, job.NewJob(1))
	require.NoError(t, err)

	done, err := store.Save(ctx, job.NewJob(2))
	require.NoError(t, err)
	started, err := done.Start(1)
	require.NoError(t, err)
	completed, err := started.Complete()
	require.NoError(t, err)
	require.NoError(t, store.Update(ctx, completed))

	affected, err := store.FailStale(ctx, time.Now().UTC().Add(time.Minute), "orphaned by restart")
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	reconciled, err := store.Latest(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, job.StatusFailed, reconciled.Status())
	assert.Equal(t, "orphaned by restart", reconciled.ErrorMessage())
	assert.Equal(t, stale.ID(), reconciled.ID())
	assert.NotNil(t, reconciled.CompletedAt())

	untouched, err := store.Latest(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, job.StatusCompleted, untouched.Status())
}

func TestJobStore_FailStaleRespectsCutoff(t *testing.T) {
	ctx := context.Background()
	store := NewJobStore(newTestDB(t))

	_, err := store.Save(ctx, job.NewJob(1))
	require.NoError(t, err)

	affected, err := store.FailStale(ctx, time.Now().UTC().Add(-time.Hour), "stale")
	require.NoError(t, err)
	assert.Zero(t, affected)
}

func TestStarStore_ReplaceAndRead(t *testing.T) {
	ctx := context.Background()
	store := NewStarStore(newTestDB(t))

	require.NoError(t, store.Replace(ctx, star.NewStarSet(42, "alice", []int64{3, 1, 2})))

	ids, err := store.RepoIDs(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)

	has, err := store.HasUser(ctx, 42)
	require.NoError(t, err)
	assert.True(t, has)

	has, err = store.HasUser(ctx, 43)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestStarStore_PersistsUsernameAndStamps(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	store := NewStarStore(db)

	require.NoError(t, store.Replace(ctx, star.NewStarSet(42, "alice", []int64{1, 2})))

	var rows []UserStarModel
	require.NoError(t, db.Session(ctx).Order("repo_id").Find(&rows).Error)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, "alice", row.GithubUsername)
		assert.WithinDuration(t, time.Now().UTC(), row.CreatedAt, time.Minute)
		assert.WithinDuration(t, time.Now().UTC(), row.UpdatedAt, time.Minute)
	}
}

func TestStarStore_ReplaceIsWholesale(t *testing.T) {
	ctx := context.Background()
	store := NewStarStore(newTestDB(t))

	require.NoError(t, store.Replace(ctx, star.NewStarSet(42, "alice", []int64{1, 2, 3})))
	require.NoError(t, store.Replace(ctx, star.NewStarSet(42, "alice", []int64{2, 4})))

	ids, err := store.RepoIDs(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 4}, ids)
}

func TestStarStore_ReplaceEmptyClears(t *testing.T) {
	ctx := context.Background()
	store := NewStarStore(newTestDB(t))

	require.NoError(t, store.Replace(ctx, star.NewStarSet(42, "alice", []int64{1})))
	require.NoError(t, store.Replace(ctx, star.NewStarSet(42, "alice", nil)))

	ids, err := store.RepoIDs(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestNoReadmeStore_MarkIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewNoReadmeStore(newTestDB(t))

	require.NoError(t, store.Mark(ctx, 7))
	require.NoError(t, store.Mark(ctx, 7))

	marked, err := store.IsMarked(ctx, 7)
	require.NoError(t, err)
	assert.True(t, marked)

	marked, err = store.IsMarked(ctx, 8)
	require.NoError(t, err)
	assert.False(t, marked)
}

func TestSearchStore_GlobalScope(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repos := NewRepositoryStore(db)
	searchStore := NewSearchStore(db)

	require.NoError(t, repos.Save(ctx,
		testRepository(1, "far", []float64{0, 1}),
		testRepository(2, "near", []float64{1, 0}),
		testRepository(3, "mid", []float64{1, 1}),
	))

	results, err := searchStore.Similar(ctx, []float64{1, 0}, search.GlobalScope(), 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, int64(2), results[0].RepoID())
	assert.Equal(t, int64(3), results[1].RepoID())
	assert.Greater(t, results[0].Score(), results[1].Score())
}

func TestSearchStore_UserScope(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repos := NewRepositoryStore(db)
	stars := NewStarStore(db)
	searchStore := NewSearchStore(db)

	require.NoError(t, repos.Save(ctx,
		testRepository(1, "a", []float64{1, 0}),
		testRepository(2, "b", []float64{1, 0}),
	))
	require.NoError(t, stars.Replace(ctx, star.NewStarSet(42, "alice", []int64{2})))

	results, err := searchStore.Similar(ctx, []float64{1, 0}, search.UserScope(42), 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(2), results[0].RepoID())
}

func TestSearchStore_TiesBreakByID(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repos := NewRepositoryStore(db)
	searchStore := NewSearchStore(db)

	require.NoError(t, repos.Save(ctx,
		testRepository(30, "c", []float64{2, 0}),
		testRepository(10, "a", []float64{1, 0}),
		testRepository(20, "b", []float64{3, 0}),
	))

	results, err := searchStore.Similar(ctx, []float64{1, 0}, search.GlobalScope(), 10)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []int64{10, 20, 30},
		[]int64{results[0].RepoID(), results[1].RepoID(), results[2].RepoID()})
}

func TestSearchStore_EmptyQuery(t *testing.T) {
	searchStore := NewSearchStore(newTestDB(t))

	results, err := searchStore.Similar(context.Background(), nil, search.GlobalScope(), 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestStringSlice_RoundTrip(t *testing.T) {
	val, err := StringSlice{"a", "b"}.Value()
	require.NoError(t, err)

	var got StringSlice
	require.NoError(t, got.Scan(val))
	assert.Equal(t, StringSlice{"a", "b"}, got)

	var nilSlice StringSlice
	require.NoError(t, nilSlice.Scan(nil))
	assert.Nil(t, nilSlice)
}
