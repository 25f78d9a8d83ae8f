package service

import (
	"context"
	"sync"
	"time"

	"github.com/starscout/starscout/domain/job"
	"github.com/starscout/starscout/domain/search"
	"github.com/starscout/starscout/domain/service"
	"github.com/starscout/starscout/domain/star"
)

type fakeRepoStore struct {
	mu    sync.Mutex
	repos map[int64]star.Repository
	err   error
}

func newFakeRepoStore() *fakeRepoStore {
	return &fakeRepoStore{repos: map[int64]star.Repository{}}
}

func (f *fakeRepoStore) Save(_ context.Context, repos ...star.Repository) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, r := range repos {
		f.repos[r.ID()] = r
	}
	return nil
}

func (f *fakeRepoStore) Get(_ context.Context, id int64) (star.Repository, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.repos[id]
	if !ok {
		return star.Repository{}, star.ErrNotFound
	}
	return r, nil
}

func (f *fakeRepoStore) Exists(_ context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.repos[id]
	return ok, nil
}

func (f *fakeRepoStore) Count(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.repos)), nil
}

type fakeNoReadmeStore struct {
	mu     sync.Mutex
	marked map[int64]bool
}

func newFakeNoReadmeStore() *fakeNoReadmeStore {
	return &fakeNoReadmeStore{marked: map[int64]bool{}}
}

func (f *fakeNoReadmeStore) Mark(_ context.Context, repoID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked[repoID] = true
	return nil
}

func (f *fakeNoReadmeStore) IsMarked(_ context.Context, repoID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.marked[repoID], nil
}

type fakeStarStore struct {
	mu     sync.Mutex
	sets   map[int64][]int64
	logins map[int64]string
	err    error
}

func newFakeStarStore() *fakeStarStore {
	return &fakeStarStore{sets: map[int64][]int64{}, logins: map[int64]string{}}
}

func (f *fakeStarStore) Replace(_ context.Context, set star.StarSet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sets[set.UserID()] = set.RepoIDs()
	f.logins[set.UserID()] = set.Login()
	return nil
}

func (f *fakeStarStore) RepoIDs(_ context.Context, userID int64) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sets[userID], nil
}

func (f *fakeStarStore) HasUser(_ context.Context, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.sets[userID]
	return ok, nil
}

type fakeJobStore struct {
	mu     sync.Mutex
	nextID int64
	jobs   map[int64]job.Job
}

func newFakeJobStore() *fakeJobStore {
	return &fakeJobStore{jobs: map[int64]job.Job{}}
}

func (f *fakeJobStore) Save(_ context.Context, j job.Job) (job.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	saved := j.WithID(f.nextID)
	f.jobs[f.nextID] = saved
	return saved, nil
}

func (f *fakeJobStore) Update(_ context.Context, j job.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[j.ID()] = j
	return nil
}

func (f *fakeJobStore) Latest(_ context.Context, userID int64) (job.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest job.Job
	found := false
	for _, j := range f.jobs {
		if j.UserID() != userID {
			continue
		}
		if !found || j.ID() > latest.ID() {
			latest = j
			found = true
		}
	}
	if !found {
		return job.Job{}, job.ErrNotFound
	}
	return latest, nil
}

func (f *fakeJobStore) FailStale(_ context.Context, cutoff time.Time, reason string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var affected int64
	for id, j := range f.jobs {
		if !j.Status().IsActive() || !j.UpdatedAt().Before(cutoff) {
			continue
		}
		failed, err := j.Fail(reason)
		if err != nil {
			continue
		}
		f.jobs[id] = failed
		affected++
	}
	return affected, nil
}

func (f *fakeJobStore) get(id int64) job.Job {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.jobs[id]
}

type fakeStream struct {
	pages [][]star.RepoCandidate
	total int
	next  int
	err   error
}

func (f *fakeStream) Total() int { return f.total }

func (f *fakeStream) NextPage(context.Context) ([]star.RepoCandidate, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	if f.next >= len(f.pages) {
		return nil, false, nil
	}
	page := f.pages[f.next]
	f.next++
	return page, true, nil
}

type fakeLister struct {
	stream *fakeStream
	err    error
}

func (f *fakeLister) ListStarred(context.Context, string) (service.StarStream, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.stream, nil
}

func listerOf(candidates ...star.RepoCandidate) *fakeLister {
	return &fakeLister{stream: &fakeStream{
		pages: [][]star.RepoCandidate{candidates},
		total: len(candidates),
	}}
}

type fakeReadmeFetcher struct {
	mu      sync.Mutex
	readmes map[string]string
	errs    map[string]error
	calls   map[string]int
}

func newFakeReadmeFetcher() *fakeReadmeFetcher {
	return &fakeReadmeFetcher{
		readmes: map[string]string{},
		errs:    map[string]error{},
		calls:   map[string]int{},
	}
}

func (f *fakeReadmeFetcher) Readme(_ context.Context, _, owner, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := owner + "/" + name
	f.calls[key]++
	if err, ok := f.errs[key]; ok {
		return "", err
	}
	if readme, ok := f.readmes[key]; ok {
		return readme, nil
	}
	return "", service.ErrReadmeNotFound
}

func (f *fakeReadmeFetcher) callCount(fullName string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[fullName]
}

func candidateOf(id int64, name string, stargazers int) star.RepoCandidate {
	return star.NewRepoCandidate(id, "owner", name, "desc", "", []string{"go"}, stargazers)
}

type fakeEmbedder struct {
	mu        sync.Mutex
	err       error
	dimension int
	calls     int
	lastKey   string
	block     chan struct{}
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{dimension: 3}
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string, opts ...service.EmbedOption) ([][]float64, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastKey = service.BuildEmbedSettings(opts...).APIKey()
	if f.err != nil {
		return nil, f.err
	}
	vectors := make([][]float64, len(texts))
	for i := range texts {
		vectors[i] = []float64{1, 0, 0}
	}
	return vectors, nil
}

func (f *fakeEmbedder) Dimension() int { return f.dimension }

func (f *fakeEmbedder) CheckKey(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *fakeEmbedder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeSearchStore struct {
	results []search.Result
	err     error
	scope   search.Scope
	limit   int
}

func (f *fakeSearchStore) Similar(_ context.Context, _ []float64, scope search.Scope, limit int) ([]search.Result, error) {
	f.scope = scope
	f.limit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}
