package service

import (
	"context"
	"errors"
	"testing"

	"github.com/starscout/starscout/domain/search"
	"github.com/starscout/starscout/domain/service"
	"github.com/starscout/starscout/domain/star"
)

func newSearchFixture(store *fakeSearchStore) (*Search, *fakeRepoStore, *fakeEmbedder) {
	repos := newFakeRepoStore()
	embedder := newFakeEmbedder()
	return NewSearch(embedder, store, repos, nil), repos, embedder
}

func TestQuery_RejectsEmptyQuery(t *testing.T) {
	s, _, embedder := newSearchFixture(&fakeSearchStore{})

	for _, query := range []string{"", "   ", "\t\n"} {
		_, err := s.Query(context.Background(), 42, query, 10)
		if !service.IsValidation(err) {
			t.Errorf("Query(%q) error = %v, want validation error", query, err)
		}
	}
	if embedder.callCount() != 0 {
		t.Errorf("embed calls = %d, want 0", embedder.callCount())
	}
}

func TestQuery_RejectsOversizedTopK(t *testing.T) {
	s, _, _ := newSearchFixture(&fakeSearchStore{})

	_, err := s.Query(context.Background(), 42, "web framework", MaxSearchLimit+1)
	if !service.IsValidation(err) {
		t.Fatalf("error = %v, want validation error", err)
	}
}

func TestQuery_DefaultsTopK(t *testing.T) {
	store := &fakeSearchStore{}
	s, _, _ := newSearchFixture(store)

	if _, err := s.Query(context.Background(), 42, "web framework", 0); err != nil {
		t.Fatalf("Query: %v", err)
	}
	if store.limit != DefaultSearchLimit {
		t.Errorf("limit = %d, want %d", store.limit, DefaultSearchLimit)
	}
}

func TestQuery_UserScope(t *testing.T) {
	store := &fakeSearchStore{}
	s, _, _ := newSearchFixture(store)

	if _, err := s.Query(context.Background(), 42, "web framework", 5); err != nil {
		t.Fatalf("Query: %v", err)
	}
	if store.scope.IsGlobal() {
		t.Error("Query must use a user scope")
	}
	if store.scope.UserID() != 42 {
		t.Errorf("scope user = %d, want 42", store.scope.UserID())
	}
	if store.limit != 5 {
		t.Errorf("limit = %d, want 5", store.limit)
	}
}

func TestQueryGlobal_GlobalScope(t *testing.T) {
	store := &fakeSearchStore{}
	s, _, _ := newSearchFixture(store)

	if _, err := s.QueryGlobal(context.Background(), "web framework", 5); err != nil {
		t.Fatalf("QueryGlobal: %v", err)
	}
	if !store.scope.IsGlobal() {
		t.Error("QueryGlobal must use the global scope")
	}
}

func TestQuery_MapsResultsToMatches(t *testing.T) {
	store := &fakeSearchStore{results: []search.Result{
		search.NewResult(1, 0.9),
		search.NewResult(2, 0.7),
	}}
	s, repos, _ := newSearchFixture(store)
	repos.repos[1] = star.NewRepository(candidateOf(1, "first", 100), "# first", []float64{1})
	repos.repos[2] = star.NewRepository(candidateOf(2, "second", 50), "", []float64{1})

	matches, err := s.Query(context.Background(), 42, "web framework", 10)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("matches = %d, want 2", len(matches))
	}
	if matches[0].Repository().ID() != 1 || matches[0].Score() != 0.9 {
		t.Errorf("match[0] = %d/%v, want 1/0.9",
			matches[0].Repository().ID(), matches[0].Score())
	}
	if matches[1].Repository().Candidate().Name() != "second" {
		t.Errorf("match[1] name = %q, want second", matches[1].Repository().Candidate().Name())
	}
}

func TestQuery_SkipsMissingRepositories(t *testing.T) {
	store := &fakeSearchStore{results: []search.Result{
		search.NewResult(1, 0.9),
		search.NewResult(2, 0.7),
	}}
	s, repos, _ := newSearchFixture(store)
	repos.repos[2] = star.NewRepository(candidateOf(2, "survivor", 50), "", []float64{1})

	matches, err := s.Query(context.Background(), 42, "web framework", 10)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("matches = %d, want 1", len(matches))
	}
	if matches[0].Repository().ID() != 2 {
		t.Errorf("match ID = %d, want 2", matches[0].Repository().ID())
	}
}

func TestQuery_StoreFailure(t *testing.T) {
	store := &fakeSearchStore{err: errors.New("index offline")}
	s, _, _ := newSearchFixture(store)

	_, err := s.Query(context.Background(), 42, "web framework", 10)
	if !errors.Is(err, service.ErrSearchUnavailable) {
		t.Fatalf("error = %v, want ErrSearchUnavailable", err)
	}
}

func TestQuery_EmbedFailurePropagates(t *testing.T) {
	s, _, embedder := newSearchFixture(&fakeSearchStore{})
	embedder.err = service.ErrAuthInvalid

	_, err := s.Query(context.Background(), 42, "web framework", 10)
	if !errors.Is(err, service.ErrAuthInvalid) {
		t.Fatalf("error = %v, want ErrAuthInvalid", err)
	}
}

func TestQuery_PassesAPIKey(t *testing.T) {
	s, _, embedder := newSearchFixture(&fakeSearchStore{})

	_, err := s.Query(context.Background(), 42, "web framework", 10,
		service.WithAPIKey("caller-key"))
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if embedder.lastKey != "caller-key" {
		t.Errorf("lastKey = %q, want caller-key", embedder.lastKey)
	}
}
