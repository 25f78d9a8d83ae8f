package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starscout/starscout/domain/search"
	"github.com/starscout/starscout/domain/service"
	"github.com/starscout/starscout/domain/star"
)

// Search limits.
const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 50
)

// Match is one search hit: the indexed repository and its similarity score.
type Match struct {
	repository star.Repository
	score      float64
}

// NewMatch creates a Match.
func NewMatch(repository star.Repository, score float64) Match {
	return Match{repository: repository, score: score}
}

// Repository returns the matched repository.
func (m Match) Repository() star.Repository { return m.repository }

// Score returns the similarity score.
func (m Match) Score() float64 { return m.score }

// Search embeds queries and runs nearest-neighbor lookups, scoped to one
// user's stars or across the whole index.
type Search struct {
	embedder service.Embedder
	store    search.Store
	repos    star.RepositoryStore
	logger   *slog.Logger
}

// NewSearch creates a Search service.
func NewSearch(embedder service.Embedder, store search.Store, repos star.RepositoryStore, logger *slog.Logger) *Search {
	if logger == nil {
		logger = slog.Default()
	}
	return &Search{embedder: embedder, store: store, repos: repos, logger: logger}
}

// Query searches the user's starred repositories.
func (s *Search) Query(ctx context.Context, userID int64, query string, topK int, opts ...service.EmbedOption) ([]Match, error) {
	return s.run(ctx, search.UserScope(userID), query, topK, opts...)
}

// QueryGlobal searches every indexed repository.
func (s *Search) QueryGlobal(ctx context.Context, query string, topK int, opts ...service.EmbedOption) ([]Match, error) {
	return s.run(ctx, search.GlobalScope(), query, topK, opts...)
}

func (s *Search) run(ctx context.Context, scope search.Scope, query string, topK int, opts ...service.EmbedOption) ([]Match, error) {
	if strings.TrimSpace(query) == "" {
		return nil, service.NewValidationError("query", "must not be empty")
	}
	if topK <= 0 {
		topK = DefaultSearchLimit
	}
	if topK > MaxSearchLimit {
		return nil, service.NewValidationError("top_k", fmt.Sprintf("must be at most %d", MaxSearchLimit))
	}

	vectors, err := s.embedder.Embed(ctx, []string{query}, opts...)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed query: %w", service.ErrUpstreamUnavailable)
	}

	results, err := s.store.Similar(ctx, vectors[0], scope, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", service.ErrSearchUnavailable, err)
	}

	matches := make([]Match, 0, len(results))
	for _, result := range results {
		repo, err := s.repos.Get(ctx, result.RepoID())
		if err != nil {
			if errors.Is(err, star.ErrNotFound) {
				// Row deleted between search and load; skip.
				continue
			}
			return nil, fmt.Errorf("%w: %v", service.ErrSearchUnavailable, err)
		}
		matches = append(matches, NewMatch(repo, result.Score()))
	}
	return matches, nil
}
