// Package service contains the application services orchestrating jobs,
// ingestion, and search over the domain stores and upstream clients.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/starscout/starscout/domain/service"
	"github.com/starscout/starscout/domain/star"
)

// Resolution is the dedup decision for one candidate.
type Resolution struct {
	cached      bool
	fetchReadme bool
}

// Cached reports whether the repository is already indexed and needs no work.
func (r Resolution) Cached() bool { return r.cached }

// FetchReadme reports whether a README fetch should be attempted.
func (r Resolution) FetchReadme() bool { return r.fetchReadme }

// Ingestor decides what work a candidate needs and performs it: README
// fetch, embedding, and persistence.
type Ingestor struct {
	repos         star.RepositoryStore
	noReadme      star.NoReadmeStore
	readmes       service.ReadmeFetcher
	embedder      service.Embedder
	embedMaxChars int
	logger        *slog.Logger
}

// NewIngestor creates an Ingestor.
func NewIngestor(
	repos star.RepositoryStore,
	noReadme star.NoReadmeStore,
	readmes service.ReadmeFetcher,
	embedder service.Embedder,
	embedMaxChars int,
	logger *slog.Logger,
) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	if embedMaxChars <= 0 {
		embedMaxChars = star.DefaultEmbedInputMaxChars
	}
	return &Ingestor{
		repos:         repos,
		noReadme:      noReadme,
		readmes:       readmes,
		embedder:      embedder,
		embedMaxChars: embedMaxChars,
		logger:        logger,
	}
}

// Resolve makes the dedup decision for a candidate. It only reads; no state
// changes until Process succeeds.
func (i *Ingestor) Resolve(ctx context.Context, candidate star.RepoCandidate, force bool) (Resolution, error) {
	if force {
		return Resolution{fetchReadme: true}, nil
	}

	indexed, err := i.repos.Exists(ctx, candidate.ID())
	if err != nil {
		return Resolution{}, fmt.Errorf("resolve %s: %w", candidate.FullName(), err)
	}
	if indexed {
		return Resolution{cached: true}, nil
	}

	marked, err := i.noReadme.IsMarked(ctx, candidate.ID())
	if err != nil {
		return Resolution{}, fmt.Errorf("resolve %s: %w", candidate.FullName(), err)
	}

	return Resolution{fetchReadme: !marked}, nil
}

// Process fetches the README if the resolution calls for it, embeds the
// candidate, and persists the repository. The no-README marker is written
// only after a successful embed, so transient failures never poison the
// negative cache.
func (i *Ingestor) Process(ctx context.Context, token string, candidate star.RepoCandidate, res Resolution, opts ...service.EmbedOption) error {
	readme := ""
	markNoReadme := false

	if res.FetchReadme() {
		content, err := i.readmes.Readme(ctx, token, candidate.Owner(), candidate.Name())
		switch {
		case errors.Is(err, service.ErrReadmeNotFound):
			markNoReadme = true
		case err != nil:
			return fmt.Errorf("process %s: %w", candidate.FullName(), err)
		default:
			readme = content
		}
	}

	text := star.EmbeddingText(candidate, readme, i.embedMaxChars)
	vectors, err := i.embedder.Embed(ctx, []string{text}, opts...)
	if err != nil {
		return fmt.Errorf("process %s: %w", candidate.FullName(), err)
	}
	if len(vectors) != 1 {
		return fmt.Errorf("process %s: got %d vectors for one text", candidate.FullName(), len(vectors))
	}

	repo := star.NewRepository(candidate, readme, vectors[0])
	if err := i.repos.Save(ctx, repo); err != nil {
		return fmt.Errorf("process %s: %w", candidate.FullName(), err)
	}

	if markNoReadme {
		if err := i.noReadme.Mark(ctx, candidate.ID()); err != nil {
			// The repository itself is saved; losing the marker only costs
			// one extra README fetch on the next run.
			i.logger.Warn("failed to record missing readme",
				"repo", candidate.FullName(), "error", err)
		}
	}
	return nil
}
