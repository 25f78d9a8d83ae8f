// Package starscout indexes a user's starred GitHub repositories into vector
// embeddings and serves semantic search over them.
//
// Basic usage:
//
//	client, err := starscout.New(
//	    starscout.WithSQLite("starscout.db"),
//	    starscout.WithOpenAI(os.Getenv("OPENAI_API_KEY")),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Start an ingestion job for an authenticated user
//	j, _, err := client.Jobs.StartJob(ctx, accessToken, "", user, false)
//
//	// Search the user's stars
//	matches, err := client.Search.Query(ctx, user.ID(), "terminal ui library", 10)
package starscout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/starscout/starscout/application/service"
	domainservice "github.com/starscout/starscout/domain/service"
	"github.com/starscout/starscout/domain/star"
	"github.com/starscout/starscout/infrastructure/github"
	"github.com/starscout/starscout/infrastructure/persistence"
	"github.com/starscout/starscout/infrastructure/provider"
	"github.com/starscout/starscout/internal/config"
	"github.com/starscout/starscout/internal/database"
	"github.com/starscout/starscout/internal/retry"
)

// ErrNoDatabase is returned by New when no database is configured.
var ErrNoDatabase = errors.New("no database configured: use WithSQLite, WithPostgres or WithDatabaseURL")

// Client is the main entry point for the starscout library.
//
// Access services via struct fields:
//
//	client.Jobs.StartJob(ctx, token, apiKey, user, force)
//	client.Search.Query(ctx, userID, "query", 10)
type Client struct {
	// Public service fields (direct access)
	Jobs   *service.JobManager
	Search *service.Search

	// Stores exposed for read paths outside the job pipeline
	Repositories star.RepositoryStore
	Stars        star.StarStore

	db       database.Database
	github   *github.Client
	embedder domainservice.Embedder
	cfg      config.AppConfig
	logger   *slog.Logger
	closed   atomic.Bool
}

// New creates a Client and reconciles jobs orphaned by a previous process.
func New(opts ...Option) (*Client, error) {
	cc := newClientConfig()
	for _, opt := range opts {
		opt(cc)
	}

	cfg := cc.cfg.Apply(cc.cfgOpts...)

	if !cc.hasDatabase && cfg.DBURL() == "" {
		return nil, ErrNoDatabase
	}

	logger := cc.logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx := context.Background()

	db, err := database.NewDatabase(ctx, cfg.DBURL())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := persistence.AutoMigrateWithDimension(db, cfg.EmbeddingDimension()); err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("auto migrate: %w", err), errClose)
	}

	repoStore := persistence.NewRepositoryStore(db)
	jobStore := persistence.NewJobStore(db)
	starStore := persistence.NewStarStore(db)
	noReadmeStore := persistence.NewNoReadmeStore(db)
	searchStore := persistence.NewSearchStore(db)

	policy := retry.NewPolicy(cfg.MaxRetries(), cfg.InitialDelay(), cfg.BackoffFactor())

	gh := cc.githubClient
	if gh == nil {
		gh = github.NewClient(
			github.WithBaseURL(cfg.GitHubBaseURL()),
			github.WithRetryPolicy(policy),
			github.WithReadmeMaxChars(cfg.ReadmeMaxChars()),
		)
	}

	embedder := cc.embedder
	if embedder == nil {
		embedder = provider.NewOpenAIEmbedder(provider.Config{
			APIKey:        cfg.OpenAIAPIKey(),
			BaseURL:       cfg.OpenAIBaseURL(),
			Model:         cfg.EmbeddingModel(),
			Dimension:     cfg.EmbeddingDimension(),
			MaxRetries:    cfg.MaxRetries(),
			InitialDelay:  cfg.InitialDelay(),
			BackoffFactor: cfg.BackoffFactor(),
		})
	}

	ingestor := service.NewIngestor(repoStore, noReadmeStore, gh, embedder, cfg.EmbedInputMaxChars(), logger)

	jobs := service.NewJobManager(service.JobManagerConfig{
		Jobs:          jobStore,
		Stars:         starStore,
		Lister:        gh,
		Ingestor:      ingestor,
		Logger:        logger,
		WorkerCount:   cfg.WorkerCount(),
		StarThreshold: cfg.StarThreshold(),
		StaleJobAfter: cfg.StaleJobAfter(),
	})

	if err := jobs.Initialize(ctx); err != nil {
		errClose := db.Close()
		return nil, errors.Join(fmt.Errorf("initialize jobs: %w", err), errClose)
	}

	searchSvc := service.NewSearch(embedder, searchStore, repoStore, logger)

	return &Client{
		Jobs:         jobs,
		Search:       searchSvc,
		Repositories: repoStore,
		Stars:        starStore,
		db:           db,
		github:       gh,
		embedder:     embedder,
		cfg:          cfg,
		logger:       logger,
	}, nil
}

// Close waits for running jobs and closes the database.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.Jobs.Close()
	return c.db.Close()
}

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger { return c.logger }

// Config returns the resolved application configuration.
func (c *Client) Config() config.AppConfig { return c.cfg }

// Resolver returns the GitHub identity resolver used for bearer auth.
func (c *Client) Resolver() domainservice.UserResolver { return c.github }

// Embedder returns the embedding provider, used to validate caller-supplied
// API keys.
func (c *Client) Embedder() domainservice.Embedder { return c.embedder }
