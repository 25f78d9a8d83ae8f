package starscout

import (
	"log/slog"

	"github.com/starscout/starscout/domain/service"
	"github.com/starscout/starscout/infrastructure/github"
	"github.com/starscout/starscout/internal/config"
)

// clientConfig holds configuration for Client construction.
type clientConfig struct {
	cfg          config.AppConfig
	cfgOpts      []config.AppConfigOption
	logger       *slog.Logger
	embedder     service.Embedder
	githubClient *github.Client
	hasDatabase  bool
}

func newClientConfig() *clientConfig {
	return &clientConfig{cfg: config.NewAppConfig()}
}

// Option configures the Client.
type Option func(*clientConfig)

// WithSQLite configures SQLite as the database, with the embedding vectors
// stored as text and similarity computed in process.
func WithSQLite(path string) Option {
	return func(c *clientConfig) {
		c.cfgOpts = append(c.cfgOpts, config.WithDBURL("sqlite:///"+path))
		c.hasDatabase = true
	}
}

// WithPostgres configures PostgreSQL with the pgvector extension.
func WithPostgres(dsn string) Option {
	return func(c *clientConfig) {
		c.cfgOpts = append(c.cfgOpts, config.WithDBURL(dsn))
		c.hasDatabase = true
	}
}

// WithDatabaseURL configures the database from a raw URL, accepting the same
// forms as the DB_URL environment variable.
func WithDatabaseURL(url string) Option {
	return func(c *clientConfig) {
		c.cfgOpts = append(c.cfgOpts, config.WithDBURL(url))
		c.hasDatabase = true
	}
}

// WithOpenAI sets the service's default embedding API key.
func WithOpenAI(apiKey string) Option {
	return func(c *clientConfig) {
		c.cfgOpts = append(c.cfgOpts, config.WithOpenAIAPIKey(apiKey))
	}
}

// WithConfig replaces the whole application configuration. Options applied
// after it still take effect.
func WithConfig(cfg config.AppConfig) Option {
	return func(c *clientConfig) {
		c.cfg = cfg
		if cfg.DBURL() != "" {
			c.hasDatabase = true
		}
	}
}

// WithConfigOptions applies individual configuration options.
func WithConfigOptions(opts ...config.AppConfigOption) Option {
	return func(c *clientConfig) {
		c.cfgOpts = append(c.cfgOpts, opts...)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// WithEmbedder replaces the embedding provider, used in tests and for
// alternative OpenAI-compatible backends.
func WithEmbedder(embedder service.Embedder) Option {
	return func(c *clientConfig) {
		c.embedder = embedder
	}
}

// WithGitHubClient replaces the GitHub client.
func WithGitHubClient(client *github.Client) Option {
	return func(c *clientConfig) {
		c.githubClient = client
	}
}

// WithWorkerCount sets the per-job worker pool size.
func WithWorkerCount(n int) Option {
	return func(c *clientConfig) {
		c.cfgOpts = append(c.cfgOpts, config.WithWorkerCount(n))
	}
}
