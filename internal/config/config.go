// Package config provides application configuration.
package config

import (
	"fmt"
	"time"
)

// Default configuration values.
const (
	DefaultHost                = "0.0.0.0"
	DefaultPort                = 8000
	DefaultLogLevel            = "INFO"
	DefaultGitHubBaseURL       = "https://api.github.com"
	DefaultStarThreshold       = 100
	DefaultAPIKeyStarThreshold = 5000
	DefaultEmbeddingModel      = "text-embedding-3-small"
	DefaultEmbeddingDimension  = 1536
	DefaultWorkerCount         = 8
	DefaultReadmeMaxChars      = 2000
	DefaultEmbedInputMaxChars  = 8000
	DefaultSearchLimit         = 10
	DefaultMaxSearchLimit      = 50
	DefaultRatePerMinute       = 60
	DefaultRateBurst           = 5
	DefaultMaxRetries          = 5
	DefaultInitialDelay        = 2 * time.Second
	DefaultBackoffFactor       = 2.0
	DefaultStaleJobAfter       = 30 * time.Minute
	DefaultTokenCacheTTL       = 15 * time.Minute
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// AppConfig holds the full application configuration.
type AppConfig struct {
	host      string
	port      int
	dbURL     string
	logLevel  string
	logFormat LogFormat

	allowedOrigins []string

	githubBaseURL       string
	starThreshold       int
	apiKeyStarThreshold int

	openAIAPIKey   string
	openAIBaseURL  string
	embeddingModel string
	embeddingDim   int

	workerCount        int
	readmeMaxChars     int
	embedInputMaxChars int

	ratePerMinute int
	rateBurst     int

	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64

	staleJobAfter time.Duration
}

// NewAppConfig creates an AppConfig with defaults.
func NewAppConfig() AppConfig {
	return AppConfig{
		host:                DefaultHost,
		port:                DefaultPort,
		logLevel:            DefaultLogLevel,
		logFormat:           LogFormatText,
		githubBaseURL:       DefaultGitHubBaseURL,
		starThreshold:       DefaultStarThreshold,
		apiKeyStarThreshold: DefaultAPIKeyStarThreshold,
		embeddingModel:      DefaultEmbeddingModel,
		embeddingDim:        DefaultEmbeddingDimension,
		workerCount:         DefaultWorkerCount,
		readmeMaxChars:      DefaultReadmeMaxChars,
		embedInputMaxChars:  DefaultEmbedInputMaxChars,
		ratePerMinute:       DefaultRatePerMinute,
		rateBurst:           DefaultRateBurst,
		maxRetries:          DefaultMaxRetries,
		initialDelay:        DefaultInitialDelay,
		backoffFactor:       DefaultBackoffFactor,
		staleJobAfter:       DefaultStaleJobAfter,
	}
}

// Host returns the server bind host.
func (c AppConfig) Host() string { return c.host }

// Port returns the server port.
func (c AppConfig) Port() int { return c.port }

// Addr returns the host:port listen address.
func (c AppConfig) Addr() string { return fmt.Sprintf("%s:%d", c.host, c.port) }

// DBURL returns the database connection URL.
func (c AppConfig) DBURL() string { return c.dbURL }

// LogLevel returns the log verbosity level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log output format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// AllowedOrigins returns the CORS allowed origins.
func (c AppConfig) AllowedOrigins() []string {
	result := make([]string, len(c.allowedOrigins))
	copy(result, c.allowedOrigins)
	return result
}

// GitHubBaseURL returns the GitHub API base URL.
func (c AppConfig) GitHubBaseURL() string { return c.githubBaseURL }

// StarThreshold returns the minimum stargazer count for a repository to be indexed.
func (c AppConfig) StarThreshold() int { return c.starThreshold }

// APIKeyStarThreshold returns the star count above which callers must supply
// their own embedding API key.
func (c AppConfig) APIKeyStarThreshold() int { return c.apiKeyStarThreshold }

// OpenAIAPIKey returns the service's default embedding API key.
func (c AppConfig) OpenAIAPIKey() string { return c.openAIAPIKey }

// OpenAIBaseURL returns an override base URL for the embedding provider.
func (c AppConfig) OpenAIBaseURL() string { return c.openAIBaseURL }

// EmbeddingModel returns the embedding model identifier.
func (c AppConfig) EmbeddingModel() string { return c.embeddingModel }

// EmbeddingDimension returns the expected embedding vector dimensionality.
func (c AppConfig) EmbeddingDimension() int { return c.embeddingDim }

// WorkerCount returns the per-job worker pool size.
func (c AppConfig) WorkerCount() int { return c.workerCount }

// ReadmeMaxChars returns the README excerpt length limit.
func (c AppConfig) ReadmeMaxChars() int { return c.readmeMaxChars }

// EmbedInputMaxChars returns the embedding input length limit.
func (c AppConfig) EmbedInputMaxChars() int { return c.embedInputMaxChars }

// RatePerMinute returns the per-user request quota per minute.
func (c AppConfig) RatePerMinute() int { return c.ratePerMinute }

// RateBurst returns the per-user request burst size.
func (c AppConfig) RateBurst() int { return c.rateBurst }

// MaxRetries returns the upstream retry attempt limit.
func (c AppConfig) MaxRetries() int { return c.maxRetries }

// InitialDelay returns the initial upstream retry delay.
func (c AppConfig) InitialDelay() time.Duration { return c.initialDelay }

// BackoffFactor returns the retry backoff multiplier.
func (c AppConfig) BackoffFactor() float64 { return c.backoffFactor }

// StaleJobAfter returns the age after which a non-terminal job found at
// startup is reconciled to failed.
func (c AppConfig) StaleJobAfter() time.Duration { return c.staleJobAfter }

// AppConfigOption is a functional option for AppConfig.
type AppConfigOption func(*AppConfig)

// WithHost sets the server bind host.
func WithHost(host string) AppConfigOption {
	return func(c *AppConfig) { c.host = host }
}

// WithPort sets the server port.
func WithPort(port int) AppConfigOption {
	return func(c *AppConfig) { c.port = port }
}

// WithDBURL sets the database connection URL.
func WithDBURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.dbURL = url }
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) AppConfigOption {
	return func(c *AppConfig) { c.logLevel = level }
}

// WithLogFormat sets the log format.
func WithLogFormat(format LogFormat) AppConfigOption {
	return func(c *AppConfig) { c.logFormat = format }
}

// WithAllowedOrigins sets the CORS allowed origins.
func WithAllowedOrigins(origins []string) AppConfigOption {
	return func(c *AppConfig) { c.allowedOrigins = origins }
}

// WithGitHubBaseURL sets the GitHub API base URL.
func WithGitHubBaseURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.githubBaseURL = url }
}

// WithStarThreshold sets the minimum star count to index.
func WithStarThreshold(n int) AppConfigOption {
	return func(c *AppConfig) { c.starThreshold = n }
}

// WithAPIKeyStarThreshold sets the API-key star policy threshold.
func WithAPIKeyStarThreshold(n int) AppConfigOption {
	return func(c *AppConfig) { c.apiKeyStarThreshold = n }
}

// WithOpenAIAPIKey sets the default embedding API key.
func WithOpenAIAPIKey(key string) AppConfigOption {
	return func(c *AppConfig) { c.openAIAPIKey = key }
}

// WithOpenAIBaseURL sets the embedding provider base URL.
func WithOpenAIBaseURL(url string) AppConfigOption {
	return func(c *AppConfig) { c.openAIBaseURL = url }
}

// WithEmbeddingModel sets the embedding model.
func WithEmbeddingModel(model string) AppConfigOption {
	return func(c *AppConfig) { c.embeddingModel = model }
}

// WithEmbeddingDimension sets the embedding dimensionality.
func WithEmbeddingDimension(dim int) AppConfigOption {
	return func(c *AppConfig) { c.embeddingDim = dim }
}

// WithWorkerCount sets the per-job worker pool size.
func WithWorkerCount(n int) AppConfigOption {
	return func(c *AppConfig) { c.workerCount = n }
}

// WithReadmeMaxChars sets the README excerpt limit.
func WithReadmeMaxChars(n int) AppConfigOption {
	return func(c *AppConfig) { c.readmeMaxChars = n }
}

// WithRateLimit sets the per-user quota and burst.
func WithRateLimit(perMinute, burst int) AppConfigOption {
	return func(c *AppConfig) {
		c.ratePerMinute = perMinute
		c.rateBurst = burst
	}
}

// WithRetryPolicy sets the upstream retry parameters.
func WithRetryPolicy(maxRetries int, initialDelay time.Duration, backoffFactor float64) AppConfigOption {
	return func(c *AppConfig) {
		c.maxRetries = maxRetries
		c.initialDelay = initialDelay
		c.backoffFactor = backoffFactor
	}
}

// WithStaleJobAfter sets the stale-job reconciliation threshold.
func WithStaleJobAfter(d time.Duration) AppConfigOption {
	return func(c *AppConfig) { c.staleJobAfter = d }
}

// Apply returns a copy of the config with the given options applied.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
