package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration.
// Field names map directly to environment variables.
type EnvConfig struct {
	// Host is the server host to bind to.
	// Env: HOST (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// Port is the server port to listen on.
	// Env: PORT (default: 8000)
	Port int `envconfig:"PORT" default:"8000"`

	// DBURL is the database connection URL
	// (postgres://... or sqlite:///path).
	// Env: DB_URL
	DBURL string `envconfig:"DB_URL"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (text or json).
	// Env: LOG_FORMAT (default: text)
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`

	// AllowedOrigins is a comma-separated list of CORS origins.
	// Env: ALLOWED_ORIGINS
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`

	// GitHubBaseURL is the GitHub API base URL.
	// Env: GITHUB_BASE_URL (default: https://api.github.com)
	GitHubBaseURL string `envconfig:"GITHUB_BASE_URL" default:"https://api.github.com"`

	// GitHubStarThreshold is the minimum stargazer count for a starred
	// repository to be indexed.
	// Env: GITHUB_STAR_THRESHOLD (default: 100)
	GitHubStarThreshold int `envconfig:"GITHUB_STAR_THRESHOLD" default:"100"`

	// APIKeyStarThreshold is the star count above which callers must supply
	// their own embedding API key.
	// Env: API_KEY_STAR_THRESHOLD (default: 5000)
	APIKeyStarThreshold int `envconfig:"API_KEY_STAR_THRESHOLD" default:"5000"`

	// OpenAIAPIKey is the service's default embedding API key.
	// Env: OPENAI_API_KEY
	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`

	// OpenAIBaseURL overrides the embedding provider base URL.
	// Env: OPENAI_BASE_URL
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL"`

	// EmbeddingModel is the embedding model identifier.
	// Env: EMBEDDING_MODEL (default: text-embedding-3-small)
	EmbeddingModel string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`

	// EmbeddingDimension is the embedding vector dimensionality.
	// Env: EMBEDDING_DIMENSION (default: 1536)
	EmbeddingDimension int `envconfig:"EMBEDDING_DIMENSION" default:"1536"`

	// WorkerCount is the per-job embedding worker pool size.
	// Env: WORKER_COUNT (default: 8)
	WorkerCount int `envconfig:"WORKER_COUNT" default:"8"`

	// ReadmeMaxChars is the README excerpt length limit.
	// Env: README_MAX_CHARS (default: 2000)
	ReadmeMaxChars int `envconfig:"README_MAX_CHARS" default:"2000"`

	// RateLimitPerMinute is the per-user request quota per minute.
	// Env: RATE_LIMIT_PER_MINUTE (default: 60)
	RateLimitPerMinute int `envconfig:"RATE_LIMIT_PER_MINUTE" default:"60"`

	// RateLimitBurst is the per-user request burst size.
	// Env: RATE_LIMIT_BURST (default: 5)
	RateLimitBurst int `envconfig:"RATE_LIMIT_BURST" default:"5"`

	// MaxRetries is the upstream retry attempt limit.
	// Env: MAX_RETRIES (default: 5)
	MaxRetries int `envconfig:"MAX_RETRIES" default:"5"`

	// InitialDelaySeconds is the initial upstream retry delay in seconds.
	// Env: INITIAL_DELAY_SECONDS (default: 2)
	InitialDelaySeconds float64 `envconfig:"INITIAL_DELAY_SECONDS" default:"2"`

	// BackoffFactor is the retry backoff multiplier.
	// Env: BACKOFF_FACTOR (default: 2.0)
	BackoffFactor float64 `envconfig:"BACKOFF_FACTOR" default:"2.0"`

	// StaleJobAfterMinutes is the age in minutes after which a non-terminal
	// job found at startup is marked failed.
	// Env: STALE_JOB_AFTER_MINUTES (default: 30)
	StaleJobAfterMinutes float64 `envconfig:"STALE_JOB_AFTER_MINUTES" default:"30"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// ToAppConfig converts the environment configuration to an AppConfig.
func (e EnvConfig) ToAppConfig() AppConfig {
	format := LogFormatText
	if strings.EqualFold(e.LogFormat, "json") {
		format = LogFormatJSON
	}

	return NewAppConfig().Apply(
		WithHost(e.Host),
		WithPort(e.Port),
		WithDBURL(e.DBURL),
		WithLogLevel(e.LogLevel),
		WithLogFormat(format),
		WithAllowedOrigins(splitCommaList(e.AllowedOrigins)),
		WithGitHubBaseURL(e.GitHubBaseURL),
		WithStarThreshold(e.GitHubStarThreshold),
		WithAPIKeyStarThreshold(e.APIKeyStarThreshold),
		WithOpenAIAPIKey(e.OpenAIAPIKey),
		WithOpenAIBaseURL(e.OpenAIBaseURL),
		WithEmbeddingModel(e.EmbeddingModel),
		WithEmbeddingDimension(e.EmbeddingDimension),
		WithWorkerCount(e.WorkerCount),
		WithReadmeMaxChars(e.ReadmeMaxChars),
		WithRateLimit(e.RateLimitPerMinute, e.RateLimitBurst),
		WithRetryPolicy(
			e.MaxRetries,
			time.Duration(e.InitialDelaySeconds*float64(time.Second)),
			e.BackoffFactor,
		),
		WithStaleJobAfter(time.Duration(e.StaleJobAfterMinutes*float64(time.Minute))),
	)
}

// LoadConfig loads the .env file (if present) and then the environment.
func LoadConfig(envFile string) (AppConfig, error) {
	if err := LoadDotEnv(envFile); err != nil {
		return AppConfig{}, err
	}
	env, err := LoadFromEnv()
	if err != nil {
		return AppConfig{}, err
	}
	return env.ToAppConfig(), nil
}

func splitCommaList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
