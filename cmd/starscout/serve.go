package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/starscout/starscout"
	"github.com/starscout/starscout/infrastructure/api"
	"github.com/starscout/starscout/internal/config"
	"github.com/starscout/starscout/internal/log"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var (
		envFile string
		host    string
		port    int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables
  4. Command line flags

Environment variables:
  HOST                      Server host to bind to (default: 0.0.0.0)
  PORT                      Server port to listen on (default: 8000)
  DB_URL                    Database URL: sqlite:///path or postgres://...
  LOG_LEVEL                 Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT                Log format: text, json (default: text)
  ALLOWED_ORIGINS           Comma-separated CORS origins

  GITHUB_BASE_URL           GitHub API base URL (default: https://api.github.com)
  GITHUB_STAR_THRESHOLD     Minimum stargazers to index a repository (default: 100)
  API_KEY_STAR_THRESHOLD    Star count above which callers must supply their
                            own embedding API key (default: 5000)

  OPENAI_API_KEY            Default embedding provider API key
  OPENAI_BASE_URL           Embedding provider base URL override
  EMBEDDING_MODEL           Embedding model (default: text-embedding-3-small)
  EMBEDDING_DIMENSION       Vector dimensionality (default: 1536)

  WORKER_COUNT              Per-job worker pool size (default: 8)
  README_MAX_CHARS          README excerpt limit (default: 2000)
  RATE_LIMIT_PER_MINUTE     Per-caller request quota (default: 60)
  RATE_LIMIT_BURST          Per-caller burst size (default: 5)
  STALE_JOB_AFTER_MINUTES   Minutes before an orphaned job is failed at
                            startup (default: 30)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(envFile, host, port)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&host, "host", "", "Server host to bind to (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "Server port to listen on (default: 8000)")

	return cmd
}

func runServe(envFile, host string, port int) error {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Flags take precedence over env vars.
	var overrides []config.AppConfigOption
	if host != "" {
		overrides = append(overrides, config.WithHost(host))
	}
	if port > 0 {
		overrides = append(overrides, config.WithPort(port))
	}
	cfg = cfg.Apply(overrides...)

	logger := log.NewLogger(cfg)
	slogger := logger.Slog()

	slogger.Info("starting starscout",
		slog.String("version", version),
		slog.String("addr", cfg.Addr()),
		slog.String("github_base_url", cfg.GitHubBaseURL()),
		slog.String("embedding_model", cfg.EmbeddingModel()),
	)

	client, err := starscout.New(
		starscout.WithConfig(cfg),
		starscout.WithLogger(slogger),
	)
	if err != nil {
		return fmt.Errorf("create starscout client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			slogger.Error("close client", slog.Any("error", err))
		}
	}()

	apiServer := api.NewAPIServer(client)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		slogger.Info("shutting down", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := apiServer.Shutdown(ctx); err != nil {
			slogger.Error("shutdown error", slog.Any("error", err))
		}
	}()

	if err := apiServer.ListenAndServe(cfg.Addr()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
