// Package provider implements the embedding provider against the OpenAI API.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/starscout/starscout/domain/service"
	"github.com/starscout/starscout/internal/retry"
)

// Defaults for the OpenAI embedder.
const (
	DefaultEmbeddingModel     = "text-embedding-3-small"
	DefaultEmbeddingDimension = 1536
)

// errEmbeddingCountMismatch indicates the API returned fewer embedding
// vectors than requested. Retryable: transient upstream issues can produce
// partial responses behind a 200 status.
var errEmbeddingCountMismatch = errors.New("embedding response count mismatch")

// OpenAIEmbedder implements service.Embedder using the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client    *openai.Client
	baseURL   string
	timeout   time.Duration
	model     string
	dimension int
	policy    retry.Policy
}

// Config holds OpenAIEmbedder configuration.
type Config struct {
	APIKey        string
	BaseURL       string
	Model         string
	Dimension     int
	Timeout       time.Duration
	MaxRetries    int
	InitialDelay  time.Duration
	BackoffFactor float64
}

// NewOpenAIEmbedder creates an embedder from configuration.
func NewOpenAIEmbedder(cfg Config) *OpenAIEmbedder {
	model := cfg.Model
	if model == "" {
		model = DefaultEmbeddingModel
	}
	dimension := cfg.Dimension
	if dimension <= 0 {
		dimension = DefaultEmbeddingDimension
	}

	return &OpenAIEmbedder{
		client:    newClient(cfg.APIKey, cfg.BaseURL, cfg.Timeout),
		baseURL:   cfg.BaseURL,
		timeout:   cfg.Timeout,
		model:     model,
		dimension: dimension,
		policy:    retry.NewPolicy(cfg.MaxRetries, cfg.InitialDelay, cfg.BackoffFactor),
	}
}

func newClient(apiKey, baseURL string, timeout time.Duration) *openai.Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if timeout > 0 {
		config.HTTPClient = &http.Client{Timeout: timeout}
	}
	return openai.NewClientWithConfig(config)
}

// Dimension returns the vector dimension this embedder produces.
func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}

// Embed generates one embedding per input text in a single API call. A
// caller-supplied key from service.WithAPIKey replaces the configured key for
// this call only.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string, opts ...service.EmbedOption) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	client := e.client
	settings := service.BuildEmbedSettings(opts...)
	if key := settings.APIKey(); key != "" {
		client = newClient(key, e.baseURL, e.timeout)
	}

	req := openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: texts,
	}

	var resp openai.EmbeddingResponse
	err := e.policy.Do(ctx, isRetryable, func() error {
		var callErr error
		resp, callErr = client.CreateEmbeddings(ctx, req)
		if callErr != nil {
			return callErr
		}
		if len(resp.Data) != len(texts) {
			return fmt.Errorf("%w: got %d vectors for %d texts", errEmbeddingCountMismatch, len(resp.Data), len(texts))
		}
		return nil
	})
	if err != nil {
		return nil, classify("embed", err)
	}

	embeddings := make([][]float64, len(resp.Data))
	for i, data := range resp.Data {
		vec := make([]float64, len(data.Embedding))
		for j, v := range data.Embedding {
			vec[j] = float64(v)
		}
		embeddings[i] = vec
	}
	return embeddings, nil
}

// CheckKey validates a caller-supplied API key with a one-token probe
// request. Returns service.ErrAuthInvalid when the key is rejected.
func (e *OpenAIEmbedder) CheckKey(ctx context.Context, key string) error {
	client := newClient(key, e.baseURL, e.timeout)

	_, err := client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: []string{"probe"},
	})
	if err != nil {
		return classify("check key", err)
	}
	return nil
}

// isRetryable reports whether an embedding call failure is worth retrying.
// Auth failures are permanent; rate limits, server errors, and network
// timeouts are transient.
func isRetryable(err error) bool {
	if errors.Is(err, errEmbeddingCountMismatch) {
		return true
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

// classify maps a final failure onto the service error taxonomy.
func classify(op string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%s: %w: %v", op, service.ErrAuthInvalid, err)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%s: %w: %v", op, service.ErrRateLimited, err)
		}
	}
	return fmt.Errorf("%s: %w: %v", op, service.ErrUpstreamUnavailable, err)
}
