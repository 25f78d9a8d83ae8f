package service

import (
	"context"
)

// EmbedOption configures a single Embed call.
type EmbedOption func(*EmbedSettings)

// EmbedSettings collects per-call embedding overrides.
type EmbedSettings struct {
	apiKey string
}

// BuildEmbedSettings applies options to an empty EmbedSettings.
func BuildEmbedSettings(opts ...EmbedOption) EmbedSettings {
	var s EmbedSettings
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// APIKey returns the per-call key override, empty when the provider's
// configured key should be used.
func (s EmbedSettings) APIKey() string { return s.apiKey }

// WithAPIKey overrides the provider API key for one call. Used when a caller
// supplies their own key to lift quota limits.
func WithAPIKey(key string) EmbedOption {
	return func(s *EmbedSettings) {
		s.apiKey = key
	}
}

// Embedder turns texts into embedding vectors.
type Embedder interface {
	// Embed returns one vector per input text, in input order. A rejected
	// API key is reported as ErrAuthInvalid and aborts the batch.
	Embed(ctx context.Context, texts []string, opts ...EmbedOption) ([][]float64, error)

	// Dimension returns the vector dimension this embedder produces.
	Dimension() int

	// CheckKey validates a caller-supplied API key with a minimal probe
	// request. An invalid key is reported as ErrAuthInvalid.
	CheckKey(ctx context.Context, key string) error
}
