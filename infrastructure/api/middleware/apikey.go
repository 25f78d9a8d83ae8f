package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/starscout/starscout/domain/service"
)

// APIKeyPolicy returns a middleware enforcing the star-count key policy on
// embedding-backed endpoints: callers whose star count exceeds threshold must
// supply their own embedding API key, and any supplied key is validated
// upstream before the request proceeds. Requires BearerAuth earlier in the
// chain.
func APIKeyPolicy(resolver service.UserResolver, embedder service.Embedder, threshold int, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			apiKey := APIKeyFromContext(ctx)
			if apiKey == "" {
				token, ok := TokenFromContext(ctx)
				if !ok {
					WriteError(w, r, fmt.Errorf("%w: missing bearer token", service.ErrAuthInvalid), logger)
					return
				}

				starCount, err := resolver.StarCount(ctx, token)
				if err != nil {
					WriteError(w, r, err, logger)
					return
				}
				if threshold > 0 && starCount > threshold {
					err := service.NewValidationError(APIKeyHeader,
						fmt.Sprintf("required for users with more than %d starred repositories", threshold))
					WriteError(w, r, err, logger)
					return
				}

				next.ServeHTTP(w, r)
				return
			}

			if err := embedder.CheckKey(ctx, apiKey); err != nil {
				WriteError(w, r, err, logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
