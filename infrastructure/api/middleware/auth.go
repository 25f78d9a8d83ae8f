package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/starscout/starscout/domain/service"
)

type contextKey int

const (
	userContextKey contextKey = iota
	tokenContextKey
	apiKeyContextKey
)

// APIKeyHeader is the header callers use to supply their own embedding
// provider API key.
const APIKeyHeader = "Api_key"

// DefaultTokenCacheTTL bounds how long a resolved GitHub identity is reused
// without revalidating the token upstream.
const DefaultTokenCacheTTL = 15 * time.Minute

type cacheEntry struct {
	user      service.User
	expiresAt time.Time
}

// TokenCache memoizes token-to-user resolution so polling clients do not hit
// the GitHub API on every request.
type TokenCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

// NewTokenCache creates a TokenCache. Non-positive ttl falls back to
// DefaultTokenCacheTTL.
func NewTokenCache(ttl time.Duration) *TokenCache {
	if ttl <= 0 {
		ttl = DefaultTokenCacheTTL
	}
	return &TokenCache{ttl: ttl, entries: map[string]cacheEntry{}}
}

func (c *TokenCache) get(token string) (service.User, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[token]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(c.entries, token)
		return service.User{}, false
	}
	return entry.user, true
}

func (c *TokenCache) put(token string, user service.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[token] = cacheEntry{user: user, expiresAt: time.Now().Add(c.ttl)}
}

// BearerAuth returns a middleware that resolves the Authorization bearer
// token to a GitHub user and stores both on the request context. Requests
// without a valid token get 401.
func BearerAuth(resolver service.UserResolver, cache *TokenCache, logger *slog.Logger) func(http.Handler) http.Handler {
	if cache == nil {
		cache = NewTokenCache(0)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				WriteError(w, r, fmt.Errorf("%w: missing bearer token", service.ErrAuthInvalid), logger)
				return
			}

			user, cached := cache.get(token)
			if !cached {
				resolved, err := resolver.AuthenticatedUser(r.Context(), token)
				if err != nil {
					WriteError(w, r, err, logger)
					return
				}
				cache.put(token, resolved)
				user = resolved
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			ctx = context.WithValue(ctx, tokenContextKey, token)
			if apiKey := r.Header.Get(APIKeyHeader); apiKey != "" {
				ctx = context.WithValue(ctx, apiKeyContextKey, apiKey)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}

// UserFromContext returns the authenticated GitHub user.
func UserFromContext(ctx context.Context) (service.User, bool) {
	user, ok := ctx.Value(userContextKey).(service.User)
	return user, ok
}

// TokenFromContext returns the caller's GitHub access token.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenContextKey).(string)
	return token, ok
}

// APIKeyFromContext returns the caller-supplied embedding API key, empty when
// none was sent.
func APIKeyFromContext(ctx context.Context) string {
	apiKey, _ := ctx.Value(apiKeyContextKey).(string)
	return apiKey
}
