package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/starscout/starscout/domain/service"
)

type fakeResolver struct {
	mu        sync.Mutex
	user      service.User
	err       error
	starCount int
	calls     int
	starCalls int
}

func (f *fakeResolver) AuthenticatedUser(_ context.Context, token string) (service.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return service.User{}, f.err
	}
	return f.user, nil
}

func (f *fakeResolver) StarCount(context.Context, string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starCalls++
	if f.err != nil {
		return 0, f.err
	}
	return f.starCount, nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func echoUserHandler(t *testing.T, wantLogin string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			t.Error("user missing from context")
		}
		if user.Login() != wantLogin {
			t.Errorf("login = %q, want %q", user.Login(), wantLogin)
		}
		if _, ok := TokenFromContext(r.Context()); !ok {
			t.Error("token missing from context")
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestBearerAuth_MissingHeader(t *testing.T) {
	resolver := &fakeResolver{user: service.NewUser(1, "alice")}
	handler := BearerAuth(resolver, nil, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if resolver.calls != 0 {
		t.Errorf("resolver calls = %d, want 0", resolver.calls)
	}
}

func TestBearerAuth_InvalidToken(t *testing.T) {
	resolver := &fakeResolver{err: service.ErrAuthInvalid}
	handler := BearerAuth(resolver, nil, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestBearerAuth_ResolvesUser(t *testing.T) {
	resolver := &fakeResolver{user: service.NewUser(1, "alice")}
	handler := BearerAuth(resolver, nil, nil)(echoUserHandler(t, "alice"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestBearerAuth_CachesResolution(t *testing.T) {
	resolver := &fakeResolver{user: service.NewUser(1, "alice")}
	cache := NewTokenCache(time.Minute)
	handler := BearerAuth(resolver, cache, nil)(okHandler())

	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}
	}

	if resolver.calls != 1 {
		t.Errorf("resolver calls = %d, want 1 (cached)", resolver.calls)
	}
}

func TestBearerAuth_CacheExpiry(t *testing.T) {
	resolver := &fakeResolver{user: service.NewUser(1, "alice")}
	cache := NewTokenCache(time.Minute)
	cache.entries["stale-token"] = cacheEntry{
		user:      service.NewUser(2, "bob"),
		expiresAt: time.Now().Add(-time.Second),
	}
	handler := BearerAuth(resolver, cache, nil)(echoUserHandler(t, "alice"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer stale-token")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if resolver.calls != 1 {
		t.Errorf("resolver calls = %d, want 1 (expired entry revalidated)", resolver.calls)
	}
}

func TestBearerAuth_APIKeyInContext(t *testing.T) {
	resolver := &fakeResolver{user: service.NewUser(1, "alice")}
	var sawKey string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawKey = APIKeyFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := BearerAuth(resolver, nil, nil)(inner)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	req.Header.Set(APIKeyHeader, "caller-key")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if sawKey != "caller-key" {
		t.Errorf("api key = %q, want caller-key", sawKey)
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
		ok     bool
	}{
		{"standard", "Bearer abc123", "abc123", true},
		{"lowercase scheme", "bearer abc123", "abc123", true},
		{"empty", "", "", false},
		{"no scheme", "abc123", "", false},
		{"empty token", "Bearer ", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			got, ok := bearerToken(req)
			if ok != tt.ok || got != tt.want {
				t.Errorf("bearerToken = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}
