package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimit returns a middleware enforcing a per-caller token bucket of
// perMinute requests with the given burst. Callers are keyed by bearer token
// when authenticated, by remote address otherwise. Requests carrying an
// Api_key header bypass the bucket: those callers pay for their own
// embedding quota.
func RateLimit(perMinute, burst int) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		perMinute = 60
	}
	if burst <= 0 {
		burst = 1
	}

	limit := rate.Every(time.Minute / time.Duration(perMinute))
	var mu sync.Mutex
	buckets := map[string]*rate.Limiter{}

	limiterFor := func(key string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		lim, ok := buckets[key]
		if !ok {
			lim = rate.NewLimiter(limit, burst)
			buckets[key] = lim
		}
		return lim
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get(APIKeyHeader) != "" {
				next.ServeHTTP(w, r)
				return
			}

			key, ok := TokenFromContext(r.Context())
			if !ok {
				key = r.RemoteAddr
			}
			lim := limiterFor(key)

			reservation := lim.Reserve()
			delay := reservation.Delay()
			if delay > 0 {
				reservation.Cancel()
				retryAfter := int(math.Ceil(delay.Seconds()))
				w.Header().Set("x-ratelimit-limit", strconv.Itoa(perMinute))
				w.Header().Set("x-ratelimit-remaining", "0")
				w.Header().Set("retry-after", strconv.Itoa(retryAfter))
				WriteJSON(w, http.StatusTooManyRequests, ErrorResponse{Error: "rate limit exceeded"})
				return
			}

			w.Header().Set("x-ratelimit-limit", strconv.Itoa(perMinute))
			w.Header().Set("x-ratelimit-remaining", strconv.Itoa(remaining(lim)))
			next.ServeHTTP(w, r)
		})
	}
}

func remaining(lim *rate.Limiter) int {
	tokens := int(lim.Tokens())
	if tokens < 0 {
		return 0
	}
	return tokens
}
