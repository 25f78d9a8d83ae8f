package github

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/starscout/starscout/domain/service"
)

// apiError is a non-200 GitHub API response.
type apiError struct {
	status     int
	body       string
	retryAfter time.Duration
}

func (e *apiError) Error() string {
	return fmt.Sprintf("github api: status %d: %s", e.status, e.body)
}

// RetryAfter returns the upstream Retry-After hint, zero when absent.
func (e *apiError) RetryAfter() time.Duration {
	return e.retryAfter
}

// isRetryable reports whether a request failure is worth retrying. Rate
// limits and server errors are transient; auth and not-found are permanent.
func isRetryable(err error) bool {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.status == http.StatusTooManyRequests:
			return true
		case apiErr.status >= http.StatusInternalServerError:
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

// classify maps a final failure onto the service error taxonomy. 404 is left
// as the raw apiError so endpoint-specific handling (missing README) can
// distinguish it.
func classify(err error) error {
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w: %v", service.ErrUpstreamUnavailable, err)
	}

	switch {
	case apiErr.status == http.StatusUnauthorized:
		return fmt.Errorf("%w: %v", service.ErrAuthInvalid, err)
	case apiErr.status == http.StatusForbidden, apiErr.status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %v", service.ErrRateLimited, err)
	case apiErr.status == http.StatusNotFound:
		return err
	case apiErr.status >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %v", service.ErrUpstreamUnavailable, err)
	default:
		return err
	}
}
