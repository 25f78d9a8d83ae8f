// Package service defines the upstream-facing interfaces the application
// layer depends on, and the error taxonomy shared across them.
package service

import (
	"errors"
	"fmt"
)

// Sentinel errors classifying upstream failures. Callers branch with
// errors.Is; infrastructure clients wrap these around the underlying cause.
var (
	// ErrAuthInvalid indicates a credential was rejected by an upstream
	// service. Never retried.
	ErrAuthInvalid = errors.New("upstream credential rejected")

	// ErrRateLimited indicates an upstream service throttled the call.
	ErrRateLimited = errors.New("upstream rate limited")

	// ErrUpstreamUnavailable indicates a transient upstream failure.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrReadmeNotFound indicates a repository definitively has no README.
	// A cacheable absence, distinct from transient fetch failures.
	ErrReadmeNotFound = errors.New("readme not found")

	// ErrSearchUnavailable indicates the search backend failed.
	ErrSearchUnavailable = errors.New("search unavailable")
)

// ValidationError indicates bad caller input.
type ValidationError struct {
	field  string
	reason string
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{field: field, reason: reason}
}

// Field returns the offending input field.
func (e *ValidationError) Field() string { return e.field }

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.field, e.reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
