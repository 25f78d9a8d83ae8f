package search

import (
	"context"
)

// Scope restricts a similarity search to a subset of repositories.
type Scope struct {
	userID int64
	global bool
}

// GlobalScope searches every indexed repository.
func GlobalScope() Scope {
	return Scope{global: true}
}

// UserScope searches only the repositories starred by the given user.
func UserScope(userID int64) Scope {
	return Scope{userID: userID}
}

// IsGlobal reports whether the scope covers all repositories.
func (s Scope) IsGlobal() bool { return s.global }

// UserID returns the scoping user ID; meaningful only when not global.
func (s Scope) UserID() int64 { return s.userID }

// Store performs nearest-neighbor lookups over stored embeddings.
type Store interface {
	// Similar returns up to limit results ordered by descending similarity
	// to the query embedding, ties broken by ascending repository ID.
	Similar(ctx context.Context, embedding []float64, scope Scope, limit int) ([]Result, error)
}
