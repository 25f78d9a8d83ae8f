package star

import (
	"context"
	"errors"
)

// ErrNotFound indicates the requested repository is not indexed.
var ErrNotFound = errors.New("repository not found")

// RepositoryStore persists indexed repositories.
type RepositoryStore interface {
	// Save upserts repositories by ID, last write wins.
	Save(ctx context.Context, repos ...Repository) error

	// Get returns a repository by ID, or ErrNotFound.
	Get(ctx context.Context, id int64) (Repository, error)

	// Exists reports whether a repository is already indexed.
	Exists(ctx context.Context, id int64) (bool, error)

	// Count returns the number of indexed repositories.
	Count(ctx context.Context) (int64, error)
}

// StarStore persists each user's set of starred repository IDs.
type StarStore interface {
	// Replace overwrites the user's star set wholesale.
	Replace(ctx context.Context, set StarSet) error

	// RepoIDs returns the user's starred repository IDs.
	RepoIDs(ctx context.Context, userID int64) ([]int64, error)

	// HasUser reports whether the user has a stored star set.
	HasUser(ctx context.Context, userID int64) (bool, error)
}

// NoReadmeStore remembers repositories known to have no README.
type NoReadmeStore interface {
	// Mark records that the repository has no README.
	Mark(ctx context.Context, repoID int64) error

	// IsMarked reports whether the repository is known to lack a README.
	IsMarked(ctx context.Context, repoID int64) (bool, error)
}
