package service

import (
	"context"

	"github.com/starscout/starscout/domain/star"
)

// User identifies an authenticated GitHub user.
type User struct {
	id    int64
	login string
}

// NewUser creates a User.
func NewUser(id int64, login string) User {
	return User{id: id, login: login}
}

// ID returns the GitHub user ID.
func (u User) ID() int64 { return u.id }

// Login returns the GitHub login.
func (u User) Login() string { return u.login }

// StarStream yields pages of a user's starred repositories. Total is known
// after construction so jobs can size their accounting before the walk.
type StarStream interface {
	// Total returns the number of starred repositories.
	Total() int

	// NextPage returns the next page of candidates. The second return is
	// false once the stream is exhausted.
	NextPage(ctx context.Context) ([]star.RepoCandidate, bool, error)
}

// StarLister lists the repositories starred by the token's user.
type StarLister interface {
	ListStarred(ctx context.Context, token string) (StarStream, error)
}

// ReadmeFetcher retrieves README content for a repository. A missing README
// is reported as ErrReadmeNotFound.
type ReadmeFetcher interface {
	Readme(ctx context.Context, token, owner, name string) (string, error)
}

// UserResolver resolves the user behind a token and their star count.
type UserResolver interface {
	// AuthenticatedUser returns the user the token belongs to. An invalid
	// token is reported as ErrAuthInvalid.
	AuthenticatedUser(ctx context.Context, token string) (User, error)

	// StarCount returns the number of repositories the token's user has
	// starred, without listing them.
	StarCount(ctx context.Context, token string) (int, error)
}
