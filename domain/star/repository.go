// Package star contains the domain model for starred GitHub repositories:
// the candidates discovered while listing a user's stars, the indexed
// repositories with their embeddings, and the per-user star sets.
package star

import (
	"time"
)

// RepoCandidate is a repository as it appears in a user's star listing,
// before any README fetch or embedding has happened.
type RepoCandidate struct {
	id          int64
	owner       string
	name        string
	description string
	homepageURL string
	topics      []string
	stargazers  int
}

// NewRepoCandidate creates a RepoCandidate from star-listing metadata.
func NewRepoCandidate(id int64, owner, name, description, homepageURL string, topics []string, stargazers int) RepoCandidate {
	cp := make([]string, len(topics))
	copy(cp, topics)
	return RepoCandidate{
		id:          id,
		owner:       owner,
		name:        name,
		description: description,
		homepageURL: homepageURL,
		topics:      cp,
		stargazers:  stargazers,
	}
}

// ID returns the GitHub repository ID.
func (c RepoCandidate) ID() int64 { return c.id }

// Owner returns the owner login.
func (c RepoCandidate) Owner() string { return c.owner }

// Name returns the repository name.
func (c RepoCandidate) Name() string { return c.name }

// FullName returns "owner/name".
func (c RepoCandidate) FullName() string { return c.owner + "/" + c.name }

// Description returns the repository description, empty when GitHub has none.
func (c RepoCandidate) Description() string { return c.description }

// HomepageURL returns the repository HTML URL.
func (c RepoCandidate) HomepageURL() string { return c.homepageURL }

// Topics returns a copy of the repository topics.
func (c RepoCandidate) Topics() []string {
	cp := make([]string, len(c.topics))
	copy(cp, c.topics)
	return cp
}

// Stargazers returns the star count at listing time.
func (c RepoCandidate) Stargazers() int { return c.stargazers }

// Repository is an indexed repository: candidate metadata plus the README
// excerpt and the embedding vector it was indexed with.
type Repository struct {
	candidate RepoCandidate
	readme    string
	embedding []float64
	updatedAt time.Time
}

// NewRepository creates a Repository ready to persist. The embedding is
// defensively copied.
func NewRepository(candidate RepoCandidate, readme string, embedding []float64) Repository {
	cp := make([]float64, len(embedding))
	copy(cp, embedding)
	return Repository{
		candidate: candidate,
		readme:    readme,
		embedding: cp,
		updatedAt: time.Now().UTC(),
	}
}

// ReconstructRepository rebuilds a Repository from persisted state.
func ReconstructRepository(candidate RepoCandidate, readme string, embedding []float64, updatedAt time.Time) Repository {
	r := NewRepository(candidate, readme, embedding)
	r.updatedAt = updatedAt
	return r
}

// ID returns the GitHub repository ID.
func (r Repository) ID() int64 { return r.candidate.ID() }

// Candidate returns the listing metadata this repository was built from.
func (r Repository) Candidate() RepoCandidate { return r.candidate }

// Readme returns the stored README excerpt, empty when the repository has no
// README.
func (r Repository) Readme() string { return r.readme }

// Embedding returns a copy of the embedding vector.
func (r Repository) Embedding() []float64 {
	cp := make([]float64, len(r.embedding))
	copy(cp, r.embedding)
	return cp
}

// UpdatedAt returns when the repository was last indexed.
func (r Repository) UpdatedAt() time.Time { return r.updatedAt }

// RepoWithoutReadme marks a repository whose README fetch returned not found,
// so later jobs skip the fetch entirely.
type RepoWithoutReadme struct {
	repoID     int64
	recordedAt time.Time
}

// NewRepoWithoutReadme creates a marker for the given repository.
func NewRepoWithoutReadme(repoID int64) RepoWithoutReadme {
	return RepoWithoutReadme{repoID: repoID, recordedAt: time.Now().UTC()}
}

// ReconstructRepoWithoutReadme rebuilds a marker from persisted state.
func ReconstructRepoWithoutReadme(repoID int64, recordedAt time.Time) RepoWithoutReadme {
	return RepoWithoutReadme{repoID: repoID, recordedAt: recordedAt}
}

// RepoID returns the marked repository ID.
func (m RepoWithoutReadme) RepoID() int64 { return m.repoID }

// RecordedAt returns when the absence was recorded.
func (m RepoWithoutReadme) RecordedAt() time.Time { return m.recordedAt }

// StarSet is the complete set of repository IDs a user has starred, written
// wholesale at the end of a successful job.
type StarSet struct {
	userID  int64
	login   string
	repoIDs []int64
}

// NewStarSet creates a StarSet. The ID slice is defensively copied.
func NewStarSet(userID int64, login string, repoIDs []int64) StarSet {
	cp := make([]int64, len(repoIDs))
	copy(cp, repoIDs)
	return StarSet{userID: userID, login: login, repoIDs: cp}
}

// UserID returns the owning GitHub user ID.
func (s StarSet) UserID() int64 { return s.userID }

// Login returns the GitHub username the set was recorded under.
func (s StarSet) Login() string { return s.login }

// RepoIDs returns a copy of the starred repository IDs.
func (s StarSet) RepoIDs() []int64 {
	cp := make([]int64, len(s.repoIDs))
	copy(cp, s.repoIDs)
	return cp
}

// Size returns the number of starred repositories.
func (s StarSet) Size() int { return len(s.repoIDs) }
