// Package dto holds the JSON request and response shapes of the HTTP API.
package dto

import (
	"time"

	"github.com/starscout/starscout/application/service"
	"github.com/starscout/starscout/domain/job"
	"github.com/starscout/starscout/domain/star"
)

// HealthResponse is the liveness body for GET /.
type HealthResponse struct {
	Status string `json:"status"`
}

// SettingsResponse exposes configured thresholds to the frontend.
type SettingsResponse struct {
	APIKeyStarThreshold int `json:"api_key_star_threshold"`
}

// UserExistsResponse reports whether the user has a completed sync.
type UserExistsResponse struct {
	UserExists bool `json:"user_exists"`
}

// JobSchema is the wire form of a job record.
type JobSchema struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	Status         string    `json:"status"`
	TotalRepos     int       `json:"total_repos"`
	ProcessedRepos int       `json:"processed_repos"`
	FailedRepos    int       `json:"failed_repos"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	CompletedAt    *time.Time `json:"completed_at"`
}

// JobStatusResponse is the polling body for GET /jobs/status. Job is null
// when the user has no job history.
type JobStatusResponse struct {
	Job             *JobSchema `json:"job"`
	IsRunning       bool       `json:"is_running"`
	UserID          int64      `json:"user_id"`
	TotalActiveJobs int        `json:"total_active_jobs"`
}

// RepositorySchema is the wire form of an indexed repository.
type RepositorySchema struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Owner       string   `json:"owner"`
	FullName    string   `json:"full_name"`
	Description string   `json:"description,omitempty"`
	HomepageURL string   `json:"homepage_url,omitempty"`
	Topics      []string `json:"topics"`
}

// SearchResultSchema is one ranked search hit.
type SearchResultSchema struct {
	Repository      RepositorySchema `json:"repository"`
	SimilarityScore float64          `json:"similarity_score"`
}

// SearchResponse is the body for GET /search and /search_global.
type SearchResponse struct {
	Query      string               `json:"query"`
	TotalCount int                  `json:"total_count"`
	Results    []SearchResultSchema `json:"results"`
}

// NewJobSchema converts a job record to its wire form.
func NewJobSchema(j job.Job) *JobSchema {
	return &JobSchema{
		ID:             j.ID(),
		UserID:         j.UserID(),
		Status:         string(j.Status()),
		TotalRepos:     j.TotalRepos(),
		ProcessedRepos: j.ProcessedRepos(),
		FailedRepos:    j.FailedRepos(),
		ErrorMessage:   j.ErrorMessage(),
		CreatedAt:      j.CreatedAt(),
		UpdatedAt:      j.UpdatedAt(),
		CompletedAt:    j.CompletedAt(),
	}
}

// NewRepositorySchema converts an indexed repository to its wire form.
func NewRepositorySchema(r star.Repository) RepositorySchema {
	candidate := r.Candidate()
	return RepositorySchema{
		ID:          candidate.ID(),
		Name:        candidate.Name(),
		Owner:       candidate.Owner(),
		FullName:    candidate.FullName(),
		Description: candidate.Description(),
		HomepageURL: candidate.HomepageURL(),
		Topics:      candidate.Topics(),
	}
}

// NewSearchResponse converts ranked matches to the search wire form.
func NewSearchResponse(query string, matches []service.Match) SearchResponse {
	results := make([]SearchResultSchema, len(matches))
	for i, m := range matches {
		results[i] = SearchResultSchema{
			Repository:      NewRepositorySchema(m.Repository()),
			SimilarityScore: m.Score(),
		}
	}
	return SearchResponse{Query: query, TotalCount: len(results), Results: results}
}
