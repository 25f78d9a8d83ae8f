// Package persistence implements the domain store interfaces on GORM,
// supporting PostgreSQL (pgvector similarity) and SQLite (in-process
// similarity).
package persistence

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/starscout/starscout/internal/database"
)

// StringSlice stores a []string as JSON.
type StringSlice []string

// Scan implements sql.Scanner.
func (s *StringSlice) Scan(value any) error {
	if value == nil {
		*s = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringSlice", value)
	}

	return json.Unmarshal(data, s)
}

// Value implements driver.Valuer.
func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// RepositoryModel is the repositories table. The embedding column is VECTOR
// on PostgreSQL (created by migration SQL) and text on SQLite; PgVector's
// text format round-trips through both.
type RepositoryModel struct {
	ID            int64             `gorm:"column:id;primaryKey"`
	Owner         string            `gorm:"column:owner;index"`
	Name          string            `gorm:"column:name"`
	Description   string            `gorm:"column:description"`
	ReadmeContent string            `gorm:"column:readme_content"`
	Topics        StringSlice       `gorm:"column:topics;type:json"`
	HomepageURL   string            `gorm:"column:homepage_url"`
	Embedding     database.PgVector `gorm:"column:embedding;type:text"`
	CreatedAt     time.Time         `gorm:"column:created_at"`
	UpdatedAt     time.Time         `gorm:"column:updated_at"`
}

// TableName returns the table name.
func (RepositoryModel) TableName() string { return "repositories" }

// UserJobModel is the user_jobs table.
type UserJobModel struct {
	ID             int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID         int64     `gorm:"column:user_id;index"`
	Status         string    `gorm:"column:status;index"`
	TotalRepos     int       `gorm:"column:total_repos"`
	ProcessedRepos int       `gorm:"column:processed_repos"`
	FailedRepos    int       `gorm:"column:failed_repos"`
	ErrorMessage   string     `gorm:"column:error_message"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at"`
	CompletedAt    *time.Time `gorm:"column:completed_at"`
}

// TableName returns the table name.
func (UserJobModel) TableName() string { return "user_jobs" }

// UserStarModel is the user_stars table, one row per (user, repo) pair. The
// username and stamps are denormalized onto every row so the set can be read
// without a separate users table.
type UserStarModel struct {
	UserID         int64     `gorm:"column:user_id;primaryKey"`
	RepoID         int64     `gorm:"column:repo_id;primaryKey"`
	GithubUsername string    `gorm:"column:github_username"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

// TableName returns the table name.
func (UserStarModel) TableName() string { return "user_stars" }

// RepoWithoutReadmeModel is the repos_without_readme table, a negative cache
// of repositories known to lack a README.
type RepoWithoutReadmeModel struct {
	RepoID    int64     `gorm:"column:repo_id;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

// TableName returns the table name.
func (RepoWithoutReadmeModel) TableName() string { return "repos_without_readme" }
