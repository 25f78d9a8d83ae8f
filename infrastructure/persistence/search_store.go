package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/starscout/starscout/domain/search"
	"github.com/starscout/starscout/internal/database"
)

// SearchStore implements search.Store. On PostgreSQL similarity runs in SQL
// against the pgvector column; on SQLite candidate vectors are loaded and
// scored in process.
type SearchStore struct {
	db database.Database
}

// NewSearchStore creates a SearchStore.
func NewSearchStore(db database.Database) *SearchStore {
	return &SearchStore{db: db}
}

// Similar returns up to limit results ordered by descending similarity to
// the query embedding, ties broken by ascending repository ID.
func (s *SearchStore) Similar(ctx context.Context, embedding []float64, scope search.Scope, limit int) ([]search.Result, error) {
	if len(embedding) == 0 || limit <= 0 {
		return []search.Result{}, nil
	}

	if s.db.IsPostgres() {
		return s.similarPostgres(ctx, embedding, scope, limit)
	}
	return s.similarSQLite(ctx, embedding, scope, limit)
}

func (s *SearchStore) similarPostgres(ctx context.Context, embedding []float64, scope search.Scope, limit int) ([]search.Result, error) {
	queryVec := database.NewPgVector(embedding).String()

	db := s.db.Session(ctx).Table("repositories").
		Select("id, embedding <=> ? AS distance", queryVec).
		Where("embedding IS NOT NULL")
	db = scopeQuery(db, scope)

	var rows []struct {
		ID       int64   `gorm:"column:id"`
		Distance float64 `gorm:"column:distance"`
	}
	err := db.Order("distance ASC, id ASC").Limit(limit).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	results := make([]search.Result, len(rows))
	for i, row := range rows {
		// Cosine distance is 1 - cosine similarity.
		results[i] = search.NewResult(row.ID, 1-row.Distance)
	}
	return results, nil
}

func (s *SearchStore) similarSQLite(ctx context.Context, embedding []float64, scope search.Scope, limit int) ([]search.Result, error) {
	db := s.db.Session(ctx).Model(&RepositoryModel{}).
		Select("id, embedding").
		Where("embedding IS NOT NULL AND embedding != ''")
	db = scopeQuery(db, scope)

	var models []RepositoryModel
	if err := db.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("load candidate vectors: %w", err)
	}

	candidates := make([]search.Candidate, 0, len(models))
	for _, m := range models {
		if m.Embedding.Dimension() == 0 {
			continue
		}
		candidates = append(candidates, search.NewCandidate(m.ID, m.Embedding.Floats()))
	}

	return search.TopKSimilar(embedding, candidates, limit), nil
}

// scopeQuery restricts the candidate set to the scoping user's stars.
func scopeQuery(db *gorm.DB, scope search.Scope) *gorm.DB {
	if scope.IsGlobal() {
		return db
	}
	return db.Where("id IN (?)",
		db.Session(&gorm.Session{NewDB: true}).Model(&UserStarModel{}).
			Select("repo_id").Where("user_id = ?", scope.UserID()),
	)
}
