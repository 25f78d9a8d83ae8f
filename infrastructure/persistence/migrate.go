package persistence

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/starscout/starscout/internal/database"
)

// DefaultEmbeddingDimension matches the default embedding model output.
const DefaultEmbeddingDimension = 1536

// ErrDimensionMismatch indicates the database vector column dimension differs
// from the configured provider dimension.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

const (
	pgCreateExtension = `CREATE EXTENSION IF NOT EXISTS vector`

	pgCreateRepositoriesTemplate = `
CREATE TABLE IF NOT EXISTS repositories (
    id BIGINT PRIMARY KEY,
    owner TEXT NOT NULL,
    name TEXT NOT NULL,
    description TEXT,
    readme_content TEXT,
    topics JSONB,
    homepage_url TEXT,
    embedding VECTOR(%d),
    created_at TIMESTAMPTZ,
    updated_at TIMESTAMPTZ
)`

	pgCreateEmbeddingIndex = `
CREATE INDEX IF NOT EXISTS repositories_embedding_idx
ON repositories
USING ivfflat (embedding vector_cosine_ops)
WITH (lists = 100)`

	pgCheckDimension = `
SELECT a.atttypmod AS dimension
FROM pg_attribute a
JOIN pg_class c ON a.attrelid = c.oid
WHERE c.relname = 'repositories'
AND a.attname = 'embedding'`
)

// AutoMigrate creates all tables with the default embedding dimension.
func AutoMigrate(db database.Database) error {
	return AutoMigrateWithDimension(db, DefaultEmbeddingDimension)
}

// AutoMigrateWithDimension creates all tables. On PostgreSQL the
// repositories table is created with raw SQL so the embedding column gets a
// typed VECTOR(n), the pgvector extension is installed, and a cosine index
// is created; a pre-existing column with a different dimension is an error.
func AutoMigrateWithDimension(db database.Database, dimension int) error {
	if dimension <= 0 {
		dimension = DefaultEmbeddingDimension
	}

	g := db.GORM()
	if err := g.AutoMigrate(&UserJobModel{}, &UserStarModel{}, &RepoWithoutReadmeModel{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	if db.IsPostgres() {
		return migratePostgres(db, dimension)
	}

	if err := g.AutoMigrate(&RepositoryModel{}); err != nil {
		return fmt.Errorf("auto migrate repositories: %w", err)
	}
	return nil
}

func migratePostgres(db database.Database, dimension int) error {
	g := db.GORM()

	if err := g.Exec(pgCreateExtension).Error; err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}
	if err := g.Exec(fmt.Sprintf(pgCreateRepositoriesTemplate, dimension)).Error; err != nil {
		return fmt.Errorf("create repositories table: %w", err)
	}
	if err := g.Exec(pgCreateEmbeddingIndex).Error; err != nil {
		slog.Warn("failed to create embedding index (may already exist)", "error", err)
	}

	var dbDimension int
	result := g.Raw(pgCheckDimension).Scan(&dbDimension)
	if result.Error != nil {
		return fmt.Errorf("check embedding dimension: %w", result.Error)
	}
	if result.RowsAffected > 0 && dbDimension > 0 && dbDimension != dimension {
		return fmt.Errorf("%w: database has %d, provider has %d", ErrDimensionMismatch, dbDimension, dimension)
	}
	return nil
}
