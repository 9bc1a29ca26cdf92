package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema はテーブルとインデックスを作成する
// 冪等であり、起動時に毎回呼び出してよい
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, embeddingDimension int) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,

		`CREATE TABLE IF NOT EXISTS rags (
			id          BIGSERIAL PRIMARY KEY,
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS documents (
			id           BIGSERIAL PRIMARY KEY,
			rag_id       BIGINT NOT NULL REFERENCES rags(id) ON DELETE CASCADE,
			title        TEXT NOT NULL,
			content      TEXT NOT NULL,
			is_indexed   BOOLEAN NOT NULL DEFAULT FALSE,
			chunks_count INTEGER NOT NULL DEFAULT 0,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			indexed_at   TIMESTAMPTZ
		)`,

		`CREATE INDEX IF NOT EXISTS idx_documents_rag_id ON documents (rag_id)`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS chunks (
			id          UUID PRIMARY KEY,
			content     TEXT NOT NULL,
			embedding   VECTOR(%d) NOT NULL,
			document_id BIGINT NOT NULL,
			rag_id      BIGINT,
			title       TEXT NOT NULL DEFAULT '',
			indexed_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			extra       JSONB
		)`, embeddingDimension),

		`CREATE INDEX IF NOT EXISTS idx_chunks_document_id ON chunks (document_id)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_rag_id ON chunks (rag_id)`,

		`CREATE INDEX IF NOT EXISTS idx_chunks_embedding ON chunks
			USING hnsw (embedding vector_cosine_ops)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}

	return nil
}
