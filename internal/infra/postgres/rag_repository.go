package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/mo"

	"github.com/ExxpresS/docGenerator/internal/core/rag"
)

// RAGRepository はRAGコレクションとドキュメントのPostgreSQLリポジトリ
type RAGRepository struct {
	pool *pgxpool.Pool
}

// NewRAGRepository は新しい RAGRepository を作成する
func NewRAGRepository(pool *pgxpool.Pool) *RAGRepository {
	return &RAGRepository{pool: pool}
}

var _ rag.Repository = (*RAGRepository)(nil)

func (r *RAGRepository) CreateRAG(ctx context.Context, params rag.CreateRAGParams) (*rag.RAG, error) {
	const query = `
		INSERT INTO rags (name, description)
		VALUES ($1, $2)
		RETURNING id, name, description, created_at
	`

	var created rag.RAG
	err := r.pool.QueryRow(ctx, query, params.Name, params.Description).Scan(
		&created.ID,
		&created.Name,
		&created.Description,
		&created.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert rag: %w", err)
	}

	return &created, nil
}

func (r *RAGRepository) GetRAG(ctx context.Context, ragID int64) (*rag.RAG, error) {
	const query = `
		SELECT id, name, description, created_at
		FROM rags
		WHERE id = $1
	`

	var collection rag.RAG
	err := r.pool.QueryRow(ctx, query, ragID).Scan(
		&collection.ID,
		&collection.Name,
		&collection.Description,
		&collection.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("rag collection %d: %w", ragID, rag.ErrRAGNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rag: %w", err)
	}

	return &collection, nil
}

func (r *RAGRepository) ListRAGs(ctx context.Context) ([]*rag.RAG, error) {
	const query = `
		SELECT id, name, description, created_at
		FROM rags
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list rags: %w", err)
	}
	defer rows.Close()

	rags := make([]*rag.RAG, 0)
	for rows.Next() {
		var collection rag.RAG
		if err := rows.Scan(
			&collection.ID,
			&collection.Name,
			&collection.Description,
			&collection.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan rag row: %w", err)
		}
		rags = append(rags, &collection)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rag rows: %w", err)
	}

	return rags, nil
}

func (r *RAGRepository) UpdateRAG(ctx context.Context, ragID int64, params rag.UpdateRAGParams) (*rag.RAG, error) {
	const query = `
		UPDATE rags
		SET name = COALESCE($2, name), description = COALESCE($3, description)
		WHERE id = $1
		RETURNING id, name, description, created_at
	`

	var updated rag.RAG
	err := r.pool.QueryRow(ctx, query, ragID, stringPtr(params.Name), stringPtr(params.Description)).Scan(
		&updated.ID,
		&updated.Name,
		&updated.Description,
		&updated.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("rag collection %d: %w", ragID, rag.ErrRAGNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update rag: %w", err)
	}

	return &updated, nil
}

func (r *RAGRepository) DeleteRAG(ctx context.Context, ragID int64) error {
	// documentsはON DELETE CASCADEで削除される
	tag, err := r.pool.Exec(ctx, "DELETE FROM rags WHERE id = $1", ragID)
	if err != nil {
		return fmt.Errorf("failed to delete rag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("rag collection %d: %w", ragID, rag.ErrRAGNotFound)
	}
	return nil
}

func (r *RAGRepository) RAGExists(ctx context.Context, ragID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM rags WHERE id = $1)", ragID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check rag existence: %w", err)
	}
	return exists, nil
}

func (r *RAGRepository) CreateDocument(ctx context.Context, params rag.CreateDocumentParams) (*rag.Document, error) {
	const query = `
		INSERT INTO documents (rag_id, title, content)
		VALUES ($1, $2, $3)
		RETURNING id, rag_id, title, content, is_indexed, chunks_count, created_at, indexed_at
	`

	var doc rag.Document
	err := r.pool.QueryRow(ctx, query, params.RAGID, params.Title, params.Content).Scan(
		&doc.ID,
		&doc.RAGID,
		&doc.Title,
		&doc.Content,
		&doc.IsIndexed,
		&doc.ChunksCount,
		&doc.CreatedAt,
		&doc.IndexedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert document: %w", err)
	}

	return &doc, nil
}

func (r *RAGRepository) GetDocument(ctx context.Context, documentID int64) (*rag.Document, error) {
	const query = `
		SELECT id, rag_id, title, content, is_indexed, chunks_count, created_at, indexed_at
		FROM documents
		WHERE id = $1
	`

	var doc rag.Document
	err := r.pool.QueryRow(ctx, query, documentID).Scan(
		&doc.ID,
		&doc.RAGID,
		&doc.Title,
		&doc.Content,
		&doc.IsIndexed,
		&doc.ChunksCount,
		&doc.CreatedAt,
		&doc.IndexedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("document %d: %w", documentID, rag.ErrDocumentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return &doc, nil
}

func (r *RAGRepository) ListDocuments(ctx context.Context, ragID int64) ([]*rag.Document, error) {
	const query = `
		SELECT id, rag_id, title, content, is_indexed, chunks_count, created_at, indexed_at
		FROM documents
		WHERE rag_id = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, ragID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	docs := make([]*rag.Document, 0)
	for rows.Next() {
		var doc rag.Document
		if err := rows.Scan(
			&doc.ID,
			&doc.RAGID,
			&doc.Title,
			&doc.Content,
			&doc.IsIndexed,
			&doc.ChunksCount,
			&doc.CreatedAt,
			&doc.IndexedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		docs = append(docs, &doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read document rows: %w", err)
	}

	return docs, nil
}

func (r *RAGRepository) DeleteDocument(ctx context.Context, documentID int64) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM documents WHERE id = $1", documentID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %d: %w", documentID, rag.ErrDocumentNotFound)
	}
	return nil
}

func (r *RAGRepository) MarkDocumentIndexed(ctx context.Context, documentID int64, chunksCount int) error {
	const query = `
		UPDATE documents
		SET is_indexed = TRUE, chunks_count = $2, indexed_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, documentID, chunksCount)
	if err != nil {
		return fmt.Errorf("failed to mark document indexed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %d: %w", documentID, rag.ErrDocumentNotFound)
	}
	return nil
}

func (r *RAGRepository) CountDocuments(ctx context.Context, ragID int64) (int, int, error) {
	const query = `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE is_indexed)
		FROM documents
		WHERE rag_id = $1
	`

	var total, indexed int
	if err := r.pool.QueryRow(ctx, query, ragID).Scan(&total, &indexed); err != nil {
		return 0, 0, fmt.Errorf("failed to count documents: %w", err)
	}

	return total, indexed, nil
}

func stringPtr(opt mo.Option[string]) *string {
	if value, ok := opt.Get(); ok {
		return &value
	}
	return nil
}
