package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
	"github.com/samber/mo"

	"github.com/ExxpresS/docGenerator/internal/core/indexing"
	"github.com/ExxpresS/docGenerator/internal/core/retrieval"
)

// ChunkStore はpgvectorを使用したチャンクの永続化と類似度検索の実装
type ChunkStore struct {
	pool *pgxpool.Pool
}

// NewChunkStore は新しい ChunkStore を作成する
func NewChunkStore(pool *pgxpool.Pool) *ChunkStore {
	return &ChunkStore{pool: pool}
}

var (
	_ indexing.Repository  = (*ChunkStore)(nil)
	_ retrieval.Repository = (*ChunkStore)(nil)
)

// WriteChunks はチャンクを一括保存する
// トランザクション内で実行し、一部失敗時は全件ロールバックする
func (s *ChunkStore) WriteChunks(ctx context.Context, chunks []*indexing.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, &indexing.StoreError{Op: "write", Err: fmt.Errorf("failed to begin transaction: %w", err)}
	}
	defer tx.Rollback(ctx)

	const insertChunk = `
		INSERT INTO chunks (id, content, embedding, document_id, rag_id, title, indexed_at, extra)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	batch := &pgx.Batch{}
	for _, chunk := range chunks {
		extra, err := marshalExtra(chunk.Metadata.Extra)
		if err != nil {
			return 0, &indexing.StoreError{Op: "write", Err: err}
		}

		batch.Queue(insertChunk,
			chunk.ID,
			chunk.Content,
			pgvector.NewVector(chunk.Vector),
			chunk.Metadata.DocumentID,
			optionToPtr(chunk.Metadata.RAGID),
			chunk.Metadata.Title,
			chunk.Metadata.IndexedAt,
			extra,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for range chunks {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return 0, &indexing.StoreError{Op: "write", Err: fmt.Errorf("failed to insert chunk: %w", err)}
		}
	}
	if err := results.Close(); err != nil {
		return 0, &indexing.StoreError{Op: "write", Err: err}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, &indexing.StoreError{Op: "write", Err: fmt.Errorf("failed to commit: %w", err)}
	}

	return len(chunks), nil
}

// DeleteChunks はフィルタに一致するチャンクを削除し、削除件数を返す
func (s *ChunkStore) DeleteChunks(ctx context.Context, filter indexing.ChunkFilter) (int64, error) {
	query := "DELETE FROM chunks WHERE TRUE"
	args := make([]any, 0, 2)

	if documentID, ok := filter.DocumentID.Get(); ok {
		args = append(args, documentID)
		query += " AND document_id = $" + strconv.Itoa(len(args))
	}
	if ragID, ok := filter.RAGID.Get(); ok {
		args = append(args, ragID)
		query += " AND rag_id = $" + strconv.Itoa(len(args))
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, &indexing.StoreError{Op: "delete", Err: err}
	}

	return tag.RowsAffected(), nil
}

// CountChunks は保存されているチャンクの総数を返す
func (s *ChunkStore) CountChunks(ctx context.Context) (int64, error) {
	var count int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM chunks").Scan(&count); err != nil {
		return 0, &indexing.StoreError{Op: "count", Err: err}
	}
	return count, nil
}

// SearchChunks はコサイン類似度の降順でチャンクを検索する
// スコアは 1 - cosine距離 で、値域は [-1, 1]
func (s *ChunkStore) SearchChunks(ctx context.Context, queryVector []float32, limit int, filter retrieval.Filter) ([]*retrieval.RetrievedChunk, error) {
	query := `
		SELECT content, 1 - (embedding <=> $1) AS score, document_id, rag_id, title, indexed_at, extra
		FROM chunks
	`
	args := []any{pgvector.NewVector(queryVector)}

	conditions := make([]string, 0, 2)
	if ragID, ok := filter.RAGID.Get(); ok {
		args = append(args, ragID)
		conditions = append(conditions, "rag_id = $"+strconv.Itoa(len(args)))
	}
	if documentID, ok := filter.DocumentID.Get(); ok {
		args = append(args, documentID)
		conditions = append(conditions, "document_id = $"+strconv.Itoa(len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	args = append(args, limit)
	query += " ORDER BY score DESC, id LIMIT $" + strconv.Itoa(len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}
	defer rows.Close()

	results := make([]*retrieval.RetrievedChunk, 0, limit)
	for rows.Next() {
		var (
			result    retrieval.RetrievedChunk
			ragID     *int64
			extraJSON []byte
		)
		if err := rows.Scan(
			&result.Content,
			&result.Score,
			&result.Metadata.DocumentID,
			&ragID,
			&result.Metadata.Title,
			&result.Metadata.IndexedAt,
			&extraJSON,
		); err != nil {
			return nil, fmt.Errorf("failed to scan chunk row: %w", err)
		}

		result.Metadata.RAGID = ptrToOption(ragID)

		if len(extraJSON) > 0 {
			if err := json.Unmarshal(extraJSON, &result.Metadata.Extra); err != nil {
				return nil, fmt.Errorf("failed to unmarshal chunk extra: %w", err)
			}
		}

		results = append(results, &result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chunk rows: %w", err)
	}

	return results, nil
}

func marshalExtra(extra map[string]string) ([]byte, error) {
	if len(extra) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(extra)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chunk extra: %w", err)
	}
	return data, nil
}

func optionToPtr(opt mo.Option[int64]) *int64 {
	if value, ok := opt.Get(); ok {
		return &value
	}
	return nil
}

func ptrToOption(ptr *int64) mo.Option[int64] {
	if ptr == nil {
		return mo.None[int64]()
	}
	return mo.Some(*ptr)
}
