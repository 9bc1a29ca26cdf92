package indexing

import (
	"context"
	"fmt"
	"testing"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmbedder struct {
	batchSize  int
	batchCalls int
	failWith   error
}

func (e *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.BatchEmbed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *stubEmbedder) BatchEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	e.batchCalls++
	if e.failWith != nil {
		return nil, e.failWith
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		// テキスト長に基づく決定的なベクトル
		vectors[i] = []float32{float32(len(text)), 1, 0}
	}
	return vectors, nil
}

func (e *stubEmbedder) MaxBatchSize() int {
	if e.batchSize > 0 {
		return e.batchSize
	}
	return 100
}

func (e *stubEmbedder) ModelName() string { return "stub-model" }
func (e *stubEmbedder) Dimension() int    { return 3 }

var _ Embedder = (*stubEmbedder)(nil)

type stubChunkRepo struct {
	written    []*Chunk
	lastFilter ChunkFilter
	deleted    int64
	count      int64
	writeErr   error
}

func (r *stubChunkRepo) WriteChunks(ctx context.Context, chunks []*Chunk) (int, error) {
	if r.writeErr != nil {
		return 0, r.writeErr
	}
	r.written = append(r.written, chunks...)
	return len(chunks), nil
}

func (r *stubChunkRepo) DeleteChunks(ctx context.Context, filter ChunkFilter) (int64, error) {
	r.lastFilter = filter
	return r.deleted, nil
}

func (r *stubChunkRepo) CountChunks(ctx context.Context) (int64, error) {
	return r.count, nil
}

var _ Repository = (*stubChunkRepo)(nil)

func newTestService(t *testing.T, repo Repository, embedder Embedder, chunkSize, overlap int) *IndexService {
	t.Helper()
	chunker, err := NewWordChunker(chunkSize, overlap)
	require.NoError(t, err)
	return NewIndexService(repo, embedder, chunker)
}

func TestIndexService_Index(t *testing.T) {
	t.Run("チャンク分割・埋め込み・保存を順に実行する", func(t *testing.T) {
		repo := &stubChunkRepo{}
		embedder := &stubEmbedder{}
		svc := newTestService(t, repo, embedder, 4, 1)

		result, err := svc.Index(context.Background(), IndexParams{
			DocumentID: 42,
			Title:      "test doc",
			Content:    "w0 w1 w2 w3 w4 w5 w6 w7 w8 w9",
			RAGID:      mo.Some[int64](7),
			Extra:      map[string]string{"content_type": "text", "status": "draft"},
		})
		require.NoError(t, err)

		assert.Equal(t, int64(42), result.DocumentID)
		assert.Equal(t, 3, result.ChunksCreated)
		assert.GreaterOrEqual(t, result.IndexingTimeMs, float64(0))
		assert.False(t, result.IndexedAt.IsZero())

		require.Len(t, repo.written, 3)
		for _, chunk := range repo.written {
			assert.Equal(t, int64(42), chunk.Metadata.DocumentID)
			assert.Equal(t, int64(7), chunk.Metadata.RAGID.MustGet())
			assert.Equal(t, "test doc", chunk.Metadata.Title)
			assert.Equal(t, "text", chunk.Metadata.Extra["content_type"])
			assert.Len(t, chunk.Vector, 3)
			assert.NotEqual(t, chunk.ID.String(), "00000000-0000-0000-0000-000000000000")
		}

		// チャンク順序が保持されること（チャンクiのベクトルはチャンクiの本文に対応）
		for _, chunk := range repo.written {
			assert.Equal(t, float32(len(chunk.Content)), chunk.Vector[0])
		}
	})

	t.Run("空テキストはチャンクゼロで正常終了", func(t *testing.T) {
		repo := &stubChunkRepo{}
		svc := newTestService(t, repo, &stubEmbedder{}, 10, 2)

		result, err := svc.Index(context.Background(), IndexParams{
			DocumentID: 1,
			Title:      "empty",
			Content:    "",
		})
		require.NoError(t, err)
		assert.Equal(t, 0, result.ChunksCreated)
		assert.Empty(t, repo.written)
	})

	t.Run("documentID未指定はエラー", func(t *testing.T) {
		svc := newTestService(t, &stubChunkRepo{}, &stubEmbedder{}, 10, 2)

		_, err := svc.Index(context.Background(), IndexParams{Title: "x", Content: "hello"})
		assert.Error(t, err)
	})

	t.Run("Embedding失敗は伝播しチャンクは保存されない", func(t *testing.T) {
		repo := &stubChunkRepo{}
		embedder := &stubEmbedder{failWith: &EmbeddingError{Reason: "model unavailable"}}
		svc := newTestService(t, repo, embedder, 10, 2)

		_, err := svc.Index(context.Background(), IndexParams{
			DocumentID: 1,
			Title:      "doc",
			Content:    "some content here",
		})

		var embErr *EmbeddingError
		require.ErrorAs(t, err, &embErr)
		assert.Empty(t, repo.written)
	})

	t.Run("大きなドキュメントは複数バッチに分けて埋め込む", func(t *testing.T) {
		repo := &stubChunkRepo{}
		embedder := &stubEmbedder{batchSize: 2}
		svc := newTestService(t, repo, embedder, 2, 0)

		// 10単語 → 5チャンク → バッチサイズ2で3回呼ばれる
		_, err := svc.Index(context.Background(), IndexParams{
			DocumentID: 1,
			Title:      "doc",
			Content:    "w0 w1 w2 w3 w4 w5 w6 w7 w8 w9",
		})
		require.NoError(t, err)
		assert.Equal(t, 3, embedder.batchCalls)
		assert.Len(t, repo.written, 5)
	})
}

func TestIndexService_DeleteDocument(t *testing.T) {
	repo := &stubChunkRepo{deleted: 4}
	svc := newTestService(t, repo, &stubEmbedder{}, 10, 2)

	deleted, err := svc.DeleteDocument(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(4), deleted)
	assert.Equal(t, int64(42), repo.lastFilter.DocumentID.MustGet())
	assert.True(t, repo.lastFilter.RAGID.IsAbsent())
}

func TestIndexService_DeleteByRAG(t *testing.T) {
	repo := &stubChunkRepo{deleted: 9}
	svc := newTestService(t, repo, &stubEmbedder{}, 10, 2)

	deleted, err := svc.DeleteByRAG(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(9), deleted)
	assert.Equal(t, int64(7), repo.lastFilter.RAGID.MustGet())
	assert.True(t, repo.lastFilter.DocumentID.IsAbsent())
}

func TestIndexService_Stats(t *testing.T) {
	repo := &stubChunkRepo{count: 123}
	svc := newTestService(t, repo, &stubEmbedder{}, 10, 2)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(123), stats.TotalChunks)
	assert.Equal(t, 3, stats.EmbeddingDimension)
	assert.Equal(t, "stub-model", stats.Model)
}

// 再インデックス時の重複排除は呼び出し元の責務であることを確認する
// （削除せずに2回インデックスすると2倍のチャンクが書き込まれる）
func TestIndexService_ReindexWithoutDeleteDuplicates(t *testing.T) {
	repo := &stubChunkRepo{}
	svc := newTestService(t, repo, &stubEmbedder{}, 4, 0)

	params := IndexParams{DocumentID: 1, Title: "doc", Content: "a b c d e f g h"}
	for i := 0; i < 2; i++ {
		_, err := svc.Index(context.Background(), params)
		require.NoError(t, err, fmt.Sprintf("index attempt %d", i+1))
	}

	assert.Len(t, repo.written, 4)
}
