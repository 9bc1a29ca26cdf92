package openai

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ExxpresS/docGenerator/internal/core/indexing"
)

// newTestEmbedder はテスト用のEmbedderを作成する
// tiktokenエンコーディングが取得できない環境ではスキップする
func newTestEmbedder(t *testing.T, opts ...EmbedderOption) *Embedder {
	t.Helper()

	embedder, err := NewEmbedder("dummy-key", opts...)
	if err != nil {
		t.Skipf("tiktoken encoding unavailable: %v", err)
	}
	return embedder
}

func TestNewEmbedderOptionsOverrideDefaults(t *testing.T) {
	embedder := newTestEmbedder(t,
		WithEmbeddingModel("custom-model"),
		WithEmbeddingDimension(42),
	)

	assert.Equal(t, "custom-model", embedder.ModelName())
	assert.Equal(t, 42, embedder.Dimension())
	assert.Equal(t, MaxEmbeddingBatchSize, embedder.MaxBatchSize())
}

func TestBatchEmbedValidation(t *testing.T) {
	embedder := newTestEmbedder(t)

	t.Run("入力ゼロ件はEmbeddingError", func(t *testing.T) {
		_, err := embedder.BatchEmbed(context.Background(), nil)

		var embErr *indexing.EmbeddingError
		assert.ErrorAs(t, err, &embErr)
	})

	t.Run("空テキストはEmbeddingError", func(t *testing.T) {
		_, err := embedder.BatchEmbed(context.Background(), []string{"ok", ""})

		var embErr *indexing.EmbeddingError
		require.ErrorAs(t, err, &embErr)
		assert.Contains(t, embErr.Reason, "index 1")
	})

	t.Run("バッチ上限超過はEmbeddingError", func(t *testing.T) {
		texts := make([]string, MaxEmbeddingBatchSize+1)
		for i := range texts {
			texts[i] = "text"
		}

		_, err := embedder.BatchEmbed(context.Background(), texts)

		var embErr *indexing.EmbeddingError
		require.ErrorAs(t, err, &embErr)
		assert.Contains(t, embErr.Reason, "exceeds maximum")
	})

	t.Run("トークン上限超過はEmbeddingError", func(t *testing.T) {
		huge := strings.Repeat("word ", maxEmbeddingTokens+1)

		_, err := embedder.BatchEmbed(context.Background(), []string{huge})

		var embErr *indexing.EmbeddingError
		require.ErrorAs(t, err, &embErr)
		assert.Contains(t, embErr.Reason, "exceeds limit")
	})
}
