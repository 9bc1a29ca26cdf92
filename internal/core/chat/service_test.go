package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ExxpresS/docGenerator/internal/core/indexing"
	"github.com/ExxpresS/docGenerator/internal/core/rag"
	"github.com/ExxpresS/docGenerator/internal/core/retrieval"
)

type stubRetriever struct {
	results    []*retrieval.RetrievedChunk
	lastParams retrieval.SearchParams
	failWith   error
}

var _ Retriever = (*stubRetriever)(nil)

func (r *stubRetriever) Search(_ context.Context, params retrieval.SearchParams) ([]*retrieval.RetrievedChunk, error) {
	r.lastParams = params
	if r.failWith != nil {
		return nil, r.failWith
	}
	return r.results, nil
}

type stubRAGChecker struct {
	existing map[int64]bool
}

var _ RAGChecker = (*stubRAGChecker)(nil)

func (c *stubRAGChecker) RAGExists(_ context.Context, ragID int64) (bool, error) {
	return c.existing[ragID], nil
}

type stubLLM struct {
	reply      string
	lastPrompt string
	failWith   error
}

var _ LLMClient = (*stubLLM)(nil)

func (l *stubLLM) GenerateCompletion(_ context.Context, prompt string) (string, error) {
	l.lastPrompt = prompt
	if l.failWith != nil {
		return "", l.failWith
	}
	return l.reply, nil
}

func (l *stubLLM) ModelName() string {
	return "llama3.2:1b"
}

func chunk(content, title string, score float64) *retrieval.RetrievedChunk {
	return &retrieval.RetrievedChunk{
		Content:  content,
		Score:    score,
		Metadata: indexing.ChunkMetadata{Title: title},
	}
}

func TestChatService_Generate(t *testing.T) {
	t.Run("RAG未使用の場合は検索せずに応答する", func(t *testing.T) {
		llm := &stubLLM{reply: "Hello!"}
		svc := NewChatService(&stubRetriever{}, &stubRAGChecker{}, llm, Config{
			DefaultTopK:       5,
			MinScoreThreshold: 0.3,
		})

		resp, err := svc.Generate(context.Background(), GenerateParams{Message: "Hi"})
		require.NoError(t, err)

		assert.Equal(t, "Hello!", resp.Response)
		assert.False(t, resp.RAGUsed)
		assert.Nil(t, resp.DocumentsUsed)
		assert.Nil(t, resp.RetrievalTimeMs)
		assert.Equal(t, "llama3.2:1b", resp.Model)
		assert.NotContains(t, llm.lastPrompt, "CONTEXT DOCUMENTS:")
	})

	t.Run("閾値以上の文書のみをスコア降順でコンテキストに採用する", func(t *testing.T) {
		retriever := &stubRetriever{results: []*retrieval.RetrievedChunk{
			chunk("highly relevant", "first", 0.5),
			chunk("barely relevant", "second", 0.35),
			chunk("irrelevant", "third", 0.2),
		}}
		llm := &stubLLM{reply: "Grounded answer."}
		svc := NewChatService(retriever, &stubRAGChecker{existing: map[int64]bool{7: true}}, llm, Config{
			DefaultTopK:       5,
			MinScoreThreshold: 0.3,
		})

		resp, err := svc.Generate(context.Background(), GenerateParams{
			Message: "What is relevant?",
			RAGID:   mo.Some(int64(7)),
		})
		require.NoError(t, err)

		assert.True(t, resp.RAGUsed)
		require.Len(t, resp.DocumentsUsed, 2)
		assert.Equal(t, DocumentUsed{Title: "first", Score: 0.5}, resp.DocumentsUsed[0])
		assert.Equal(t, DocumentUsed{Title: "second", Score: 0.35}, resp.DocumentsUsed[1])

		assert.Contains(t, llm.lastPrompt, "highly relevant")
		assert.Contains(t, llm.lastPrompt, "barely relevant")
		assert.NotContains(t, llm.lastPrompt, "irrelevant")

		require.NotNil(t, resp.RetrievalTimeMs)
		assert.GreaterOrEqual(t, resp.DurationMs, *resp.RetrievalTimeMs)
	})

	t.Run("閾値ちょうどのスコアは採用される", func(t *testing.T) {
		retriever := &stubRetriever{results: []*retrieval.RetrievedChunk{
			chunk("on the edge", "edge", 0.3),
		}}
		llm := &stubLLM{reply: "answer"}
		svc := NewChatService(retriever, &stubRAGChecker{existing: map[int64]bool{1: true}}, llm, Config{
			DefaultTopK:       5,
			MinScoreThreshold: 0.3,
		})

		resp, err := svc.Generate(context.Background(), GenerateParams{
			Message: "edge?",
			RAGID:   mo.Some(int64(1)),
		})
		require.NoError(t, err)

		require.Len(t, resp.DocumentsUsed, 1)
		assert.Equal(t, "edge", resp.DocumentsUsed[0].Title)
	})

	t.Run("閾値を超える文書がない場合も拒否指示付きでLLMを呼ぶ", func(t *testing.T) {
		retriever := &stubRetriever{results: []*retrieval.RetrievedChunk{
			chunk("weak match", "weak", 0.1),
		}}
		llm := &stubLLM{reply: "I could not find any information on this subject in the knowledge base."}
		svc := NewChatService(retriever, &stubRAGChecker{existing: map[int64]bool{7: true}}, llm, Config{
			DefaultTopK:       5,
			MinScoreThreshold: 0.3,
		})

		resp, err := svc.Generate(context.Background(), GenerateParams{
			Message: "unknown topic",
			RAGID:   mo.Some(int64(7)),
		})
		require.NoError(t, err)

		assert.True(t, resp.RAGUsed)
		assert.Empty(t, resp.DocumentsUsed)
		assert.Contains(t, llm.lastPrompt, "No relevant document was found")
		require.NotNil(t, resp.RetrievalTimeMs)
	})

	t.Run("TopK未指定の場合はデフォルト値で検索する", func(t *testing.T) {
		retriever := &stubRetriever{}
		llm := &stubLLM{reply: "answer"}
		svc := NewChatService(retriever, &stubRAGChecker{existing: map[int64]bool{1: true}}, llm, Config{
			DefaultTopK:       5,
			MinScoreThreshold: 0.3,
		})

		_, err := svc.Generate(context.Background(), GenerateParams{
			Message: "q",
			RAGID:   mo.Some(int64(1)),
		})
		require.NoError(t, err)
		assert.Equal(t, 5, retriever.lastParams.TopK)

		_, err = svc.Generate(context.Background(), GenerateParams{
			Message: "q",
			RAGID:   mo.Some(int64(1)),
			TopK:    mo.Some(12),
		})
		require.NoError(t, err)
		assert.Equal(t, 12, retriever.lastParams.TopK)
	})

	t.Run("存在しないRAGの場合はErrRAGNotFound", func(t *testing.T) {
		svc := NewChatService(&stubRetriever{}, &stubRAGChecker{}, &stubLLM{reply: "x"}, Config{
			DefaultTopK:       5,
			MinScoreThreshold: 0.3,
		})

		_, err := svc.Generate(context.Background(), GenerateParams{
			Message: "q",
			RAGID:   mo.Some(int64(42)),
		})
		assert.ErrorIs(t, err, rag.ErrRAGNotFound)
	})

	t.Run("メッセージが空の場合はエラー", func(t *testing.T) {
		svc := NewChatService(&stubRetriever{}, &stubRAGChecker{}, &stubLLM{reply: "x"}, Config{})

		_, err := svc.Generate(context.Background(), GenerateParams{})
		assert.Error(t, err)
	})

	t.Run("検索エラーは伝播する", func(t *testing.T) {
		retriever := &stubRetriever{failWith: errors.New("store unavailable")}
		svc := NewChatService(retriever, &stubRAGChecker{existing: map[int64]bool{1: true}}, &stubLLM{reply: "x"}, Config{
			DefaultTopK:       5,
			MinScoreThreshold: 0.3,
		})

		_, err := svc.Generate(context.Background(), GenerateParams{
			Message: "q",
			RAGID:   mo.Some(int64(1)),
		})
		assert.ErrorContains(t, err, "retrieval failed")
	})

	t.Run("LLMが空応答の場合はGenerationError", func(t *testing.T) {
		svc := NewChatService(&stubRetriever{}, &stubRAGChecker{}, &stubLLM{reply: ""}, Config{})

		_, err := svc.Generate(context.Background(), GenerateParams{Message: "q"})

		var genErr *GenerationError
		assert.ErrorAs(t, err, &genErr)
	})
}
