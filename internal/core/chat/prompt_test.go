package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ExxpresS/docGenerator/internal/core/indexing"
	"github.com/ExxpresS/docGenerator/internal/core/retrieval"
)

func TestBuildPrompt(t *testing.T) {
	t.Run("文書ありの場合はコンテキストブロックを含む", func(t *testing.T) {
		prompt := BuildPrompt("What color is the sky?", "Document 1 (score: 0.91):\nThe sky is blue.\nSource: weather", true)

		assert.Contains(t, prompt, "CONTEXT DOCUMENTS:")
		assert.Contains(t, prompt, "The sky is blue.")
		assert.Contains(t, prompt, "Use ONLY the documents above to answer.")
		assert.Contains(t, prompt, "USER QUESTION: What color is the sky?")
		assert.NotContains(t, prompt, "No relevant document was found")
	})

	t.Run("RAG要求かつ文書なしの場合は拒否指示を含む", func(t *testing.T) {
		prompt := BuildPrompt("What color is the sky?", "", true)

		assert.Contains(t, prompt, "No relevant document was found in the knowledge base")
		assert.Contains(t, prompt, "I could not find any information on this subject in the knowledge base.")
		assert.NotContains(t, prompt, "CONTEXT DOCUMENTS:")
	})

	t.Run("RAG未使用の場合は文書ブロックも拒否指示も含まない", func(t *testing.T) {
		prompt := BuildPrompt("Hello there", "", false)

		assert.NotContains(t, prompt, "CONTEXT DOCUMENTS:")
		assert.NotContains(t, prompt, "No relevant document was found")
		assert.Contains(t, prompt, "USER QUESTION: Hello there")
	})
}

func TestFormatDocumentsContext(t *testing.T) {
	t.Run("連番とスコアと出典を整形する", func(t *testing.T) {
		context := FormatDocumentsContext([]*retrieval.RetrievedChunk{
			{
				Content:  "The sky is blue.",
				Score:    0.914,
				Metadata: indexing.ChunkMetadata{Title: "weather"},
			},
			{
				Content:  "Grass is green.",
				Score:    0.42,
				Metadata: indexing.ChunkMetadata{Title: "nature"},
			},
		})

		assert.Equal(t,
			"Document 1 (score: 0.91):\nThe sky is blue.\nSource: weather\n\n"+
				"Document 2 (score: 0.42):\nGrass is green.\nSource: nature",
			context,
		)
	})

	t.Run("タイトルが空の場合はUntitledにフォールバックする", func(t *testing.T) {
		context := FormatDocumentsContext([]*retrieval.RetrievedChunk{
			{Content: "orphan text", Score: 0.5},
		})

		assert.Contains(t, context, "Source: Untitled")
	})

	t.Run("結果ゼロ件の場合は空文字列", func(t *testing.T) {
		assert.Empty(t, FormatDocumentsContext(nil))
	})
}
