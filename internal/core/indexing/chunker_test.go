package indexing

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWordChunker_InvalidConfig(t *testing.T) {
	tests := []struct {
		name      string
		chunkSize int
		overlap   int
	}{
		{name: "chunkSizeがゼロ", chunkSize: 0, overlap: 0},
		{name: "chunkSizeが負", chunkSize: -1, overlap: 0},
		{name: "overlapが負", chunkSize: 10, overlap: -1},
		{name: "chunkSizeとoverlapが等しい", chunkSize: 5, overlap: 5},
		{name: "overlapがchunkSizeより大きい", chunkSize: 5, overlap: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewWordChunker(tt.chunkSize, tt.overlap)
			assert.ErrorIs(t, err, ErrInvalidChunkConfig)
		})
	}
}

func TestWordChunker_Split(t *testing.T) {
	t.Run("空テキストはチャンクなし", func(t *testing.T) {
		chunker, err := NewWordChunker(10, 2)
		require.NoError(t, err)

		assert.Empty(t, chunker.Split(""))
		assert.Empty(t, chunker.Split("   \n\t  "))
	})

	t.Run("chunkSize未満のテキストは1チャンク", func(t *testing.T) {
		chunker, err := NewWordChunker(10, 2)
		require.NoError(t, err)

		chunks := chunker.Split("The sky is blue. Grass is green.")
		require.Len(t, chunks, 1)
		assert.Equal(t, "The sky is blue. Grass is green.", chunks[0])
	})

	t.Run("連続チャンクはoverlap単語を共有する", func(t *testing.T) {
		chunker, err := NewWordChunker(4, 1)
		require.NoError(t, err)

		// 10単語、step=3: オフセット 0,3,6,9 から開始
		chunks := chunker.Split("w0 w1 w2 w3 w4 w5 w6 w7 w8 w9")
		require.Equal(t, []string{
			"w0 w1 w2 w3",
			"w3 w4 w5 w6",
			"w6 w7 w8 w9",
		}, chunks)
	})

	t.Run("末尾チャンクはchunkSizeより短くてよい", func(t *testing.T) {
		chunker, err := NewWordChunker(4, 0)
		require.NoError(t, err)

		chunks := chunker.Split("w0 w1 w2 w3 w4 w5")
		require.Equal(t, []string{
			"w0 w1 w2 w3",
			"w4 w5",
		}, chunks)
	})

	t.Run("単語の途中で分割しない", func(t *testing.T) {
		chunker, err := NewWordChunker(3, 1)
		require.NoError(t, err)

		for _, chunk := range chunker.Split("alpha beta gamma delta epsilon") {
			for _, word := range strings.Fields(chunk) {
				assert.Contains(t, []string{"alpha", "beta", "gamma", "delta", "epsilon"}, word)
			}
		}
	})
}

// TestWordChunker_Deterministic は同一入力に対して常に同一のチャンク列を返すことを確認する
func TestWordChunker_Deterministic(t *testing.T) {
	chunker, err := NewWordChunker(50, 10)
	require.NoError(t, err)

	var sb strings.Builder
	for i := 0; i < 500; i++ {
		fmt.Fprintf(&sb, "word%d ", i)
	}
	text := sb.String()

	first := chunker.Split(text)
	second := chunker.Split(text)
	assert.Equal(t, first, second)
}

// TestWordChunker_Reconstruction はオーバーラップ分を除いた連結が元の単語列を復元することを確認する
func TestWordChunker_Reconstruction(t *testing.T) {
	tests := []struct {
		name      string
		chunkSize int
		overlap   int
		words     int
	}{
		{name: "overlapなし", chunkSize: 7, overlap: 0, words: 100},
		{name: "overlapあり", chunkSize: 10, overlap: 3, words: 137},
		{name: "step1", chunkSize: 2, overlap: 1, words: 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunker, err := NewWordChunker(tt.chunkSize, tt.overlap)
			require.NoError(t, err)

			original := make([]string, tt.words)
			for i := range original {
				original[i] = fmt.Sprintf("word%d", i)
			}
			chunks := chunker.Split(strings.Join(original, " "))
			require.NotEmpty(t, chunks)

			// チャンクiはオフセット i*(chunkSize-overlap) から始まるため、
			// 先頭チャンク全体＋以降の各チャンクのoverlap以降を連結すると元の単語列になる
			reconstructed := strings.Fields(chunks[0])
			for _, chunk := range chunks[1:] {
				words := strings.Fields(chunk)
				require.GreaterOrEqual(t, len(words), tt.overlap)
				reconstructed = append(reconstructed, words[tt.overlap:]...)
			}

			assert.Equal(t, original, reconstructed)
		})
	}
}
