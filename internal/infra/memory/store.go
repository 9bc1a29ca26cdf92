package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/ExxpresS/docGenerator/internal/core/indexing"
	"github.com/ExxpresS/docGenerator/internal/core/retrieval"
)

// ChunkStore はブルートフォースのコサイン類似度検索を行うインメモリ実装
// 外部依存なしで動作するため、開発環境やテストで使用する
type ChunkStore struct {
	mu     sync.RWMutex
	chunks []*indexing.Chunk
}

// NewChunkStore は新しい ChunkStore を作成する
func NewChunkStore() *ChunkStore {
	return &ChunkStore{}
}

var (
	_ indexing.Repository  = (*ChunkStore)(nil)
	_ retrieval.Repository = (*ChunkStore)(nil)
)

// WriteChunks はチャンクを一括保存する
func (s *ChunkStore) WriteChunks(_ context.Context, chunks []*indexing.Chunk) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.chunks = append(s.chunks, chunks...)
	return len(chunks), nil
}

// DeleteChunks はフィルタに一致するチャンクを削除し、削除件数を返す
func (s *ChunkStore) DeleteChunks(_ context.Context, filter indexing.ChunkFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.chunks[:0]
	var deleted int64
	for _, chunk := range s.chunks {
		if matchesFilter(chunk, filter) {
			deleted++
			continue
		}
		kept = append(kept, chunk)
	}
	s.chunks = kept

	return deleted, nil
}

// CountChunks は保存されているチャンクの総数を返す
func (s *ChunkStore) CountChunks(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.chunks)), nil
}

// SearchChunks はコサイン類似度の降順でチャンクを検索する
// 同スコアの場合は挿入順を保持するため、結果順序は安定している
func (s *ChunkStore) SearchChunks(_ context.Context, queryVector []float32, limit int, filter retrieval.Filter) ([]*retrieval.RetrievedChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scored := make([]*retrieval.RetrievedChunk, 0, len(s.chunks))
	for _, chunk := range s.chunks {
		if ragID, ok := filter.RAGID.Get(); ok {
			chunkRAGID, present := chunk.Metadata.RAGID.Get()
			if !present || chunkRAGID != ragID {
				continue
			}
		}
		if documentID, ok := filter.DocumentID.Get(); ok {
			if chunk.Metadata.DocumentID != documentID {
				continue
			}
		}

		scored = append(scored, &retrieval.RetrievedChunk{
			Content:  chunk.Content,
			Score:    cosineSimilarity(queryVector, chunk.Vector),
			Metadata: chunk.Metadata,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if limit > 0 && limit < len(scored) {
		scored = scored[:limit]
	}

	return scored, nil
}

func matchesFilter(chunk *indexing.Chunk, filter indexing.ChunkFilter) bool {
	if documentID, ok := filter.DocumentID.Get(); ok {
		if chunk.Metadata.DocumentID != documentID {
			return false
		}
	}
	if ragID, ok := filter.RAGID.Get(); ok {
		chunkRAGID, present := chunk.Metadata.RAGID.Get()
		if !present || chunkRAGID != ragID {
			return false
		}
	}
	return true
}

// cosineSimilarity はベクトル間のコサイン類似度を返す
// ゼロベクトルに対しては0を返す
func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
