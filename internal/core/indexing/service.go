package indexing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"
)

// IndexService はドキュメントのインデックス化ロジックを提供する
// 分割 → Embedding生成 → ベクトルストアへの保存を1回の操作として実行する
type IndexService struct {
	repo     Repository
	embedder Embedder
	chunker  *WordChunker
	logger   *slog.Logger
}

// IndexServiceOption は IndexService のオプション設定
type IndexServiceOption func(*IndexService)

// WithIndexLogger は IndexService にロガーを設定する
func WithIndexLogger(logger *slog.Logger) IndexServiceOption {
	return func(s *IndexService) {
		s.logger = logger
	}
}

// NewIndexService は新しいIndexServiceを作成する
func NewIndexService(
	repo Repository,
	embedder Embedder,
	chunker *WordChunker,
	opts ...IndexServiceOption,
) *IndexService {
	svc := &IndexService{
		repo:     repo,
		embedder: embedder,
		chunker:  chunker,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(svc)
	}

	if svc.logger == nil {
		svc.logger = slog.Default()
	}

	return svc
}

// Index はドキュメントをチャンク分割し、Embeddingと共にベクトルストアへ保存する
//
// 同じDocumentIDを事前削除なしで再インデックスするとチャンクが重複する。
// 冪等な再インデックスが必要な場合、呼び出し元は先にDeleteDocumentを実行すること。
func (s *IndexService) Index(ctx context.Context, params IndexParams) (*IndexResult, error) {
	if params.DocumentID <= 0 {
		return nil, fmt.Errorf("documentID is required")
	}

	start := time.Now()

	// 1. チャンク分割
	contents := s.chunker.Split(params.Content)

	s.logger.Info("document split into chunks",
		"documentID", params.DocumentID,
		"chunks", len(contents),
		"chunkSize", s.chunker.ChunkSize(),
		"overlap", s.chunker.Overlap(),
	)

	// 空テキストはチャンクゼロで正常終了
	if len(contents) == 0 {
		return &IndexResult{
			DocumentID:     params.DocumentID,
			ChunksCreated:  0,
			IndexingTimeMs: float64(time.Since(start)) / float64(time.Millisecond),
			IndexedAt:      start,
		}, nil
	}

	// 2. Embedding生成（バッチ、順序保持）
	vectors, err := s.batchEmbed(ctx, contents)
	if err != nil {
		return nil, fmt.Errorf("failed to embed chunks for document %d: %w", params.DocumentID, err)
	}

	if len(vectors) != len(contents) {
		return nil, &EmbeddingError{
			Reason: fmt.Sprintf("vector count mismatch: %d chunks, %d vectors", len(contents), len(vectors)),
		}
	}

	// 3. メタデータを付与してチャンクを構築
	metadata := ChunkMetadata{
		DocumentID: params.DocumentID,
		RAGID:      params.RAGID,
		Title:      params.Title,
		IndexedAt:  start,
		Extra:      params.Extra,
	}

	chunks := make([]*Chunk, len(contents))
	for i, content := range contents {
		chunks[i] = &Chunk{
			ID:       uuid.New(),
			Content:  content,
			Vector:   vectors[i],
			Metadata: metadata,
		}
	}

	// 4. ベクトルストアへ一括保存
	written, err := s.repo.WriteChunks(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("failed to write chunks for document %d: %w", params.DocumentID, err)
	}

	elapsed := float64(time.Since(start)) / float64(time.Millisecond)

	s.logger.Info("document indexed",
		"documentID", params.DocumentID,
		"chunksCreated", written,
		"indexingTimeMs", elapsed,
	)

	return &IndexResult{
		DocumentID:     params.DocumentID,
		ChunksCreated:  written,
		IndexingTimeMs: elapsed,
		IndexedAt:      start,
	}, nil
}

// batchEmbed はチャンク本文をEmbedderの最大バッチサイズ単位で埋め込む
func (s *IndexService) batchEmbed(ctx context.Context, contents []string) ([][]float32, error) {
	batchSize := s.embedder.MaxBatchSize()
	if batchSize <= 0 {
		batchSize = 1
	}

	vectors := make([][]float32, 0, len(contents))
	for start := 0; start < len(contents); start += batchSize {
		end := start + batchSize
		if end > len(contents) {
			end = len(contents)
		}

		batch, err := s.embedder.BatchEmbed(ctx, contents[start:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}

	return vectors, nil
}

// DeleteDocument は指定ドキュメントの全チャンクをベクトルストアから削除する
func (s *IndexService) DeleteDocument(ctx context.Context, documentID int64) (int64, error) {
	if documentID <= 0 {
		return 0, fmt.Errorf("documentID is required")
	}

	deleted, err := s.repo.DeleteChunks(ctx, ChunkFilter{
		DocumentID: mo.Some(documentID),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete chunks for document %d: %w", documentID, err)
	}

	s.logger.Info("document removed from index",
		"documentID", documentID,
		"chunksDeleted", deleted,
	)

	return deleted, nil
}

// DeleteByRAG は指定RAGコレクションの全チャンクをベクトルストアから削除する
func (s *IndexService) DeleteByRAG(ctx context.Context, ragID int64) (int64, error) {
	if ragID <= 0 {
		return 0, fmt.Errorf("ragID is required")
	}

	deleted, err := s.repo.DeleteChunks(ctx, ChunkFilter{
		RAGID: mo.Some(ragID),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete chunks for rag %d: %w", ragID, err)
	}

	return deleted, nil
}

// Stats はベクトルストアの統計情報を返す
func (s *IndexService) Stats(ctx context.Context) (*IndexStats, error) {
	total, err := s.repo.CountChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}

	return &IndexStats{
		TotalChunks:        total,
		EmbeddingDimension: s.embedder.Dimension(),
		Model:              s.embedder.ModelName(),
	}, nil
}
