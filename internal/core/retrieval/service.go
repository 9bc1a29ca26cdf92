package retrieval

import (
	"context"
	"fmt"
	"log/slog"
)

// DefaultTopK は検索件数が未指定の場合のデフォルト値
const DefaultTopK = 5

// Embedder はクエリテキストのEmbedding生成インターフェース
type Embedder interface {
	// Embed は単一テキストのEmbeddingを生成する
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Repository はベクトルストアの類似度検索インターフェース
type Repository interface {
	// SearchChunks はクエリベクトルに類似するチャンクをスコア降順で返す
	// 同一入力・同一ストア状態に対して結果順序は安定であること
	SearchChunks(ctx context.Context, queryVector []float32, limit int, filter Filter) ([]*RetrievedChunk, error)
}

// SearchService は類似度検索のビジネスロジックを提供する
//
// スコア閾値によるフィルタリングはこの層では行わない。
// 閾値の適用はチャット側の責務であり、生の検索結果は他の用途でも再利用される。
type SearchService struct {
	repo     Repository
	embedder Embedder
	topK     int
	logger   *slog.Logger
}

// SearchServiceOption は SearchService のオプション設定
type SearchServiceOption func(*SearchService)

// WithSearchLogger は SearchService にロガーを設定する
func WithSearchLogger(logger *slog.Logger) SearchServiceOption {
	return func(s *SearchService) {
		s.logger = logger
	}
}

// WithDefaultTopK は検索件数のデフォルト値を上書きする
func WithDefaultTopK(topK int) SearchServiceOption {
	return func(s *SearchService) {
		if topK > 0 {
			s.topK = topK
		}
	}
}

// NewSearchService は新しいSearchServiceを作成する
func NewSearchService(repo Repository, embedder Embedder, opts ...SearchServiceOption) *SearchService {
	svc := &SearchService{
		repo:     repo,
		embedder: embedder,
		topK:     DefaultTopK,
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

// DefaultTopK は設定されている検索件数のデフォルト値を返す
func (s *SearchService) DefaultTopK() int {
	return s.topK
}

// Search はクエリに基づいてベクトル検索を実行する
// 結果はスコア降順で、閾値フィルタリングは適用されない
func (s *SearchService) Search(ctx context.Context, params SearchParams) ([]*RetrievedChunk, error) {
	// バリデーション
	if params.Query == "" {
		return nil, fmt.Errorf("query is required")
	}

	// クエリをEmbeddingに変換
	queryVector, err := s.embedder.Embed(ctx, params.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	// デフォルトのTopK設定
	topK := params.TopK
	if topK <= 0 {
		topK = s.topK
	}

	results, err := s.repo.SearchChunks(ctx, queryVector, topK, Filter{RAGID: params.RAGID})
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	s.logger.Info("search completed",
		"query", params.Query,
		"ragID", params.RAGID.OrElse(0),
		"topK", topK,
		"results", len(results),
	)

	return results, nil
}
