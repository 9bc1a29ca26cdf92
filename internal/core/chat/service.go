package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ExxpresS/docGenerator/internal/core/rag"
	"github.com/ExxpresS/docGenerator/internal/core/retrieval"
)

// LLMClient はLLM通信インターフェース
type LLMClient interface {
	// GenerateCompletion はプロンプトから応答テキストを生成する
	GenerateCompletion(ctx context.Context, prompt string) (string, error)

	// ModelName は応答生成に使用するモデル名を返す
	ModelName() string
}

// Retriever は根拠文書の類似度検索インターフェース
type Retriever interface {
	Search(ctx context.Context, params retrieval.SearchParams) ([]*retrieval.RetrievedChunk, error)
}

// RAGChecker はRAGコレクションの存在確認インターフェース
type RAGChecker interface {
	RAGExists(ctx context.Context, ragID int64) (bool, error)
}

// Config はチャット応答生成の設定
type Config struct {
	DefaultTopK       int     // 検索件数のデフォルト値
	MinScoreThreshold float64 // コンテキストに採用する最小類似度スコア
}

// ChatService はRAGを用いたチャット応答生成のビジネスロジックを提供する
type ChatService struct {
	retriever Retriever
	rags      RAGChecker
	llm       LLMClient
	config    Config
	logger    *slog.Logger
}

// ChatServiceOption は ChatService のオプション設定
type ChatServiceOption func(*ChatService)

// WithChatLogger は ChatService にロガーを設定する
func WithChatLogger(logger *slog.Logger) ChatServiceOption {
	return func(s *ChatService) {
		s.logger = logger
	}
}

// NewChatService は新しいChatServiceを作成する
func NewChatService(
	retriever Retriever,
	rags RAGChecker,
	llm LLMClient,
	config Config,
	opts ...ChatServiceOption,
) *ChatService {
	if config.DefaultTopK <= 0 {
		config.DefaultTopK = retrieval.DefaultTopK
	}

	svc := &ChatService{
		retriever: retriever,
		rags:      rags,
		llm:       llm,
		config:    config,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(svc)
	}

	if svc.logger == nil {
		svc.logger = slog.Default()
	}

	return svc
}

// Generate はユーザーメッセージに対するLLM応答を生成する
//
// RAGIDが指定された場合は根拠文書を検索し、閾値を超えた文書をコンテキストとして
// プロンプトに埋め込む。閾値を超える文書がゼロ件の場合もLLMは呼び出すが、
// プロンプト側で「情報が見つからない」と応答するよう指示する。
func (s *ChatService) Generate(ctx context.Context, params GenerateParams) (*Response, error) {
	if params.Message == "" {
		return nil, fmt.Errorf("message is required")
	}

	start := time.Now()

	ragRequested := params.RAGID.IsPresent()
	documentsContext := ""
	var documentsUsed []DocumentUsed
	var retrievalTimeMs *float64

	if ragRequested {
		ragID := params.RAGID.MustGet()

		// RAGコレクションの存在確認
		exists, err := s.rags.RAGExists(ctx, ragID)
		if err != nil {
			return nil, fmt.Errorf("failed to check rag %d: %w", ragID, err)
		}
		if !exists {
			return nil, fmt.Errorf("rag collection %d: %w", ragID, rag.ErrRAGNotFound)
		}

		effectiveTopK := params.TopK.OrElse(s.config.DefaultTopK)

		s.logger.Info("retrieving context documents",
			"ragID", ragID,
			"topK", effectiveTopK,
		)

		retrievalStart := time.Now()
		results, err := s.retriever.Search(ctx, retrieval.SearchParams{
			Query: params.Message,
			RAGID: params.RAGID,
			TopK:  effectiveTopK,
		})
		if err != nil {
			return nil, fmt.Errorf("retrieval failed for rag %d: %w", ragID, err)
		}

		// 閾値フィルタリング（スコア降順は検索結果の順序をそのまま維持）
		filtered := make([]*retrieval.RetrievedChunk, 0, len(results))
		for _, result := range results {
			if result.Score >= s.config.MinScoreThreshold {
				filtered = append(filtered, result)
			}
		}

		elapsed := float64(time.Since(retrievalStart)) / float64(time.Millisecond)
		retrievalTimeMs = &elapsed

		s.logger.Info("retrieval completed",
			"ragID", ragID,
			"retrieved", len(results),
			"aboveThreshold", len(filtered),
			"threshold", s.config.MinScoreThreshold,
			"retrievalTimeMs", elapsed,
		)

		if len(filtered) > 0 {
			documentsContext = FormatDocumentsContext(filtered)
			documentsUsed = make([]DocumentUsed, 0, len(filtered))
			for _, result := range filtered {
				title := result.Metadata.Title
				if title == "" {
					title = "Untitled"
				}
				documentsUsed = append(documentsUsed, DocumentUsed{
					Title: title,
					Score: result.Score,
				})
			}
		} else {
			s.logger.Warn("no documents above score threshold",
				"ragID", ragID,
				"threshold", s.config.MinScoreThreshold,
			)
		}
	}

	// プロンプト構築とLLM呼び出し
	// 検索結果ゼロでも必ずLLMを呼ぶ（拒否方針はプロンプト側の契約）
	prompt := BuildPrompt(params.Message, documentsContext, ragRequested)

	reply, err := s.llm.GenerateCompletion(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("llm call failed: %w", err)
	}
	if reply == "" {
		return nil, &GenerationError{Reason: "no response generated from LLM"}
	}

	end := time.Now()
	durationMs := float64(end.Sub(start)) / float64(time.Millisecond)

	s.logger.Info("chat response generated",
		"ragUsed", ragRequested,
		"documentsUsed", len(documentsUsed),
		"durationMs", durationMs,
	)

	return &Response{
		Response:        reply,
		DurationMs:      durationMs,
		Timestamp:       end,
		Model:           s.llm.ModelName(),
		RAGUsed:         ragRequested,
		DocumentsUsed:   documentsUsed,
		RetrievalTimeMs: retrievalTimeMs,
	}, nil
}
