package container

import (
	"context"
	"fmt"
	"log/slog"

	corechat "github.com/ExxpresS/docGenerator/internal/core/chat"
	coreindexing "github.com/ExxpresS/docGenerator/internal/core/indexing"
	corerag "github.com/ExxpresS/docGenerator/internal/core/rag"
	coreretrieval "github.com/ExxpresS/docGenerator/internal/core/retrieval"
	"github.com/ExxpresS/docGenerator/internal/infra/openai"
	"github.com/ExxpresS/docGenerator/internal/infra/postgres"
	"github.com/ExxpresS/docGenerator/pkg/config"
	"github.com/ExxpresS/docGenerator/pkg/db"
)

// ChunkStore はインデックスと検索の両リポジトリを満たすベクトルストア
type ChunkStore interface {
	coreindexing.Repository
	coreretrieval.Repository
}

// Embedder はインデックスと検索の両方で使用するEmbedding実装
type Embedder interface {
	coreindexing.Embedder
	coreretrieval.Embedder
}

// ServiceContainer はアプリケーションの依存関係を保持する。
// 起動時に一度だけ構築し、遅延初期化は行わない。
type ServiceContainer struct {
	IndexService  *coreindexing.IndexService
	SearchService *coreretrieval.SearchService
	ChatService   *corechat.ChatService
	RAGService    *corerag.RAGService
	RAGRepository corerag.Repository

	logger   *slog.Logger
	database *db.DB
}

type containerOptions struct {
	logger     *slog.Logger
	embedder   Embedder
	llmClient  corechat.LLMClient
	chunkStore ChunkStore
	ragRepo    corerag.Repository
}

// ContainerOption は ServiceContainer 構築時のオプション
type ContainerOption func(*containerOptions)

// WithContainerLogger はロガーを差し替える
func WithContainerLogger(logger *slog.Logger) ContainerOption {
	return func(opts *containerOptions) {
		opts.logger = logger
	}
}

// WithContainerEmbedder はカスタム Embedder を注入する
func WithContainerEmbedder(embedder Embedder) ContainerOption {
	return func(opts *containerOptions) {
		opts.embedder = embedder
	}
}

// WithContainerLLMClient は LLM クライアントを差し替える
func WithContainerLLMClient(client corechat.LLMClient) ContainerOption {
	return func(opts *containerOptions) {
		opts.llmClient = client
	}
}

// WithContainerChunkStore はベクトルストアを差し替える
func WithContainerChunkStore(store ChunkStore) ContainerOption {
	return func(opts *containerOptions) {
		opts.chunkStore = store
	}
}

// WithContainerRAGRepository は RAG リポジトリを差し替える
func WithContainerRAGRepository(repo corerag.Repository) ContainerOption {
	return func(opts *containerOptions) {
		opts.ragRepo = repo
	}
}

// NewContainer は設定からコンテナを生成する。
func NewContainer(ctx context.Context, cfg *config.Config, opts ...ContainerOption) (*ServiceContainer, error) {
	database, err := db.New(ctx, db.ConnectionParams{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		return nil, fmt.Errorf("データベース初期化に失敗しました: %w", err)
	}

	if err := postgres.EnsureSchema(ctx, database.Pool, cfg.Embedding.Dimension); err != nil {
		database.Close()
		return nil, fmt.Errorf("スキーマ初期化に失敗しました: %w", err)
	}

	container, err := NewContainerWithDB(cfg, database, opts...)
	if err != nil {
		database.Close()
		return nil, err
	}

	return container, nil
}

// NewContainerWithDB は既存の DB を受け取りコンテナを生成する。
func NewContainerWithDB(cfg *config.Config, database *db.DB, opts ...ContainerOption) (*ServiceContainer, error) {
	options := containerOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	// Embedder (OpenAI互換)
	embedder := options.embedder
	if embedder == nil {
		openaiEmbedder, err := openai.NewEmbedder(
			cfg.Embedding.APIKey,
			openai.WithEmbeddingBaseURL(cfg.Embedding.BaseURL),
			openai.WithEmbeddingModel(cfg.Embedding.Model),
			openai.WithEmbeddingDimension(cfg.Embedding.Dimension),
			openai.WithEmbeddingTimeout(cfg.Embedding.Timeout),
		)
		if err != nil {
			return nil, fmt.Errorf("Embedder 初期化に失敗しました: %w", err)
		}
		embedder = openaiEmbedder
	}

	// LLMClient (Ollama互換)
	llmClient := options.llmClient
	if llmClient == nil {
		llmClient = openai.NewClient(
			cfg.LLM.APIKey,
			openai.WithBaseURL(cfg.LLM.BaseURL),
			openai.WithModel(cfg.LLM.Model),
			openai.WithTimeout(cfg.LLM.Timeout),
			openai.WithMaxTokens(cfg.LLM.MaxTokens),
			openai.WithTemperature(cfg.LLM.Temperature),
		)
	}

	// ベクトルストア (pgvector)
	chunkStore := options.chunkStore
	if chunkStore == nil {
		chunkStore = postgres.NewChunkStore(database.Pool)
	}

	// RAGリポジトリ (PostgreSQL)
	ragRepo := options.ragRepo
	if ragRepo == nil {
		ragRepo = postgres.NewRAGRepository(database.Pool)
	}

	// Chunker
	chunker, err := coreindexing.NewWordChunker(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("Chunker 初期化に失敗しました: %w", err)
	}

	// IndexService
	indexService := coreindexing.NewIndexService(
		chunkStore,
		embedder,
		chunker,
		coreindexing.WithIndexLogger(options.logger),
	)

	// SearchService
	searchService := coreretrieval.NewSearchService(
		chunkStore,
		embedder,
		coreretrieval.WithSearchLogger(options.logger),
		coreretrieval.WithDefaultTopK(cfg.RAG.TopKDefault),
	)

	// RAGService
	ragService := corerag.NewRAGService(
		ragRepo,
		indexService,
		corerag.WithRAGLogger(options.logger),
	)

	// ChatService
	chatService := corechat.NewChatService(
		searchService,
		ragRepo,
		llmClient,
		corechat.Config{
			DefaultTopK:       cfg.RAG.TopKDefault,
			MinScoreThreshold: cfg.RAG.MinScoreThreshold,
		},
		corechat.WithChatLogger(options.logger),
	)

	return &ServiceContainer{
		IndexService:  indexService,
		SearchService: searchService,
		ChatService:   chatService,
		RAGService:    ragService,
		RAGRepository: ragRepo,
		logger:        options.logger,
		database:      database,
	}, nil
}

// Close は内部リソースを解放する。
func (c *ServiceContainer) Close() {
	if c != nil && c.database != nil {
		c.database.Close()
	}
}
