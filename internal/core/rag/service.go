package rag

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/mo"

	"github.com/ExxpresS/docGenerator/internal/core/indexing"
)

// Indexer はベクトルストアへのインデックス操作インターフェース
type Indexer interface {
	Index(ctx context.Context, params indexing.IndexParams) (*indexing.IndexResult, error)
	DeleteDocument(ctx context.Context, documentID int64) (int64, error)
	DeleteByRAG(ctx context.Context, ragID int64) (int64, error)
}

// RAGService はRAGコレクションとドキュメントの管理ロジックを提供する
type RAGService struct {
	repo    Repository
	indexer Indexer
	logger  *slog.Logger
}

// RAGServiceOption は RAGService のオプション設定
type RAGServiceOption func(*RAGService)

// WithRAGLogger は RAGService にロガーを設定する
func WithRAGLogger(logger *slog.Logger) RAGServiceOption {
	return func(s *RAGService) {
		s.logger = logger
	}
}

// NewRAGService は新しいRAGServiceを作成する
func NewRAGService(repo Repository, indexer Indexer, opts ...RAGServiceOption) *RAGService {
	svc := &RAGService{
		repo:    repo,
		indexer: indexer,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(svc)
	}

	if svc.logger == nil {
		svc.logger = slog.Default()
	}

	return svc
}

// CreateRAG は新しいRAGコレクションを作成する
func (s *RAGService) CreateRAG(ctx context.Context, params CreateRAGParams) (*RAG, error) {
	if params.Name == "" {
		return nil, fmt.Errorf("name is required")
	}

	created, err := s.repo.CreateRAG(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create rag: %w", err)
	}

	s.logger.Info("rag collection created",
		"ragID", created.ID,
		"name", created.Name,
	)

	return created, nil
}

// GetRAG はIDでRAGコレクションを取得する
func (s *RAGService) GetRAG(ctx context.Context, ragID int64) (*RAG, error) {
	return s.repo.GetRAG(ctx, ragID)
}

// ListRAGs は全RAGコレクションを返す
func (s *RAGService) ListRAGs(ctx context.Context) ([]*RAG, error) {
	return s.repo.ListRAGs(ctx)
}

// UpdateRAG はRAGコレクションの名前と説明を更新する
func (s *RAGService) UpdateRAG(ctx context.Context, ragID int64, params UpdateRAGParams) (*RAG, error) {
	if name, ok := params.Name.Get(); ok && name == "" {
		return nil, fmt.Errorf("name must not be empty")
	}

	updated, err := s.repo.UpdateRAG(ctx, ragID, params)
	if err != nil {
		return nil, err
	}

	s.logger.Info("rag collection updated",
		"ragID", updated.ID,
		"name", updated.Name,
	)

	return updated, nil
}

// DeleteRAG はRAGコレクションと所属ドキュメント、そのチャンクを削除する
//
// ベクトルストア側の削除が失敗してもコレクション本体の削除は続行する。
// 原子性は保証しないため、失敗はログで観測可能にする。
func (s *RAGService) DeleteRAG(ctx context.Context, ragID int64) error {
	exists, err := s.repo.RAGExists(ctx, ragID)
	if err != nil {
		return fmt.Errorf("failed to check rag %d: %w", ragID, err)
	}
	if !exists {
		return fmt.Errorf("rag collection %d: %w", ragID, ErrRAGNotFound)
	}

	deleted, err := s.indexer.DeleteByRAG(ctx, ragID)
	if err != nil {
		s.logger.Warn("failed to delete chunks for rag, continuing",
			"ragID", ragID,
			"error", err,
		)
	} else {
		s.logger.Info("rag chunks deleted",
			"ragID", ragID,
			"chunksDeleted", deleted,
		)
	}

	if err := s.repo.DeleteRAG(ctx, ragID); err != nil {
		return fmt.Errorf("failed to delete rag %d: %w", ragID, err)
	}

	s.logger.Info("rag collection deleted", "ragID", ragID)
	return nil
}

// AddDocument はドキュメントをRAGコレクションに登録する
// インデキシングは行わない。IndexDocument または IndexAll を別途呼び出すこと
func (s *RAGService) AddDocument(ctx context.Context, params CreateDocumentParams) (*Document, error) {
	if params.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if params.Content == "" {
		return nil, fmt.Errorf("content is required")
	}

	exists, err := s.repo.RAGExists(ctx, params.RAGID)
	if err != nil {
		return nil, fmt.Errorf("failed to check rag %d: %w", params.RAGID, err)
	}
	if !exists {
		return nil, fmt.Errorf("rag collection %d: %w", params.RAGID, ErrRAGNotFound)
	}

	doc, err := s.repo.CreateDocument(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	s.logger.Info("document added",
		"documentID", doc.ID,
		"ragID", doc.RAGID,
		"title", doc.Title,
	)

	return doc, nil
}

// RemoveDocument はドキュメントとそのチャンクを削除する
func (s *RAGService) RemoveDocument(ctx context.Context, documentID int64) error {
	doc, err := s.repo.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}

	if _, err := s.indexer.DeleteDocument(ctx, doc.ID); err != nil {
		s.logger.Warn("failed to delete chunks for document, continuing",
			"documentID", doc.ID,
			"error", err,
		)
	}

	if err := s.repo.DeleteDocument(ctx, doc.ID); err != nil {
		return fmt.Errorf("failed to delete document %d: %w", doc.ID, err)
	}

	s.logger.Info("document removed", "documentID", doc.ID)
	return nil
}

// IndexDocument は単一ドキュメントをインデックスする
// 再インデックス時の重複を避けるため、既存チャンクを先に削除する
func (s *RAGService) IndexDocument(ctx context.Context, documentID int64) (*indexing.IndexResult, error) {
	doc, err := s.repo.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if _, err := s.indexer.DeleteDocument(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("failed to clear previous chunks for document %d: %w", doc.ID, err)
	}

	result, err := s.indexer.Index(ctx, indexing.IndexParams{
		DocumentID: doc.ID,
		Title:      doc.Title,
		Content:    doc.Content,
		RAGID:      mo.Some(doc.RAGID),
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.MarkDocumentIndexed(ctx, doc.ID, result.ChunksCreated); err != nil {
		return nil, fmt.Errorf("failed to mark document %d indexed: %w", doc.ID, err)
	}

	return result, nil
}

// IndexAll はRAGコレクション所属の全ドキュメントをインデックスする
//
// ドキュメント単位で成否を記録し、一部が失敗しても残りを処理する
func (s *RAGService) IndexAll(ctx context.Context, ragID int64) (*IndexAllResult, error) {
	exists, err := s.repo.RAGExists(ctx, ragID)
	if err != nil {
		return nil, fmt.Errorf("failed to check rag %d: %w", ragID, err)
	}
	if !exists {
		return nil, fmt.Errorf("rag collection %d: %w", ragID, ErrRAGNotFound)
	}

	docs, err := s.repo.ListDocuments(ctx, ragID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents for rag %d: %w", ragID, err)
	}

	result := &IndexAllResult{
		RAGID:    ragID,
		Outcomes: make([]IndexOutcome, 0, len(docs)),
	}

	for _, doc := range docs {
		outcome := IndexOutcome{
			DocumentID: doc.ID,
			Title:      doc.Title,
		}

		indexed, err := s.IndexDocument(ctx, doc.ID)
		if err != nil {
			outcome.Err = err
			result.Failed++
			s.logger.Error("failed to index document",
				"documentID", doc.ID,
				"ragID", ragID,
				"error", err,
			)
		} else {
			outcome.ChunksCreated = indexed.ChunksCreated
			result.Indexed++
		}

		result.Outcomes = append(result.Outcomes, outcome)
	}

	s.logger.Info("rag indexing completed",
		"ragID", ragID,
		"indexed", result.Indexed,
		"failed", result.Failed,
	)

	return result, nil
}

// Stats はRAGコレクションの統計情報を返す
func (s *RAGService) Stats(ctx context.Context, ragID int64) (*Stats, error) {
	collection, err := s.repo.GetRAG(ctx, ragID)
	if err != nil {
		return nil, err
	}

	total, indexed, err := s.repo.CountDocuments(ctx, ragID)
	if err != nil {
		return nil, fmt.Errorf("failed to count documents for rag %d: %w", ragID, err)
	}

	docs, err := s.repo.ListDocuments(ctx, ragID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents for rag %d: %w", ragID, err)
	}

	totalChunks := 0
	for _, doc := range docs {
		totalChunks += doc.ChunksCount
	}

	return &Stats{
		RAGID:         collection.ID,
		Name:          collection.Name,
		DocumentCount: total,
		IndexedCount:  indexed,
		TotalChunks:   totalChunks,
	}, nil
}
