package rag

import (
	"time"

	"github.com/samber/mo"
)

// RAG はドキュメントをまとめるコレクション
type RAG struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
}

// Document はRAGコレクションに属するドキュメント
type Document struct {
	ID          int64
	RAGID       int64
	Title       string
	Content     string
	IsIndexed   bool
	ChunksCount int
	CreatedAt   time.Time
	IndexedAt   *time.Time
}

// CreateRAGParams はRAGコレクション作成のパラメータ
type CreateRAGParams struct {
	Name        string
	Description string
}

// UpdateRAGParams はRAGコレクション更新のパラメータ
// 未指定のフィールドは変更しない
type UpdateRAGParams struct {
	Name        mo.Option[string]
	Description mo.Option[string]
}

// CreateDocumentParams はドキュメント登録のパラメータ
type CreateDocumentParams struct {
	RAGID   int64
	Title   string
	Content string
}

// IndexOutcome はRAG一括インデキシングにおける1ドキュメントの処理結果
type IndexOutcome struct {
	DocumentID    int64
	Title         string
	ChunksCreated int
	Err           error
}

// IndexAllResult はRAG一括インデキシングの集計結果
type IndexAllResult struct {
	RAGID    int64
	Indexed  int
	Failed   int
	Outcomes []IndexOutcome
}

// Stats はRAGコレクションの統計情報
type Stats struct {
	RAGID         int64
	Name          string
	DocumentCount int
	IndexedCount  int
	TotalChunks   int
}
