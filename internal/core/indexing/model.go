package indexing

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"
)

// ChunkMetadata はチャンクに付与されるメタデータを表す
// 固定フィールド＋呼び出し元が自由に追加できる拡張フィールドで構成される
type ChunkMetadata struct {
	DocumentID int64               `json:"document_id"`
	RAGID      mo.Option[int64]    `json:"rag_id,omitempty"`
	Title      string              `json:"title"`
	IndexedAt  time.Time           `json:"indexed_at"`

	// Extra は呼び出し元が付与する追加メタデータ（content_type, status, project_id 等）
	Extra map[string]string `json:"extra,omitempty"`
}

// Chunk はドキュメントを分割して埋め込みベクトルと共に保存する単位を表す
type Chunk struct {
	ID       uuid.UUID     `json:"id"`
	Content  string        `json:"content"`
	Vector   []float32     `json:"-"`
	Metadata ChunkMetadata `json:"metadata"`
}

// IndexParams はドキュメントのインデックス化パラメータを表す
type IndexParams struct {
	DocumentID int64
	Title      string
	Content    string
	RAGID      mo.Option[int64]
	Extra      map[string]string
}

// IndexResult はインデックス化の結果を表す
type IndexResult struct {
	DocumentID     int64     `json:"document_id"`
	ChunksCreated  int       `json:"chunks_created"`
	IndexingTimeMs float64   `json:"indexing_time_ms"`
	IndexedAt      time.Time `json:"indexed_at"`
}

// IndexStats はベクトルストア全体の統計情報を表す
type IndexStats struct {
	TotalChunks        int64  `json:"total_chunks"`
	EmbeddingDimension int    `json:"embedding_dimension"`
	Model              string `json:"model"`
}

// ChunkFilter はベクトルストアの削除・検索で使用するメタデータフィルタを表す
// 指定されたフィールドのみが等価条件として適用される
type ChunkFilter struct {
	DocumentID mo.Option[int64]
	RAGID      mo.Option[int64]
}
