package retrieval

import (
	"github.com/samber/mo"

	"github.com/ExxpresS/docGenerator/internal/core/indexing"
)

// RetrievedChunk は類似度検索の結果1件を表す
// Scoreはコサイン類似度（高いほど関連が強い）
type RetrievedChunk struct {
	Content  string                 `json:"content"`
	Score    float64                `json:"score"`
	Metadata indexing.ChunkMetadata `json:"metadata"`
}

// SearchParams は類似度検索のパラメータを表す
type SearchParams struct {
	Query string
	RAGID mo.Option[int64] // 指定時はRAGコレクション内に絞り込む
	TopK  int              // 0以下の場合はデフォルト値を適用
}

// Filter はベクトルストア検索のメタデータフィルタを表す
// 両方指定された場合はAND条件で絞り込む
type Filter struct {
	RAGID      mo.Option[int64]
	DocumentID mo.Option[int64]
}
