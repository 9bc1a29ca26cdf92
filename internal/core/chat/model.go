package chat

import (
	"time"

	"github.com/samber/mo"
)

// GenerateParams はチャット応答生成のパラメータを表す
type GenerateParams struct {
	Message string
	RAGID   mo.Option[int64] // 指定時はRAGコレクションから根拠文書を検索する
	TopK    mo.Option[int]   // 検索件数（未指定時は設定デフォルト）
}

// DocumentUsed は応答の根拠として使用した文書の出典情報を表す
type DocumentUsed struct {
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// Response はチャット応答とその生成メタデータを表す
type Response struct {
	Response   string    `json:"response"`
	DurationMs float64   `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
	Model      string    `json:"model"`
	RAGUsed    bool      `json:"rag_used"`

	// DocumentsUsed は閾値を超えた文書のみ、スコア降順（検索なし/該当なしの場合はnil）
	DocumentsUsed []DocumentUsed `json:"documents_used,omitempty"`

	// RetrievalTimeMs は検索を試行した場合のみ設定される（DurationMsの部分区間）
	RetrievalTimeMs *float64 `json:"retrieval_time_ms,omitempty"`
}
