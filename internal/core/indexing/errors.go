package indexing

import (
	"errors"
	"fmt"
)

// ErrInvalidChunkConfig はチャンク設定が不正な場合のエラー
// chunk_size <= overlap のまま分割を続けると無限ループになるため、分割前に検出する
var ErrInvalidChunkConfig = errors.New("invalid chunk config: chunk size must be greater than overlap and positive")

// EmbeddingError はEmbedding生成の失敗を表す
// 入力が空、トークン上限超過、モデル呼び出し失敗のいずれかで発生する
type EmbeddingError struct {
	Reason string
	Err    error
}

func (e *EmbeddingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("embedding failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("embedding failed: %s", e.Reason)
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}

// StoreError はベクトルストアのI/O失敗を表す
// 1回のインデックス化で書き込まれるチャンクは全件成功か全件失敗のいずれかになる
type StoreError struct {
	Op  string // 失敗した操作名（write / search / delete / count）
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("vector store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
