package indexing

import "context"

// Repository はチャンクの永続化を担うベクトルストアのインターフェース
// チャンクのライフサイクルはこのストアが専有する（サービス層はキャッシュしない）
type Repository interface {
	// WriteChunks はチャンクを一括保存し、書き込んだ件数を返す
	// 1バッチは全件成功か全件失敗のいずれか（部分書き込みは観測されない）
	WriteChunks(ctx context.Context, chunks []*Chunk) (int, error)

	// DeleteChunks はフィルタに一致するチャンクのみを削除し、削除件数を返す
	DeleteChunks(ctx context.Context, filter ChunkFilter) (int64, error)

	// CountChunks は保存されているチャンクの総数を返す
	CountChunks(ctx context.Context) (int64, error)
}
