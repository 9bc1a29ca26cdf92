package indexing

import "context"

// Embedder はテキストのEmbedding生成インターフェース
// 同一のモデル設定に対して決定的であること（同じテキスト→同じベクトル）
type Embedder interface {
	// Embed は単一テキストのEmbeddingを生成する
	Embed(ctx context.Context, text string) ([]float32, error)

	// BatchEmbed はバッチでEmbeddingを生成する（入力順を保持する）
	BatchEmbed(ctx context.Context, texts []string) ([][]float32, error)

	// MaxBatchSize はバッチ処理の最大サイズを返す
	MaxBatchSize() int

	// ModelName はモデル名を返す
	ModelName() string

	// Dimension はベクトル次元数を返す
	Dimension() int
}
