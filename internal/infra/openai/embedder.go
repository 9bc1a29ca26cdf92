package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/pkoukk/tiktoken-go"

	"github.com/ExxpresS/docGenerator/internal/core/indexing"
	"github.com/ExxpresS/docGenerator/internal/core/retrieval"
)

const (
	// DefaultEmbeddingModel はモデル未指定時のデフォルトモデル
	DefaultEmbeddingModel = "all-minilm:l6-v2"
	// DefaultEmbeddingDimension は all-minilm のベクトル次元
	DefaultEmbeddingDimension = 384
	// MaxEmbeddingBatchSize はバッチ処理の最大件数
	MaxEmbeddingBatchSize = 100
	// DefaultEmbeddingTimeout はAPI呼び出しのデフォルトタイムアウト
	DefaultEmbeddingTimeout = 60 * time.Second
	// maxEmbeddingTokens は1テキストあたりのトークン上限
	maxEmbeddingTokens = 8192

	// tiktokenEncoding はトークン数見積もりに使うエンコーディング
	// ローカルモデルのトークナイザとは厳密には一致しないが、上限チェックには十分
	tiktokenEncoding = "cl100k_base"
)

// Embedder はOpenAI互換API（Ollamaを含む）でテキストをベクトルに変換する
type Embedder struct {
	client    openai.Client
	model     string
	dimension int
	timeout   time.Duration
	encoder   *tiktoken.Tiktoken
}

type embedderOptions struct {
	baseURL   string
	model     string
	dimension int
	timeout   time.Duration
}

// EmbedderOption は Embedder のオプション設定
type EmbedderOption func(*embedderOptions)

// WithEmbeddingBaseURL はAPIエンドポイントを上書きする
// OllamaのOpenAI互換エンドポイント（http://host:11434/v1）を指定する
func WithEmbeddingBaseURL(baseURL string) EmbedderOption {
	return func(o *embedderOptions) {
		o.baseURL = baseURL
	}
}

// WithEmbeddingModel はモデル名を上書きする
func WithEmbeddingModel(model string) EmbedderOption {
	return func(o *embedderOptions) {
		o.model = model
	}
}

// WithEmbeddingDimension はベクトル次元を上書きする
func WithEmbeddingDimension(dimension int) EmbedderOption {
	return func(o *embedderOptions) {
		o.dimension = dimension
	}
}

// WithEmbeddingTimeout はAPI呼び出しのタイムアウトを上書きする
func WithEmbeddingTimeout(timeout time.Duration) EmbedderOption {
	return func(o *embedderOptions) {
		o.timeout = timeout
	}
}

// NewEmbedder は新しい Embedder を作成する
func NewEmbedder(apiKey string, opts ...EmbedderOption) (*Embedder, error) {
	options := embedderOptions{
		model:     DefaultEmbeddingModel,
		dimension: DefaultEmbeddingDimension,
		timeout:   DefaultEmbeddingTimeout,
	}
	for _, opt := range opts {
		opt(&options)
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if options.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(options.baseURL))
	}

	encoder, err := tiktoken.GetEncoding(tiktokenEncoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken encoding: %w", err)
	}

	return &Embedder{
		client:    openai.NewClient(clientOpts...),
		model:     options.model,
		dimension: options.dimension,
		timeout:   options.timeout,
		encoder:   encoder,
	}, nil
}

// Embed は単一テキストの Embedding を生成する
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.BatchEmbed(ctx, []string{text})
	if err != nil {
		return nil, err
	}

	if len(embeddings) == 0 {
		return nil, &indexing.EmbeddingError{Reason: "no embeddings generated"}
	}

	return embeddings[0], nil
}

// BatchEmbed はバッチで Embedding を生成する（最大100件、入力順を保持）
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, &indexing.EmbeddingError{Reason: "no texts provided"}
	}

	if len(texts) > MaxEmbeddingBatchSize {
		return nil, &indexing.EmbeddingError{
			Reason: fmt.Sprintf("batch size %d exceeds maximum of %d", len(texts), MaxEmbeddingBatchSize),
		}
	}

	for i, text := range texts {
		if text == "" {
			return nil, &indexing.EmbeddingError{
				Reason: fmt.Sprintf("text at index %d is empty", i),
			}
		}
		if tokens := len(e.encoder.Encode(text, nil, nil)); tokens > maxEmbeddingTokens {
			return nil, &indexing.EmbeddingError{
				Reason: fmt.Sprintf("text at index %d has %d tokens, exceeds limit of %d", i, tokens, maxEmbeddingTokens),
			}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	params := openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(e.model),
	}

	if len(texts) == 1 {
		params.Input = openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(texts[0]),
		}
	} else {
		params.Input = openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		}
	}

	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, &indexing.EmbeddingError{Reason: "embedding API call failed", Err: err}
	}

	if len(resp.Data) != len(texts) {
		return nil, &indexing.EmbeddingError{
			Reason: fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(resp.Data)),
		}
	}

	// APIレスポンスのindexフィールドで入力順を復元する
	embeddings := make([][]float32, len(texts))
	for _, data := range resp.Data {
		vector := make([]float32, len(data.Embedding))
		for i, v := range data.Embedding {
			vector[i] = float32(v)
		}

		idx := int(data.Index)
		if idx < 0 || idx >= len(embeddings) {
			return nil, &indexing.EmbeddingError{
				Reason: fmt.Sprintf("embedding index %d out of range", idx),
			}
		}
		embeddings[idx] = vector
	}

	return embeddings, nil
}

// ModelName はモデル名を返す
func (e *Embedder) ModelName() string {
	return e.model
}

// Dimension はベクトル次元数を返す
func (e *Embedder) Dimension() int {
	return e.dimension
}

// MaxBatchSize はバッチ処理の最大サイズを返す
func (e *Embedder) MaxBatchSize() int {
	return MaxEmbeddingBatchSize
}

// インターフェース実装の確認
var (
	_ indexing.Embedder  = (*Embedder)(nil)
	_ retrieval.Embedder = (*Embedder)(nil)
)
