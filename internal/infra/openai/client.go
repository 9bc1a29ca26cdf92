package openai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/ExxpresS/docGenerator/internal/core/chat"
)

const (
	// DefaultModel はデフォルトで使用するLLMモデル
	DefaultModel = "llama3.2:1b"

	// DefaultTimeout はAPI呼び出しのデフォルトタイムアウト
	// ローカルLLMは初回ロードが遅いため長めに取る
	DefaultTimeout = 120 * time.Second

	// DefaultMaxTokens は応答生成のトークン上限
	DefaultMaxTokens = 1000

	// DefaultTemperature は応答生成の温度パラメータ
	DefaultTemperature = 0.7

	// MaxRetries はレート制限エラー時の最大リトライ回数
	MaxRetries = 3

	// BaseBackoff はExponential Backoffの基底時間
	BaseBackoff = 2 * time.Second

	// MaxBackoff はExponential Backoffの最大待機時間
	MaxBackoff = 32 * time.Second
)

// ErrMaxRetriesExceeded は最大リトライ回数を超過した場合のエラー
var ErrMaxRetriesExceeded = errors.New("max retries exceeded")

// Client はOpenAI互換API（Ollamaを含む）を使用したLLMクライアント実装
type Client struct {
	client      openai.Client
	model       string
	timeout     time.Duration
	maxTokens   int
	temperature float64
}

type clientOptions struct {
	baseURL     string
	model       string
	timeout     time.Duration
	maxTokens   int
	temperature float64
}

// ClientOption は Client のオプション設定
type ClientOption func(*clientOptions)

// WithBaseURL はAPIエンドポイントを上書きする
// OllamaのOpenAI互換エンドポイント（http://host:11434/v1）を指定する
func WithBaseURL(baseURL string) ClientOption {
	return func(o *clientOptions) {
		o.baseURL = baseURL
	}
}

// WithModel はモデル名を上書きする
func WithModel(model string) ClientOption {
	return func(o *clientOptions) {
		o.model = model
	}
}

// WithTimeout はAPI呼び出しのタイムアウトを上書きする
func WithTimeout(timeout time.Duration) ClientOption {
	return func(o *clientOptions) {
		o.timeout = timeout
	}
}

// WithMaxTokens は応答生成のトークン上限を上書きする
func WithMaxTokens(maxTokens int) ClientOption {
	return func(o *clientOptions) {
		o.maxTokens = maxTokens
	}
}

// WithTemperature は応答生成の温度パラメータを上書きする
func WithTemperature(temperature float64) ClientOption {
	return func(o *clientOptions) {
		o.temperature = temperature
	}
}

// NewClient は新しい Client を作成する
// Ollamaを使用する場合、APIキーは任意の非空文字列でよい
func NewClient(apiKey string, opts ...ClientOption) *Client {
	options := clientOptions{
		model:       DefaultModel,
		timeout:     DefaultTimeout,
		maxTokens:   DefaultMaxTokens,
		temperature: DefaultTemperature,
	}
	for _, opt := range opts {
		opt(&options)
	}

	requestOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if options.baseURL != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(options.baseURL))
	}

	return &Client{
		client:      openai.NewClient(requestOpts...),
		model:       options.model,
		timeout:     options.timeout,
		maxTokens:   options.maxTokens,
		temperature: options.temperature,
	}
}

// ModelName はモデル名を返す
func (c *Client) ModelName() string {
	return c.model
}

// GenerateCompletion はプロンプトから応答テキストを生成する
func (c *Client) GenerateCompletion(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var lastErr error

	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if attempt > 0 {
			backoffDuration := time.Duration(math.Pow(2, float64(attempt-1))) * BaseBackoff
			if backoffDuration > MaxBackoff {
				backoffDuration = MaxBackoff
			}

			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoffDuration):
			}
		}

		params := openai.ChatCompletionNewParams{
			Model: shared.ChatModel(c.model),
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.UserMessage(prompt),
			},
			Temperature: openai.Float(c.temperature),
		}

		if c.maxTokens > 0 {
			params.MaxTokens = openai.Int(int64(c.maxTokens))
		}

		completion, err := c.client.Chat.Completions.New(ctx, params)
		if err != nil {
			lastErr = err

			if isRateLimitError(err) {
				continue
			}

			return "", &chat.GenerationError{Reason: "LLM API call failed", Err: err}
		}

		if len(completion.Choices) == 0 {
			return "", &chat.GenerationError{Reason: "no completion choices returned"}
		}

		return completion.Choices[0].Message.Content, nil
	}

	return "", &chat.GenerationError{
		Reason: "rate limited",
		Err:    fmt.Errorf("%w: %v", ErrMaxRetriesExceeded, lastErr),
	}
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}

	return false
}

// インターフェース実装の確認
var _ chat.LLMClient = (*Client)(nil)
