package indexing

import "strings"

// WordChunker はテキストを単語単位の固定長チャンクに分割します
// 連続するチャンクは末尾/先頭の overlap 単語を共有します
type WordChunker struct {
	chunkSize int // チャンクあたりの最大単語数
	overlap   int // 連続チャンク間で重複する単語数
}

// NewWordChunker は新しいWordChunkerを作成します
// chunkSize <= overlap は設定エラーとして即座に失敗します
func NewWordChunker(chunkSize, overlap int) (*WordChunker, error) {
	if chunkSize <= 0 || overlap < 0 || chunkSize <= overlap {
		return nil, ErrInvalidChunkConfig
	}
	return &WordChunker{
		chunkSize: chunkSize,
		overlap:   overlap,
	}, nil
}

// Split はテキストを単語境界でチャンク分割します
// チャンクiは単語オフセット i*(chunkSize-overlap) から始まり、最大chunkSize単語を含みます
// 空テキストはチャンクなし（nil）を返します
func (c *WordChunker) Split(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := c.chunkSize - c.overlap
	chunks := make([]string, 0, (len(words)+step-1)/step)

	for start := 0; start < len(words); start += step {
		end := start + c.chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))

		// 末尾チャンクがテキスト全体をカバーしたら終了
		// （オーバーラップ分だけのチャンクを重複して出さない）
		if end == len(words) {
			break
		}
	}

	return chunks
}

// ChunkSize はチャンクあたりの最大単語数を返します
func (c *WordChunker) ChunkSize() int {
	return c.chunkSize
}

// Overlap は連続チャンク間の重複単語数を返します
func (c *WordChunker) Overlap() int {
	return c.overlap
}
