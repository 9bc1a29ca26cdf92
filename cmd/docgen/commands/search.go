package commands

import (
	"context"
	"fmt"

	"github.com/samber/mo"
	"github.com/urfave/cli/v3"

	"github.com/ExxpresS/docGenerator/internal/core/retrieval"
)

// SearchAction は類似度検索を実行するコマンドのアクション
func SearchAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	query := cmd.String("query")
	ragID := cmd.Int("rag-id")
	topK := cmd.Int("top-k")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	params := retrieval.SearchParams{
		Query: query,
		TopK:  topK,
	}
	if ragID > 0 {
		params.RAGID = mo.Some(int64(ragID))
	}

	results, err := appCtx.Container.SearchService.Search(ctx, params)
	if err != nil {
		return fmt.Errorf("検索に失敗: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("該当するチャンクはありません")
		return nil
	}

	fmt.Printf("\n=== 検索結果 (%d件) ===\n", len(results))
	for i, result := range results {
		title := result.Metadata.Title
		if title == "" {
			title = "Untitled"
		}
		fmt.Printf("\n[%d] score=%.4f document=%d (%s)\n", i+1, result.Score, result.Metadata.DocumentID, title)
		fmt.Printf("%s\n", truncateString(result.Content, 300))
	}

	return nil
}
