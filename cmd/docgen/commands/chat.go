package commands

import (
	"context"
	"fmt"

	"github.com/samber/mo"
	"github.com/urfave/cli/v3"

	"github.com/ExxpresS/docGenerator/internal/core/chat"
)

// ChatAction はチャット応答を生成するコマンドのアクション
func ChatAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	message := cmd.String("message")
	ragID := cmd.Int("rag-id")
	topK := cmd.Int("top-k")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	params := chat.GenerateParams{Message: message}
	if ragID > 0 {
		params.RAGID = mo.Some(int64(ragID))
	}
	if topK > 0 {
		params.TopK = mo.Some(topK)
	}

	resp, err := appCtx.Container.ChatService.Generate(ctx, params)
	if err != nil {
		return fmt.Errorf("応答の生成に失敗: %w", err)
	}

	fmt.Printf("\n%s\n", resp.Response)

	fmt.Printf("\n--- %s / %.0f ms", resp.Model, resp.DurationMs)
	if resp.RAGUsed {
		fmt.Printf(" / rag: %d documents", len(resp.DocumentsUsed))
		if resp.RetrievalTimeMs != nil {
			fmt.Printf(" (retrieval %.0f ms)", *resp.RetrievalTimeMs)
		}
	}
	fmt.Println(" ---")

	for _, doc := range resp.DocumentsUsed {
		fmt.Printf("  - %s (score: %.2f)\n", doc.Title, doc.Score)
	}

	return nil
}
