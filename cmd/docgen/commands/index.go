package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// IndexDocumentAction は単一ドキュメントをインデックスするコマンドのアクション
func IndexDocumentAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	documentID := cmd.Int("document-id")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	result, err := appCtx.Container.RAGService.IndexDocument(ctx, int64(documentID))
	if err != nil {
		return fmt.Errorf("インデックスに失敗: %w", err)
	}

	fmt.Printf("\n✓ ドキュメントをインデックスしました\n")
	fmt.Printf("  Document ID: %d\n", result.DocumentID)
	fmt.Printf("  Chunks:      %d\n", result.ChunksCreated)
	fmt.Printf("  Time:        %.1f ms\n", result.IndexingTimeMs)

	return nil
}

// IndexRAGAction はRAGコレクションの全ドキュメントをインデックスするコマンドのアクション
func IndexRAGAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	ragID := cmd.Int("rag-id")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	result, err := appCtx.Container.RAGService.IndexAll(ctx, int64(ragID))
	if err != nil {
		return fmt.Errorf("インデックスに失敗: %w", err)
	}

	fmt.Printf("\n✓ コレクション %d のインデックスが完了しました\n", result.RAGID)
	fmt.Printf("  Indexed: %d\n", result.Indexed)
	fmt.Printf("  Failed:  %d\n", result.Failed)

	for _, outcome := range result.Outcomes {
		if outcome.Err != nil {
			fmt.Printf("  ✗ %s (ID: %d): %v\n", outcome.Title, outcome.DocumentID, outcome.Err)
		} else {
			fmt.Printf("  ✓ %s (ID: %d): %d chunks\n", outcome.Title, outcome.DocumentID, outcome.ChunksCreated)
		}
	}

	return nil
}

// StatsAction はベクトルストアの統計を表示するコマンドのアクション
func StatsAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	stats, err := appCtx.Container.IndexService.Stats(ctx)
	if err != nil {
		return fmt.Errorf("統計の取得に失敗: %w", err)
	}

	fmt.Printf("\n=== ベクトルストア統計 ===\n\n")
	fmt.Printf("Total Chunks:        %d\n", stats.TotalChunks)
	fmt.Printf("Embedding Dimension: %d\n", stats.EmbeddingDimension)
	fmt.Printf("Embedding Model:     %s\n", stats.Model)

	return nil
}
