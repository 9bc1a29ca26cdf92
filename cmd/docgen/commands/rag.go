package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/mo"
	"github.com/urfave/cli/v3"

	"github.com/ExxpresS/docGenerator/internal/core/rag"
)

// RAGCreateAction はRAGコレクションを作成するコマンドのアクション
func RAGCreateAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	name := cmd.String("name")
	description := cmd.String("description")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	created, err := appCtx.Container.RAGService.CreateRAG(ctx, rag.CreateRAGParams{
		Name:        name,
		Description: description,
	})
	if err != nil {
		return fmt.Errorf("コレクションの作成に失敗: %w", err)
	}

	fmt.Printf("\n✓ コレクションを作成しました\n")
	fmt.Printf("  ID:   %d\n", created.ID)
	fmt.Printf("  Name: %s\n", created.Name)

	return nil
}

// RAGListAction はRAGコレクション一覧を表示するコマンドのアクション
func RAGListAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	rags, err := appCtx.Container.RAGService.ListRAGs(ctx)
	if err != nil {
		return fmt.Errorf("コレクション一覧の取得に失敗: %w", err)
	}

	if len(rags) == 0 {
		fmt.Println("コレクションはありません")
		return nil
	}

	renderRAGsTable(rags)

	return nil
}

// RAGShowAction はRAGコレクションの統計を表示するコマンドのアクション
func RAGShowAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	ragID := cmd.Int("rag-id")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	stats, err := appCtx.Container.RAGService.Stats(ctx, int64(ragID))
	if err != nil {
		return fmt.Errorf("コレクション統計の取得に失敗: %w", err)
	}

	fmt.Printf("\n=== コレクション詳細 ===\n\n")
	fmt.Printf("ID:              %d\n", stats.RAGID)
	fmt.Printf("Name:            %s\n", stats.Name)
	fmt.Printf("Documents:       %d\n", stats.DocumentCount)
	fmt.Printf("Indexed:         %d\n", stats.IndexedCount)
	fmt.Printf("Total Chunks:    %d\n", stats.TotalChunks)

	return nil
}

// RAGUpdateAction はRAGコレクションを更新するコマンドのアクション
func RAGUpdateAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	ragID := cmd.Int("rag-id")

	params := rag.UpdateRAGParams{}
	if cmd.IsSet("name") {
		params.Name = mo.Some(cmd.String("name"))
	}
	if cmd.IsSet("description") {
		params.Description = mo.Some(cmd.String("description"))
	}

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	updated, err := appCtx.Container.RAGService.UpdateRAG(ctx, int64(ragID), params)
	if err != nil {
		return fmt.Errorf("コレクションの更新に失敗: %w", err)
	}

	fmt.Printf("\n✓ コレクションを更新しました\n")
	fmt.Printf("  ID:          %d\n", updated.ID)
	fmt.Printf("  Name:        %s\n", updated.Name)
	fmt.Printf("  Description: %s\n", updated.Description)

	return nil
}

// RAGDeleteAction はRAGコレクションを削除するコマンドのアクション
func RAGDeleteAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	ragID := cmd.Int("rag-id")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	if err := appCtx.Container.RAGService.DeleteRAG(ctx, int64(ragID)); err != nil {
		return fmt.Errorf("コレクションの削除に失敗: %w", err)
	}

	fmt.Printf("\n✓ コレクション %d を削除しました\n", ragID)

	return nil
}

// DocAddAction はドキュメントを登録するコマンドのアクション
func DocAddAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	ragID := cmd.Int("rag-id")
	title := cmd.String("title")
	content := cmd.String("content")
	filePath := cmd.String("file")

	if content == "" && filePath == "" {
		return fmt.Errorf("--content または --file のいずれかは必須です")
	}
	if content == "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return fmt.Errorf("ファイルの読み込みに失敗: %w", err)
		}
		content = string(data)
	}

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	doc, err := appCtx.Container.RAGService.AddDocument(ctx, rag.CreateDocumentParams{
		RAGID:   int64(ragID),
		Title:   title,
		Content: content,
	})
	if err != nil {
		return fmt.Errorf("ドキュメントの登録に失敗: %w", err)
	}

	fmt.Printf("\n✓ ドキュメントを登録しました\n")
	fmt.Printf("  ID:    %d\n", doc.ID)
	fmt.Printf("  Title: %s\n", doc.Title)

	return nil
}

// DocListAction はドキュメント一覧を表示するコマンドのアクション
func DocListAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	ragID := cmd.Int("rag-id")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	docs, err := appCtx.Container.RAGRepository.ListDocuments(ctx, int64(ragID))
	if err != nil {
		return fmt.Errorf("ドキュメント一覧の取得に失敗: %w", err)
	}

	if len(docs) == 0 {
		fmt.Println("ドキュメントはありません")
		return nil
	}

	renderDocumentsTable(docs)

	return nil
}

// DocRemoveAction はドキュメントを削除するコマンドのアクション
func DocRemoveAction(ctx context.Context, cmd *cli.Command) error {
	envFile := cmd.String("env")
	documentID := cmd.Int("document-id")

	appCtx, err := NewAppContext(ctx, envFile)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	if err := appCtx.Container.RAGService.RemoveDocument(ctx, int64(documentID)); err != nil {
		return fmt.Errorf("ドキュメントの削除に失敗: %w", err)
	}

	fmt.Printf("\n✓ ドキュメント %d を削除しました\n", documentID)

	return nil
}

// === ヘルパー関数 ===

// renderRAGsTable はテーブル形式でコレクション一覧を表示します
func renderRAGsTable(rags []*rag.RAG) {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Name", "Description", "Created At")

	for _, collection := range rags {
		table.Append(
			strconv.FormatInt(collection.ID, 10),
			collection.Name,
			truncateString(collection.Description, 50),
			collection.CreatedAt.Format("2006-01-02 15:04"),
		)
	}

	table.Render()
}

// renderDocumentsTable はテーブル形式でドキュメント一覧を表示します
func renderDocumentsTable(docs []*rag.Document) {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Title", "Indexed", "Chunks", "Indexed At")

	for _, doc := range docs {
		indexedAt := "-"
		if doc.IndexedAt != nil {
			indexedAt = doc.IndexedAt.Format(time.RFC3339)
		}
		table.Append(
			strconv.FormatInt(doc.ID, 10),
			truncateString(doc.Title, 50),
			strconv.FormatBool(doc.IsIndexed),
			strconv.Itoa(doc.ChunksCount),
			indexedAt,
		)
	}

	table.Render()
}
