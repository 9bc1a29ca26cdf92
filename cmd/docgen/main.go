package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/ExxpresS/docGenerator/cmd/docgen/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 構造化ログの設定
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	envFlag := &cli.StringFlag{
		Name:  "env",
		Usage: "環境変数ファイルパス",
		Value: ".env",
	}

	app := &cli.Command{
		Name:  "docgen",
		Usage: "ドキュメントのインデックス化とRAGチャット応答生成システム",
		Commands: []*cli.Command{
			{
				Name:  "rag",
				Usage: "RAGコレクション管理コマンド",
				Commands: []*cli.Command{
					{
						Name:  "create",
						Usage: "コレクションを作成",
						Flags: []cli.Flag{
							envFlag,
							&cli.StringFlag{
								Name:     "name",
								Usage:    "コレクション名",
								Required: true,
							},
							&cli.StringFlag{
								Name:  "description",
								Usage: "コレクションの説明",
							},
						},
						Action: commands.RAGCreateAction,
					},
					{
						Name:   "list",
						Usage:  "コレクション一覧を表示",
						Flags:  []cli.Flag{envFlag},
						Action: commands.RAGListAction,
					},
					{
						Name:  "show",
						Usage: "コレクションの統計を表示",
						Flags: []cli.Flag{
							envFlag,
							&cli.IntFlag{
								Name:     "rag-id",
								Usage:    "コレクションID",
								Required: true,
							},
						},
						Action: commands.RAGShowAction,
					},
					{
						Name:  "update",
						Usage: "コレクションの名前と説明を更新",
						Flags: []cli.Flag{
							envFlag,
							&cli.IntFlag{
								Name:     "rag-id",
								Usage:    "コレクションID",
								Required: true,
							},
							&cli.StringFlag{
								Name:  "name",
								Usage: "新しいコレクション名",
							},
							&cli.StringFlag{
								Name:  "description",
								Usage: "新しい説明",
							},
						},
						Action: commands.RAGUpdateAction,
					},
					{
						Name:  "delete",
						Usage: "コレクションとそのチャンクを削除",
						Flags: []cli.Flag{
							envFlag,
							&cli.IntFlag{
								Name:     "rag-id",
								Usage:    "コレクションID",
								Required: true,
							},
						},
						Action: commands.RAGDeleteAction,
					},
					{
						Name:  "index",
						Usage: "コレクションの全ドキュメントをインデックス",
						Flags: []cli.Flag{
							envFlag,
							&cli.IntFlag{
								Name:     "rag-id",
								Usage:    "コレクションID",
								Required: true,
							},
						},
						Action: commands.IndexRAGAction,
					},
				},
			},
			{
				Name:  "doc",
				Usage: "ドキュメント管理コマンド",
				Commands: []*cli.Command{
					{
						Name:  "add",
						Usage: "ドキュメントを登録",
						Flags: []cli.Flag{
							envFlag,
							&cli.IntFlag{
								Name:     "rag-id",
								Usage:    "コレクションID",
								Required: true,
							},
							&cli.StringFlag{
								Name:     "title",
								Usage:    "ドキュメントタイトル",
								Required: true,
							},
							&cli.StringFlag{
								Name:  "content",
								Usage: "ドキュメント本文",
							},
							&cli.StringFlag{
								Name:  "file",
								Usage: "本文を読み込むファイルパス",
							},
						},
						Action: commands.DocAddAction,
					},
					{
						Name:  "list",
						Usage: "ドキュメント一覧を表示",
						Flags: []cli.Flag{
							envFlag,
							&cli.IntFlag{
								Name:     "rag-id",
								Usage:    "コレクションID",
								Required: true,
							},
						},
						Action: commands.DocListAction,
					},
					{
						Name:  "remove",
						Usage: "ドキュメントとそのチャンクを削除",
						Flags: []cli.Flag{
							envFlag,
							&cli.IntFlag{
								Name:     "document-id",
								Usage:    "ドキュメントID",
								Required: true,
							},
						},
						Action: commands.DocRemoveAction,
					},
					{
						Name:  "index",
						Usage: "ドキュメントをインデックス",
						Flags: []cli.Flag{
							envFlag,
							&cli.IntFlag{
								Name:     "document-id",
								Usage:    "ドキュメントID",
								Required: true,
							},
						},
						Action: commands.IndexDocumentAction,
					},
				},
			},
			{
				Name:  "search",
				Usage: "類似度検索を実行",
				Flags: []cli.Flag{
					envFlag,
					&cli.StringFlag{
						Name:     "query",
						Usage:    "検索クエリ",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "rag-id",
						Usage: "コレクションID（絞り込み）",
					},
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "取得するチャンク数",
					},
				},
				Action: commands.SearchAction,
			},
			{
				Name:  "chat",
				Usage: "チャット応答を生成",
				Flags: []cli.Flag{
					envFlag,
					&cli.StringFlag{
						Name:     "message",
						Usage:    "ユーザーメッセージ",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "rag-id",
						Usage: "根拠文書を検索するコレクションID",
					},
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "検索するチャンク数",
					},
				},
				Action: commands.ChatAction,
			},
			{
				Name:   "stats",
				Usage:  "ベクトルストアの統計を表示",
				Flags:  []cli.Flag{envFlag},
				Action: commands.StatsAction,
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
