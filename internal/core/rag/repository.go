package rag

import "context"

// Repository はRAGコレクションとドキュメントの永続化インターフェース
type Repository interface {
	// CreateRAG はRAGコレクションを作成し、採番されたIDを含めて返す
	CreateRAG(ctx context.Context, params CreateRAGParams) (*RAG, error)

	// GetRAG はIDでRAGコレクションを取得する
	// 存在しない場合は ErrRAGNotFound を返す
	GetRAG(ctx context.Context, ragID int64) (*RAG, error)

	// ListRAGs は全RAGコレクションをID昇順で返す
	ListRAGs(ctx context.Context) ([]*RAG, error)

	// UpdateRAG はRAGコレクションの名前と説明を更新する
	// 存在しない場合は ErrRAGNotFound を返す
	UpdateRAG(ctx context.Context, ragID int64, params UpdateRAGParams) (*RAG, error)

	// DeleteRAG はRAGコレクションと所属ドキュメントを削除する
	// 存在しない場合は ErrRAGNotFound を返す
	DeleteRAG(ctx context.Context, ragID int64) error

	// RAGExists はRAGコレクションの存在を確認する
	RAGExists(ctx context.Context, ragID int64) (bool, error)

	// CreateDocument はドキュメントを登録し、採番されたIDを含めて返す
	CreateDocument(ctx context.Context, params CreateDocumentParams) (*Document, error)

	// GetDocument はIDでドキュメントを取得する
	// 存在しない場合は ErrDocumentNotFound を返す
	GetDocument(ctx context.Context, documentID int64) (*Document, error)

	// ListDocuments はRAGコレクション所属のドキュメントをID昇順で返す
	ListDocuments(ctx context.Context, ragID int64) ([]*Document, error)

	// DeleteDocument はドキュメントを削除する
	// 存在しない場合は ErrDocumentNotFound を返す
	DeleteDocument(ctx context.Context, documentID int64) error

	// MarkDocumentIndexed はインデキシング完了状態を記録する
	MarkDocumentIndexed(ctx context.Context, documentID int64, chunksCount int) error

	// CountDocuments はRAGコレクション所属のドキュメント数と
	// インデキシング済み数を返す
	CountDocuments(ctx context.Context, ragID int64) (total int, indexed int, err error)
}
