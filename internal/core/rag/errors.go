package rag

import "errors"

var (
	// ErrRAGNotFound は指定されたRAGコレクションが存在しない場合のエラー
	ErrRAGNotFound = errors.New("rag collection not found")

	// ErrDocumentNotFound は指定されたドキュメントが存在しない場合のエラー
	ErrDocumentNotFound = errors.New("document not found")
)
