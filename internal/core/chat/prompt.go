package chat

import (
	"fmt"
	"strings"

	"github.com/ExxpresS/docGenerator/internal/core/retrieval"
)

// systemInstruction はすべてのプロンプトに付与される固定の指示文
const systemInstruction = "You are an expert assistant. Always use the documents below to answer" +
	" completely and precisely. If the documents do not contain the information needed to answer," +
	" respond that you have no knowledge on the subject."

// refusalInstruction はRAGが要求されたが閾値を超える文書がなかった場合の指示文
// 検索ゼロ件でもLLMは必ず呼び出し、応答内容のみをここで強制する
const refusalInstruction = "IMPORTANT: No relevant document was found in the knowledge base.\n" +
	"You MUST respond: \"I could not find any information on this subject in the knowledge base.\""

// BuildPrompt はチャット応答生成用のプロンプトを構築する
//
// documentsContext が空でない場合はコンテキスト文書ブロックを挿入し、
// ragRequested かつ文書なしの場合は拒否指示を挿入する。
// RAG未使用（ragRequested=false）の場合は文書ブロックも拒否指示も含まない。
func BuildPrompt(userMessage, documentsContext string, ragRequested bool) string {
	var sb strings.Builder

	sb.WriteString("INSTRUCTION: ")
	sb.WriteString(systemInstruction)
	sb.WriteString("\n\n")

	if documentsContext != "" {
		sb.WriteString("CONTEXT DOCUMENTS:\n")
		sb.WriteString(documentsContext)
		sb.WriteString("\n\n")
		sb.WriteString("Use ONLY the documents above to answer.\n\n")
	} else if ragRequested {
		sb.WriteString(refusalInstruction)
		sb.WriteString("\n\n")
	}

	sb.WriteString("USER QUESTION: ")
	sb.WriteString(userMessage)
	sb.WriteString("\n\nA:")

	return sb.String()
}

// FormatDocumentsContext は閾値を超えた検索結果をプロンプト用のコンテキスト文字列に整形する
// 各文書は連番・スコア・本文・出典タイトルの形式で、スコア降順のまま連結される
func FormatDocumentsContext(results []*retrieval.RetrievedChunk) string {
	if len(results) == 0 {
		return ""
	}

	formatted := make([]string, 0, len(results))
	for i, result := range results {
		title := result.Metadata.Title
		if title == "" {
			title = "Untitled"
		}
		formatted = append(formatted, fmt.Sprintf(
			"Document %d (score: %.2f):\n%s\nSource: %s",
			i+1, result.Score, result.Content, title,
		))
	}

	return strings.Join(formatted, "\n\n")
}
