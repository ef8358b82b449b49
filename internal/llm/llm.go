// Package llm holds the answer prompt and the completion backends.
package llm

import (
	"context"
	"fmt"
	"strings"

	"minirag/internal/domain"
)

// Completer sends a single prompt to a hosted model and returns its text reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// RefusalNotInSources is the sentence the model must use when the sources cannot answer.
const RefusalNotInSources = "Based on the provided documents, I cannot answer this question as the information is not available in the sources."

// CitationPrompt asks for an answer grounded in numbered documents with inline [n] citations.
const CitationPrompt = `
    Use the following documents to answer the user's question.
    Each document is formatted as [DOCUMENT n] where n is the document number, followed by its content.
    Your answer MUST be grounded in the information from these documents.
    For each sentence in your answer, you MUST include an inline citation to the document number that supports it. For example: "This is a statement from a document [1]."
    If multiple documents support a sentence, cite them all, like: "This is a complex statement [2][3]."
    If the documents do not contain enough information to answer the question, you MUST explicitly state: "` + RefusalNotInSources + `"
    Do not make up information that is not directly supported by the documents.

    Documents:
    {context}

    Question: {question}
    Answer:
    `

// FormatContext numbers chunks from 1 as "[DOCUMENT n] content" separated by blank lines.
func FormatContext(chunks []domain.Chunk) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = fmt.Sprintf("[DOCUMENT %d] %s", i+1, c.Content)
	}
	return strings.Join(parts, "\n\n")
}

// BuildPrompt fills CitationPrompt.
func BuildPrompt(context, question string) string {
	r := strings.NewReplacer("{context}", context, "{question}", question)
	return r.Replace(CitationPrompt)
}
