package domain

import "context"

// Chunker splits raw text into ordered chunks. Callers must pass non-blank text.
type Chunker interface {
	Chunk(text, source string) []Chunk
}

// Vectorstore is the handle produced by indexing one upload.
type Vectorstore interface {
	Len() int
}

// Retriever returns the chunks most relevant to a query, best first.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]Chunk, error)
}

// Indexer turns chunks into a searchable store and builds retrievers over it.
type Indexer interface {
	Index(ctx context.Context, chunks []Chunk) (Vectorstore, error)
	Retriever(store Vectorstore) (Retriever, error)
}

// Synthesizer answers a query from the chunks a retriever returns.
type Synthesizer interface {
	Answer(ctx context.Context, query string, retriever Retriever) (AnswerResult, error)
}

// CostEstimator counts tokens and prices them.
type CostEstimator interface {
	CountTokens(text string) int
	EstimateCosts(embeddingTokens, inputTokens, outputTokens int) CostBreakdown
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}
