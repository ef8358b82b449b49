// Package pipeline assembles the chunk, index, retrieve and answer stages into
// the two interchangeable question-answering pipelines and the Session that
// holds the active retriever.
package pipeline

import (
	"github.com/ternarybob/arbor"

	"minirag/internal/chunker"
	"minirag/internal/config"
	"minirag/internal/domain"
	"minirag/internal/embedding"
	"minirag/internal/llm"
	"minirag/internal/rerank"
	"minirag/internal/telemetry"
	"minirag/internal/vectorstore"
)

// Pipeline is the capability set selected once at startup. Callers only see
// the domain interfaces, so demo and production code paths look the same.
type Pipeline struct {
	Mode        string
	Chunker     domain.Chunker
	Indexer     domain.Indexer
	Synthesizer domain.Synthesizer
	Costs       domain.CostEstimator
}

// MockOptions tune the keyword pipeline.
type MockOptions struct {
	RatePer1K float64
}

// NewMock builds the self-contained pipeline: paragraph chunks, keyword
// retrieval and template answers priced by word counts.
func NewMock(opts MockOptions, logger arbor.ILogger) *Pipeline {
	if opts.RatePer1K == 0 {
		opts.RatePer1K = 0.0001
	}
	costs := telemetry.NewMockEstimator(opts.RatePer1K)
	return &Pipeline{
		Mode:        config.ModeDemo,
		Chunker:     chunker.NewParagraphChunker(),
		Indexer:     &MockIndexer{},
		Synthesizer: NewMockSynthesizer(costs, logger),
		Costs:       costs,
	}
}

// RealOptions carries the external collaborators of the production pipeline.
type RealOptions struct {
	Chunker   domain.Chunker
	Embedder  embedding.Embedder
	Storage   vectorstore.Storage
	Reranker  rerank.Reranker
	Completer llm.Completer
	Costs     domain.CostEstimator
	Retrieval RetrievalOptions
}

// NewReal builds the production pipeline from its collaborators. A nil
// chunker defaults to the 1000/150 recursive splitter and a nil reranker keeps
// MMR order.
func NewReal(opts RealOptions, logger arbor.ILogger) *Pipeline {
	if opts.Chunker == nil {
		opts.Chunker = chunker.NewRecursiveChunker(1000, 150)
	}
	if opts.Reranker == nil {
		opts.Reranker = rerank.Passthrough{}
	}
	if opts.Costs == nil {
		opts.Costs = telemetry.NewEstimator(telemetry.ApproxCounter{}, telemetry.DefaultRates())
	}
	return &Pipeline{
		Mode:        config.ModeProduction,
		Chunker:     opts.Chunker,
		Indexer:     NewVectorIndexer(opts.Embedder, opts.Storage, opts.Reranker, opts.Retrieval, logger),
		Synthesizer: NewCitedSynthesizer(opts.Completer, opts.Costs, logger),
		Costs:       opts.Costs,
	}
}
