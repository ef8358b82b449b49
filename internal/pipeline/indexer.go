package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"minirag/internal/domain"
	"minirag/internal/embedding"
	"minirag/internal/rerank"
	"minirag/internal/vectorstore"
)

// RetrievalOptions control candidate selection for the production retriever.
type RetrievalOptions struct {
	// K is how many candidates MMR keeps; FetchK is how many it chooses from.
	K      int
	FetchK int
	Lambda float64
	TopN   int
}

func (o RetrievalOptions) withDefaults() RetrievalOptions {
	if o.K <= 0 {
		o.K = 10
	}
	if o.FetchK < o.K {
		o.FetchK = max(20, o.K)
	}
	if o.Lambda == 0 {
		o.Lambda = 0.5
	}
	if o.TopN <= 0 {
		o.TopN = 3
	}
	return o
}

// VectorIndexer embeds chunks and writes them to a vector store, replacing
// whatever the store held before.
type VectorIndexer struct {
	embedder embedding.Embedder
	storage  vectorstore.Storage
	reranker rerank.Reranker
	opts     RetrievalOptions
	logger   arbor.ILogger
}

func NewVectorIndexer(e embedding.Embedder, s vectorstore.Storage, r rerank.Reranker, opts RetrievalOptions, logger arbor.ILogger) *VectorIndexer {
	if r == nil {
		r = rerank.Passthrough{}
	}
	return &VectorIndexer{embedder: e, storage: s, reranker: r, opts: opts.withDefaults(), logger: logger}
}

// storeLostError wraps an indexing failure that happened after the store was
// reset. Whatever the store held before is gone.
type storeLostError struct {
	err error
}

func (e *storeLostError) Error() string { return e.err.Error() }

func (e *storeLostError) Unwrap() error { return e.err }

type vectorIndex struct {
	storage vectorstore.Storage
	count   int
}

func (v *vectorIndex) Len() int { return v.count }

func (x *VectorIndexer) Index(ctx context.Context, chunks []domain.Chunk) (domain.Vectorstore, error) {
	if len(chunks) == 0 {
		return nil, domain.NewInputError("No text content to index.")
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	if p, ok := x.embedder.(embedding.Preparer); ok {
		if err := p.Prepare(texts); err != nil {
			return nil, domain.NewInputError("Cannot index document: %v", err)
		}
	}
	vectors, err := x.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, domain.Upstream(x.embedder.Name(), err)
	}
	if len(vectors) != len(chunks) {
		return nil, domain.Upstream(x.embedder.Name(),
			fmt.Errorf("embedding returned %d vectors for %d chunks", len(vectors), len(chunks)))
	}

	if err := x.storage.Reset(ctx, len(vectors[0])); err != nil {
		return nil, &storeLostError{domain.Upstream("vectorstore", err)}
	}
	records := make([]vectorstore.Record, len(chunks))
	for i, c := range chunks {
		records[i] = vectorstore.Record{ID: uuid.NewString(), Vector: vectors[i], Chunk: c}
	}
	if err := x.storage.Upsert(ctx, records); err != nil {
		return nil, &storeLostError{domain.Upstream("vectorstore", err)}
	}

	x.logger.Info().
		Str("embedder", x.embedder.Name()).
		Int("chunks", len(records)).
		Int("dimension", len(vectors[0])).
		Msg("Indexed chunks")
	return &vectorIndex{storage: x.storage, count: len(records)}, nil
}

func (x *VectorIndexer) Retriever(store domain.Vectorstore) (domain.Retriever, error) {
	idx, ok := store.(*vectorIndex)
	if !ok {
		return nil, fmt.Errorf("vector indexer: unsupported store %T", store)
	}
	return &RerankRetriever{
		embedder: x.embedder,
		storage:  idx.storage,
		reranker: x.reranker,
		opts:     x.opts,
		count:    idx.count,
		logger:   x.logger,
	}, nil
}

// mockMaxSources caps keyword matches regardless of the reranker settings.
const mockMaxSources = 3

// MockIndexer keeps chunks in memory for keyword retrieval. No vectors are computed.
type MockIndexer struct{}

type mockIndex struct {
	chunks []domain.Chunk
}

func (m *mockIndex) Len() int { return len(m.chunks) }

func (m *MockIndexer) Index(_ context.Context, chunks []domain.Chunk) (domain.Vectorstore, error) {
	return &mockIndex{chunks: append([]domain.Chunk(nil), chunks...)}, nil
}

func (m *MockIndexer) Retriever(store domain.Vectorstore) (domain.Retriever, error) {
	idx, ok := store.(*mockIndex)
	if !ok {
		return nil, fmt.Errorf("mock indexer: unsupported store %T", store)
	}
	return NewKeywordRetriever(idx.chunks, mockMaxSources), nil
}
