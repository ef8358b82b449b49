package pipeline

import (
	"context"

	"github.com/ternarybob/arbor"

	"minirag/internal/domain"
	"minirag/internal/embedding"
	"minirag/internal/lexical"
	"minirag/internal/rerank"
	"minirag/internal/vectorstore"
)

// RerankRetriever embeds the query, takes FetchK nearest chunks, narrows them
// to K by maximal marginal relevance and lets the reranker keep the best TopN.
type RerankRetriever struct {
	embedder embedding.Embedder
	storage  vectorstore.Storage
	reranker rerank.Reranker
	opts     RetrievalOptions
	count    int
	logger   arbor.ILogger
}

// Len is the number of chunks in the index behind this retriever.
func (r *RerankRetriever) Len() int { return r.count }

func (r *RerankRetriever) Retrieve(ctx context.Context, query string) ([]domain.Chunk, error) {
	qv, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, domain.Upstream(r.embedder.Name(), err)
	}
	matches, err := r.storage.Search(ctx, qv, r.opts.FetchK)
	if err != nil {
		return nil, domain.Upstream("vectorstore", err)
	}
	candidates := vectorstore.MaxMarginalRelevance(qv, matches, r.opts.K, r.opts.Lambda)
	if len(candidates) == 0 {
		return []domain.Chunk{}, nil
	}

	docs := make([]string, len(candidates))
	for i, m := range candidates {
		docs[i] = m.Chunk.Content
	}
	ranked, err := r.reranker.Rerank(ctx, query, docs, r.opts.TopN)
	if err != nil {
		return nil, domain.Upstream("rerank", err)
	}
	out := make([]domain.Chunk, 0, min(len(ranked), r.opts.TopN))
	for _, res := range ranked {
		if len(out) == r.opts.TopN {
			break
		}
		if res.Index < 0 || res.Index >= len(candidates) {
			continue
		}
		out = append(out, candidates[res.Index].Chunk)
	}

	r.logger.Debug().
		Int("fetched", len(matches)).
		Int("candidates", len(candidates)).
		Int("sources", len(out)).
		Msg("Retrieved sources")
	return out, nil
}

// KeywordRetriever returns, in document order, the chunks sharing at least one
// content word with the query.
type KeywordRetriever struct {
	chunks []domain.Chunk
	words  []map[string]struct{}
	limit  int
}

func NewKeywordRetriever(chunks []domain.Chunk, limit int) *KeywordRetriever {
	if limit <= 0 {
		limit = 3
	}
	words := make([]map[string]struct{}, len(chunks))
	for i, c := range chunks {
		words[i] = lexical.WordSet(c.Content)
	}
	return &KeywordRetriever{chunks: chunks, words: words, limit: limit}
}

func (k *KeywordRetriever) Len() int { return len(k.chunks) }

func (k *KeywordRetriever) Retrieve(_ context.Context, query string) ([]domain.Chunk, error) {
	q := lexical.WordSet(query)
	out := []domain.Chunk{}
	for i, c := range k.chunks {
		if len(out) == k.limit {
			break
		}
		if lexical.Overlaps(q, k.words[i]) {
			out = append(out, c)
		}
	}
	return out, nil
}
