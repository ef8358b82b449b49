package rerank

import "context"

// Result points at one input document with its relevance score.
type Result struct {
	Index int
	Score float64
}

// Reranker reorders documents by relevance to query and keeps at most topN.
type Reranker interface {
	Rerank(ctx context.Context, query string, documents []string, topN int) ([]Result, error)
}

// Passthrough keeps the incoming order and truncates to topN.
type Passthrough struct{}

func (Passthrough) Rerank(_ context.Context, _ string, documents []string, topN int) ([]Result, error) {
	n := len(documents)
	if topN > 0 && topN < n {
		n = topN
	}
	out := make([]Result, n)
	for i := range out {
		out[i] = Result{Index: i}
	}
	return out, nil
}
