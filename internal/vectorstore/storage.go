package vectorstore

import (
	"context"

	"minirag/internal/domain"
)

// Record is one chunk and its embedding, ready to be written.
type Record struct {
	ID     string
	Vector []float32
	Chunk  domain.Chunk
}

// Match is a search hit. Vector is populated so callers can diversify results.
type Match struct {
	Chunk  domain.Chunk
	Score  float64
	Vector []float32
}

// Storage persists vectors and supports similarity search.
type Storage interface {
	// Reset empties the store and prepares it for vectors of the given dimension.
	Reset(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, records []Record) error
	Search(ctx context.Context, vector []float32, topK int) ([]Match, error)
}
