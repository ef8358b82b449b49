package embedding

import "context"

// Embedder converts free text into a numeric vector representation.
type Embedder interface {
	Name() string
	// Dimension may be zero until the first embedding or Prepare call.
	Dimension() int
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Preparer is implemented by embedders that must see the corpus before embedding it.
type Preparer interface {
	Prepare(corpus []string) error
}
