package chunker

import (
	"strings"

	"minirag/internal/domain"
)

// ParagraphChunker emits one chunk per blank-line-delimited paragraph.
type ParagraphChunker struct{}

func NewParagraphChunker() *ParagraphChunker { return &ParagraphChunker{} }

func (ParagraphChunker) Chunk(text, source string) []domain.Chunk {
	var chunks []domain.Chunk
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		chunks = append(chunks, domain.Chunk{
			Content:  p,
			Metadata: domain.ChunkMetadata{Source: source, Title: source, Position: len(chunks) + 1},
		})
	}
	return chunks
}
