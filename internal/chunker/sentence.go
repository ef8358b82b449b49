package chunker

import (
	"strings"

	"minirag/internal/domain"
	"minirag/internal/lexical"
)

// SentenceChunker splits text into sentence-based chunks with overlap.
type SentenceChunker struct {
	sentencesPerChunk int
	overlapSentences  int
}

func NewSentenceChunker(sentencesPerChunk, overlapSentences int) *SentenceChunker {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = 5
	}
	if overlapSentences < 0 || overlapSentences >= sentencesPerChunk {
		overlapSentences = 0
	}
	return &SentenceChunker{
		sentencesPerChunk: sentencesPerChunk,
		overlapSentences:  overlapSentences,
	}
}

func (c *SentenceChunker) Chunk(text, source string) []domain.Chunk {
	kept := lexical.Sentences(text)
	if len(kept) == 0 {
		return nil
	}

	var chunks []domain.Chunk
	for i := 0; i < len(kept); {
		end := i + c.sentencesPerChunk
		if end > len(kept) {
			end = len(kept)
		}
		chunks = append(chunks, domain.Chunk{
			Content:  strings.Join(kept[i:end], " "),
			Metadata: domain.ChunkMetadata{Source: source, Title: source, Position: len(chunks) + 1},
		})
		if end == len(kept) {
			break
		}
		i = end - c.overlapSentences
	}
	return chunks
}
