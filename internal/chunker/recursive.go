package chunker

import (
	"strings"
	"unicode/utf8"

	"minirag/internal/domain"
)

var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// RecursiveChunker splits text into chunks of at most size runes, trying
// paragraph, line and word boundaries before cutting between runes.
// Consecutive chunks share up to overlap runes of context.
type RecursiveChunker struct {
	size       int
	overlap    int
	separators []string
}

func NewRecursiveChunker(size, overlap int) *RecursiveChunker {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return &RecursiveChunker{size: size, overlap: overlap, separators: defaultSeparators}
}

func (c *RecursiveChunker) Chunk(text, source string) []domain.Chunk {
	pieces := c.split(text, c.separators)
	chunks := make([]domain.Chunk, 0, len(pieces))
	for i, p := range pieces {
		chunks = append(chunks, domain.Chunk{
			Content:  p,
			Metadata: domain.ChunkMetadata{Source: source, Title: source, Position: i + 1},
		})
	}
	return chunks
}

func (c *RecursiveChunker) split(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var next []string
	for i, s := range separators {
		if s == "" {
			separator = s
			break
		}
		if strings.Contains(text, s) {
			separator = s
			next = separators[i+1:]
			break
		}
	}

	var out, good []string
	for _, s := range splitKeepSeparator(text, separator) {
		if runeLen(s) < c.size {
			good = append(good, s)
			continue
		}
		if len(good) > 0 {
			out = append(out, c.merge(good)...)
			good = nil
		}
		if len(next) == 0 {
			out = append(out, s)
		} else {
			out = append(out, c.split(s, next)...)
		}
	}
	if len(good) > 0 {
		out = append(out, c.merge(good)...)
	}
	return out
}

// merge packs splits into windows of at most size runes. Separators stay
// attached to the split that follows them, so pieces are concatenated as is.
func (c *RecursiveChunker) merge(splits []string) []string {
	var docs, current []string
	total := 0
	for _, d := range splits {
		n := runeLen(d)
		if total+n > c.size && len(current) > 0 {
			if doc := strings.TrimSpace(strings.Join(current, "")); doc != "" {
				docs = append(docs, doc)
			}
			for total > c.overlap || (total+n > c.size && total > 0) {
				total -= runeLen(current[0])
				current = current[1:]
			}
		}
		current = append(current, d)
		total += n
	}
	if doc := strings.TrimSpace(strings.Join(current, "")); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}

// splitKeepSeparator splits on sep and prefixes every piece after the first with it.
func splitKeepSeparator(text, sep string) []string {
	var parts []string
	if sep == "" {
		parts = make([]string, 0, len(text))
		for _, r := range text {
			parts = append(parts, string(r))
		}
		return parts
	}
	raw := strings.Split(text, sep)
	parts = make([]string, 0, len(raw))
	if raw[0] != "" {
		parts = append(parts, raw[0])
	}
	for _, p := range raw[1:] {
		parts = append(parts, sep+p)
	}
	return parts
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
