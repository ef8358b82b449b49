// Package lexical holds the word and sentence tokenizers shared by the keyword
// retriever, the TF-IDF embedder, the sentence chunker and the summarizer.
package lexical

import (
	"regexp"
	"strings"
)

var (
	wordRe     = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}\p{N}]+)*`)
	sentenceRe = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

var stopwords = func() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()

// Words returns the lower-cased letter and digit runs of text, apostrophes kept
// inside words.
func Words(text string) []string {
	return wordRe.FindAllString(strings.ToLower(text), -1)
}

// IsStopword reports whether w is a common English function word.
func IsStopword(w string) bool {
	_, ok := stopwords[w]
	return ok
}

// ContentWords returns Words(text) without stopwords.
func ContentWords(text string) []string {
	raw := Words(text)
	out := raw[:0]
	for _, w := range raw {
		if !IsStopword(w) {
			out = append(out, w)
		}
	}
	return out
}

// WordSet returns the distinct content words of text.
func WordSet(text string) map[string]struct{} {
	words := ContentWords(text)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// Overlaps reports whether a and b share at least one word.
func Overlaps(a, b map[string]struct{}) bool {
	if len(b) < len(a) {
		a, b = b, a
	}
	for w := range a {
		if _, ok := b[w]; ok {
			return true
		}
	}
	return false
}

// Sentences splits text on terminal punctuation. Trailing text without a
// terminator is kept as a final sentence. Results are trimmed and non-empty.
func Sentences(text string) []string {
	raw := sentenceRe.FindAllString(text, -1)
	if rest := strings.TrimSpace(text[strings.LastIndexAny(text, ".!?")+1:]); rest != "" {
		raw = append(raw, rest)
	}
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
