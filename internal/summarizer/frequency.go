package summarizer

import (
	"math"
	"sort"
	"strings"

	"minirag/internal/domain"
	"minirag/internal/lexical"
)

// FrequencySummarizer ranks sentences by content-word frequency.
type FrequencySummarizer struct{}

var _ domain.Summarizer = FrequencySummarizer{}

func NewFrequencySummarizer() FrequencySummarizer { return FrequencySummarizer{} }

// Summarize keeps the maxSentences highest scoring sentences in document order.
func (FrequencySummarizer) Summarize(text string, maxSentences int) (string, error) {
	if maxSentences <= 0 {
		maxSentences = 3
	}
	sentences := lexical.Sentences(text)
	if len(sentences) == 0 {
		return strings.TrimSpace(text), nil
	}

	words := make([][]string, len(sentences))
	freq := map[string]float64{}
	maxF := 0.0
	for i, sent := range sentences {
		words[i] = lexical.ContentWords(sent)
		for _, w := range words[i] {
			freq[w]++
			maxF = math.Max(maxF, freq[w])
		}
	}

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(sentences))
	for i := range sentences {
		s := 0.0
		for _, w := range words[i] {
			s += freq[w] / maxF
		}
		// long sentences would otherwise win on length alone
		if n := len(lexical.Words(sentences[i])); n > 0 {
			s /= math.Sqrt(float64(n))
		}
		scores[i] = scored{i, s}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	maxSentences = min(maxSentences, len(scores))
	selected := make([]int, maxSentences)
	for i := range selected {
		selected[i] = scores[i].idx
	}
	sort.Ints(selected)
	out := make([]string, len(selected))
	for i, idx := range selected {
		out[i] = sentences[idx]
	}
	return strings.Join(out, " "), nil
}
