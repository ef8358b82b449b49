package lexical

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWords(t *testing.T) {
	assert.Equal(t, []string{"dogs", "aren't", "cats"}, Words("Dogs aren't CATS!"))
	assert.Equal(t, []string{"apollo", "11", "landed", "in", "1969"}, Words("Apollo 11 landed in 1969."))
	assert.Equal(t, []string{"gpt", "4"}, Words("GPT-4"))
	assert.Empty(t, Words("-- ... !?"))
}

func TestContentWordsDropsStopwords(t *testing.T) {
	assert.Equal(t, []string{"dogs", "loyal"}, ContentWords("Are dogs loyal?"))
}

func TestOverlaps(t *testing.T) {
	q := WordSet("Are dogs loyal?")
	assert.True(t, Overlaps(q, WordSet("Dogs are loyal.")))
	assert.False(t, Overlaps(q, WordSet("Cats are mammals.")))
	assert.False(t, Overlaps(q, WordSet("")))
}

func TestSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"terminators kept", "One. Two! Three?", []string{"One.", "Two!", "Three?"}},
		{"trailing fragment", "One. and the rest", []string{"One.", "and the rest"}},
		{"no terminator", "just words", []string{"just words"}},
		{"blank", "   ", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sentences(tt.text))
		})
	}
}
