package telemetry

import (
	"strings"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter counts the tokens a model would see for a piece of text.
type TokenCounter interface {
	Count(text string) int
}

type tiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

func (c tiktokenCounter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// ApproxCounter assumes four runes per token.
type ApproxCounter struct{}

func (ApproxCounter) Count(text string) int { return utf8.RuneCountInString(text) / 4 }

// WordCounter counts whitespace-separated words.
type WordCounter struct{}

func (WordCounter) Count(text string) int { return len(strings.Fields(text)) }

// NewTokenCounter loads the BPE encoding used by model. When the encoding is
// unavailable it returns ApproxCounter together with the load error.
func NewTokenCounter(model string) (TokenCounter, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return ApproxCounter{}, err
	}
	return tiktokenCounter{enc: enc}, nil
}
