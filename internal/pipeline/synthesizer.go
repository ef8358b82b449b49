package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"minirag/internal/domain"
	"minirag/internal/llm"
)

// Fixed answers of the keyword pipeline.
const (
	NoMatchAnswer    = "Based on the provided documents, I cannot find specific information to answer this question."
	NotIndexedAnswer = "Based on the provided documents, I cannot answer this question as no documents have been processed yet."
	notIndexedTiming = 0.1
	firstSentenceCap = 100
)

// CitedSynthesizer prompts a language model with numbered sources and asks
// for an answer with inline [n] citations.
type CitedSynthesizer struct {
	completer llm.Completer
	costs     domain.CostEstimator
	logger    arbor.ILogger
}

func NewCitedSynthesizer(c llm.Completer, costs domain.CostEstimator, logger arbor.ILogger) *CitedSynthesizer {
	return &CitedSynthesizer{completer: c, costs: costs, logger: logger}
}

func (s *CitedSynthesizer) Answer(ctx context.Context, query string, retriever domain.Retriever) (domain.AnswerResult, error) {
	if retriever == nil {
		return domain.AnswerResult{}, &domain.StateError{Msg: domain.ErrNoDocuments}
	}
	start := time.Now()
	sources, err := retriever.Retrieve(ctx, query)
	if err != nil {
		return domain.AnswerResult{}, err
	}
	if sources == nil {
		sources = []domain.Chunk{}
	}

	docs := llm.FormatContext(sources)
	prompt := llm.BuildPrompt(docs, query)
	answer, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return domain.AnswerResult{}, domain.Upstream("llm", err)
	}
	elapsed := time.Since(start)

	contextTokens := s.costs.CountTokens(docs)
	queryTokens := s.costs.CountTokens(query)
	promptTokens := s.costs.CountTokens(prompt)
	outputTokens := s.costs.CountTokens(answer)
	embeddingTokens := 0
	for _, c := range sources {
		embeddingTokens += s.costs.CountTokens(c.Content)
	}

	s.logger.Info().
		Int("sources", len(sources)).
		Int("prompt_tokens", promptTokens).
		Int("output_tokens", outputTokens).
		Str("elapsed", elapsed.String()).
		Msg("Answered query")

	return domain.AnswerResult{
		Answer:        answer,
		Sources:       sources,
		Timing:        elapsed.Seconds(),
		CostBreakdown: s.costs.EstimateCosts(embeddingTokens, promptTokens, outputTokens),
		TokenUsage:    domain.NewTokenUsage(contextTokens, queryTokens, promptTokens, outputTokens),
	}, nil
}

// MockSynthesizer answers from the first sentence of each keyword match.
type MockSynthesizer struct {
	costs  domain.CostEstimator
	logger arbor.ILogger
}

func NewMockSynthesizer(costs domain.CostEstimator, logger arbor.ILogger) *MockSynthesizer {
	return &MockSynthesizer{costs: costs, logger: logger}
}

type sized interface {
	Len() int
}

func (s *MockSynthesizer) Answer(ctx context.Context, query string, retriever domain.Retriever) (domain.AnswerResult, error) {
	if retriever == nil {
		return notIndexedResult(), nil
	}
	if r, ok := retriever.(sized); ok && r.Len() == 0 {
		return notIndexedResult(), nil
	}

	start := time.Now()
	sources, err := retriever.Retrieve(ctx, query)
	if err != nil {
		return domain.AnswerResult{}, err
	}
	if sources == nil {
		sources = []domain.Chunk{}
	}
	answer := NoMatchAnswer
	if len(sources) > 0 {
		parts := make([]string, len(sources))
		for i, c := range sources {
			parts[i] = fmt.Sprintf("%s [%d]", firstSentence(c.Content), i+1)
		}
		answer = strings.Join(parts, ". ") + "."
	}
	elapsed := time.Since(start)

	contextTokens := 0
	for _, c := range sources {
		contextTokens += s.costs.CountTokens(c.Content)
	}
	queryTokens := s.costs.CountTokens(query)
	outputTokens := s.costs.CountTokens(answer)
	promptTokens := contextTokens + queryTokens

	s.logger.Debug().
		Int("sources", len(sources)).
		Int("context_tokens", contextTokens).
		Msg("Answered query from keyword matches")

	return domain.AnswerResult{
		Answer:        answer,
		Sources:       sources,
		Timing:        elapsed.Seconds(),
		CostBreakdown: s.costs.EstimateCosts(contextTokens, promptTokens, outputTokens),
		TokenUsage:    domain.NewTokenUsage(contextTokens, queryTokens, promptTokens, outputTokens),
	}, nil
}

func notIndexedResult() domain.AnswerResult {
	return domain.AnswerResult{
		Answer:  NotIndexedAnswer,
		Sources: []domain.Chunk{},
		Timing:  notIndexedTiming,
	}
}

// firstSentence returns the text before the first '.', or the first
// firstSentenceCap runes when there is none.
func firstSentence(content string) string {
	if i := strings.IndexByte(content, '.'); i >= 0 {
		return strings.TrimSpace(content[:i])
	}
	r := []rune(content)
	if len(r) > firstSentenceCap {
		r = r[:firstSentenceCap]
	}
	return strings.TrimSpace(string(r))
}
