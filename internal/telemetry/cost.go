package telemetry

import (
	"math"

	"minirag/internal/domain"
)

// Rates are prices per 1000 tokens.
type Rates struct {
	EmbeddingPer1K float64
	InputPer1K     float64
	OutputPer1K    float64
}

// DefaultRates match text-embedding-004 and llama3-8b on Groq.
func DefaultRates() Rates {
	return Rates{EmbeddingPer1K: 0.0000125, InputPer1K: 0.0001, OutputPer1K: 0.0001}
}

// Estimator prices production queries. Costs are rounded to 6 decimals.
type Estimator struct {
	counter TokenCounter
	rates   Rates
}

func NewEstimator(counter TokenCounter, rates Rates) *Estimator {
	return &Estimator{counter: counter, rates: rates}
}

func (e *Estimator) CountTokens(text string) int { return e.counter.Count(text) }

func (e *Estimator) EstimateCosts(embeddingTokens, inputTokens, outputTokens int) domain.CostBreakdown {
	emb := float64(embeddingTokens) / 1000 * e.rates.EmbeddingPer1K
	in := float64(inputTokens) / 1000 * e.rates.InputPer1K
	out := float64(outputTokens) / 1000 * e.rates.OutputPer1K
	return domain.CostBreakdown{
		EmbeddingTokens: embeddingTokens,
		LLMInputTokens:  inputTokens,
		LLMOutputTokens: outputTokens,
		EmbeddingCost:   round6(emb),
		LLMInputCost:    round6(in),
		LLMOutputCost:   round6(out),
		TotalCost:       round6(emb + in + out),
	}
}

// MockEstimator counts words and applies one flat rate without rounding.
// In demo mode the context is billed as embedding and again as LLM input,
// so the total weights context tokens twice.
type MockEstimator struct {
	ratePer1K float64
}

func NewMockEstimator(ratePer1K float64) *MockEstimator {
	return &MockEstimator{ratePer1K: ratePer1K}
}

func (e *MockEstimator) CountTokens(text string) int { return WordCounter{}.Count(text) }

func (e *MockEstimator) EstimateCosts(embeddingTokens, inputTokens, outputTokens int) domain.CostBreakdown {
	return domain.CostBreakdown{
		EmbeddingTokens: embeddingTokens,
		LLMInputTokens:  inputTokens,
		LLMOutputTokens: outputTokens,
		EmbeddingCost:   float64(embeddingTokens) * e.ratePer1K / 1000,
		LLMInputCost:    float64(inputTokens) * e.ratePer1K / 1000,
		LLMOutputCost:   float64(outputTokens) * e.ratePer1K / 1000,
		TotalCost:       float64(embeddingTokens+inputTokens+outputTokens) * e.ratePer1K / 1000,
	}
}

func round6(v float64) float64 { return math.Round(v*1e6) / 1e6 }
