package telemetry

import (
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minirag/internal/domain"
)

func TestApproxCounter(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"abc", 0},
		{"abcd", 1},
		{"Paris is the capital of France.", 7},
		{"éééé", 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ApproxCounter{}.Count(tt.text), tt.text)
	}
}

func TestWordCounter(t *testing.T) {
	assert.Equal(t, 3, WordCounter{}.Count("  Are dogs\tloyal?\n"))
	assert.Equal(t, 0, WordCounter{}.Count("   "))
}

func TestNewTokenCounterNeverReturnsNil(t *testing.T) {
	c, _ := NewTokenCounter("gpt-3.5-turbo")
	require.NotNil(t, c)
	assert.Greater(t, c.Count("Paris is the capital of France."), 0)

	c, err := NewTokenCounter("definitely-not-a-model")
	assert.Error(t, err)
	assert.Equal(t, ApproxCounter{}, c)
}

func TestEstimateCostsRoundsAndSums(t *testing.T) {
	e := NewEstimator(ApproxCounter{}, DefaultRates())
	tests := []struct {
		name         string
		emb, in, out int
		wantEmb      float64
		wantIn       float64
		wantOut      float64
	}{
		{"zero", 0, 0, 0, 0, 0, 0},
		{"typical", 400, 350, 40, 0.000005, 0.000035, 0.000004},
		{"large", 100000, 20000, 3000, 0.00125, 0.002, 0.0003},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.EstimateCosts(tt.emb, tt.in, tt.out)
			assert.Equal(t, tt.emb, got.EmbeddingTokens)
			assert.Equal(t, tt.in, got.LLMInputTokens)
			assert.Equal(t, tt.out, got.LLMOutputTokens)
			assert.InDelta(t, tt.wantEmb, got.EmbeddingCost, 1e-12)
			assert.InDelta(t, tt.wantIn, got.LLMInputCost, 1e-12)
			assert.InDelta(t, tt.wantOut, got.LLMOutputCost, 1e-12)

			raw := float64(tt.emb)/1000*0.0000125 + float64(tt.in)/1000*0.0001 + float64(tt.out)/1000*0.0001
			assert.InDelta(t, math.Round(raw*1e6)/1e6, got.TotalCost, 1e-9)
		})
	}
}

func TestMockEstimatorWeightsContextTwice(t *testing.T) {
	e := NewMockEstimator(0.0001)
	ctx, q, out := 3, 3, 4
	got := e.EstimateCosts(ctx, ctx+q, out)
	assert.InDelta(t, float64(ctx*2+q+out)*0.0001/1000, got.TotalCost, 1e-15)
	assert.InDelta(t, got.EmbeddingCost+got.LLMInputCost+got.LLMOutputCost, got.TotalCost, 1e-15)
	assert.Equal(t, 3, e.CountTokens("Dogs are loyal."))
}

func TestMetricsObserve(t *testing.T) {
	m := NewMetrics()
	m.ObserveUpload("text", 4, 10*time.Millisecond)
	m.ObserveAnswer("demo", domain.AnswerResult{
		TokenUsage:    domain.NewTokenUsage(3, 3, 6, 4),
		CostBreakdown: domain.CostBreakdown{EmbeddingTokens: 3, TotalCost: 0.5},
	}, 5*time.Millisecond)
	m.ObserveError("state")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.uploads.WithLabelValues("text")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.chunks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queries.WithLabelValues("demo")))
	assert.Equal(t, 6.0, testutil.ToFloat64(m.tokens.WithLabelValues("prompt")))
	assert.Equal(t, 0.5, testutil.ToFloat64(m.cost))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("state")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "minirag_queries_total"))
}
