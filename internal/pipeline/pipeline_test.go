package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"minirag/internal/domain"
	"minirag/internal/embedding/tfidf"
	"minirag/internal/rerank"
	"minirag/internal/telemetry"
	"minirag/internal/vectorstore"
	"minirag/internal/vectorstore/memory"
)

type fakeCompleter struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

// fakeEmbedder maps known texts to fixed vectors; anything else gets fallback.
type fakeEmbedder struct {
	vectors  map[string][]float32
	fallback []float32
	err      error
}

func (f *fakeEmbedder) Name() string   { return "fake" }
func (f *fakeEmbedder) Dimension() int { return len(f.fallback) }

func (f *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = f.vector(t)
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vector(text), nil
}

func (f *fakeEmbedder) vector(t string) []float32 {
	if v, ok := f.vectors[t]; ok {
		return v
	}
	return f.fallback
}

type reverseReranker struct{}

func (reverseReranker) Rerank(_ context.Context, _ string, docs []string, topN int) ([]rerank.Result, error) {
	out := []rerank.Result{}
	for i := len(docs) - 1; i >= 0 && len(out) < topN; i-- {
		out = append(out, rerank.Result{Index: i, Score: float64(i)})
	}
	return out, nil
}

// greedyReranker ignores topN and returns every document.
type greedyReranker struct{}

func (greedyReranker) Rerank(_ context.Context, _ string, docs []string, _ int) ([]rerank.Result, error) {
	out := make([]rerank.Result, len(docs))
	for i := range docs {
		out[i] = rerank.Result{Index: i}
	}
	return out, nil
}

// flakyStorage fails upserts after a successful reset once upsertErr is set.
type flakyStorage struct {
	*memory.Storage
	upsertErr error
}

func (f *flakyStorage) Upsert(ctx context.Context, records []vectorstore.Record) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	return f.Storage.Upsert(ctx, records)
}

type failingReranker struct{}

func (failingReranker) Rerank(context.Context, string, []string, int) ([]rerank.Result, error) {
	return nil, errors.New("invalid api token")
}

func newRealSession(t *testing.T, completer *fakeCompleter) *Session {
	t.Helper()
	p := NewReal(RealOptions{
		Embedder:  tfidf.NewEmbedder(),
		Storage:   memory.NewStorage(),
		Completer: completer,
		Costs:     telemetry.NewEstimator(telemetry.WordCounter{}, telemetry.DefaultRates()),
	}, arbor.NewLogger())
	return NewSession(p, arbor.NewLogger())
}

func newMockSession() *Session {
	return NewSession(NewMock(MockOptions{}, arbor.NewLogger()), arbor.NewLogger())
}

func assertTokenInvariant(t *testing.T, res domain.AnswerResult) {
	t.Helper()
	u := res.TokenUsage
	assert.Equal(t, u.PromptTokens+u.OutputTokens, u.TotalLLMTokens)
}

func TestMockEndToEnd(t *testing.T) {
	s := newMockSession()
	ctx := context.Background()

	ing, err := s.Ingest(ctx, "Cats are mammals.\n\nDogs are loyal.", "pets.txt")
	require.NoError(t, err)
	assert.Equal(t, 2, ing.Chunks)

	res, err := s.Answer(ctx, "Are dogs loyal?")
	require.NoError(t, err)
	assert.Equal(t, "Dogs are loyal [1].", res.Answer)
	require.Len(t, res.Sources, 1)
	assert.Equal(t, "Dogs are loyal.", res.Sources[0].Content)
	assert.Equal(t, domain.ChunkMetadata{Source: "pets.txt", Title: "pets.txt", Position: 2}, res.Sources[0].Metadata)
	assert.GreaterOrEqual(t, res.Timing, 0.0)

	assert.Equal(t, domain.TokenUsage{
		ContextTokens:  3,
		QueryTokens:    3,
		PromptTokens:   6,
		OutputTokens:   4,
		TotalLLMTokens: 10,
	}, res.TokenUsage)
	cb := res.CostBreakdown
	assert.Equal(t, 3, cb.EmbeddingTokens)
	assert.Equal(t, 6, cb.LLMInputTokens)
	assert.Equal(t, 4, cb.LLMOutputTokens)
	// context words are billed as embedding and again inside the LLM input
	assert.InDelta(t, float64(2*3+3+4)*0.0001/1000, cb.TotalCost, 1e-15)
	assert.InDelta(t, cb.EmbeddingCost+cb.LLMInputCost+cb.LLMOutputCost, cb.TotalCost, 1e-15)
}

func TestMockAnswers(t *testing.T) {
	long := strings.Repeat("word ", 40)
	tests := []struct {
		name        string
		text        string
		query       string
		wantAnswer  string
		wantSources int
	}{
		{
			name:        "no keyword overlap",
			text:        "Cats are mammals.\n\nDogs are loyal.",
			query:       "What about volcanoes?",
			wantAnswer:  NoMatchAnswer,
			wantSources: 0,
		},
		{
			name:        "stopwords alone do not match",
			text:        "Cats are mammals.",
			query:       "are the",
			wantAnswer:  NoMatchAnswer,
			wantSources: 0,
		},
		{
			name:        "at most three sources in document order",
			text:        "Rust one. More.\n\nRust two.\n\nNothing here.\n\nRust three.\n\nRust four.",
			query:       "rust",
			wantAnswer:  "Rust one [1]. Rust two [2]. Rust three [3].",
			wantSources: 3,
		},
		{
			name:        "no period uses first hundred characters",
			text:        long,
			query:       "word",
			wantAnswer:  strings.TrimSpace(long[:100]) + " [1].",
			wantSources: 1,
		},
		{
			name:        "year matches",
			text:        "Apollo 11 landed in 1969.\n\nThe GPT-4 model was released.",
			query:       "1969",
			wantAnswer:  "Apollo 11 landed in 1969 [1].",
			wantSources: 1,
		},
		{
			name:        "number inside a query matches",
			text:        "Apollo 11 landed in 1969.\n\nThe GPT-4 model was released.",
			query:       "what about 11",
			wantAnswer:  "Apollo 11 landed in 1969 [1].",
			wantSources: 1,
		},
		{
			name:        "hyphenated version matches",
			text:        "Apollo 11 landed in 1969.\n\nThe GPT-4 model was released.",
			query:       "GPT-4?",
			wantAnswer:  "The GPT-4 model was released [1].",
			wantSources: 1,
		},
		{
			name:        "case insensitive",
			text:        "PARIS is big.",
			query:       "paris",
			wantAnswer:  "PARIS is big [1].",
			wantSources: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newMockSession()
			_, err := s.Ingest(context.Background(), tt.text, "doc")
			require.NoError(t, err)

			res, err := s.Answer(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAnswer, res.Answer)
			assert.Len(t, res.Sources, tt.wantSources)
			assert.NotNil(t, res.Sources)
			assertTokenInvariant(t, res)
		})
	}
}

func TestMockNeverIndexed(t *testing.T) {
	syn := NewMockSynthesizer(telemetry.NewMockEstimator(0.0001), arbor.NewLogger())
	for name, r := range map[string]domain.Retriever{
		"nil retriever":   nil,
		"empty retriever": NewKeywordRetriever(nil, 3),
	} {
		t.Run(name, func(t *testing.T) {
			res, err := syn.Answer(context.Background(), "Are dogs loyal?", r)
			require.NoError(t, err)
			assert.Equal(t, NotIndexedAnswer, res.Answer)
			assert.Empty(t, res.Sources)
			assert.Equal(t, 0.1, res.Timing)
			assert.Equal(t, domain.CostBreakdown{}, res.CostBreakdown)
			assert.Equal(t, domain.TokenUsage{}, res.TokenUsage)
		})
	}
}

func TestSessionErrors(t *testing.T) {
	for name, s := range map[string]*Session{
		"mock": newMockSession(),
		"real": newRealSession(t, &fakeCompleter{reply: "x"}),
	} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := s.Answer(ctx, "anything")
			var stateErr *domain.StateError
			require.ErrorAs(t, err, &stateErr)
			assert.Equal(t, domain.ErrNoDocuments, err.Error())
			assert.False(t, s.Ready())

			_, err = s.Ingest(ctx, "  \n\n ", "blank")
			var inErr *domain.InputError
			require.ErrorAs(t, err, &inErr)
			assert.False(t, s.Ready())

			_, err = s.Ingest(ctx, "Paris is the capital of France.", "facts")
			require.NoError(t, err)
			assert.True(t, s.Ready())
			source, chunks := s.Active()
			assert.Equal(t, "facts", source)
			assert.Equal(t, 1, chunks)

			_, err = s.Answer(ctx, "   ")
			require.ErrorAs(t, err, &inErr)
		})
	}
}

func TestSessionIngestReplacesIndex(t *testing.T) {
	s := newMockSession()
	ctx := context.Background()
	_, err := s.Ingest(ctx, "Cats are mammals.", "a")
	require.NoError(t, err)
	_, err = s.Ingest(ctx, "Volcanoes erupt.", "b")
	require.NoError(t, err)

	res, err := s.Answer(ctx, "cats")
	require.NoError(t, err)
	assert.Equal(t, NoMatchAnswer, res.Answer)

	res, err = s.Answer(ctx, "volcanoes")
	require.NoError(t, err)
	assert.Equal(t, "Volcanoes erupt [1].", res.Answer)
	assert.Equal(t, "b", res.Sources[0].Metadata.Source)
}

func TestRealCitedAnswer(t *testing.T) {
	completer := &fakeCompleter{reply: "Paris is the capital of France [1]."}
	s := newRealSession(t, completer)
	ctx := context.Background()

	_, err := s.Ingest(ctx, "Paris is the capital of France.", "Direct Input")
	require.NoError(t, err)

	res, err := s.Answer(ctx, "What is the capital of France?")
	require.NoError(t, err)

	require.Len(t, completer.prompts, 1)
	prompt := completer.prompts[0]
	assert.Contains(t, prompt, "[DOCUMENT 1] Paris is the capital of France.")
	assert.Contains(t, prompt, "Question: What is the capital of France?")
	assert.Contains(t, res.Answer, "[1]")
	require.Len(t, res.Sources, 1)
	assert.Equal(t, 1, res.Sources[0].Metadata.Position)

	u := res.TokenUsage
	assertTokenInvariant(t, res)
	assert.Equal(t, 8, u.ContextTokens)
	assert.Equal(t, 6, u.QueryTokens)
	assert.Equal(t, len(strings.Fields(prompt)), u.PromptTokens)
	assert.Equal(t, 7, u.OutputTokens)

	cb := res.CostBreakdown
	assert.Equal(t, 6, cb.EmbeddingTokens)
	assert.Equal(t, u.PromptTokens, cb.LLMInputTokens)
	assert.Equal(t, u.OutputTokens, cb.LLMOutputTokens)
	assert.InDelta(t, cb.EmbeddingCost+cb.LLMInputCost+cb.LLMOutputCost, cb.TotalCost, 1.5e-6)
}

func TestRealUpstreamErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("llm failure keeps message", func(t *testing.T) {
		s := newRealSession(t, &fakeCompleter{err: errors.New("rate limit exceeded")})
		_, err := s.Ingest(ctx, "Paris is the capital of France.", "doc")
		require.NoError(t, err)

		_, err = s.Answer(ctx, "capital?")
		var up *domain.UpstreamError
		require.ErrorAs(t, err, &up)
		assert.Equal(t, "llm", up.Service)
		assert.Equal(t, "rate limit exceeded", err.Error())
	})

	t.Run("embedding failure leaves previous index active", func(t *testing.T) {
		emb := &fakeEmbedder{fallback: []float32{1, 0}}
		p := NewReal(RealOptions{
			Embedder:  emb,
			Storage:   memory.NewStorage(),
			Completer: &fakeCompleter{reply: "ok [1]."},
		}, arbor.NewLogger())
		s := NewSession(p, arbor.NewLogger())

		_, err := s.Ingest(ctx, "first document", "one")
		require.NoError(t, err)

		emb.err = errors.New("quota exhausted")
		_, err = s.Ingest(ctx, "second document", "two")
		var up *domain.UpstreamError
		require.ErrorAs(t, err, &up)
		assert.Equal(t, "quota exhausted", err.Error())

		source, _ := s.Active()
		assert.Equal(t, "one", source)
	})

	t.Run("store failure after reset clears the active index", func(t *testing.T) {
		st := &flakyStorage{Storage: memory.NewStorage()}
		p := NewReal(RealOptions{
			Embedder:  &fakeEmbedder{fallback: []float32{1, 0}},
			Storage:   st,
			Completer: &fakeCompleter{reply: "ok [1]."},
		}, arbor.NewLogger())
		s := NewSession(p, arbor.NewLogger())

		_, err := s.Ingest(ctx, "first document", "one")
		require.NoError(t, err)
		require.True(t, s.Ready())

		st.upsertErr = errors.New("connection reset")
		_, err = s.Ingest(ctx, "second document", "two")
		var up *domain.UpstreamError
		require.ErrorAs(t, err, &up)
		assert.Equal(t, "vectorstore", up.Service)
		assert.Equal(t, "connection reset", err.Error())

		assert.False(t, s.Ready())
		source, chunks := s.Active()
		assert.Empty(t, source)
		assert.Zero(t, chunks)

		_, err = s.Answer(ctx, "document")
		var state *domain.StateError
		assert.ErrorAs(t, err, &state)
	})

	t.Run("rerank failure", func(t *testing.T) {
		p := NewReal(RealOptions{
			Embedder:  tfidf.NewEmbedder(),
			Storage:   memory.NewStorage(),
			Reranker:  failingReranker{},
			Completer: &fakeCompleter{reply: "unused"},
		}, arbor.NewLogger())
		s := NewSession(p, arbor.NewLogger())
		_, err := s.Ingest(ctx, "Paris is the capital of France.", "doc")
		require.NoError(t, err)

		_, err = s.Answer(ctx, "capital")
		var up *domain.UpstreamError
		require.ErrorAs(t, err, &up)
		assert.Equal(t, "rerank", up.Service)
		assert.Equal(t, "invalid api token", err.Error())
	})
}

func TestRerankRetrieverOrder(t *testing.T) {
	ctx := context.Background()
	chunks := []domain.Chunk{
		{Content: "alpha", Metadata: domain.ChunkMetadata{Position: 1}},
		{Content: "beta", Metadata: domain.ChunkMetadata{Position: 2}},
		{Content: "gamma", Metadata: domain.ChunkMetadata{Position: 3}},
	}
	emb := &fakeEmbedder{
		vectors: map[string][]float32{
			"alpha": {1, 0},
			"beta":  {0.9, 0.1},
			"gamma": {0.5, 0.5},
		},
		fallback: []float32{1, 0},
	}
	ix := NewVectorIndexer(emb, memory.NewStorage(), reverseReranker{}, RetrievalOptions{K: 3, TopN: 2, Lambda: 1}, arbor.NewLogger())
	store, err := ix.Index(ctx, chunks)
	require.NoError(t, err)
	assert.Equal(t, 3, store.Len())

	r, err := ix.Retriever(store)
	require.NoError(t, err)
	got, err := r.Retrieve(ctx, "query")
	require.NoError(t, err)

	// similarity order is alpha, beta, gamma; the reranker reverses it and keeps two
	positions := make([]int, len(got))
	for i, c := range got {
		positions[i] = c.Metadata.Position
	}
	assert.Equal(t, []int{3, 2}, positions)
}

func TestRerankRetrieverCapsSources(t *testing.T) {
	ctx := context.Background()
	chunks := make([]domain.Chunk, 6)
	for i := range chunks {
		chunks[i] = domain.Chunk{Content: fmt.Sprintf("chunk %d", i), Metadata: domain.ChunkMetadata{Position: i + 1}}
	}
	ix := NewVectorIndexer(&fakeEmbedder{fallback: []float32{1, 0}}, memory.NewStorage(), greedyReranker{}, RetrievalOptions{}, arbor.NewLogger())
	store, err := ix.Index(ctx, chunks)
	require.NoError(t, err)
	r, err := ix.Retriever(store)
	require.NoError(t, err)

	got, err := r.Retrieve(ctx, "chunk")
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestIndexerRejectsForeignStore(t *testing.T) {
	_, err := (&MockIndexer{}).Retriever(&vectorIndex{})
	assert.Error(t, err)

	ix := NewVectorIndexer(&fakeEmbedder{}, memory.NewStorage(), nil, RetrievalOptions{}, arbor.NewLogger())
	_, err = ix.Retriever(&mockIndex{})
	assert.Error(t, err)
}

func TestSessionConcurrentUse(t *testing.T) {
	s := newMockSession()
	ctx := context.Background()
	_, err := s.Ingest(ctx, "Dogs are loyal.", "seed")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, err := s.Ingest(ctx, fmt.Sprintf("Dogs are loyal %d.", i), "doc")
			assert.NoError(t, err)
		}(i)
		go func() {
			defer wg.Done()
			res, err := s.Answer(ctx, "dogs")
			assert.NoError(t, err)
			assert.Len(t, res.Sources, 1)
		}()
	}
	wg.Wait()
}
