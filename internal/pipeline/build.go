package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"minirag/internal/chunker"
	"minirag/internal/config"
	"minirag/internal/domain"
	"minirag/internal/embedding"
	gemembed "minirag/internal/embedding/gemini"
	oaembed "minirag/internal/embedding/openai"
	"minirag/internal/embedding/tfidf"
	"minirag/internal/llm"
	"minirag/internal/llm/anthropic"
	gemllm "minirag/internal/llm/gemini"
	oallm "minirag/internal/llm/openai"
	"minirag/internal/rerank"
	"minirag/internal/rerank/cohere"
	"minirag/internal/telemetry"
	"minirag/internal/vectorstore"
	"minirag/internal/vectorstore/memory"
	"minirag/internal/vectorstore/pinecone"
	"minirag/internal/vectorstore/qdrant"
)

// FromConfig builds the pipeline selected by cfg.Mode. Production mode
// resolves every API key up front so a missing key fails at startup.
func FromConfig(ctx context.Context, cfg *config.AppConfig, logger arbor.ILogger) (*Pipeline, error) {
	if cfg.Demo() {
		logger.Info().Msg("Demo mode: using keyword pipeline, no API keys required")
		return NewMock(MockOptions{RatePer1K: cfg.Pricing.DemoRatePer1K}, logger), nil
	}

	ch, err := buildChunker(cfg.Chunker)
	if err != nil {
		return nil, err
	}
	emb, err := buildEmbedder(ctx, cfg.Embedder)
	if err != nil {
		return nil, err
	}
	st, err := buildStorage(cfg.VectorStore)
	if err != nil {
		return nil, err
	}
	rr, err := buildReranker(cfg.Reranker)
	if err != nil {
		return nil, err
	}
	cm, err := buildCompleter(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}

	counter, err := telemetry.NewTokenCounter(cfg.Pricing.TokenizerModel)
	if err != nil {
		logger.Warn().Err(err).Str("model", cfg.Pricing.TokenizerModel).Msg("Tokenizer unavailable, estimating four characters per token")
	}
	costs := telemetry.NewEstimator(counter, telemetry.Rates{
		EmbeddingPer1K: cfg.Pricing.EmbeddingPer1K,
		InputPer1K:     cfg.Pricing.LLMInputPer1K,
		OutputPer1K:    cfg.Pricing.LLMOutputPer1K,
	})

	logger.Info().
		Str("chunker", cfg.Chunker.Type).
		Str("embedder", emb.Name()).
		Str("vector_store", cfg.VectorStore.Type).
		Str("reranker", cfg.Reranker.Type).
		Str("llm", cfg.LLM.Type).
		Str("model", cfg.LLM.Model).
		Msg("Production pipeline ready")

	return NewReal(RealOptions{
		Chunker:   ch,
		Embedder:  emb,
		Storage:   st,
		Reranker:  rr,
		Completer: cm,
		Costs:     costs,
		Retrieval: RetrievalOptions{
			K:      cfg.Retriever.K,
			FetchK: cfg.Retriever.FetchK,
			Lambda: cfg.Retriever.MMRLambda,
			TopN:   cfg.Reranker.TopN,
		},
	}, logger), nil
}

// PineconeClient builds the control-plane client for the configured index.
func PineconeClient(cfg *config.AppConfig) (*pinecone.Client, error) {
	p := cfg.VectorStore.Pinecone
	if p == nil {
		return nil, fmt.Errorf("pinecone config missing")
	}
	key, err := config.APIKey(p.APIKeyEnv)
	if err != nil {
		return nil, err
	}
	return pinecone.NewClient(pinecone.Config{
		APIKey:     key,
		ControlURL: p.ControlURL,
		IndexName:  p.IndexName,
		Namespace:  p.Namespace,
		Dimension:  p.Dimension,
		Metric:     p.Metric,
		Cloud:      p.Cloud,
		Region:     p.Region,
		Timeout:    secs(p.TimeoutSecs),
	})
}

func buildChunker(c config.ChunkerConfig) (domain.Chunker, error) {
	switch c.Type {
	case "recursive", "":
		return chunker.NewRecursiveChunker(c.ChunkSize, c.ChunkOverlap), nil
	case "sentence":
		return chunker.NewSentenceChunker(c.SentencesPerChunk, c.OverlapSentences), nil
	case "paragraph":
		return chunker.NewParagraphChunker(), nil
	default:
		return nil, fmt.Errorf("unknown chunker: %s", c.Type)
	}
}

func buildEmbedder(ctx context.Context, c config.EmbedderConfig) (embedding.Embedder, error) {
	switch c.Type {
	case "gemini", "":
		if c.Gemini == nil {
			return nil, fmt.Errorf("gemini embedder config missing")
		}
		key, err := config.APIKey(c.Gemini.APIKeyEnv)
		if err != nil {
			return nil, err
		}
		return gemembed.New(ctx, gemembed.Config{APIKey: key, Model: c.Gemini.Model, Dimension: c.Gemini.Dimension})
	case "openai":
		if c.OpenAI == nil {
			return nil, fmt.Errorf("openai embedder config missing")
		}
		key, err := config.APIKey(c.OpenAI.APIKeyEnv)
		if err != nil {
			return nil, err
		}
		return oaembed.NewClient(oaembed.Config{
			BaseURL:   c.OpenAI.BaseURL,
			APIKey:    key,
			Model:     c.OpenAI.Model,
			Timeout:   secs(c.OpenAI.TimeoutSecs),
			BatchSize: c.OpenAI.BatchSize,
		})
	case "tfidf":
		return tfidf.NewEmbedder(), nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", c.Type)
	}
}

func buildStorage(c config.VectorStoreConfig) (vectorstore.Storage, error) {
	switch c.Type {
	case "pinecone", "":
		client, err := PineconeClient(&config.AppConfig{VectorStore: c})
		if err != nil {
			return nil, err
		}
		return pinecone.NewStorage(client), nil
	case "qdrant":
		if c.Qdrant == nil {
			return nil, fmt.Errorf("qdrant config missing")
		}
		return qdrant.NewStorage(qdrant.Config{
			URL:        c.Qdrant.URL,
			APIKey:     c.Qdrant.APIKey,
			Collection: c.Qdrant.Collection,
			Distance:   c.Qdrant.Distance,
			Timeout:    secs(c.Qdrant.TimeoutSecs),
		}), nil
	case "memory":
		return memory.NewStorage(), nil
	default:
		return nil, fmt.Errorf("unknown vector store: %s", c.Type)
	}
}

func buildReranker(c config.RerankerConfig) (rerank.Reranker, error) {
	switch c.Type {
	case "cohere", "":
		if c.Cohere == nil {
			return nil, fmt.Errorf("cohere reranker config missing")
		}
		key, err := config.APIKey(c.Cohere.APIKeyEnv)
		if err != nil {
			return nil, err
		}
		return cohere.NewClient(cohere.Config{
			BaseURL: c.Cohere.BaseURL,
			APIKey:  key,
			Model:   c.Cohere.Model,
			Timeout: secs(c.Cohere.TimeoutSecs),
		})
	case "none":
		return rerank.Passthrough{}, nil
	default:
		return nil, fmt.Errorf("unknown reranker: %s", c.Type)
	}
}

func buildCompleter(ctx context.Context, c config.LLMConfig) (llm.Completer, error) {
	key, err := config.APIKey(c.APIKeyEnv)
	if err != nil {
		return nil, err
	}
	switch c.Type {
	case "groq", "openai", "":
		return oallm.New(oallm.Config{
			BaseURL:     c.BaseURL,
			APIKey:      key,
			Model:       c.Model,
			Temperature: c.Temperature,
			MaxTokens:   c.MaxTokens,
			Timeout:     secs(c.TimeoutSecs),
		})
	case "anthropic":
		return anthropic.New(anthropic.Config{
			BaseURL:     c.BaseURL,
			APIKey:      key,
			Model:       c.Model,
			Temperature: c.Temperature,
			MaxTokens:   c.MaxTokens,
			Timeout:     secs(c.TimeoutSecs),
		})
	case "gemini":
		return gemllm.New(ctx, gemllm.Config{
			APIKey:      key,
			Model:       c.Model,
			Temperature: c.Temperature,
			MaxTokens:   c.MaxTokens,
		})
	default:
		return nil, fmt.Errorf("unknown llm: %s", c.Type)
	}
}

func secs(n int) time.Duration { return time.Duration(n) * time.Second }
