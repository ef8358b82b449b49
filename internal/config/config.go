package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	ModeDemo       = "demo"
	ModeProduction = "production"
)

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string   `yaml:"addr"`
	AllowOrigins []string `yaml:"allow_origins"`
}

// LoggingConfig configures the console logger. File, when set, adds a rotating log file.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`
}

// ChunkerConfig configures how documents are split into chunks in production mode.
type ChunkerConfig struct {
	Type              string `yaml:"type"`
	ChunkSize         int    `yaml:"chunk_size"`
	ChunkOverlap      int    `yaml:"chunk_overlap"`
	SentencesPerChunk int    `yaml:"sentences_per_chunk"`
	OverlapSentences  int    `yaml:"overlap_sentences"`
}

// GeminiEmbedderConfig configures Google embeddings.
type GeminiEmbedderConfig struct {
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	BatchSize   int    `yaml:"batch_size"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	Gemini *GeminiEmbedderConfig `yaml:"gemini,omitempty"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// VectorStoreConfig selects and configures the vector store implementation.
type VectorStoreConfig struct {
	Type     string          `yaml:"type"`
	Pinecone *PineconeConfig `yaml:"pinecone,omitempty"`
	Qdrant   *QdrantConfig   `yaml:"qdrant,omitempty"`
}

// PineconeConfig contains control and data plane settings for a Pinecone index.
type PineconeConfig struct {
	APIKeyEnv   string `yaml:"api_key_env"`
	ControlURL  string `yaml:"control_url"`
	IndexName   string `yaml:"index_name"`
	Namespace   string `yaml:"namespace"`
	Dimension   int    `yaml:"dimension"`
	Metric      string `yaml:"metric"`
	Cloud       string `yaml:"cloud"`
	Region      string `yaml:"region"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	Distance    string `yaml:"distance"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// RetrieverConfig controls MMR candidate selection.
type RetrieverConfig struct {
	K         int     `yaml:"k"`
	FetchK    int     `yaml:"fetch_k"`
	MMRLambda float64 `yaml:"mmr_lambda"`
}

// CohereConfig configures the hosted reranker.
type CohereConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// RerankerConfig selects the reranker. Type "none" keeps retrieval order.
type RerankerConfig struct {
	Type   string        `yaml:"type"`
	TopN   int           `yaml:"top_n"`
	Cohere *CohereConfig `yaml:"cohere,omitempty"`
}

// LLMConfig selects the answer model. BaseURL only applies to OpenAI-compatible providers.
type LLMConfig struct {
	Type        string  `yaml:"type"`
	Model       string  `yaml:"model"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	BaseURL     string  `yaml:"base_url"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutSecs int     `yaml:"timeout_secs"`
}

// PricingConfig holds per-1000-token rates used for cost estimates.
type PricingConfig struct {
	TokenizerModel string  `yaml:"tokenizer_model"`
	EmbeddingPer1K float64 `yaml:"embedding_per_1k"`
	LLMInputPer1K  float64 `yaml:"llm_input_per_1k"`
	LLMOutputPer1K float64 `yaml:"llm_output_per_1k"`
	DemoRatePer1K  float64 `yaml:"demo_rate_per_1k"`
}

// SummarizerConfig selects and configures the summarizer.
type SummarizerConfig struct {
	Type         string `yaml:"type"`
	MaxSentences int    `yaml:"max_sentences"`
}

// UploadConfig limits accepted uploads.
type UploadConfig struct {
	MaxBytes int64 `yaml:"max_bytes"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Mode        string            `yaml:"mode"`
	Server      ServerConfig      `yaml:"server"`
	Logging     LoggingConfig     `yaml:"logging"`
	Chunker     ChunkerConfig     `yaml:"chunker"`
	Embedder    EmbedderConfig    `yaml:"embedder"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Retriever   RetrieverConfig   `yaml:"retriever"`
	Reranker    RerankerConfig    `yaml:"reranker"`
	LLM         LLMConfig         `yaml:"llm"`
	Pricing     PricingConfig     `yaml:"pricing"`
	Summarizer  SummarizerConfig  `yaml:"summarizer"`
	Upload      UploadConfig      `yaml:"upload"`
}

// Demo reports whether the mock pipeline is selected.
func (c *AppConfig) Demo() bool { return c.Mode != ModeProduction }

// Load reads a config from a specified path. If the file does not exist, returns defaults.
// Environment overrides are applied in both cases.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := applyConfigDefaults(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	applyEnvOverrides(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/minirag/config.yaml.
// If neither exists, it writes defaults to ~/.config/minirag/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	applyEnvOverrides(cfg)
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// APIKey reads the key from the named environment variable.
func APIKey(envName string) (string, error) {
	key := os.Getenv(envName)
	if key == "" {
		return "", fmt.Errorf("missing API key in env %s", envName)
	}
	return key, nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "minirag", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Mode:        ModeDemo,
		Chunker:     ChunkerConfig{Type: "recursive"},
		Embedder:    EmbedderConfig{Type: "gemini"},
		VectorStore: VectorStoreConfig{Type: "pinecone"},
		Reranker:    RerankerConfig{Type: "cohere"},
		LLM:         LLMConfig{Type: "groq"},
		Summarizer:  SummarizerConfig{Type: "frequency"},
	}
	_ = applyConfigDefaults(cfg)
	return cfg
}

// applyConfigDefaults fills unset fields and rejects an unknown mode, so a
// typo never falls back to the demo pipeline.
func applyConfigDefaults(cfg *AppConfig) error {
	switch cfg.Mode {
	case "":
		cfg.Mode = ModeDemo
	case ModeDemo, ModeProduction:
	default:
		return fmt.Errorf("unknown mode %q (want %q or %q)", cfg.Mode, ModeDemo, ModeProduction)
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8000"
	}
	if len(cfg.Server.AllowOrigins) == 0 {
		cfg.Server.AllowOrigins = []string{"*"}
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	if cfg.Chunker.Type == "" {
		cfg.Chunker.Type = "recursive"
	}
	if cfg.Chunker.ChunkSize == 0 {
		cfg.Chunker.ChunkSize = 1000
	}
	if cfg.Chunker.ChunkOverlap == 0 {
		cfg.Chunker.ChunkOverlap = 150
	}
	if cfg.Chunker.SentencesPerChunk == 0 {
		cfg.Chunker.SentencesPerChunk = 5
	}

	switch cfg.Embedder.Type {
	case "gemini", "":
		cfg.Embedder.Type = "gemini"
		if cfg.Embedder.Gemini == nil {
			cfg.Embedder.Gemini = &GeminiEmbedderConfig{}
		}
		if cfg.Embedder.Gemini.APIKeyEnv == "" {
			cfg.Embedder.Gemini.APIKeyEnv = "GOOGLE_API_KEY"
		}
		if cfg.Embedder.Gemini.Model == "" {
			cfg.Embedder.Gemini.Model = "text-embedding-004"
		}
		if cfg.Embedder.Gemini.Dimension == 0 {
			cfg.Embedder.Gemini.Dimension = 768
		}
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
		if cfg.Embedder.OpenAI.BatchSize == 0 {
			cfg.Embedder.OpenAI.BatchSize = 32
		}
	}

	switch cfg.VectorStore.Type {
	case "pinecone", "":
		cfg.VectorStore.Type = "pinecone"
		if cfg.VectorStore.Pinecone == nil {
			cfg.VectorStore.Pinecone = &PineconeConfig{}
		}
		p := cfg.VectorStore.Pinecone
		if p.APIKeyEnv == "" {
			p.APIKeyEnv = "PINECONE_API_KEY"
		}
		if p.ControlURL == "" {
			p.ControlURL = "https://api.pinecone.io"
		}
		if p.IndexName == "" {
			p.IndexName = "rag-index"
		}
		if p.Dimension == 0 {
			p.Dimension = 768
		}
		if p.Metric == "" {
			p.Metric = "cosine"
		}
		if p.Cloud == "" {
			p.Cloud = "aws"
		}
		if p.Region == "" {
			p.Region = "us-east-1"
		}
		if p.TimeoutSecs == 0 {
			p.TimeoutSecs = 30
		}
	case "qdrant":
		if cfg.VectorStore.Qdrant == nil {
			cfg.VectorStore.Qdrant = &QdrantConfig{}
		}
		q := cfg.VectorStore.Qdrant
		if q.URL == "" {
			q.URL = "http://localhost:6333"
		}
		if q.Collection == "" {
			q.Collection = "minirag"
		}
		if q.Distance == "" {
			q.Distance = "Cosine"
		}
		if q.TimeoutSecs == 0 {
			q.TimeoutSecs = 15
		}
	}

	if cfg.Retriever.K == 0 {
		cfg.Retriever.K = 10
	}
	if cfg.Retriever.FetchK == 0 {
		cfg.Retriever.FetchK = 20
	}
	if cfg.Retriever.MMRLambda == 0 {
		cfg.Retriever.MMRLambda = 0.5
	}

	if cfg.Reranker.Type == "" {
		cfg.Reranker.Type = "cohere"
	}
	if cfg.Reranker.TopN == 0 {
		cfg.Reranker.TopN = 3
	}
	if cfg.Reranker.Type == "cohere" {
		if cfg.Reranker.Cohere == nil {
			cfg.Reranker.Cohere = &CohereConfig{}
		}
		c := cfg.Reranker.Cohere
		if c.BaseURL == "" {
			c.BaseURL = "https://api.cohere.com"
		}
		if c.APIKeyEnv == "" {
			c.APIKeyEnv = "COHERE_API_KEY"
		}
		if c.Model == "" {
			c.Model = "rerank-english-v3.0"
		}
		if c.TimeoutSecs == 0 {
			c.TimeoutSecs = 30
		}
	}

	applyLLMDefaults(&cfg.LLM)

	if cfg.Pricing.TokenizerModel == "" {
		cfg.Pricing.TokenizerModel = "gpt-3.5-turbo"
	}
	if cfg.Pricing.EmbeddingPer1K == 0 {
		cfg.Pricing.EmbeddingPer1K = 0.0000125
	}
	if cfg.Pricing.LLMInputPer1K == 0 {
		cfg.Pricing.LLMInputPer1K = 0.0001
	}
	if cfg.Pricing.LLMOutputPer1K == 0 {
		cfg.Pricing.LLMOutputPer1K = 0.0001
	}
	if cfg.Pricing.DemoRatePer1K == 0 {
		cfg.Pricing.DemoRatePer1K = 0.0001
	}

	if cfg.Summarizer.Type == "" {
		cfg.Summarizer.Type = "frequency"
	}
	if cfg.Summarizer.MaxSentences == 0 {
		cfg.Summarizer.MaxSentences = 3
	}
	if cfg.Upload.MaxBytes == 0 {
		cfg.Upload.MaxBytes = 20 << 20
	}
	return nil
}

func applyLLMDefaults(l *LLMConfig) {
	if l.Type == "" {
		l.Type = "groq"
	}
	switch l.Type {
	case "groq":
		if l.Model == "" {
			l.Model = "llama3-8b-8192"
		}
		if l.APIKeyEnv == "" {
			l.APIKeyEnv = "GROQ_API_KEY"
		}
		if l.BaseURL == "" {
			l.BaseURL = "https://api.groq.com/openai/v1"
		}
	case "openai":
		if l.Model == "" {
			l.Model = "gpt-4o-mini"
		}
		if l.APIKeyEnv == "" {
			l.APIKeyEnv = "OPENAI_API_KEY"
		}
	case "anthropic":
		if l.Model == "" {
			l.Model = "claude-3-5-haiku-latest"
		}
		if l.APIKeyEnv == "" {
			l.APIKeyEnv = "ANTHROPIC_API_KEY"
		}
	case "gemini":
		if l.Model == "" {
			l.Model = "gemini-1.5-flash"
		}
		if l.APIKeyEnv == "" {
			l.APIKeyEnv = "GOOGLE_API_KEY"
		}
	}
	if l.MaxTokens == 0 {
		l.MaxTokens = 1024
	}
	if l.TimeoutSecs == 0 {
		l.TimeoutSecs = 60
	}
}

// applyEnvOverrides lets deployment variables win over the file.
func applyEnvOverrides(cfg *AppConfig) {
	if v, ok := os.LookupEnv("DEMO_MODE"); ok {
		if strings.EqualFold(strings.TrimSpace(v), "true") {
			cfg.Mode = ModeDemo
		} else {
			cfg.Mode = ModeProduction
		}
	}
	if v := os.Getenv("PINECONE_INDEX_NAME"); v != "" && cfg.VectorStore.Pinecone != nil {
		cfg.VectorStore.Pinecone.IndexName = v
	}
	if v := os.Getenv("MINIRAG_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
