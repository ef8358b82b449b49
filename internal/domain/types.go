package domain

// ChunkMetadata describes where a chunk came from.
type ChunkMetadata struct {
	Source   string `json:"source"`
	Title    string `json:"title"`
	Position int    `json:"position"`
}

// Chunk is a contiguous span of an uploaded document used for indexing and retrieval.
// Position is 1-based over the chunks emitted for one upload.
type Chunk struct {
	Content  string        `json:"page_content"`
	Metadata ChunkMetadata `json:"metadata"`
}

// CostBreakdown is the estimated spend for answering a single query.
type CostBreakdown struct {
	EmbeddingTokens int     `json:"embedding_tokens"`
	LLMInputTokens  int     `json:"llm_input_tokens"`
	LLMOutputTokens int     `json:"llm_output_tokens"`
	EmbeddingCost   float64 `json:"embedding_cost"`
	LLMInputCost    float64 `json:"llm_input_cost"`
	LLMOutputCost   float64 `json:"llm_output_cost"`
	TotalCost       float64 `json:"total_cost"`
}

// TokenUsage reports token counts for the prompt and response of one query.
type TokenUsage struct {
	ContextTokens  int `json:"context_tokens"`
	QueryTokens    int `json:"query_tokens"`
	PromptTokens   int `json:"prompt_tokens"`
	OutputTokens   int `json:"output_tokens"`
	TotalLLMTokens int `json:"total_llm_tokens"`
}

// NewTokenUsage fills TotalLLMTokens as prompt + output.
func NewTokenUsage(context, query, prompt, output int) TokenUsage {
	return TokenUsage{
		ContextTokens:  context,
		QueryTokens:    query,
		PromptTokens:   prompt,
		OutputTokens:   output,
		TotalLLMTokens: prompt + output,
	}
}

// AnswerResult is returned for every answered query.
type AnswerResult struct {
	Answer        string        `json:"answer"`
	Sources       []Chunk       `json:"sources"`
	Timing        float64       `json:"timing"`
	CostBreakdown CostBreakdown `json:"cost_breakdown"`
	TokenUsage    TokenUsage    `json:"token_usage"`
}
