package cohere

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
	"github.com/cohere-ai/cohere-go/v2/option"

	"minirag/internal/rerank"
)

// Client reranks documents with a Cohere rerank model.
type Client struct {
	client *cohereclient.Client
	model  string
}

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("cohere: missing API key")
	}
	if cfg.Model == "" {
		cfg.Model = "rerank-english-v3.0"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	opts := []option.RequestOption{
		option.WithToken(cfg.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		option.WithMaxAttempts(1),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Client{client: cohereclient.NewClient(opts...), model: cfg.Model}, nil
}

func (c *Client) Rerank(ctx context.Context, query string, documents []string, topN int) ([]rerank.Result, error) {
	if len(documents) == 0 {
		return nil, nil
	}
	docs := make([]*cohere.RerankRequestDocumentsItem, len(documents))
	for i, d := range documents {
		docs[i] = &cohere.RerankRequestDocumentsItem{String: d}
	}
	model := c.model
	returnDocuments := false
	req := &cohere.RerankRequest{
		Model:           &model,
		Query:           query,
		Documents:       docs,
		ReturnDocuments: &returnDocuments,
	}
	if topN > 0 {
		n := min(topN, len(documents))
		req.TopN = &n
	}

	resp, err := c.client.Rerank(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("cohere rerank: %w", err)
	}
	results := make([]rerank.Result, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r == nil {
			continue
		}
		if r.Index < 0 || r.Index >= len(documents) {
			return nil, fmt.Errorf("cohere rerank: index %d out of range", r.Index)
		}
		results = append(results, rerank.Result{Index: r.Index, Score: r.RelevanceScore})
	}
	return results, nil
}
