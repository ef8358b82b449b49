package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/messages"))
		assert.Equal(t, "sk-ant-test", r.Header.Get("X-Api-Key"))
		var body struct {
			Model     string `json:"model"`
			MaxTokens int    `json:"max_tokens"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "claude-test", body.Model)
		assert.Equal(t, 256, body.MaxTokens)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-test",
			"content":[{"type":"text","text":"Paris is the capital of France [1]."}],
			"stop_reason":"end_turn","usage":{"input_tokens":10,"output_tokens":8}}`))
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL, APIKey: "sk-ant-test", Model: "claude-test", MaxTokens: 256})
	require.NoError(t, err)
	got, err := c.Complete(context.Background(), "the prompt")
	require.NoError(t, err)
	assert.Equal(t, "Paris is the capital of France [1].", got)
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New(Config{Model: "m"})
	assert.Error(t, err)
}
