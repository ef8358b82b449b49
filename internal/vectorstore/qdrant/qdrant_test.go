package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minirag/internal/domain"
	"minirag/internal/vectorstore"
)

func TestStorageRoundTrip(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("api-key"))
		switch {
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodPut && r.URL.Path == "/collections/docs":
			var body map[string]map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, float64(3), body["vectors"]["size"])
			_, _ = w.Write([]byte(`{"result":true}`))
		case r.Method == http.MethodPut && r.URL.Path == "/collections/docs/points":
			var body struct {
				Points []map[string]any `json:"points"`
			}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Len(t, body.Points, 1)
			assert.Equal(t, "id-1", body.Points[0]["id"])
			_, _ = w.Write([]byte(`{"result":{"status":"completed"}}`))
		case r.Method == http.MethodPost:
			_, _ = w.Write([]byte(`{"result":[{"id":"id-1","score":0.9,"vector":[1,0,0],
				"payload":{"page_content":"Paris is the capital of France.","source":"f.txt","title":"f.txt","position":1}}]}`))
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	s := NewStorage(Config{URL: srv.URL, APIKey: "secret", Collection: "docs"})
	require.NoError(t, s.Reset(ctx, 3))
	require.NoError(t, s.Upsert(ctx, []vectorstore.Record{{
		ID:     "id-1",
		Vector: []float32{1, 0, 0},
		Chunk:  domain.Chunk{Content: "Paris is the capital of France."},
	}}))
	got, err := s.Search(ctx, []float32{1, 0, 0}, 4)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Paris is the capital of France.", got[0].Chunk.Content)
	assert.Equal(t, 1, got[0].Chunk.Metadata.Position)
	assert.Equal(t, []float32{1, 0, 0}, got[0].Vector)
	assert.Equal(t, []string{
		"DELETE /collections/docs",
		"PUT /collections/docs",
		"PUT /collections/docs/points",
		"POST /collections/docs/points/search",
	}, calls)
}

func TestResetPropagatesServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status":{"error":"forbidden"}}`, http.StatusForbidden)
	}))
	defer srv.Close()

	s := NewStorage(Config{URL: srv.URL, Collection: "docs"})
	err := s.Reset(context.Background(), 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forbidden")
}
