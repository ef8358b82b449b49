package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minirag/internal/domain"
	"minirag/internal/vectorstore"
)

func record(id string, vec ...float32) vectorstore.Record {
	return vectorstore.Record{ID: id, Vector: vec, Chunk: domain.Chunk{Content: id}}
}

func TestSearchOrdersByCosine(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	require.NoError(t, s.Reset(ctx, 2))
	require.NoError(t, s.Upsert(ctx, []vectorstore.Record{
		record("east", 1, 0),
		record("north", 0, 1),
		record("northeast", 1, 1),
	}))

	got, err := s.Search(ctx, []float32{0, 2}, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "north", got[0].Chunk.Content)
	assert.Equal(t, "northeast", got[1].Chunk.Content)
	assert.InDelta(t, 1.0, got[0].Score, 1e-9)
	assert.Equal(t, []float32{0, 1}, got[0].Vector)
}

func TestResetClearsAndValidates(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	assert.Error(t, s.Reset(ctx, 0))

	require.NoError(t, s.Reset(ctx, 2))
	require.NoError(t, s.Upsert(ctx, []vectorstore.Record{record("a", 1, 0)}))
	assert.Equal(t, 1, s.Len())
	assert.Error(t, s.Upsert(ctx, []vectorstore.Record{record("bad", 1, 0, 0)}))

	require.NoError(t, s.Reset(ctx, 3))
	assert.Equal(t, 0, s.Len())
	got, err := s.Search(ctx, []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}
