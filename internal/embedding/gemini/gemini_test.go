package gemini

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresKey(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.ErrorContains(t, err, "missing API key")
}

func TestNewAppliesDefaults(t *testing.T) {
	e, err := New(context.Background(), Config{APIKey: "test-key"})
	require.NoError(t, err)
	assert.Equal(t, "gemini", e.Name())
	assert.Equal(t, 768, e.Dimension())
	assert.Equal(t, "text-embedding-004", e.model)
}
