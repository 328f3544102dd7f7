package cohere

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToFloat32(t *testing.T) {
	got := toFloat32([]float64{0.5, -1, 2.25})
	assert.Equal(t, []float32{0.5, -1, 2.25}, got)
}

func TestEmptyInputsSkipTheAPI(t *testing.T) {
	c := NewClient("unused", "embed-v4.0", "rerank-v3.5", 4)

	embs, err := c.EmbedDocuments(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, embs)

	ranked, err := c.Rerank(context.Background(), "q", nil, 5)
	require.NoError(t, err)
	assert.Nil(t, ranked)
}

func TestEmbedQuery_CancelledContext(t *testing.T) {
	c := NewClient("unused", "embed-v4.0", "rerank-v3.5", 4)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	emb, err := c.EmbedQuery(ctx, "superseded search")
	require.Error(t, err)
	assert.Nil(t, emb)
	assert.Contains(t, err.Error(), "embed query")
}
