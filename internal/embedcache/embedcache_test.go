package embedcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls int
}

func (c *countingEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	c.calls++
	return []float32{1, 2, 3}, nil
}

func (c *countingEmbedder) ModelName() string {
	return "test-model"
}

func TestWrap_CachesRepeatedQueries(t *testing.T) {
	inner := &countingEmbedder{}
	cached := Wrap(inner, 10, time.Minute)

	first, err := cached.Embed(context.Background(), "hello", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	second, err := cached.Embed(context.Background(), "hello", "RETRIEVAL_QUERY")
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, 1, inner.calls)
}

func TestWrap_KeySeparatesTaskTypes(t *testing.T) {
	inner := &countingEmbedder{}
	cached := Wrap(inner, 10, time.Minute)

	_, err := cached.Embed(context.Background(), "hello", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	_, err = cached.Embed(context.Background(), "hello", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)

	require.Equal(t, 2, inner.calls)
}

func TestWrap_CachedValueIsIsolated(t *testing.T) {
	inner := &countingEmbedder{}
	cached := Wrap(inner, 10, time.Minute)

	first, err := cached.Embed(context.Background(), "hello", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	first[0] = 99

	second, err := cached.Embed(context.Background(), "hello", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	require.Equal(t, float32(1), second[0])
}

func TestWrap_DisabledPassesThrough(t *testing.T) {
	inner := &countingEmbedder{}
	require.Equal(t, inner, Wrap(inner, 0, time.Minute))
	require.Nil(t, Wrap(nil, 10, time.Minute))
}
