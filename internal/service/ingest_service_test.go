package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/schle1cherr/docrag/internal/model"
)

type fixedEmbedder struct {
	dim int
}

func (f *fixedEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return make([]float32, f.dim), nil
}

func (f *fixedEmbedder) ModelName() string {
	return "fixed-test-model"
}

func TestIngestEmbed_MatchingDimensionPassesThrough(t *testing.T) {
	s := NewIngestService(nil, nil, nil, &fixedEmbedder{dim: 768}, 768)
	embedding := s.embed(context.Background(), model.Chunk{Content: "§ 5 Gebühren"})
	require.Len(t, embedding, 768)
}

func TestIngestEmbed_MismatchedDimensionFallsBackToLexical(t *testing.T) {
	// A model returning 1536-dim vectors against a 768-dim index must not
	// poison the insert; the chunk is stored without an embedding instead.
	s := NewIngestService(nil, nil, nil, &fixedEmbedder{dim: 1536}, 768)
	embedding := s.embed(context.Background(), model.Chunk{Content: "§ 5 Gebühren", Source: "satzung.pdf"})
	require.Nil(t, embedding)
}

func TestIngestEmbed_NoEmbedderConfigured(t *testing.T) {
	s := NewIngestService(nil, nil, nil, nil, 768)
	require.Nil(t, s.embed(context.Background(), model.Chunk{Content: "text"}))
}
