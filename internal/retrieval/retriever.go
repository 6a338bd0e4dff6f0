package retrieval

import (
	"context"

	"github.com/schle1cherr/docrag/internal/ai"
	"github.com/schle1cherr/docrag/internal/model"
	"github.com/schle1cherr/docrag/internal/repo"
)

// Retriever ranks chunks for a query, best first, returning at most k.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]model.Chunk, error)
}

// DenseRetriever answers queries through embedding similarity against the
// vector index.
type DenseRetriever struct {
	embedder ai.IEmbedder
	chunks   *repo.ChunkRepo
}

func NewDenseRetriever(embedder ai.IEmbedder, chunks *repo.ChunkRepo) *DenseRetriever {
	return &DenseRetriever{embedder: embedder, chunks: chunks}
}

func (r *DenseRetriever) Retrieve(ctx context.Context, query string, k int) ([]model.Chunk, error) {
	if r.embedder == nil {
		// Lexical-only deployment, the sparse side still works.
		return nil, nil
	}
	embedding, err := r.embedder.Embed(ctx, query, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, err
	}
	return r.chunks.SearchDense(ctx, embedding, k)
}

// SparseRetriever answers queries through lexical full-text matching.
type SparseRetriever struct {
	chunks *repo.ChunkRepo
}

func NewSparseRetriever(chunks *repo.ChunkRepo) *SparseRetriever {
	return &SparseRetriever{chunks: chunks}
}

func (r *SparseRetriever) Retrieve(ctx context.Context, query string, k int) ([]model.Chunk, error) {
	return r.chunks.SearchLexical(ctx, query, k)
}
