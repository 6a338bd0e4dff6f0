package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/schle1cherr/docrag/internal/model"
)

type fakeRetriever struct {
	chunks []model.Chunk
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query string, k int) ([]model.Chunk, error) {
	if len(f.chunks) > k {
		return f.chunks[:k], nil
	}
	return f.chunks, nil
}

func ch(source string, page int, content string) model.Chunk {
	return model.Chunk{Content: content, Source: source, PageNumber: model.PageRef(page)}
}

func mustFusion(t *testing.T, dense, sparse Retriever, policy Policy, dw, sw float64, k int) *Fusion {
	t.Helper()
	f, err := NewFusion(dense, sparse, policy, dw, sw, k)
	require.NoError(t, err)
	return f
}

func TestNewFusion_RejectsBadConfig(t *testing.T) {
	dense := &fakeRetriever{}
	sparse := &fakeRetriever{}

	_, err := NewFusion(dense, sparse, Policy("blend"), 0.3, 0.7, 6)
	require.Error(t, err)

	_, err = NewFusion(dense, sparse, PolicyInterleave, 0.3, 0.7, 0)
	require.Error(t, err)

	_, err = NewFusion(dense, sparse, PolicyWeighted, -0.1, 0.7, 6)
	require.Error(t, err)

	_, err = NewFusion(dense, sparse, PolicyWeighted, 0, 0, 6)
	require.Error(t, err)

	_, err = NewFusion(nil, sparse, PolicyInterleave, 0.3, 0.7, 6)
	require.Error(t, err)
}

func TestFusion_Interleave_SparseClaimsSlotsFirst(t *testing.T) {
	sparse := &fakeRetriever{chunks: []model.Chunk{
		ch("a.pdf", 1, "sparse top"),
		ch("b.pdf", 2, "sparse second"),
	}}
	dense := &fakeRetriever{chunks: []model.Chunk{
		ch("b.pdf", 2, "same page, other text"),
		ch("c.pdf", 3, "dense only"),
	}}
	f := mustFusion(t, dense, sparse, PolicyInterleave, 0.3, 0.7, 6)

	results, err := f.Retrieve(context.Background(), "gebühren")
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.Equal(t, "a.pdf", results[0].Chunk.Source)
	require.Equal(t, "b.pdf", results[1].Chunk.Source)
	require.Equal(t, "c.pdf", results[2].Chunk.Source)
	// The duplicate (b.pdf, 2) keeps the sparse text and records both ranks.
	require.Equal(t, "sparse second", results[1].Chunk.Content)
	require.Equal(t, 1, results[1].SparseRank)
	require.Equal(t, 0, results[1].DenseRank)
}

func TestFusion_TruncatesToK(t *testing.T) {
	sparse := &fakeRetriever{chunks: []model.Chunk{
		ch("a.pdf", 1, "1"), ch("b.pdf", 1, "2"), ch("c.pdf", 1, "3"),
	}}
	dense := &fakeRetriever{chunks: []model.Chunk{
		ch("d.pdf", 1, "4"), ch("e.pdf", 1, "5"),
	}}
	f := mustFusion(t, dense, sparse, PolicyInterleave, 0.3, 0.7, 4)

	results, err := f.Retrieve(context.Background(), "q")
	require.NoError(t, err)
	require.Len(t, results, 4)

	seen := map[model.ChunkKey]bool{}
	for _, res := range results {
		key := res.Chunk.Key()
		require.False(t, seen[key], "duplicate key in fused output")
		seen[key] = true
	}
}

func TestFusion_OneEmptyRetriever_ReturnsOtherInOrder(t *testing.T) {
	chunks := []model.Chunk{
		ch("a.pdf", 1, "first"),
		ch("a.pdf", 2, "second"),
		ch("b.pdf", 1, "third"),
	}
	for _, policy := range []Policy{PolicyInterleave, PolicyWeighted} {
		f := mustFusion(t, &fakeRetriever{}, &fakeRetriever{chunks: chunks}, policy, 0.3, 0.7, 6)
		results, err := f.Retrieve(context.Background(), "q")
		require.NoError(t, err)
		require.Len(t, results, 3, "policy %s", policy)
		for i, res := range results {
			require.Equal(t, chunks[i].Content, res.Chunk.Content, "policy %s", policy)
		}

		f = mustFusion(t, &fakeRetriever{chunks: chunks}, &fakeRetriever{}, policy, 0.3, 0.7, 6)
		results, err = f.Retrieve(context.Background(), "q")
		require.NoError(t, err)
		require.Len(t, results, 3, "policy %s", policy)
		for i, res := range results {
			require.Equal(t, chunks[i].Content, res.Chunk.Content, "policy %s", policy)
		}
	}
}

func TestFusion_BothEmpty_ReturnsEmptyNotError(t *testing.T) {
	for _, policy := range []Policy{PolicyInterleave, PolicyWeighted} {
		f := mustFusion(t, &fakeRetriever{}, &fakeRetriever{}, policy, 0.3, 0.7, 6)
		results, err := f.Retrieve(context.Background(), "q")
		require.NoError(t, err)
		require.Empty(t, results)
	}
}

func TestFusion_Weighted_BlendsRankScores(t *testing.T) {
	sparse := &fakeRetriever{chunks: []model.Chunk{
		ch("a.pdf", 1, "A"),
		ch("b.pdf", 1, "B"),
	}}
	dense := &fakeRetriever{chunks: []model.Chunk{
		ch("b.pdf", 1, "B dense"),
		ch("c.pdf", 1, "C"),
	}}
	f := mustFusion(t, dense, sparse, PolicyWeighted, 0.3, 0.7, 6)

	results, err := f.Retrieve(context.Background(), "q")
	require.NoError(t, err)
	require.Len(t, results, 3)
	// A: 0.7*1.0 = 0.70; B: 0.7*0.5 + 0.3*1.0 = 0.65; C: 0.3*0.5 = 0.15
	require.Equal(t, "a.pdf", results[0].Chunk.Source)
	require.Equal(t, "b.pdf", results[1].Chunk.Source)
	require.Equal(t, "c.pdf", results[2].Chunk.Source)
	require.InDelta(t, 0.70, results[0].Score, 1e-9)
	require.InDelta(t, 0.65, results[1].Score, 1e-9)
	require.InDelta(t, 0.15, results[2].Score, 1e-9)
}

func TestFusion_Weighted_TieBreakPrefersSparseOrder(t *testing.T) {
	sparse := &fakeRetriever{chunks: []model.Chunk{ch("a.pdf", 1, "A")}}
	dense := &fakeRetriever{chunks: []model.Chunk{ch("b.pdf", 1, "B")}}
	f := mustFusion(t, dense, sparse, PolicyWeighted, 0.5, 0.5, 6)

	results, err := f.Retrieve(context.Background(), "q")
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "a.pdf", results[0].Chunk.Source)
	require.Equal(t, "b.pdf", results[1].Chunk.Source)
}
