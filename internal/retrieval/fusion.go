package retrieval

import (
	"context"
	"fmt"
	"sort"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/schle1cherr/docrag/internal/model"
)

type Policy string

const (
	// PolicyInterleave lets the sparse list claim the first slots in sparse
	// rank order, then fills the rest from the dense list. The empirically
	// chosen sparse-dominant weighting expressed structurally.
	PolicyInterleave Policy = "interleave"
	// PolicyWeighted blends rank-normalized scores from both lists.
	PolicyWeighted Policy = "weighted"
)

// Fusion merges the ranked lists of a dense and a sparse retriever into one
// sequence of at most k results. It holds no per-query state and is safe for
// concurrent use.
type Fusion struct {
	dense        Retriever
	sparse       Retriever
	policy       Policy
	denseWeight  float64
	sparseWeight float64
	k            int
}

func NewFusion(dense, sparse Retriever, policy Policy, denseWeight, sparseWeight float64, k int) (*Fusion, error) {
	if dense == nil || sparse == nil {
		return nil, fmt.Errorf("fusion requires both a dense and a sparse retriever")
	}
	if policy != PolicyInterleave && policy != PolicyWeighted {
		return nil, fmt.Errorf("unknown fusion policy: %s", policy)
	}
	if k <= 0 {
		return nil, fmt.Errorf("fusion k must be positive, got %d", k)
	}
	if denseWeight < 0 || sparseWeight < 0 || denseWeight+sparseWeight <= 0 {
		return nil, fmt.Errorf("fusion weights must be non-negative and sum to a positive value")
	}
	return &Fusion{
		dense:        dense,
		sparse:       sparse,
		policy:       policy,
		denseWeight:  denseWeight,
		sparseWeight: sparseWeight,
		k:            k,
	}, nil
}

// Retrieve queries both retrievers and fuses their lists. An empty result
// means neither retriever found relevant chunks; that is a defined outcome,
// not an error.
func (f *Fusion) Retrieve(ctx context.Context, query string) ([]model.RetrievalResult, error) {
	denseChunks, err := f.dense.Retrieve(ctx, query, f.k)
	if err != nil {
		return nil, fmt.Errorf("dense retrieval: %w", err)
	}
	sparseChunks, err := f.sparse.Retrieve(ctx, query, f.k)
	if err != nil {
		return nil, fmt.Errorf("sparse retrieval: %w", err)
	}
	logutil.GetLogger(ctx).Debug("retriever results",
		zap.Int("dense", len(denseChunks)),
		zap.Int("sparse", len(sparseChunks)),
	)

	candidates := collect(sparseChunks, denseChunks)
	switch f.policy {
	case PolicyWeighted:
		f.scoreWeighted(candidates, len(denseChunks), len(sparseChunks))
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].Score > candidates[j].Score
		})
	default:
		// Interleave order is exactly the collection order: sparse ranks
		// first, then unclaimed dense ranks.
	}
	if len(candidates) > f.k {
		candidates = candidates[:f.k]
	}
	return candidates, nil
}

// collect merges both lists in sparse-precedence order, deduplicating on the
// (source, page_number) key while recording each chunk's rank per retriever.
func collect(sparseChunks, denseChunks []model.Chunk) []model.RetrievalResult {
	seen := make(map[model.ChunkKey]int)
	results := make([]model.RetrievalResult, 0, len(sparseChunks)+len(denseChunks))
	for rank, chunk := range sparseChunks {
		key := chunk.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = len(results)
		results = append(results, model.RetrievalResult{
			Chunk:      chunk,
			SparseRank: rank,
			DenseRank:  -1,
		})
	}
	for rank, chunk := range denseChunks {
		key := chunk.Key()
		if idx, ok := seen[key]; ok {
			if results[idx].DenseRank < 0 {
				results[idx].DenseRank = rank
			}
			continue
		}
		seen[key] = len(results)
		results = append(results, model.RetrievalResult{
			Chunk:      chunk,
			SparseRank: -1,
			DenseRank:  rank,
		})
	}
	return results
}

// scoreWeighted converts rank positions to normalized relevance (1.0 for the
// top rank, falling linearly) and blends them. A chunk absent from one list
// contributes 0 for that term.
func (f *Fusion) scoreWeighted(results []model.RetrievalResult, denseLen, sparseLen int) {
	for i := range results {
		var score float64
		if r := results[i].DenseRank; r >= 0 && denseLen > 0 {
			score += f.denseWeight * (1 - float64(r)/float64(denseLen))
		}
		if r := results[i].SparseRank; r >= 0 && sparseLen > 0 {
			score += f.sparseWeight * (1 - float64(r)/float64(sparseLen))
		}
		results[i].Score = score
	}
}
