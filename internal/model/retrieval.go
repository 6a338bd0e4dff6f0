package model

// RetrievalResult annotates a chunk with the retrievers that surfaced it and
// its 0-based rank in each list. Results live for a single query only.
type RetrievalResult struct {
	Chunk      Chunk
	DenseRank  int // -1 when the dense retriever did not return the chunk
	SparseRank int // -1 when the sparse retriever did not return the chunk
	Score      float64
}
