package model

// Chunk is the atomic retrievable unit produced by extraction. Content is
// never mutated after creation; re-ingesting a file replaces its chunks.
type Chunk struct {
	ID           int64  `json:"id,omitempty"`
	Content      string `json:"content"`
	Source       string `json:"source"`
	PageNumber   *int   `json:"page_number,omitempty"`
	SectionLabel string `json:"section_label,omitempty"`
	// Position is the 0-based reading-order index within one extraction pass.
	Position int `json:"position"`
}

// Key identifies a chunk for deduplication purposes. Two chunks from the
// same source and page are treated as the same passage even if their text
// differs.
func (c Chunk) Key() ChunkKey {
	page := 0
	if c.PageNumber != nil {
		page = *c.PageNumber
	}
	return ChunkKey{Source: c.Source, Page: page, HasPage: c.PageNumber != nil}
}

type ChunkKey struct {
	Source  string
	Page    int
	HasPage bool
}

// PageRef returns a pointer to v, for building chunks with a page number.
func PageRef(v int) *int {
	return &v
}
