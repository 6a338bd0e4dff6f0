package assemble

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/schle1cherr/docrag/internal/model"
)

// Outcome classifies how an assembly run terminated.
type Outcome string

const (
	// OutcomeOK means at least one chunk made it into the context.
	OutcomeOK Outcome = "ok"
	// OutcomeEmptyRetrieval means the fused sequence was empty: no relevant
	// information exists.
	OutcomeEmptyRetrieval Outcome = "empty_retrieval"
	// OutcomeBudgetExhausted means chunks were available but even the best
	// candidate alone exceeded the budget. Distinct from OutcomeEmptyRetrieval
	// so callers can tell "nothing found" from "found but unusable".
	OutcomeBudgetExhausted Outcome = "budget_exhausted"
)

// Context is the bounded evidence context built for one request. Immutable
// after construction, never persisted.
type Context struct {
	Text      string
	Included  []model.Chunk
	Citations []string
	Outcome   Outcome
}

// Assembler packs fused chunks into a character-bounded context string.
// It keeps no per-request state and is safe for concurrent use.
type Assembler struct {
	budget int
}

func New(budget int) (*Assembler, error) {
	if budget <= 0 {
		return nil, fmt.Errorf("context budget must be positive, got %d", budget)
	}
	return &Assembler{budget: budget}, nil
}

// Assemble re-orders the fused sequence shortest-first and greedily packs
// chunks until one would overflow the budget. Shortest-first maximizes the
// number of distinct, independently verifiable passages in the context.
// Packing stops at the first overflow rather than skipping ahead, keeping
// the result deterministic.
func (a *Assembler) Assemble(results []model.RetrievalResult) Context {
	if len(results) == 0 {
		return Context{Outcome: OutcomeEmptyRetrieval}
	}

	chunks := make([]model.Chunk, 0, len(results))
	for _, res := range results {
		chunks = append(chunks, res.Chunk)
	}
	sort.SliceStable(chunks, func(i, j int) bool {
		return len(chunks[i].Content) < len(chunks[j].Content)
	})

	var sb strings.Builder
	var included []model.Chunk
	seen := make(map[model.ChunkKey]struct{})
	total := 0
	for _, chunk := range chunks {
		// Fusion may have been configured to let duplicates through, so the
		// assembler deduplicates again on its own.
		key := chunk.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		content := strings.TrimSpace(chunk.Content)
		if total+len(content) > a.budget {
			break
		}
		sb.WriteString(content)
		sb.WriteString("\n")
		total += len(content)
		included = append(included, chunk)
		seen[key] = struct{}{}
	}

	if len(included) == 0 {
		return Context{Outcome: OutcomeBudgetExhausted}
	}
	return Context{
		Text:      sb.String(),
		Included:  included,
		Citations: citations(included),
		Outcome:   OutcomeOK,
	}
}

// citations renders one human-readable reference per included chunk, in
// inclusion order. Inclusion is already deduplicated, so citations are too.
func citations(included []model.Chunk) []string {
	refs := make([]string, 0, len(included))
	for _, chunk := range included {
		page := "-"
		if chunk.PageNumber != nil {
			page = strconv.Itoa(*chunk.PageNumber)
		}
		ref := chunk.Source + " (page " + page
		if chunk.SectionLabel != "" {
			ref += ", section " + chunk.SectionLabel
		}
		ref += ")"
		refs = append(refs, ref)
	}
	return refs
}
