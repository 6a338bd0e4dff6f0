package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/schle1cherr/docrag/internal/model"
)

// sectionStart matches the beginning of a numbered legal section marker:
// a section symbol, a number, an optional letter suffix and an optional
// sub-clause ("Abs.") marker. Split points are taken at match starts so the
// marker stays attached to the following chunk.
var sectionStart = regexp.MustCompile(`\n?\s*§\s?\d+[a-zA-Z]?(?:\s*Abs\.\s*\d+)?\b`)

// sectionLabel captures the section number out of an emitted chunk.
var sectionLabel = regexp.MustCompile(`§\s?(\d+[a-zA-Z]?)`)

// numberedStart matches a logical line that opens a numbered paragraph:
// one or two digits followed by a period or whitespace and a word.
var numberedStart = regexp.MustCompile(`^\d{1,2}[.\s]\s*\pL`)

// mergeLines repairs text reflowed incorrectly by page extraction. Empty
// lines are dropped; a line starting with a lowercase letter (including
// accented characters and ß) continues the previous logical line and is
// appended with a single space.
func mergeLines(raw string) []string {
	var merged []string
	var buffer string
	for _, line := range strings.Split(raw, "\n") {
		clean := strings.TrimSpace(line)
		if clean == "" {
			continue
		}
		if startsLower(clean) && buffer != "" {
			buffer += " " + clean
			continue
		}
		if buffer != "" {
			merged = append(merged, buffer)
		}
		buffer = clean
	}
	if buffer != "" {
		merged = append(merged, buffer)
	}
	return merged
}

func startsLower(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsLower(r)
}

// SegmentPage picks the chunking policy for one page: section-aligned when
// the page carries legal section symbols, numbered-paragraph when it uses
// short numeric prefixes instead, section-aligned otherwise.
func SegmentPage(raw, source string, page int) []model.Chunk {
	if !strings.Contains(raw, "§") {
		for _, line := range mergeLines(raw) {
			if numberedStart.MatchString(line) {
				return SegmentNumbered(raw, source, page)
			}
		}
	}
	return SegmentSections(raw, source, page)
}

// SegmentSections splits one page of raw text into section-aligned chunks.
// Used for page-oriented documents carrying legal section markers, e.g.
// scanned statutes and municipal bylaws.
func SegmentSections(raw, source string, page int) []model.Chunk {
	pageText := strings.Join(mergeLines(raw), "\n")
	if strings.TrimSpace(pageText) == "" {
		return nil
	}

	var chunks []model.Chunk
	for _, piece := range splitAtSectionStarts(pageText) {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		// The marker can get separated from its body when it is the very
		// first token of the page; re-prefix to keep the chunk citeable.
		if !strings.HasPrefix(piece, "§") {
			piece = "§ " + piece
		}
		label := ""
		if m := sectionLabel.FindStringSubmatch(piece); m != nil {
			label = m[1]
		}
		chunks = append(chunks, model.Chunk{
			Content:      piece,
			Source:       source,
			PageNumber:   model.PageRef(page),
			SectionLabel: label,
		})
	}
	return chunks
}

// splitAtSectionStarts cuts text at every position where a section marker
// begins, keeping the marker with the text that follows it.
func splitAtSectionStarts(text string) []string {
	locs := sectionStart.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []string{text}
	}
	var pieces []string
	prev := 0
	for _, loc := range locs {
		if loc[0] > prev {
			pieces = append(pieces, text[prev:loc[0]])
		}
		prev = loc[0]
	}
	pieces = append(pieces, text[prev:])
	return pieces
}

// SegmentNumbered splits one page into chunks along short numeric prefixes
// ("17. Spielapparatesteuer" style). Lines between two markers accumulate
// into one chunk; no section label is recorded.
func SegmentNumbered(raw, source string, page int) []model.Chunk {
	lines := mergeLines(raw)
	if len(lines) == 0 {
		return nil
	}

	var chunks []model.Chunk
	var current []string
	flush := func() {
		if len(current) == 0 {
			return
		}
		content := strings.TrimSpace(strings.Join(current, "\n"))
		current = nil
		if content == "" {
			return
		}
		chunks = append(chunks, model.Chunk{
			Content:    content,
			Source:     source,
			PageNumber: model.PageRef(page),
		})
	}
	for _, line := range lines {
		if numberedStart.MatchString(line) {
			flush()
		}
		current = append(current, line)
	}
	flush()
	return chunks
}

// SegmentFlat turns the entire extracted text of a flat document (word
// processor files, spreadsheets, markdown) into exactly one chunk with no
// page number.
func SegmentFlat(raw, source string) []model.Chunk {
	content := strings.TrimSpace(raw)
	if content == "" {
		return nil
	}
	return []model.Chunk{{
		Content: content,
		Source:  source,
	}}
}
