package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tsawler/tabula"
	"github.com/tsawler/tabula/docx"
	"github.com/tsawler/tabula/reader"
	"github.com/tsawler/tabula/xlsx"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/schle1cherr/docrag/internal/model"
)

// SupportedSuffixes lists the file extensions the extractor handles.
var SupportedSuffixes = map[string]struct{}{
	".pdf":  {},
	".docx": {},
	".xlsx": {},
	".md":   {},
}

var ErrUnsupported = fmt.Errorf("unsupported file type")

// File extracts one file into chunks. path is the readable location on disk,
// source is the logical file name recorded in chunk provenance (the two
// differ when the file came from an object store and was staged locally).
// Chunk positions reflect document reading order within the file.
func File(ctx context.Context, path, source string) ([]model.Chunk, error) {
	var chunks []model.Chunk
	var err error
	switch strings.ToLower(filepath.Ext(source)) {
	case ".pdf":
		chunks, err = pdfChunks(path, source)
	case ".docx":
		chunks, err = docxChunks(path, source)
	case ".xlsx":
		chunks, err = xlsxChunks(path, source)
	case ".md":
		chunks, err = markdownChunks(path, source)
	default:
		return nil, ErrUnsupported
	}
	if err != nil {
		return nil, err
	}
	for i := range chunks {
		chunks[i].Position = i
	}
	return chunks, nil
}

// pdfChunks extracts page by page and segments each page independently.
// Section headers spanning a page boundary are not stitched together.
func pdfChunks(path, source string) ([]model.Chunk, error) {
	r, err := reader.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	ex := tabula.FromReader(r)
	pageCount, err := ex.PageCount()
	if err != nil {
		return nil, err
	}
	var chunks []model.Chunk
	for page := 1; page <= pageCount; page++ {
		raw, _, err := ex.Pages(page).Text()
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		chunks = append(chunks, SegmentPage(raw, source, page)...)
	}
	return chunks, nil
}

func docxChunks(path, source string) ([]model.Chunk, error) {
	r, err := docx.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	raw, err := r.Text()
	if err != nil {
		return nil, err
	}
	return SegmentFlat(raw, source), nil
}

// xlsxChunks serializes every sheet row by row, pipe-joining non-empty cell
// values, and emits the whole workbook as one flat chunk.
func xlsxChunks(path, source string) ([]model.Chunk, error) {
	r, err := xlsx.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var sb strings.Builder
	for i := 0; i < r.SheetCount(); i++ {
		sheet, err := r.Sheet(i)
		if err != nil {
			return nil, err
		}
		for _, row := range sheet.Rows {
			var values []string
			for _, cell := range row {
				if cell.IsMerged && !cell.IsMergeRoot {
					continue
				}
				if v := strings.TrimSpace(cell.Value); v != "" {
					values = append(values, v)
				}
			}
			if len(values) > 0 {
				sb.WriteString(strings.Join(values, " | "))
				sb.WriteString("\n")
			}
		}
	}
	return SegmentFlat(sb.String(), source), nil
}

func markdownChunks(path, source string) ([]model.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return SegmentFlat(markdownText(data), source), nil
}

// markdownText strips markdown structure down to its plain text by walking
// the parsed AST.
func markdownText(source []byte) string {
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(source))

	var sb strings.Builder
	_ = ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if node.Type() == ast.TypeBlock {
				sb.WriteString("\n")
			}
			return ast.WalkContinue, nil
		}
		switch n := node.(type) {
		case *ast.Text:
			sb.Write(n.Segment.Value(source))
			if n.HardLineBreak() || n.SoftLineBreak() {
				sb.WriteString("\n")
			}
		case *ast.FencedCodeBlock:
			for i := 0; i < n.Lines().Len(); i++ {
				line := n.Lines().At(i)
				sb.Write(line.Value(source))
			}
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}
