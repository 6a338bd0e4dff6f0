package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/schle1cherr/docrag/internal/pkg/errcode"
	"github.com/schle1cherr/docrag/internal/pkg/response"
	"github.com/schle1cherr/docrag/internal/service"
)

const previewChars = 300

type IngestHandler struct {
	ingest *service.IngestService
}

func NewIngestHandler(ingest *service.IngestService) *IngestHandler {
	return &IngestHandler{ingest: ingest}
}

func (h *IngestHandler) Build(c *gin.Context) {
	report, err := h.ingest.Run(c.Request.Context())
	if err != nil {
		response.Error(c, errcode.ErrIngestFailed, "ingest failed")
		return
	}
	response.Success(c, report)
}

// Preview returns the first characters of stored chunks, for checking
// extraction quality.
func (h *IngestHandler) Preview(c *gin.Context) {
	limit := intQuery(c, "limit", 50)
	chunks, total, err := h.ingest.Preview(c.Request.Context(), uint(limit))
	if err != nil {
		handleError(c, err)
		return
	}
	type chunkPreview struct {
		Source       string `json:"source"`
		PageNumber   *int   `json:"page_number,omitempty"`
		SectionLabel string `json:"section_label,omitempty"`
		Excerpt      string `json:"excerpt"`
	}
	previews := make([]chunkPreview, 0, len(chunks))
	for _, chunk := range chunks {
		excerpt := truncateRunes(chunk.Content, previewChars)
		previews = append(previews, chunkPreview{
			Source:       chunk.Source,
			PageNumber:   chunk.PageNumber,
			SectionLabel: chunk.SectionLabel,
			Excerpt:      excerpt,
		})
	}
	response.Success(c, gin.H{"total": total, "chunks": previews})
}
