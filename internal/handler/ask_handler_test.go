package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/schle1cherr/docrag/internal/assemble"
	"github.com/schle1cherr/docrag/internal/model"
	"github.com/schle1cherr/docrag/internal/retrieval"
	"github.com/schle1cherr/docrag/internal/service"
)

type stubRetriever struct {
	chunks []model.Chunk
}

func (s *stubRetriever) Retrieve(ctx context.Context, query string, k int) ([]model.Chunk, error) {
	if len(s.chunks) > k {
		return s.chunks[:k], nil
	}
	return s.chunks, nil
}

type stubGenerator struct {
	answer string
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return s.answer, nil
}

func newTestRouter(t *testing.T, sparse []model.Chunk, answer string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fusion, err := retrieval.NewFusion(
		&stubRetriever{}, &stubRetriever{chunks: sparse},
		retrieval.PolicyInterleave, 0.3, 0.7, 6,
	)
	require.NoError(t, err)
	assembler, err := assemble.New(4000)
	require.NoError(t, err)
	askService := service.NewAskService(fusion, assembler, &stubGenerator{answer: answer})

	router := gin.New()
	RegisterRoutes(router.Group("/api/v1"), RouterDeps{
		Ask: NewAskHandler(askService),
	})
	return router
}

func TestAskHandler_AnswersFromContext(t *testing.T) {
	page := 2
	router := newTestRouter(t, []model.Chunk{
		{Content: "§ 5 Die Gebühr beträgt 84 Euro.", Source: "satzung.pdf", PageNumber: &page, SectionLabel: "5"},
	}, "84 Euro laut § 5.")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask", strings.NewReader(`{"question":"Wie hoch ist die Gebühr?"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "84 Euro laut")
	require.Contains(t, rec.Body.String(), "satzung.pdf (page 2, section 5)")
}

func TestAskHandler_EmptyRetrievalGivesFixedAnswer(t *testing.T) {
	router := newTestRouter(t, nil, "never called")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask", strings.NewReader(`{"question":"irgendwas"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), service.NoInformationAnswer)
	require.NotContains(t, rec.Body.String(), "never called")
}

func TestAskHandler_RejectsBlankQuestion(t *testing.T) {
	router := newTestRouter(t, nil, "unused")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask", strings.NewReader(`{"question":"   "}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), service.NoInformationAnswer)
	require.Contains(t, rec.Body.String(), "question is required")
}
