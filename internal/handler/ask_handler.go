package handler

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/schle1cherr/docrag/internal/pkg/errcode"
	"github.com/schle1cherr/docrag/internal/pkg/response"
	"github.com/schle1cherr/docrag/internal/service"
)

type AskHandler struct {
	ask *service.AskService
}

func NewAskHandler(ask *service.AskService) *AskHandler {
	return &AskHandler{ask: ask}
}

type askRequest struct {
	Question string `json:"question"`
}

func (h *AskHandler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		response.Error(c, errcode.ErrInvalid, "question is required")
		return
	}
	answer, err := h.ask.Ask(c.Request.Context(), question)
	if err != nil {
		if errors.Is(err, service.ErrAIUnavailable) {
			response.Error(c, errcode.ErrAIUnavailable, "ai not configured")
			return
		}
		handleError(c, err)
		return
	}
	response.Success(c, answer)
}

func (h *AskHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		response.Error(c, errcode.ErrInvalid, "q is required")
		return
	}
	k := intQuery(c, "k", 0)
	chunks, err := h.ask.Search(c.Request.Context(), query, k)
	if err != nil {
		if errors.Is(err, service.ErrAIUnavailable) {
			response.Error(c, errcode.ErrAIUnavailable, "ai not configured")
			return
		}
		handleError(c, err)
		return
	}
	contents := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		contents = append(contents, chunk.Content)
	}
	response.Success(c, gin.H{"results": contents})
}
