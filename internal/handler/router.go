package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/schle1cherr/docrag/internal/middleware"
	"github.com/schle1cherr/docrag/internal/pkg/response"
)

type RouterDeps struct {
	Ask          *AskHandler
	Ingest       *IngestHandler
	AskRateLimit time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/healthz", func(c *gin.Context) {
		response.Success(c, gin.H{"status": "ok"})
	})

	api.GET("/documents/preview", deps.Ingest.Preview)
	api.POST("/index/build", deps.Ingest.Build)
	api.GET("/search", deps.Ask.Search)

	askGroup := api.Group("")
	askGroup.Use(middleware.RateLimit(deps.AskRateLimit))
	askGroup.POST("/ask", deps.Ask.Ask)
}
