package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"aioseo_meta_workflow/generator"
)

type generateReq struct {
	Title *string `json:"title" binding:"required"`
	Focus string  `json:"focus"`
}

// FallbackRoutes serves the deterministic generator as a standalone service,
// the counterpart of generator.FallbackClient.
func FallbackRoutes(logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	router := newEngine(logger)

	router.POST("/generate", func(c *gin.Context) {
		var req generateReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusUnprocessableEntity, errorResp{Detail: err.Error()})
			return
		}
		c.JSON(http.StatusOK, generator.FallbackMeta(*req.Title, req.Focus))
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "engine": generator.EngineLocal})
	})
	return router
}
