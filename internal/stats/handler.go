package stats

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{Engine: engine}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/stats", h.report)
}

func (h *Handler) report(c *gin.Context) {
	report, err := h.Engine.Compute(c.Request.Context(), time.Now().UTC())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats failed"})
		return
	}
	c.JSON(http.StatusOK, report)
}
