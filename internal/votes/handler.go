package votes

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"albumclub/internal/auth"
	"albumclub/pkg/models"
)

type Handler struct {
	Repo *Repo
}

func NewHandler(repo *Repo) *Handler {
	return &Handler{Repo: repo}
}

func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.POST("/reviews/:id/vote", h.toggle)
}

type toggleReq struct {
	Direction string `json:"direction"`
}

func (h *Handler) toggle(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	reviewID := strings.TrimSpace(c.Param("id"))
	if reviewID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "review id required"})
		return
	}

	var req toggleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	state, err := h.Repo.Toggle(c.Request.Context(), reviewID, claims.UserID, Direction(strings.ToLower(req.Direction)))
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidDirection):
			c.JSON(http.StatusBadRequest, gin.H{"error": "direction must be up or down"})
		case errors.Is(err, models.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "vote failed"})
		}
		return
	}

	c.JSON(http.StatusOK, state)
}
