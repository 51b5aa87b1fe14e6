package reviews

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"albumclub/internal/auth"
	"albumclub/pkg/models"
	"albumclub/pkg/utils"
)

type Handler struct {
	Repo  *Repo
	Names *utils.NameLookup
}

func NewHandler(repo *Repo, names *utils.NameLookup) *Handler {
	return &Handler{Repo: repo, Names: names}
}

func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/albums/:id/reviews", h.listByAlbum)
}

func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.POST("/reviews", h.upsert)
}

type upsertReq struct {
	AlbumID string              `json:"album_id"`
	Rating  decimal.NullDecimal `json:"rating"`
	Notes   string              `json:"notes"`
}

func (h *Handler) upsert(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req upsertReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	albumID := strings.TrimSpace(req.AlbumID)
	if albumID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "album_id required"})
		return
	}

	review, err := h.Repo.Upsert(c.Request.Context(), albumID, claims.UserID, req.Rating, strings.TrimSpace(req.Notes))
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidRating):
			c.JSON(http.StatusBadRequest, gin.H{"error": "rating must be between 0.0 and 10.0"})
		case errors.Is(err, models.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		}
		return
	}

	c.JSON(http.StatusCreated, review)
}

type reviewItem struct {
	AlbumReview
	DisplayName string `json:"display_name"`
	Display     string `json:"rating_display"`
}

func (h *Handler) listByAlbum(c *gin.Context) {
	albumID := strings.TrimSpace(c.Param("id"))
	if albumID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "album id required"})
		return
	}

	if err := h.Repo.ensureExists(c.Request.Context(), "albums", albumID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	list, err := h.Repo.ListByAlbum(c.Request.Context(), albumID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	avg, err := h.Repo.ComputeAverage(c.Request.Context(), albumID, "")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	items := make([]reviewItem, 0, len(list))
	for _, ar := range list {
		items = append(items, reviewItem{
			AlbumReview: ar,
			DisplayName: h.Names.DisplayName(ar.UserEmail),
			Display:     models.FormatRating(ar.Rating),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"album_id":      albumID,
		"average_score": models.FormatRating(avg),
		"items":         items,
	})
}
