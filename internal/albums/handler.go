package albums

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"albumclub/internal/auth"
	"albumclub/internal/scheduler"
	"albumclub/pkg/models"
)

type Handler struct {
	Repo  *Repo
	Sched *scheduler.Scheduler
}

func NewHandler(repo *Repo, sched *scheduler.Scheduler) *Handler {
	return &Handler{Repo: repo, Sched: sched}
}

func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.listPast)      // GET /albums
	rg.GET("/today", h.today)   // GET /albums/today
	rg.GET("/:id", h.getByID)   // GET /albums/:id
}

func (h *Handler) RegisterProtectedRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.create) // POST /albums
}

func (h *Handler) today(c *gin.Context) {
	a, err := h.Sched.Resolve(c.Request.Context(), time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, scheduler.ErrPoolExhausted):
			c.JSON(http.StatusConflict, gin.H{"error": "no unselected album left"})
		case errors.Is(err, models.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "no album selected yet"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "resolve failed"})
		}
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *Handler) listPast(c *gin.Context) {
	today, err := h.Sched.Today(c.Request.Context(), time.Now().UTC())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	excludeID := ""
	if today != nil {
		excludeID = today.ID
	}

	items, err := h.Repo.ListPastExcluding(c.Request.Context(), excludeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	remaining, err := h.Repo.CountUnselected(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":          len(items),
		"items":          items,
		"pool_remaining": remaining,
	})
}

func (h *Handler) getByID(c *gin.Context) {
	id := c.Param("id")
	a, err := h.Repo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if a == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, a)
}

type createReq struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Genre  string `json:"genre"`
}

func (h *Handler) create(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Artist = strings.TrimSpace(req.Artist)
	if req.Title == "" || req.Artist == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and artist required"})
		return
	}

	a, err := h.Repo.Create(c.Request.Context(), models.Album{
		Title:       req.Title,
		Artist:      req.Artist,
		Genre:       strings.TrimSpace(req.Genre),
		SubmittedBy: claims.UserID,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}

	c.JSON(http.StatusCreated, a)
}
