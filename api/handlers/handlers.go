package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/local/studyguide/api/config"
	"github.com/local/studyguide/api/services"
)

// GuideService is the study guide API consumed by the handlers.
type GuideService interface {
	Generate(ctx context.Context, topic string) (*services.GuideView, error)
	List(ctx context.Context) ([]services.GuideView, error)
	Get(ctx context.Context, id uint) (*services.GuideView, error)
	Rename(ctx context.Context, id uint, title string) (*services.GuideView, error)
	Delete(ctx context.Context, id uint) error
}

type Handler struct {
	cfg    *config.Config
	guides GuideService
}

func New(cfg *config.Config, guides GuideService) *Handler {
	return &Handler{cfg: cfg, guides: guides}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"model_provider": h.cfg.ModelProvider,
		"video_search":   h.cfg.YouTubeAPIKey != "",
	})
}

type GenerateGuideRequest struct {
	Topic string `json:"topic" binding:"required"`
}

type RenameGuideRequest struct {
	Title string `json:"title" binding:"required"`
}

var statusByKind = map[services.ErrorKind]int{
	services.KindUnauthorized:    http.StatusUnauthorized,
	services.KindStudentNotFound: http.StatusNotFound,
	services.KindGuideNotFound:   http.StatusNotFound,
	services.KindInvalidInput:    http.StatusBadRequest,
	services.KindRateLimited:     http.StatusTooManyRequests,
	services.KindOverloaded:      http.StatusServiceUnavailable,
	services.KindGeneration:      http.StatusBadGateway,
	services.KindUpstreamData:    http.StatusInternalServerError,
	services.KindPersistence:     http.StatusInternalServerError,
	services.KindInternal:        http.StatusInternalServerError,
}

func respondError(c *gin.Context, err error) {
	status, ok := statusByKind[services.KindOf(err)]
	if !ok {
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{"error": services.UserMessage(err)})
}

func guideID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Identificador de guía inválido"})
		return 0, false
	}
	return uint(id), true
}

func (h *Handler) GenerateGuide(c *gin.Context) {
	var req GenerateGuideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "El tema de la guía es obligatorio"})
		return
	}

	guide, err := h.guides.Generate(c.Request.Context(), req.Topic)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "guide": guide})
}

func (h *Handler) ListGuides(c *gin.Context) {
	guides, err := h.guides.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"guides": guides})
}

func (h *Handler) GetGuide(c *gin.Context) {
	id, ok := guideID(c)
	if !ok {
		return
	}
	guide, err := h.guides.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "guide": guide})
}

func (h *Handler) RenameGuide(c *gin.Context) {
	id, ok := guideID(c)
	if !ok {
		return
	}
	var req RenameGuideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "El título es obligatorio"})
		return
	}
	guide, err := h.guides.Rename(c.Request.Context(), id, req.Title)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "guide": guide})
}

func (h *Handler) DeleteGuide(c *gin.Context) {
	id, ok := guideID(c)
	if !ok {
		return
	}
	if err := h.guides.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Register mounts the routes on router.
func (h *Handler) Register(router gin.IRouter) {
	router.GET("/api/health", h.Health)

	api := router.Group("/api")
	{
		api.POST("/study-guides", h.GenerateGuide)
		api.GET("/study-guides", h.ListGuides)
		api.GET("/study-guides/:id", h.GetGuide)
		api.PATCH("/study-guides/:id", h.RenameGuide)
		api.DELETE("/study-guides/:id", h.DeleteGuide)
	}
}
