package analysis

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"carbon-scribe/scenario-analysis/scenario-analysis-backend/internal/exposure"
	"carbon-scribe/scenario-analysis/scenario-analysis-backend/internal/reports/export"
	"carbon-scribe/scenario-analysis/scenario-analysis-backend/internal/scenarios"
	"carbon-scribe/scenario-analysis/scenario-analysis-backend/pkg/storage"
)

// HandlerConfig bounds uploads accepted over HTTP
type HandlerConfig struct {
	MaxUploadBytes int64
	DefaultPolicy  exposure.Policy
}

// Handler handles HTTP requests for scenario analysis
type Handler struct {
	service *Service
	config  HandlerConfig
	logger  *zap.Logger
}

// NewHandler creates a new analysis handler
func NewHandler(service *Service, config HandlerConfig, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.DefaultPolicy == "" {
		config.DefaultPolicy = exposure.RejectRow
	}
	return &Handler{
		service: service,
		config:  config,
		logger:  logger,
	}
}

// RegisterRoutes registers scenario analysis routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/scenarios", h.listScenarios)
	router.GET("/scenarios/:name", h.getScenario)
	router.GET("/recommendations/:sector", h.getRecommendation)

	analyses := router.Group("/analyses")
	{
		analyses.POST("", h.createAnalysis)
		analyses.GET("/:id", h.getAnalysis)
		analyses.DELETE("/:id", h.deleteAnalysis)
		analyses.GET("/:id/charts", h.getCharts)
		analyses.GET("/:id/export", h.exportAnalysis)
	}
}

// listScenarios handles GET /api/v1/scenarios
func (h *Handler) listScenarios(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version":   h.service.CatalogVersion(),
		"scenarios": h.service.Scenarios(),
	})
}

// getScenario handles GET /api/v1/scenarios/:name
func (h *Handler) getScenario(c *gin.Context) {
	def, err := h.service.Scenario(c.Param("name"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, def)
}

// getRecommendation handles GET /api/v1/recommendations/:sector
func (h *Handler) getRecommendation(c *gin.Context) {
	rec, err := h.service.Recommend(c.Param("sector"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// createAnalysis handles POST /api/v1/analyses
func (h *Handler) createAnalysis(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if h.config.MaxUploadBytes > 0 && fileHeader.Size > h.config.MaxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds the upload limit"})
		return
	}

	policy := h.config.DefaultPolicy
	if raw := c.PostForm("policy"); raw != "" {
		if policy, err = exposure.ParsePolicy(raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("Failed to open upload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file"})
		return
	}
	defer file.Close()

	result, err := h.service.Run(c.Request.Context(), Request{
		FileName:  fileHeader.Filename,
		Data:      file,
		Industry:  c.PostForm("industry"),
		Scenarios: c.PostFormArray("scenario"),
		Policy:    policy,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// getAnalysis handles GET /api/v1/analyses/:id
func (h *Handler) getAnalysis(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	result, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// deleteAnalysis handles DELETE /api/v1/analyses/:id
func (h *Handler) deleteAnalysis(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// getCharts handles GET /api/v1/analyses/:id/charts
func (h *Handler) getCharts(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	set, err := h.service.Charts(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, set)
}

// exportAnalysis handles GET /api/v1/analyses/:id/export
func (h *Handler) exportAnalysis(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	format, err := export.ParseFormat(c.DefaultQuery("format", "pdf"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	archive, _ := strconv.ParseBool(c.DefaultQuery("archive", "false"))

	result, err := h.service.Export(c.Request.Context(), id, format, archive)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if result.Archive != nil {
		c.JSON(http.StatusOK, result)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+result.FileName+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Data)
}

func (h *Handler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid analysis ID"})
		return uuid.Nil, false
	}
	return id, true
}

// respondError maps service errors onto HTTP status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	var verr *exposure.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "validation": verr})
	case errors.Is(err, ErrNoValidRecords):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, scenarios.ErrNotFound), errors.Is(err, ErrAnalysisNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, storage.ErrArchiveDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Request failed", zap.Error(err), zap.String("path", c.FullPath()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
