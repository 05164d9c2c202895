package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comusielak/exercise-status-api/internal/service"
	appErrors "github.com/comusielak/exercise-status-api/pkg/errors"
	"github.com/comusielak/exercise-status-api/pkg/response"
	"go.uber.org/zap"
)

// ExportHandler exposes bundle generation and download endpoints.
type ExportHandler struct {
	exports *service.ExportService
	metrics *service.MetricsService
	logger  *zap.Logger
}

// NewExportHandler creates a new handler.
func NewExportHandler(exports *service.ExportService, metrics *service.MetricsService, logger *zap.Logger) *ExportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportHandler{exports: exports, metrics: metrics, logger: logger}
}

// Create godoc
// @Summary Export assignment bundle
// @Description Package all submissions and the grading state into a ZIP bundle
// @Tags Exports
// @Produce json
// @Param id path int true "Assignment ID"
// @Param payload body object false "Optional subject selection"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Security BearerAuth
// @Router /assignments/{id}/export [post]
func (h *ExportHandler) Create(c *gin.Context) {
	id, idErr := assignmentIDParam(c)
	if idErr != nil {
		response.Error(c, idErr)
		return
	}

	// body is optional; without it the whole assignment is exported
	var payload struct {
		SubjectIDs []int64 `json:"subjectIds"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid export payload"))
			return
		}
	}

	start := time.Now()
	result, err := h.exports.Export(c.Request.Context(), id, payload.SubjectIDs)
	h.metrics.ObserveExport(err == nil, time.Since(start))
	if err != nil {
		response.Error(c, err)
		return
	}

	if claims := claimsFromContext(c); claims != nil {
		h.logger.Info("export requested",
			zap.Int64("assignment_id", id),
			zap.String("tutor", claims.Login))
	}
	response.Created(c, result)
}

// Download godoc
// @Summary Download export bundle
// @Description Stream a previously generated bundle addressed by its signed token
// @Tags Exports
// @Produce application/zip
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /export/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token required"))
		return
	}

	file, name, err := h.exports.OpenBundle(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat bundle"))
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.DataFromReader(http.StatusOK, info.Size(), "application/zip", file, nil)
}
