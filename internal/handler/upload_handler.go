package handler

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/comusielak/exercise-status-api/internal/models"
	"github.com/comusielak/exercise-status-api/internal/service"
	appErrors "github.com/comusielak/exercise-status-api/pkg/errors"
	"github.com/comusielak/exercise-status-api/pkg/response"
)

// UploadHandler receives status-file archives and reports pipeline outcomes.
type UploadHandler struct {
	uploads *service.UploadService
	metrics *service.MetricsService
	logger  *zap.Logger
	maxSize int64
}

// NewUploadHandler creates a new handler.
func NewUploadHandler(uploads *service.UploadService, metrics *service.MetricsService, maxSize int64, logger *zap.Logger) *UploadHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxSize <= 0 {
		maxSize = 100 * 1024 * 1024
	}
	return &UploadHandler{uploads: uploads, metrics: metrics, logger: logger, maxSize: maxSize}
}

// Upload godoc
// @Summary Upload edited status file archive
// @Description Extract the archive, parse the embedded status file and apply the updates
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Assignment ID"
// @Param archive formData file true "ZIP archive containing the status file"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /assignments/{id}/upload [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	id, idErr := assignmentIDParam(c)
	if idErr != nil {
		response.Error(c, idErr)
		return
	}

	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxSize)
	fileHeader, err := c.FormFile("archive")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "archive file required"))
		return
	}

	// the transport object stops here; everything downstream works on a
	// plain file reference
	tmpDir, err := os.MkdirTemp("", "upload-recv-")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stage upload"))
		return
	}
	defer os.RemoveAll(tmpDir)

	stagedPath := filepath.Join(tmpDir, "upload.zip")
	if err := c.SaveUploadedFile(fileHeader, stagedPath); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stage upload"))
		return
	}

	upload := models.UploadedFile{
		Path:         stagedPath,
		Size:         fileHeader.Size,
		OriginalName: fileHeader.Filename,
	}

	result, err := h.uploads.Process(c.Request.Context(), id, claims.UserID, upload)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.metrics.ObserveUpload(string(result.Stage), result.AppliedCount, result.SecurityEvents)
	h.logger.Info("status file upload processed",
		zap.Int64("assignment_id", id),
		zap.String("tutor", claims.Login),
		zap.String("stage", string(result.Stage)),
		zap.Int("applied", result.AppliedCount),
		zap.Int("security_events", result.SecurityEvents))

	response.JSON(c, http.StatusOK, result, nil)
}

// Status godoc
// @Summary Upload processed state
// @Description Whether the tutor already ran a processed upload for the assignment
// @Tags Uploads
// @Produce json
// @Param id path int true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /assignments/{id}/upload/status [get]
func (h *UploadHandler) Status(c *gin.Context) {
	id, idErr := assignmentIDParam(c)
	if idErr != nil {
		response.Error(c, idErr)
		return
	}

	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	processed, err := h.uploads.ProcessedBefore(c.Request.Context(), id, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"processed": processed}, nil)
}
