package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comusielak/exercise-status-api/internal/models"
	appErrors "github.com/comusielak/exercise-status-api/pkg/errors"
	"github.com/comusielak/exercise-status-api/pkg/response"
)

type assignmentReader interface {
	LoadContext(ctx context.Context, assignmentID int64) (*models.AssignmentContext, error)
}

// AssignmentHandler exposes the read-only assignment snapshot.
type AssignmentHandler struct {
	assignments assignmentReader
}

// NewAssignmentHandler creates a new handler.
func NewAssignmentHandler(assignments assignmentReader) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments}
}

// Members godoc
// @Summary Assignment members
// @Description Current grading state of every gradable subject
// @Tags Assignments
// @Produce json
// @Param id path int true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /assignments/{id}/members [get]
func (h *AssignmentHandler) Members(c *gin.Context) {
	id, idErr := assignmentIDParam(c)
	if idErr != nil {
		response.Error(c, idErr)
		return
	}

	actx, err := h.assignments.LoadContext(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "assignment not found"))
			return
		}
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, actx, nil)
}
