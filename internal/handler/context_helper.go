package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/comusielak/exercise-status-api/internal/middleware"
	"github.com/comusielak/exercise-status-api/internal/models"
	appErrors "github.com/comusielak/exercise-status-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func assignmentIDParam(c *gin.Context) (int64, *appErrors.Error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid assignment id")
	}
	return id, nil
}
