package handler

import (
	"errors"
	"net/http"
	"strconv"

	"foodgram/backend/internal/logging"
	"foodgram/backend/internal/media"
	"foodgram/backend/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ErrorResponse represents a generic error response.
type ErrorResponse struct {
	Error string `json:"error" example:"An error message"`
}

// ValidationErrorResponse lists field problems alongside the summary.
type ValidationErrorResponse struct {
	Error  string              `json:"error" example:"validation failed"`
	Fields map[string][]string `json:"fields"`
}

var errForbidden = errors.New("you do not have permission to perform this action")

// respondError writes the status and body matching err's class. Anything
// outside the domain taxonomy is logged and reported as a 500.
func respondError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{Error: "validation failed", Fields: verr.Fields})
	case errors.Is(err, media.ErrInvalidImage):
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{
			Error:  "validation failed",
			Fields: map[string][]string{"image": {err.Error()}},
		})
	case errors.Is(err, service.ErrSelfReference), errors.Is(err, service.ErrDuplicate):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, errForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		logging.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// parseID reads a positive numeric path parameter, answering 400 when it
// is malformed.
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}
