package response

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"profinder/internal/domain"
)

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// FromError writes the error envelope for a domain error kind. Unknown errors
// are logged and reported as INTERNAL_ERROR without leaking their text.
func FromError(c *gin.Context, err error) {
	code := domain.ErrorCode(err)
	if code == "INTERNAL_ERROR" {
		_ = c.Error(err)
		log.Printf("internal_error method=%s path=%s error=%q", c.Request.Method, c.Request.URL.Path, err.Error())
		Error(c, http.StatusInternalServerError, code, "Internal server error")
		return
	}
	Error(c, StatusFor(err), code, err.Error())
}

// StatusFor maps a domain error kind to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotEligible):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidState), errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
