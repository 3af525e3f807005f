package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ticktock/internal/logger"
	"ticktock/internal/service"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized), errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {"error": message}. Server-side failures are
// logged with their cause.
func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error(c.Request.Context(), err, "request failed", "path", c.Request.URL.Path)
	}
	c.JSON(status, gin.H{"error": service.PublicMessage(err, "internal server error")})
}
