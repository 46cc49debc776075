package handler

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/lifetrack/internal/engine"
)

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrValidation), errors.Is(err, engine.ErrNothingToLog):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrInvalidCredentials), errors.Is(err, engine.ErrSuspended):
		return http.StatusUnauthorized
	case errors.Is(err, engine.ErrPermission):
		return http.StatusForbidden
	case errors.Is(err, engine.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as a JSON error response. Internal errors are logged and not shown.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Error("Request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		msg = "internal server error"
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   msg,
	})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   msg,
	})
}
