package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"hub-order-sync/internal/service"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type statusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func newErrorResponse(c *gin.Context, statusCode int, message string) {
	entry := logrus.WithFields(logrus.Fields{
		"path":       c.Request.URL.Path,
		"status":     statusCode,
		"request_id": c.GetString(requestIDKey),
	})
	if statusCode >= http.StatusInternalServerError {
		entry.Error(message)
	} else {
		entry.Debug(message)
	}
	c.AbortWithStatusJSON(statusCode, errorResponse{Success: false, Message: message})
}

// fail maps service errors to responses. fallback is the message used for
// unexpected failures, which are never shown to the caller verbatim.
func fail(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		newErrorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		newErrorResponse(c, http.StatusNotFound, "Order not found")
	case errors.Is(err, service.ErrConflict):
		newErrorResponse(c, http.StatusConflict, "Order is already linked to another peer order")
	case errors.Is(err, service.ErrNotConfigured):
		newErrorResponse(c, http.StatusConflict, "Peer is not configured")
	default:
		logrus.WithError(err).WithField("request_id", c.GetString(requestIDKey)).Error(fallback)
		newErrorResponse(c, http.StatusInternalServerError, fallback)
	}
}
