package http

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"hub-order-sync/internal/auth"
	"hub-order-sync/internal/signature"
)

const (
	requestIDHeader = "X-Request-Id"
	requestIDKey    = "request_id"
	rawBodyKey      = "raw_body"

	maxBodyBytes = 4 << 20
)

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (h *Handler) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		h.metrics.ObserveInbound(route, status)

		logrus.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"route":      route,
			"status":     status,
			"latency":    time.Since(start).String(),
			"client":     c.ClientIP(),
			"request_id": c.GetString(requestIDKey),
		}).Info("request handled")
	}
}

// signed authenticates the request against a. The body is read once, kept in
// the context for the handler and restored on the request.
func (h *Handler) signed(a *auth.Authenticator, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
		if err != nil {
			newErrorResponse(c, http.StatusBadRequest, "Failed to read request body")
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Set(rawBodyKey, body)

		cred := auth.Credentials{
			APIKey:    c.GetHeader(signature.HeaderAPIKey),
			Signature: c.GetHeader(signature.HeaderSignature),
			Timestamp: c.GetHeader(signature.HeaderTimestamp),
			Nonce:     c.GetHeader(signature.HeaderNonce),
		}
		err = auth.ErrUnauthorized
		if a != nil {
			err = a.Authenticate(c.Request.Context(), cred, h.route(c.Request), body)
		}
		if err != nil {
			h.metrics.IncAuthFailure(scope)
			logrus.WithFields(logrus.Fields{
				"scope":      scope,
				"path":       c.Request.URL.Path,
				"request_id": c.GetString(requestIDKey),
			}).Warn("unauthorized request")
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Success: false, Message: "unauthorized"})
			return
		}
		c.Next()
	}
}

// route rebuilds the absolute URL the sender signed. PublicURL wins when set,
// which is required behind a proxy that rewrites the host or scheme.
func (h *Handler) route(r *http.Request) string {
	if h.publicURL != "" {
		return h.publicURL + r.URL.RequestURI()
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(p, ",")[0]))
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

func rawBody(c *gin.Context) []byte {
	if v, ok := c.Get(rawBodyKey); ok {
		if b, ok := v.([]byte); ok {
			return b
		}
	}
	return nil
}
