package vipgin

import (
	"strings"
	"time"

	"github.com/PaulFidika/vipbridge/adapters/ginutil"
	"github.com/PaulFidika/vipbridge/apikey"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// RequestIDHeader carries the request id in and out.
	RequestIDHeader = "X-Request-ID"
	// DefaultAuthHeader carries the shared webhook secret.
	DefaultAuthHeader = "Authorization"

	ctxRequestID = "request_id"
)

// RequestID propagates an incoming X-Request-ID or generates one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestIDFrom returns the id set by RequestID, or "".
func RequestIDFrom(c *gin.Context) string { return c.GetString(ctxRequestID) }

// Logger emits one entry per request.
func Logger(log logrus.FieldLogger) gin.HandlerFunc {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := c.Writer.Status()
		entry := log.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
			"request_id": RequestIDFrom(c),
		})
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}
		switch {
		case status >= 500:
			entry.Error("request")
		case status >= 400:
			entry.Warn("request")
		default:
			entry.Info("request")
		}
	}
}

// APIKey rejects requests whose header does not carry the shared secret.
// A verifier with no configured secret lets every request through.
func APIKey(v *apikey.Verifier, header string) gin.HandlerFunc {
	if strings.TrimSpace(header) == "" {
		header = DefaultAuthHeader
	}
	return func(c *gin.Context) {
		if !v.Enabled() {
			c.Next()
			return
		}
		if !v.Verify(c.GetHeader(header)) {
			ginutil.Forbidden(c)
			return
		}
		c.Next()
	}
}
