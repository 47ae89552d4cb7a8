package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	RequestIDHeader = "X-Request-ID"
	ctxRequestID    = "requestID"
	ctxLogger       = "logger"
)

// RequestID tags every request with an id, reusing the caller's when sent.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// Logger writes one access line per request and exposes a request-scoped
// entry to handlers through GetLogger.
func Logger(lg *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		entry := lg.WithField("request_id", c.GetString(ctxRequestID))
		c.Set(ctxLogger, entry)

		c.Next()

		fields := log.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"ip":      c.ClientIP(),
		}
		if uid := GetUserID(c); uid != 0 {
			fields["user_id"] = uid
		}
		e := entry.WithFields(fields)
		switch {
		case c.Writer.Status() >= 500:
			e.Error("request failed")
		case c.Writer.Status() >= 400:
			e.Warn("request rejected")
		default:
			e.Info("request handled")
		}
	}
}

// GetLogger returns the request-scoped log entry.
func GetLogger(c *gin.Context) *log.Entry {
	if v, ok := c.Get(ctxLogger); ok {
		if e, ok := v.(*log.Entry); ok {
			return e
		}
	}
	return log.NewEntry(log.StandardLogger()).WithField("request_id", c.GetString(ctxRequestID))
}
