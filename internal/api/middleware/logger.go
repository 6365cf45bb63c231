package middleware

import (
	"time"

	"solar-battery-sim/internal/log"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Logger attaches a request-scoped logger to the request context and logs
// each request once it completes.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := c.GetHeader("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header("X-Request-ID", reqID)

		l := log.Ctx(c.Request.Context()).With("request_id", reqID)
		c.Request = c.Request.WithContext(log.With(c.Request.Context(), l))

		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		}
		if len(c.Errors) > 0 {
			args = append(args, "errors", c.Errors.String())
		}
		switch {
		case c.Writer.Status() >= 500:
			l.Error("request", args...)
		case c.Writer.Status() >= 400:
			l.Warn("request", args...)
		default:
			l.Info("request", args...)
		}
	}
}
