package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"qnadonate/src/infra/logger"
)

// Logging emits one structured line per request. The level follows the
// response status: 5xx at ERROR, 4xx at WARN, everything else at INFO.
func Logging(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if q := c.Request.URL.RawQuery; q != "" {
			path = path + "?" + q
		}

		c.Next()

		status := c.Writer.Status()
		reqLog := logger.WithRequestID(log, GetRequestID(c))
		args := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
		}
		if caller := c.GetHeader(CallerHeader); caller != "" {
			args = append(args, "caller_id", caller)
		}
		if len(c.Errors) > 0 {
			args = append(args, "errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			reqLog.Error("request handled", args...)
		case status >= 400:
			reqLog.Warn("request handled", args...)
		default:
			reqLog.Info("request handled", args...)
		}
	}
}
