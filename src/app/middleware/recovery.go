package middleware

import (
	"log/slog"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"qnadonate/src/app/http/response"
)

// Recovery turns a panic in a handler into a 500 response and logs it with
// the stack trace. Register it first so it wraps every other middleware.
//
//	router.Use(middleware.Recovery(logger))
func Recovery(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			requestID := GetRequestID(c)
			log.Error("panic recovered",
				"request_id", requestID,
				"error", rec,
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
				"stack", string(debug.Stack()),
			)
			// Internal details stay in the log.
			response.InternalError(c, requestID)
			c.Abort()
		}()

		c.Next()
	}
}
