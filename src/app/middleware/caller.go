package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"qnadonate/src/infra/identity"
)

// CallerHeader carries the authenticated caller id set by the upstream gateway.
const CallerHeader = "X-User-Id"

// Caller copies the X-User-Id header onto the request context so the
// services can resolve it through identity.ContextProvider. Requests without
// the header pass through; operations that need a caller reject them with 401.
func Caller() gin.HandlerFunc {
	return func(c *gin.Context) {
		callerID := strings.TrimSpace(c.GetHeader(CallerHeader))
		if callerID != "" {
			ctx := identity.WithCaller(c.Request.Context(), callerID)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}
