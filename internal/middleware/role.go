package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/pranaflow/backend/pkg/response"
)

// RequireRole gates a route to the listed roles. It must run after JWT,
// which puts the caller's role in the context.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := c.Get(ContextUserRole)
		if !ok {
			response.Unauthorized(c, "missing user context")
			c.Abort()
			return
		}
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		response.Forbidden(c, "insufficient permissions")
		c.Abort()
	}
}
