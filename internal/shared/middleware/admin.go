package middleware

import (
	"github.com/gin-gonic/gin"

	"bookreview-backend/internal/shared/response"
)

// AdminMiddleware checks if user has admin role
// Phải đặt sau AuthMiddleware
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextKeyRole) != roleAdmin {
			response.Forbidden(c, "Access denied: admin role required")
			c.Abort()
			return
		}

		c.Next()
	}
}
