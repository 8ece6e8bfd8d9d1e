package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"bookreview-backend/internal/shared/response"
	"bookreview-backend/pkg/cache"
	"bookreview-backend/pkg/jwt"
)

// TokenValidator parse + verify access token; *jwt.Manager implement interface này
type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

// AuthMiddleware - Middleware xác thực JWT token
// Token đã logout (jti nằm trong blacklist) bị từ chối.
func AuthMiddleware(tokens TokenValidator, blacklist cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Lấy token từ Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "Not authorized, no token")
			c.Abort()
			return
		}

		// 2. Extract token từ "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			response.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		// 3. Verify và parse JWT
		claims, err := tokens.ValidateToken(parts[1])
		if err != nil {
			response.Unauthorized(c, "Not authorized, token failed")
			c.Abort()
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			response.Unauthorized(c, "Invalid user ID in token")
			c.Abort()
			return
		}

		// 4. Check blacklist. Redis lỗi thì cho qua, chỉ log warning
		if blacklist != nil && claims.ID != "" {
			revoked, err := blacklist.Exists(c.Request.Context(), cache.TokenBlacklistKey(claims.ID))
			if err != nil {
				log.Warn().Err(err).Msg("Token blacklist check failed")
			} else if revoked {
				response.Unauthorized(c, "Token has been revoked")
				c.Abort()
				return
			}
		}

		// 5. Set claims vào context
		c.Set(ContextKeyUserID, userID)
		c.Set(ContextKeyEmail, claims.Email)
		c.Set(ContextKeyRole, claims.Role)
		c.Set(ContextKeyTokenID, claims.ID)
		if claims.ExpiresAt != nil {
			c.Set(ContextKeyTokenExp, claims.ExpiresAt.Time)
		}

		c.Next()
	}
}
