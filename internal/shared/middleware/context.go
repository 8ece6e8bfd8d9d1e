package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bookreview-backend/internal/shared"
)

// Context keys set by AuthMiddleware / RequestID / ClientIP
const (
	ContextKeyUserID    = "user_id"
	ContextKeyEmail     = "email"
	ContextKeyRole      = "role"
	ContextKeyTokenID   = "token_id"
	ContextKeyTokenExp  = "token_exp"
	ContextKeyRequestID = "request_id"
	ContextKeyClientIP  = "client_ip"
)

const roleAdmin = "admin"

// GetUserID lấy user ID đã được AuthMiddleware set
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(ContextKeyUserID)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// GetActor trả về user hiện tại kèm quyền admin
func GetActor(c *gin.Context) (shared.Actor, bool) {
	id, ok := GetUserID(c)
	if !ok {
		return shared.Actor{}, false
	}
	return shared.Actor{
		UserID:  id,
		IsAdmin: c.GetString(ContextKeyRole) == roleAdmin,
	}, true
}

// GetTokenInfo trả về jti và thời điểm hết hạn của access token hiện tại
func GetTokenInfo(c *gin.Context) (string, time.Time) {
	return c.GetString(ContextKeyTokenID), c.GetTime(ContextKeyTokenExp)
}
