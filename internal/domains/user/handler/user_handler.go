package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bookreview-backend/internal/domains/user"
	"bookreview-backend/internal/shared"
	"bookreview-backend/internal/shared/middleware"
	"bookreview-backend/internal/shared/response"
	"bookreview-backend/internal/shared/utils"
)

// UserHandler xử lý HTTP requests cho auth + profile
// Struct này là stateless - chỉ chứa dependencies
type UserHandler struct {
	service  user.Service
	enqueuer shared.TaskEnqueuer
}

// NewUserHandler tạo handler instance
func NewUserHandler(service user.Service, enqueuer shared.TaskEnqueuer) *UserHandler {
	return &UserHandler{
		service:  service,
		enqueuer: enqueuer,
	}
}

// ========================================
// AUTHENTICATION ENDPOINTS
// ========================================

// Signup xử lý POST /auth/signup
func (h *UserHandler) Signup(c *gin.Context) {
	// STEP 1: PARSE REQUEST BODY
	var req user.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	// STEP 2: CALL SERVICE LAYER
	result, err := h.service.Signup(c.Request.Context(), req)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	// STEP 3: SUCCESS RESPONSE
	c.Header("Location", "/api/v1/auth/me")
	response.Success(c, http.StatusCreated, result)
}

// Login xử lý POST /auth/login
func (h *UserHandler) Login(c *gin.Context) {
	var req user.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// Logout xử lý POST /auth/logout - token hiện tại bị blacklist
func (h *UserHandler) Logout(c *gin.Context) {
	tokenID, expiresAt := middleware.GetTokenInfo(c)

	if err := h.service.Logout(c.Request.Context(), tokenID, expiresAt); err != nil {
		response.HandleError(c, err)
		return
	}

	response.SuccessMessage(c, http.StatusOK, "Logged out successfully")
}

// ========================================
// PROFILE ENDPOINTS
// ========================================

// Me xử lý GET /auth/me
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Not authorized")
		return
	}

	profile, err := h.service.GetProfile(c.Request.Context(), userID)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, profile)
}

// UpdateDetails xử lý PUT /auth/updatedetails
func (h *UserHandler) UpdateDetails(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Not authorized")
		return
	}

	var req user.UpdateDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	profile, err := h.service.UpdateDetails(c.Request.Context(), userID, req)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, profile)
}

// UpdatePassword xử lý PUT /auth/updatepassword - trả về token mới
func (h *UserHandler) UpdatePassword(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Not authorized")
		return
	}

	var req user.UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.service.UpdatePassword(c.Request.Context(), userID, req)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// Stats xử lý GET /auth/stats
func (h *UserHandler) Stats(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Not authorized")
		return
	}

	stats, err := h.service.GetStats(c.Request.Context(), userID)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, stats)
}

// ========================================
// ADMIN ENDPOINTS
// ========================================

// ReconcileCounters xử lý POST /admin/maintenance/reconcile-counters
// Chỉ enqueue task, worker mới thực sự đếm lại.
func (h *UserHandler) ReconcileCounters(c *gin.Context) {
	payload := shared.ReconcileCountersPayload{}
	if raw := c.Query("user_id"); raw != "" {
		userID, ok := utils.ParseUUID(raw)
		if !ok {
			response.BadRequest(c, "Invalid user_id")
			return
		}
		payload.UserID = userID.String()
	}

	if err := h.enqueuer.Enqueue(c.Request.Context(), shared.TypeReconcileCounters, payload); err != nil {
		response.HandleError(c, err)
		return
	}

	response.SuccessMessage(c, http.StatusAccepted, "Counter reconciliation scheduled")
}
