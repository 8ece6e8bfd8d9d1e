package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"bookreview-backend/internal/domains/review/model"
	"bookreview-backend/internal/domains/review/service"
	"bookreview-backend/internal/shared/middleware"
	"bookreview-backend/internal/shared/paging"
	"bookreview-backend/internal/shared/response"
	"bookreview-backend/internal/shared/utils"
)

// ReviewHandler xử lý HTTP requests cho reviews
type ReviewHandler struct {
	service service.ServiceInterface
}

func NewReviewHandler(service service.ServiceInterface) *ReviewHandler {
	return &ReviewHandler{service: service}
}

// ========================================
// MUTATIONS
// ========================================

// Create xử lý POST /reviews
func (h *ReviewHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Not authorized")
		return
	}

	var req model.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	review, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, review)
}

// Update xử lý PUT /reviews/:id
func (h *ReviewHandler) Update(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		response.Unauthorized(c, "Not authorized")
		return
	}

	reviewID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	review, err := h.service.Update(c.Request.Context(), actor, reviewID, req)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, review)
}

// Delete xử lý DELETE /reviews/:id
func (h *ReviewHandler) Delete(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		response.Unauthorized(c, "Not authorized")
		return
	}

	reviewID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), actor, reviewID); err != nil {
		response.HandleError(c, err)
		return
	}

	response.SuccessMessage(c, http.StatusOK, "Review deleted successfully")
}

// MarkHelpful xử lý POST /reviews/:id/helpful
func (h *ReviewHandler) MarkHelpful(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Not authorized")
		return
	}

	reviewID, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.service.MarkHelpful(c.Request.Context(), userID, reviewID)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// ========================================
// PUBLIC READS
// ========================================

// Get xử lý GET /reviews/:id
func (h *ReviewHandler) Get(c *gin.Context) {
	reviewID, ok := pathID(c, "id")
	if !ok {
		return
	}

	review, err := h.service.Get(c.Request.Context(), reviewID)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, review)
}

// ListForBook xử lý GET /reviews/book/:bookId?sort=&page=&limit=
func (h *ReviewHandler) ListForBook(c *gin.Context) {
	bookID, ok := pathID(c, "bookId")
	if !ok {
		return
	}

	p, q, ok := listQuery(c)
	if !ok {
		return
	}

	result, total, err := h.service.ListForBook(c.Request.Context(), bookID, q)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	meta := paging.NewMeta(p, total)
	response.SuccessWithMeta(c, http.StatusOK, result, &meta)
}

// ListByUser xử lý GET /reviews/user/:userId
func (h *ReviewHandler) ListByUser(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	p, q, ok := listQuery(c)
	if !ok {
		return
	}

	result, total, err := h.service.ListByUser(c.Request.Context(), userID, q)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	meta := paging.NewMeta(p, total)
	response.SuccessWithMeta(c, http.StatusOK, result, &meta)
}

// Average xử lý GET /reviews/average/:bookId
func (h *ReviewHandler) Average(c *gin.Context) {
	bookID, ok := pathID(c, "bookId")
	if !ok {
		return
	}

	result, err := h.service.AverageForBook(c.Request.Context(), bookID)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// MostHelpful xử lý GET /reviews/helpful/:bookId?limit=
func (h *ReviewHandler) MostHelpful(c *gin.Context) {
	bookID, ok := pathID(c, "bookId")
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.BadRequest(c, "Limit must be a positive integer")
			return
		}
		limit = n
	}

	reviews, err := h.service.MostHelpful(c.Request.Context(), bookID, limit)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, reviews)
}

// ========================================
// CURRENT USER
// ========================================

// ListMine xử lý GET /reviews/my/reviews
func (h *ReviewHandler) ListMine(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Not authorized")
		return
	}

	p, q, ok := listQuery(c)
	if !ok {
		return
	}

	reviews, total, err := h.service.ListMine(c.Request.Context(), userID, q)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	meta := paging.NewMeta(p, total)
	response.SuccessWithMeta(c, http.StatusOK, reviews, &meta)
}

// CheckMine xử lý GET /reviews/check/:bookId
func (h *ReviewHandler) CheckMine(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Not authorized")
		return
	}

	bookID, ok := pathID(c, "bookId")
	if !ok {
		return
	}

	result, err := h.service.CheckMine(c.Request.Context(), userID, bookID)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// ========================================
// HELPERS
// ========================================

// pathID parse UUID từ path param; ghi 400 và trả false nếu sai format
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, ok := utils.ParseUUID(c.Param(name))
	if !ok {
		response.BadRequest(c, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func listQuery(c *gin.Context) (paging.Params, model.ListQuery, bool) {
	p, err := paging.Parse(c.Query("page"), c.Query("limit"))
	if err != nil {
		response.HandleError(c, err)
		return p, model.ListQuery{}, false
	}

	return p, model.ListQuery{
		Sort:   c.DefaultQuery("sort", model.SortNewest),
		Offset: p.Offset(),
		Limit:  p.Limit,
	}, true
}
