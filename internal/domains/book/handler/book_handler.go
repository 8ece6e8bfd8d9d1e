package handler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"bookreview-backend/internal/domains/book/model"
	"bookreview-backend/internal/domains/book/service"
	"bookreview-backend/internal/shared/middleware"
	"bookreview-backend/internal/shared/paging"
	"bookreview-backend/internal/shared/response"
	"bookreview-backend/internal/shared/utils"
)

// MaxCoverSize giới hạn file upload ảnh bìa
const MaxCoverSize = 5 << 20

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handler - HTTP layer cho books, ảnh bìa và báo cáo
type Handler struct {
	service service.ServiceInterface
	covers  service.CoverServiceInterface
	reports service.ReportServiceInterface
}

// NewHandler - Constructor
func NewHandler(
	service service.ServiceInterface,
	covers service.CoverServiceInterface,
	reports service.ReportServiceInterface,
) *Handler {
	return &Handler{
		service: service,
		covers:  covers,
		reports: reports,
	}
}

// ========================================
// MUTATIONS
// ========================================

// CreateBook godoc
// POST /api/v1/books
func (h *Handler) CreateBook(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Not authorized")
		return
	}

	var req model.CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	book, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, book)
}

// UpdateBook godoc
// PUT /api/v1/books/:id
func (h *Handler) UpdateBook(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		response.Unauthorized(c, "Not authorized")
		return
	}

	bookID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	book, err := h.service.Update(c.Request.Context(), actor, bookID, req)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, book)
}

// DeleteBook godoc
// DELETE /api/v1/books/:id
func (h *Handler) DeleteBook(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		response.Unauthorized(c, "Not authorized")
		return
	}

	bookID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), actor, bookID); err != nil {
		response.HandleError(c, err)
		return
	}

	response.SuccessMessage(c, http.StatusOK, "Book deleted successfully")
}

// UploadCover godoc
// POST /api/v1/books/:id/cover (multipart, field "cover")
func (h *Handler) UploadCover(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		response.Unauthorized(c, "Not authorized")
		return
	}

	bookID, ok := pathID(c, "id")
	if !ok {
		return
	}

	// Step 1: Đọc file, chặn ở 5MB
	fileHeader, err := c.FormFile("cover")
	if err != nil {
		response.BadRequest(c, "Please upload a cover image in the 'cover' field")
		return
	}
	if fileHeader.Size > MaxCoverSize {
		response.HandleError(c, model.NewInvalidCoverError("Cover image must be at most 5MB"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.BadRequest(c, "Cannot read uploaded file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxCoverSize+1))
	if err != nil {
		response.BadRequest(c, "Cannot read uploaded file")
		return
	}

	// Step 2: Service validate + upload + enqueue resize
	result, err := h.covers.UploadCover(c.Request.Context(), actor, bookID, data)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusAccepted, result)
}

// ========================================
// PUBLIC READS
// ========================================

// GetBook godoc
// GET /api/v1/books/:id
func (h *Handler) GetBook(c *gin.Context) {
	bookID, ok := pathID(c, "id")
	if !ok {
		return
	}

	book, err := h.service.Get(c.Request.Context(), bookID)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, book)
}

// ListBooks godoc
// GET /api/v1/books?search=&genre=&sort=&min_rating=&min_year=&max_year=&page=&limit=
func (h *Handler) ListBooks(c *gin.Context) {
	p, err := paging.Parse(c.Query("page"), c.Query("limit"))
	if err != nil {
		response.HandleError(c, err)
		return
	}

	filter := model.BookFilter{
		Search: c.Query("search"),
		Sort:   c.DefaultQuery("sort", model.SortCreated),
		Offset: p.Offset(),
		Limit:  p.Limit,
	}
	if filter.Genre, err = genreFilter(c); err != nil {
		response.HandleError(c, err)
		return
	}
	if filter.MinRating, filter.MinYear, filter.MaxYear, err = parseRangeFilters(c); err != nil {
		response.HandleError(c, err)
		return
	}

	books, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	meta := paging.NewMeta(p, total)
	response.SuccessWithMeta(c, http.StatusOK, books, &meta)
}

// SearchBooks godoc
// GET /api/v1/books/search?q=&genre=&min_rating=&min_year=&max_year=&page=&limit=
func (h *Handler) SearchBooks(c *gin.Context) {
	p, err := paging.Parse(c.Query("page"), c.Query("limit"))
	if err != nil {
		response.HandleError(c, err)
		return
	}

	req := model.SearchRequest{Query: c.Query("q")}
	if req.Genre, err = genreFilter(c); err != nil {
		response.HandleError(c, err)
		return
	}
	if req.MinRating, req.MinYear, req.MaxYear, err = parseRangeFilters(c); err != nil {
		response.HandleError(c, err)
		return
	}

	books, total, err := h.service.Search(c.Request.Context(), req, p.Offset(), p.Limit)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	meta := paging.NewMeta(p, total)
	response.SuccessWithMeta(c, http.StatusOK, books, &meta)
}

// ListByOwner godoc
// GET /api/v1/books/user/:userId
func (h *Handler) ListByOwner(c *gin.Context) {
	ownerID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	p, err := paging.Parse(c.Query("page"), c.Query("limit"))
	if err != nil {
		response.HandleError(c, err)
		return
	}

	result, total, err := h.service.ListByOwner(c.Request.Context(), ownerID, p.Offset(), p.Limit)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	meta := paging.NewMeta(p, total)
	response.SuccessWithMeta(c, http.StatusOK, result, &meta)
}

// Genres godoc
// GET /api/v1/books/genres
func (h *Handler) Genres(c *gin.Context) {
	result, err := h.service.Genres(c.Request.Context())
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// Popular godoc
// GET /api/v1/books/popular?limit=
func (h *Handler) Popular(c *gin.Context) {
	limit, ok := showcaseLimit(c)
	if !ok {
		return
	}

	books, err := h.service.Popular(c.Request.Context(), limit)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, books)
}

// Recent godoc
// GET /api/v1/books/recent?limit=
func (h *Handler) Recent(c *gin.Context) {
	limit, ok := showcaseLimit(c)
	if !ok {
		return
	}

	books, err := h.service.Recent(c.Request.Context(), limit)
	if err != nil {
		response.HandleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, books)
}

// ========================================
// ADMIN
// ========================================

// ExportRatings godoc
// GET /api/v1/admin/reports/ratings
// Build vào buffer trước để lỗi vẫn trả được JSON envelope
func (h *Handler) ExportRatings(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.reports.ExportRatings(c.Request.Context(), &buf); err != nil {
		response.HandleError(c, err)
		return
	}

	filename := fmt.Sprintf("book-ratings-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())

	log.Info().Str("filename", filename).Int("bytes", buf.Len()).Msg("Rating report downloaded")
}

// ========================================
// HELPERS
// ========================================

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, ok := utils.ParseUUID(c.Param(name))
	if !ok {
		response.BadRequest(c, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func showcaseLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return service.DefaultShowcaseLimit, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > service.MaxShowcaseLimit {
		response.BadRequest(c, "Limit must be a positive integer between 1 and 50")
		return 0, false
	}
	return n, true
}

// genreFilter: rỗng = mọi genre, còn lại phải nằm trong AllGenres
func genreFilter(c *gin.Context) (string, error) {
	raw := c.Query("genre")
	if raw != "" && !model.Genre(raw).IsValid() {
		return "", model.NewInvalidQueryError("Unknown genre: " + raw)
	}
	return raw, nil
}

// parseRangeFilters đọc min_rating, min_year, max_year (đều optional)
func parseRangeFilters(c *gin.Context) (*float64, *int, *int, error) {
	var (
		minRating *float64
		minYear   *int
		maxYear   *int
	)

	if raw := c.Query("min_rating"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 || v > 5 {
			return nil, nil, nil, model.NewInvalidQueryError("min_rating must be a number between 0 and 5")
		}
		minRating = &v
	}

	year := func(name string) (*int, error) {
		raw := c.Query(name)
		if raw == "" {
			return nil, nil
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, model.NewInvalidQueryError(name + " must be an integer")
		}
		return &v, nil
	}

	var err error
	if minYear, err = year("min_year"); err != nil {
		return nil, nil, nil, err
	}
	if maxYear, err = year("max_year"); err != nil {
		return nil, nil, nil, err
	}
	if minYear != nil && maxYear != nil && *minYear > *maxYear {
		return nil, nil, nil, model.NewInvalidQueryError("min_year cannot be greater than max_year")
	}

	return minRating, minYear, maxYear, nil
}
