package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bookreview-backend/internal/domains/book/model"
	"bookreview-backend/internal/shared"
	"bookreview-backend/internal/shared/middleware"
)

// ========================================
// MOCKS
// ========================================

type mockBookService struct{ mock.Mock }

func (m *mockBookService) Create(ctx context.Context, ownerID uuid.UUID, req model.CreateBookRequest) (*model.BookResponse, error) {
	args := m.Called(ctx, ownerID, req)
	resp, _ := args.Get(0).(*model.BookResponse)
	return resp, args.Error(1)
}

func (m *mockBookService) Update(ctx context.Context, actor shared.Actor, bookID uuid.UUID, req model.UpdateBookRequest) (*model.BookResponse, error) {
	args := m.Called(ctx, actor, bookID, req)
	resp, _ := args.Get(0).(*model.BookResponse)
	return resp, args.Error(1)
}

func (m *mockBookService) Delete(ctx context.Context, actor shared.Actor, bookID uuid.UUID) error {
	return m.Called(ctx, actor, bookID).Error(0)
}

func (m *mockBookService) Get(ctx context.Context, bookID uuid.UUID) (*model.BookResponse, error) {
	args := m.Called(ctx, bookID)
	resp, _ := args.Get(0).(*model.BookResponse)
	return resp, args.Error(1)
}

func (m *mockBookService) List(ctx context.Context, filter model.BookFilter) ([]model.BookResponse, int, error) {
	args := m.Called(ctx, filter)
	resp, _ := args.Get(0).([]model.BookResponse)
	return resp, args.Int(1), args.Error(2)
}

func (m *mockBookService) ListByOwner(ctx context.Context, ownerID uuid.UUID, offset, limit int) (*model.BooksByOwnerResponse, int, error) {
	args := m.Called(ctx, ownerID, offset, limit)
	resp, _ := args.Get(0).(*model.BooksByOwnerResponse)
	return resp, args.Int(1), args.Error(2)
}

func (m *mockBookService) Genres(ctx context.Context) (*model.GenresResponse, error) {
	args := m.Called(ctx)
	resp, _ := args.Get(0).(*model.GenresResponse)
	return resp, args.Error(1)
}

func (m *mockBookService) Popular(ctx context.Context, limit int) ([]model.BookResponse, error) {
	args := m.Called(ctx, limit)
	resp, _ := args.Get(0).([]model.BookResponse)
	return resp, args.Error(1)
}

func (m *mockBookService) Recent(ctx context.Context, limit int) ([]model.BookResponse, error) {
	args := m.Called(ctx, limit)
	resp, _ := args.Get(0).([]model.BookResponse)
	return resp, args.Error(1)
}

func (m *mockBookService) Search(ctx context.Context, req model.SearchRequest, offset, limit int) ([]model.BookResponse, int, error) {
	args := m.Called(ctx, req, offset, limit)
	resp, _ := args.Get(0).([]model.BookResponse)
	return resp, args.Int(1), args.Error(2)
}

type mockCoverService struct{ mock.Mock }

func (m *mockCoverService) UploadCover(ctx context.Context, actor shared.Actor, bookID uuid.UUID, data []byte) (*model.CoverUploadResponse, error) {
	args := m.Called(ctx, actor, bookID, data)
	resp, _ := args.Get(0).(*model.CoverUploadResponse)
	return resp, args.Error(1)
}

func (m *mockCoverService) ProcessCover(ctx context.Context, bookID uuid.UUID, objectKey string) error {
	return m.Called(ctx, bookID, objectKey).Error(0)
}

func (m *mockCoverService) DeleteCovers(ctx context.Context, bookID uuid.UUID) error {
	return m.Called(ctx, bookID).Error(0)
}

type stubReports struct {
	content []byte
	err     error
}

func (s stubReports) ExportRatings(_ context.Context, w io.Writer) error {
	if s.err != nil {
		return s.err
	}
	_, err := w.Write(s.content)
	return err
}

// ========================================
// SETUP
// ========================================

type bookEnv struct {
	svc     *mockBookService
	covers  *mockCoverService
	reports stubReports
	userID  uuid.UUID
	role    string
}

func (e *bookEnv) router() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if e.userID != uuid.Nil {
		r.Use(func(c *gin.Context) {
			c.Set(middleware.ContextKeyUserID, e.userID)
			c.Set(middleware.ContextKeyRole, e.role)
			c.Next()
		})
	}

	h := NewHandler(e.svc, e.covers, e.reports)
	r.GET("/books", h.ListBooks)
	r.GET("/books/search", h.SearchBooks)
	r.GET("/books/popular", h.Popular)
	r.GET("/books/:id", h.GetBook)
	r.POST("/books", h.CreateBook)
	r.DELETE("/books/:id", h.DeleteBook)
	r.POST("/books/:id/cover", h.UploadCover)
	r.GET("/admin/reports/ratings", h.ExportRatings)
	return r
}

func newBookEnv(userID uuid.UUID, role string) *bookEnv {
	return &bookEnv{
		svc:    new(mockBookService),
		covers: new(mockCoverService),
		userID: userID,
		role:   role,
	}
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

// ========================================
// TESTS
// ========================================

func TestListBooksParsesFilters(t *testing.T) {
	env := newBookEnv(uuid.Nil, "")

	minRating, minYear, maxYear := 3.5, 1990, 2000
	env.svc.On("List", mock.Anything, model.BookFilter{
		Search:    "dune",
		Genre:     "Science Fiction",
		MinRating: &minRating,
		MinYear:   &minYear,
		MaxYear:   &maxYear,
		Sort:      model.SortRating,
		Offset:    20,
		Limit:     20,
	}).Return([]model.BookResponse{}, 0, nil).Once()

	req := httptest.NewRequest(http.MethodGet,
		"/books?search=dune&genre=Science+Fiction&sort=rating&min_rating=3.5&min_year=1990&max_year=2000&page=2&limit=20", nil)
	w := serve(env.router(), req)

	assert.Equal(t, http.StatusOK, w.Code)
	env.svc.AssertExpectations(t)
}

func TestListBooksRejectsBadFilters(t *testing.T) {
	env := newBookEnv(uuid.Nil, "")
	r := env.router()

	for _, query := range []string{"min_rating=seven", "min_rating=6", "min_year=abc", "min_year=2001&max_year=2000", "genre=Cyberpunk"} {
		w := serve(r, httptest.NewRequest(http.MethodGet, "/books?"+query, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, query)
		assert.Equal(t, model.ErrCodeInvalidQuery, errorCode(t, w), query)
	}
	env.svc.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestSearchBooksEmptyQuery(t *testing.T) {
	env := newBookEnv(uuid.Nil, "")
	env.svc.On("Search", mock.Anything, model.SearchRequest{}, 0, 10).
		Return(nil, 0, model.NewInvalidQueryError("Please provide a search query")).Once()

	w := serve(env.router(), httptest.NewRequest(http.MethodGet, "/books/search", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, model.ErrCodeInvalidQuery, errorCode(t, w))
}

func TestPopularLimit(t *testing.T) {
	env := newBookEnv(uuid.Nil, "")
	env.svc.On("Popular", mock.Anything, 10).Return([]model.BookResponse{}, nil).Once()
	r := env.router()

	w := serve(r, httptest.NewRequest(http.MethodGet, "/books/popular", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/books/popular?limit=51", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	env.svc.AssertExpectations(t)
}

func TestGetBookNotFound(t *testing.T) {
	env := newBookEnv(uuid.Nil, "")
	bookID := uuid.New()
	env.svc.On("Get", mock.Anything, bookID).Return(nil, model.NewBookNotFoundError(bookID.String())).Once()

	w := serve(env.router(), httptest.NewRequest(http.MethodGet, "/books/"+bookID.String(), nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, model.ErrCodeBookNotFound, errorCode(t, w))
}

func TestCreateBookBadJSON(t *testing.T) {
	env := newBookEnv(uuid.New(), "user")

	req := httptest.NewRequest(http.MethodPost, "/books", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := serve(env.router(), req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env.svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteBookAsAdmin(t *testing.T) {
	adminID, bookID := uuid.New(), uuid.New()
	env := newBookEnv(adminID, "admin")
	env.svc.On("Delete", mock.Anything, shared.Actor{UserID: adminID, IsAdmin: true}, bookID).Return(nil).Once()

	w := serve(env.router(), httptest.NewRequest(http.MethodDelete, "/books/"+bookID.String(), nil))

	assert.Equal(t, http.StatusOK, w.Code)
	env.svc.AssertExpectations(t)
}

func coverRequest(t *testing.T, bookID uuid.UUID, field string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, "cover.png")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/books/"+bookID.String()+"/cover", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadCover(t *testing.T) {
	userID, bookID := uuid.New(), uuid.New()
	env := newBookEnv(userID, "user")
	data := []byte("fake image bytes")

	env.covers.On("UploadCover", mock.Anything, shared.Actor{UserID: userID}, bookID, data).
		Return(&model.CoverUploadResponse{BookID: bookID, ObjectKey: model.CoverOriginalKey(bookID, "png"), Status: "processing"}, nil).Once()

	w := serve(env.router(), coverRequest(t, bookID, "cover", data))

	assert.Equal(t, http.StatusAccepted, w.Code)
	env.covers.AssertExpectations(t)
}

func TestUploadCoverValidation(t *testing.T) {
	bookID := uuid.New()
	env := newBookEnv(uuid.New(), "user")
	r := env.router()

	w := serve(r, coverRequest(t, bookID, "image", []byte("x")))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(r, coverRequest(t, bookID, "cover", bytes.Repeat([]byte("x"), MaxCoverSize+1)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, model.ErrCodeInvalidCover, errorCode(t, w))

	env.covers.AssertNotCalled(t, "UploadCover", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestExportRatings(t *testing.T) {
	env := newBookEnv(uuid.New(), "admin")
	env.reports = stubReports{content: []byte("PK-xlsx")}

	w := serve(env.router(), httptest.NewRequest(http.MethodGet, "/admin/reports/ratings", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment; filename=\"book-ratings-")
	assert.Equal(t, "PK-xlsx", w.Body.String())
}

func TestExportRatingsFailure(t *testing.T) {
	env := newBookEnv(uuid.New(), "admin")
	env.reports = stubReports{err: assert.AnError}

	w := serve(env.router(), httptest.NewRequest(http.MethodGet, "/admin/reports/ratings", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, w.Header().Get("Content-Disposition"))
}
