package model

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"bookreview-backend/internal/shared/rules"
)

const (
	MaxTags      = 10
	MaxTagLength = 30
)

// ========================================
// REQUEST DTOs
// ========================================

type CreateBookRequest struct {
	Title         string   `json:"title"`
	Author        string   `json:"author"`
	Description   string   `json:"description"`
	Genre         string   `json:"genre"`
	PublishedYear int      `json:"published_year"`
	ISBN          *string  `json:"isbn"`
	Pages         *int     `json:"pages"`
	Language      *string  `json:"language"`
	Publisher     *string  `json:"publisher"`
	Tags          []string `json:"tags"`
}

// Normalize trim các field text và chuẩn hóa tags
func (r *CreateBookRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Author = strings.TrimSpace(r.Author)
	r.Description = strings.TrimSpace(r.Description)
	r.Genre = strings.TrimSpace(r.Genre)
	r.ISBN = rules.TrimPtr(r.ISBN)
	r.Language = rules.TrimPtr(r.Language)
	r.Publisher = rules.TrimPtr(r.Publisher)
	r.Tags = NormalizeTags(r.Tags)
}

func (r CreateBookRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title,
			validation.Required.Error("please provide a book title"),
			validation.RuneLength(1, 200).Error("title cannot be more than 200 characters"),
		),
		validation.Field(&r.Author,
			validation.Required.Error("please provide an author name"),
			validation.RuneLength(1, 100).Error("author name cannot be more than 100 characters"),
		),
		validation.Field(&r.Description,
			validation.Required.Error("please provide a book description"),
			validation.RuneLength(10, 2000).Error("description must be between 10 and 2000 characters"),
		),
		validation.Field(&r.Genre,
			validation.Required.Error("please select a genre"),
			validation.In(genreValues()...).Error("please select a valid genre"),
		),
		validation.Field(&r.PublishedYear,
			validation.Required.Error("please provide the published year"),
			rules.IntBetween(1000, time.Now().Year()),
		),
		validation.Field(&r.ISBN, rules.ISBN),
		validation.Field(&r.Pages, rules.IntBetween(1, 10000)),
		validation.Field(&r.Language, validation.RuneLength(0, 50)),
		validation.Field(&r.Publisher, validation.RuneLength(0, 100)),
		validation.Field(&r.Tags,
			validation.Length(0, MaxTags).Error("a book cannot have more than 10 tags"),
			validation.Each(validation.RuneLength(1, MaxTagLength)),
		),
	)
}

// UpdateBookRequest: field nil giữ nguyên giá trị cũ.
// owner và aggregate không có trong request nên không thể bị sửa qua API.
type UpdateBookRequest struct {
	Title         *string  `json:"title"`
	Author        *string  `json:"author"`
	Description   *string  `json:"description"`
	Genre         *string  `json:"genre"`
	PublishedYear *int     `json:"published_year"`
	ISBN          *string  `json:"isbn"`
	Pages         *int     `json:"pages"`
	Language      *string  `json:"language"`
	Publisher     *string  `json:"publisher"`
	Tags          []string `json:"tags"`
}

func (r *UpdateBookRequest) Normalize() {
	r.Title = trimKeep(r.Title)
	r.Author = trimKeep(r.Author)
	r.Description = trimKeep(r.Description)
	r.Genre = trimKeep(r.Genre)
	r.ISBN = trimKeep(r.ISBN)
	r.Language = trimKeep(r.Language)
	r.Publisher = trimKeep(r.Publisher)
	if r.Tags != nil {
		r.Tags = NormalizeTags(r.Tags)
	}
}

func (r UpdateBookRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.NilOrNotEmpty, validation.RuneLength(1, 200)),
		validation.Field(&r.Author, validation.NilOrNotEmpty, validation.RuneLength(1, 100)),
		validation.Field(&r.Description, validation.NilOrNotEmpty, validation.RuneLength(10, 2000)),
		validation.Field(&r.Genre,
			validation.NilOrNotEmpty,
			validation.In(genreValues()...).Error("please select a valid genre"),
		),
		validation.Field(&r.PublishedYear, rules.IntBetween(1000, time.Now().Year())),
		validation.Field(&r.ISBN, validation.When(r.ISBN != nil && *r.ISBN != "", rules.ISBN)),
		validation.Field(&r.Pages, rules.IntBetween(1, 10000)),
		validation.Field(&r.Language, validation.NilOrNotEmpty, validation.RuneLength(1, 50)),
		validation.Field(&r.Publisher, validation.RuneLength(0, 100)),
		validation.Field(&r.Tags,
			validation.Length(0, MaxTags).Error("a book cannot have more than 10 tags"),
			validation.Each(validation.RuneLength(1, MaxTagLength)),
		),
	)
}

// Apply ghi các field được gửi lên vào entity.
// ISBN/publisher rỗng nghĩa là xóa giá trị.
func (r UpdateBookRequest) Apply(b *Book) {
	if r.Title != nil {
		b.Title = *r.Title
	}
	if r.Author != nil {
		b.Author = *r.Author
	}
	if r.Description != nil {
		b.Description = *r.Description
	}
	if r.Genre != nil {
		b.Genre = Genre(*r.Genre)
	}
	if r.PublishedYear != nil {
		b.PublishedYear = *r.PublishedYear
	}
	if r.ISBN != nil {
		b.ISBN = rules.TrimPtr(r.ISBN)
	}
	if r.Pages != nil {
		b.Pages = r.Pages
	}
	if r.Language != nil {
		b.Language = *r.Language
	}
	if r.Publisher != nil {
		b.Publisher = rules.TrimPtr(r.Publisher)
	}
	if r.Tags != nil {
		b.Tags = r.Tags
	}
}

// NormalizeTags: trim, lowercase, bỏ tag rỗng và tag trùng (giữ thứ tự xuất hiện)
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func trimKeep(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	return &trimmed
}

// ========================================
// QUERY DTOs
// ========================================

// Sort keys cho danh sách book
const (
	SortTitle   = "title"
	SortAuthor  = "author"
	SortYear    = "year"
	SortNewest  = "newest"
	SortOldest  = "oldest"
	SortRating  = "rating"
	SortCreated = "created"
	SortUpdated = "updated"
)

// BookFilter - filter object cho repository.List
type BookFilter struct {
	Search    string
	Genre     string
	OwnerID   *uuid.UUID
	MinRating *float64
	MinYear   *int
	MaxYear   *int
	Sort      string
	Offset    int
	Limit     int
}

// SearchRequest - GET /books/search
type SearchRequest struct {
	Query     string
	Genre     string
	MinRating *float64
	MinYear   *int
	MaxYear   *int
}

// ========================================
// RESPONSE DTOs
// ========================================

type OwnerInfo struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name,omitempty"`
}

type BookResponse struct {
	ID                      uuid.UUID `json:"id"`
	Title                   string    `json:"title"`
	Author                  string    `json:"author"`
	Description             string    `json:"description"`
	Genre                   Genre     `json:"genre"`
	PublishedYear           int       `json:"published_year"`
	ISBN                    *string   `json:"isbn,omitempty"`
	Pages                   *int      `json:"pages,omitempty"`
	Language                string    `json:"language"`
	Publisher               *string   `json:"publisher,omitempty"`
	Tags                    []string  `json:"tags"`
	CoverImage              *string   `json:"cover_image,omitempty"`
	AverageRating           float64   `json:"average_rating"`
	TotalReviews            int       `json:"total_reviews"`
	EstimatedReadingMinutes *int      `json:"estimated_reading_minutes,omitempty"`
	AddedBy                 OwnerInfo `json:"added_by"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

func ToBookResponse(b *Book) BookResponse {
	tags := b.Tags
	if tags == nil {
		tags = []string{}
	}
	return BookResponse{
		ID:                      b.ID,
		Title:                   b.Title,
		Author:                  b.Author,
		Description:             b.Description,
		Genre:                   b.Genre,
		PublishedYear:           b.PublishedYear,
		ISBN:                    b.ISBN,
		Pages:                   b.Pages,
		Language:                b.Language,
		Publisher:               b.Publisher,
		Tags:                    tags,
		CoverImage:              b.CoverImage,
		AverageRating:           b.AverageRating,
		TotalReviews:            b.TotalReviews,
		EstimatedReadingMinutes: b.EstimatedReadingMinutes(),
		AddedBy:                 OwnerInfo{ID: b.OwnerID, Name: b.OwnerName},
		CreatedAt:               b.CreatedAt,
		UpdatedAt:               b.UpdatedAt,
	}
}

func ToBookResponses(books []Book) []BookResponse {
	out := make([]BookResponse, len(books))
	for i := range books {
		out[i] = ToBookResponse(&books[i])
	}
	return out
}

type GenreCount struct {
	Name  Genre `json:"name"`
	Count int   `json:"count"`
}

type GenresResponse struct {
	Genres     []GenreCount `json:"genres"`
	TotalBooks int          `json:"total_books"`
}

// OwnerSummary kèm theo danh sách book của một user
type OwnerSummary struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	BooksCount   int       `json:"books_count"`
	ReviewsCount int       `json:"reviews_count"`
	JoinedDate   time.Time `json:"joined_date"`
}

type BooksByOwnerResponse struct {
	Books []BookResponse `json:"books"`
	User  OwnerSummary   `json:"user"`
}

// CoverUploadResponse - ảnh đã nhận, đang chờ worker xử lý
type CoverUploadResponse struct {
	BookID    uuid.UUID `json:"book_id"`
	ObjectKey string    `json:"object_key"`
	Status    string    `json:"status"`
}
