package model

import (
	"time"

	"github.com/google/uuid"

	"bookreview-backend/internal/shared/lifecycle"
)

const (
	wordsPerPage   = 250
	wordsPerMinute = 200

	DefaultLanguage = "English"
)

// Book entity
// AverageRating / TotalReviews là dữ liệu dẫn xuất, chỉ rating.Aggregator được ghi.
type Book struct {
	ID            uuid.UUID
	Title         string
	Author        string
	Description   string
	Genre         Genre
	PublishedYear int
	ISBN          *string
	Pages         *int
	Language      string
	Publisher     *string
	Tags          []string
	CoverImage    *string
	OwnerID       uuid.UUID
	AverageRating float64
	TotalReviews  int
	State         lifecycle.State
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Joined từ users, chỉ có khi đọc
	OwnerName string
}

func (b *Book) IsActive() bool {
	return b.State.IsActive()
}

// EstimatedReadingMinutes = ceil(pages * 250 / 200); nil khi không có pages
func (b *Book) EstimatedReadingMinutes() *int {
	if b.Pages == nil || *b.Pages <= 0 {
		return nil
	}
	words := *b.Pages * wordsPerPage
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	return &minutes
}

// CoverPrefix là thư mục chứa ảnh bìa của book trên object storage
func CoverPrefix(bookID uuid.UUID) string {
	return "covers/" + bookID.String() + "/"
}

func CoverOriginalKey(bookID uuid.UUID, ext string) string {
	return CoverPrefix(bookID) + "original." + ext
}

func CoverKey(bookID uuid.UUID) string {
	return CoverPrefix(bookID) + "cover.jpg"
}
