package model

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"bookreview-backend/internal/domains/rating"
	"bookreview-backend/internal/shared/rules"
)

var readingStatuses = []interface{}{
	string(StatusCompleted),
	string(StatusReading),
	string(StatusWantToRead),
}

// =====================================================
// REQUEST DTOs
// =====================================================

// CreateReviewRequest request to create review
type CreateReviewRequest struct {
	BookID        uuid.UUID `json:"book_id"`
	Rating        int       `json:"rating"`
	ReviewText    string    `json:"review_text"`
	Title         *string   `json:"title"`
	ReadingStatus *string   `json:"reading_status"`
	SpoilerAlert  bool      `json:"spoiler_alert"`
}

func (r *CreateReviewRequest) Normalize() {
	r.ReviewText = strings.TrimSpace(r.ReviewText)
	r.Title = rules.TrimPtr(r.Title)
	r.ReadingStatus = rules.TrimPtr(r.ReadingStatus)
}

func (r CreateReviewRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.BookID, rules.RequiredUUID),
		validation.Field(&r.Rating, rules.IntBetween(MinRating, MaxRating)),
		validation.Field(&r.ReviewText,
			validation.Required.Error("please provide review text"),
			validation.RuneLength(MinTextLength, MaxTextLength).Error("review must be between 10 and 1000 characters"),
		),
		validation.Field(&r.Title, validation.RuneLength(0, MaxTitleLength)),
		validation.Field(&r.ReadingStatus, validation.In(readingStatuses...).Error("invalid reading status")),
	)
}

// ToReview tạo entity mới ở trạng thái Active
func (r CreateReviewRequest) ToReview(userID uuid.UUID) *Review {
	status := StatusCompleted
	if r.ReadingStatus != nil {
		status = ReadingStatus(*r.ReadingStatus)
	}
	return &Review{
		BookID:        r.BookID,
		UserID:        userID,
		Rating:        r.Rating,
		ReviewText:    r.ReviewText,
		Title:         r.Title,
		ReadingStatus: status,
		SpoilerAlert:  r.SpoilerAlert,
	}
}

// UpdateReviewRequest: chỉ các field này được sửa; book_id/user_id bị bỏ qua
type UpdateReviewRequest struct {
	Rating        *int    `json:"rating"`
	ReviewText    *string `json:"review_text"`
	Title         *string `json:"title"`
	ReadingStatus *string `json:"reading_status"`
	SpoilerAlert  *bool   `json:"spoiler_alert"`
}

func (r *UpdateReviewRequest) Normalize() {
	if r.ReviewText != nil {
		text := strings.TrimSpace(*r.ReviewText)
		r.ReviewText = &text
	}
	if r.ReadingStatus != nil {
		status := strings.TrimSpace(*r.ReadingStatus)
		r.ReadingStatus = &status
	}
}

func (r UpdateReviewRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Rating, rules.IntBetween(MinRating, MaxRating)),
		validation.Field(&r.ReviewText,
			validation.NilOrNotEmpty.Error("please provide review text"),
			validation.RuneLength(MinTextLength, MaxTextLength).Error("review must be between 10 and 1000 characters"),
		),
		validation.Field(&r.Title, validation.RuneLength(0, MaxTitleLength)),
		validation.Field(&r.ReadingStatus,
			validation.NilOrNotEmpty,
			validation.In(readingStatuses...).Error("invalid reading status"),
		),
	)
}

// Apply ghi các field được gửi lên vào review. Title rỗng nghĩa là xóa title.
func (r UpdateReviewRequest) Apply(review *Review) {
	if r.Rating != nil {
		review.Rating = *r.Rating
	}
	if r.ReviewText != nil {
		review.ReviewText = *r.ReviewText
	}
	if r.Title != nil {
		review.Title = rules.TrimPtr(r.Title)
	}
	if r.ReadingStatus != nil {
		review.ReadingStatus = ReadingStatus(*r.ReadingStatus)
	}
	if r.SpoilerAlert != nil {
		review.SpoilerAlert = *r.SpoilerAlert
	}
}

// Sort keys cho danh sách review
const (
	SortNewest     = "newest"
	SortOldest     = "oldest"
	SortHelpful    = "helpful"
	SortRatingHigh = "rating-high"
	SortRatingLow  = "rating-low"
)

// ListQuery - sort + phân trang cho danh sách review
type ListQuery struct {
	Sort   string
	Offset int
	Limit  int
}

// =====================================================
// RESPONSE DTOs
// =====================================================

// UserInfo user information in review
type UserInfo struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name,omitempty"`
}

// BookInfo book information in review
type BookInfo struct {
	ID     uuid.UUID `json:"id"`
	Title  string    `json:"title,omitempty"`
	Author string    `json:"author,omitempty"`
}

// ReviewResponse response for review detail
type ReviewResponse struct {
	ID            uuid.UUID     `json:"id"`
	Book          BookInfo      `json:"book"`
	User          UserInfo      `json:"user"`
	Rating        int           `json:"rating"`
	ReviewText    string        `json:"review_text"`
	Title         *string       `json:"title,omitempty"`
	ReadingStatus ReadingStatus `json:"reading_status"`
	SpoilerAlert  bool          `json:"spoiler_alert"`
	HelpfulVotes  int           `json:"helpful_votes"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func ToReviewResponse(r *Review) ReviewResponse {
	return ReviewResponse{
		ID:            r.ID,
		Book:          BookInfo{ID: r.BookID, Title: r.BookTitle, Author: r.BookAuthor},
		User:          UserInfo{ID: r.UserID, Name: r.UserName},
		Rating:        r.Rating,
		ReviewText:    r.ReviewText,
		Title:         r.Title,
		ReadingStatus: r.ReadingStatus,
		SpoilerAlert:  r.SpoilerAlert,
		HelpfulVotes:  r.HelpfulVotes,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func ToReviewResponses(reviews []Review) []ReviewResponse {
	out := make([]ReviewResponse, len(reviews))
	for i := range reviews {
		out[i] = ToReviewResponse(&reviews[i])
	}
	return out
}

// BookReviewsResponse - GET /reviews/book/:bookId
type BookReviewsResponse struct {
	Reviews     []ReviewResponse `json:"reviews"`
	RatingStats rating.Summary   `json:"rating_stats"`
}

// ReviewerSummary thống kê rating mà user đã cho
type ReviewerSummary struct {
	ID                 uuid.UUID   `json:"id"`
	Name               string      `json:"name"`
	ReviewsCount       int         `json:"reviews_count"`
	AverageRatingGiven float64     `json:"average_rating_given"`
	RatingDistribution map[int]int `json:"rating_distribution"`
	JoinedDate         time.Time   `json:"joined_date"`
}

// UserReviewsResponse - GET /reviews/user/:userId
type UserReviewsResponse struct {
	Reviews []ReviewResponse `json:"reviews"`
	User    ReviewerSummary  `json:"user"`
}

// CheckReviewResponse - GET /reviews/check/:bookId
type CheckReviewResponse struct {
	HasReviewed bool            `json:"has_reviewed"`
	Review      *ReviewResponse `json:"review"`
}

// AverageRatingResponse - GET /reviews/average/:bookId
type AverageRatingResponse struct {
	BookID uuid.UUID `json:"book_id"`
	rating.Summary
}

type HelpfulResponse struct {
	HelpfulVotes int `json:"helpful_votes"`
}
