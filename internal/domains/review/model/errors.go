package model

import (
	"errors"

	"bookreview-backend/internal/shared/apperr"
)

// Error codes
const (
	ErrCodeReviewNotFound  = "REV001"
	ErrCodeAlreadyReviewed = "REV002"
	ErrCodeNotAuthor       = "REV003"
	ErrCodeOwnReview       = "REV004"
	ErrCodeBookNotFound    = "REV005"
	ErrCodeUserNotFound    = "REV006"
)

// Repository-level errors
var (
	ErrReviewNotFound  = errors.New("review not found")
	ErrAlreadyReviewed = errors.New("already reviewed this book")
)

func NewReviewNotFoundError(id string) *apperr.Error {
	return apperr.NotFound(ErrCodeReviewNotFound, "review", id)
}

func NewAlreadyReviewedError(bookID string) *apperr.Error {
	return apperr.Conflict(ErrCodeAlreadyReviewed, "review", bookID,
		"You have already reviewed this book. You can update your existing review instead.")
}

func NewNotAuthorError(id, action string) *apperr.Error {
	return apperr.Forbidden(ErrCodeNotAuthor, "review", id, "Not authorized to "+action+" this review")
}

func NewOwnReviewError(id string) *apperr.Error {
	return apperr.Forbidden(ErrCodeOwnReview, "review", id, "You cannot mark your own review as helpful")
}

func NewBookNotFoundError(id string) *apperr.Error {
	return apperr.NotFound(ErrCodeBookNotFound, "book", id)
}

func NewUserNotFoundError(id string) *apperr.Error {
	return apperr.NotFound(ErrCodeUserNotFound, "user", id)
}
