package model

import (
	"errors"

	"bookreview-backend/internal/shared/apperr"
)

// Error codes
const (
	ErrCodeBookNotFound  = "BOOK001"
	ErrCodeISBNExists    = "BOOK002"
	ErrCodeNotOwner      = "BOOK003"
	ErrCodeInvalidQuery  = "BOOK004"
	ErrCodeInvalidCover  = "BOOK005"
	ErrCodeOwnerNotFound = "BOOK006"
)

// Repository-level errors
var (
	ErrBookNotFound      = errors.New("book not found")
	ErrISBNAlreadyExists = errors.New("ISBN already exists")
)

func NewBookNotFoundError(id string) *apperr.Error {
	return apperr.NotFound(ErrCodeBookNotFound, "book", id)
}

func NewISBNExistsError(isbn string) *apperr.Error {
	return apperr.Conflict(ErrCodeISBNExists, "book", isbn, "A book with this ISBN already exists")
}

func NewNotOwnerError(id, action string) *apperr.Error {
	return apperr.Forbidden(ErrCodeNotOwner, "book", id, "Not authorized to "+action+" this book")
}

func NewInvalidQueryError(msg string) *apperr.Error {
	return apperr.InvalidInput(ErrCodeInvalidQuery, msg)
}

func NewInvalidCoverError(msg string) *apperr.Error {
	return apperr.InvalidInput(ErrCodeInvalidCover, msg)
}

func NewOwnerNotFoundError(id string) *apperr.Error {
	return apperr.NotFound(ErrCodeOwnerNotFound, "user", id)
}
