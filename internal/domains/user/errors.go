package user

import (
	"errors"

	"bookreview-backend/internal/shared/apperr"
)

// Error codes
const (
	ErrCodeUserNotFound       = "USR001"
	ErrCodeEmailExists        = "USR002"
	ErrCodeInvalidCredentials = "USR003"
	ErrCodeUserInactive       = "USR004"
	ErrCodeTooManyAttempts    = "USR005"
	ErrCodeWrongPassword      = "USR006"
	ErrCodeUnauthorized       = "USR007"
)

// Repository-level errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
)

func NewUserNotFoundError(id string) *apperr.Error {
	return apperr.NotFound(ErrCodeUserNotFound, "user", id)
}

func NewEmailExistsError(email string) *apperr.Error {
	return apperr.Conflict(ErrCodeEmailExists, "user", email, "User already exists with this email")
}

func NewInvalidCredentialsError() *apperr.Error {
	return apperr.Unauthorized(ErrCodeInvalidCredentials, "Invalid email or password")
}

func NewUserInactiveError() *apperr.Error {
	return apperr.Unauthorized(ErrCodeUserInactive, "User account is inactive")
}

func NewTooManyAttemptsError() *apperr.Error {
	return apperr.TooManyRequests(ErrCodeTooManyAttempts, "Too many failed login attempts, please try again later")
}

func NewWrongPasswordError() *apperr.Error {
	return apperr.Unauthorized(ErrCodeWrongPassword, "Current password is incorrect")
}
