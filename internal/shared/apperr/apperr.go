package apperr

import (
	"errors"
	"fmt"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Kind phân loại lỗi nghiệp vụ. Mỗi Kind map sang đúng một HTTP status.
type Kind string

const (
	KindNotFound        Kind = "NOT_FOUND"
	KindConflict        Kind = "CONFLICT"
	KindForbidden       Kind = "FORBIDDEN"
	KindValidation      Kind = "VALIDATION_ERROR"
	KindStore           Kind = "STORE_ERROR"
	KindUnauthorized    Kind = "UNAUTHORIZED"
	KindTooManyRequests Kind = "TOO_MANY_REQUESTS"
)

// Sentinels for errors.Is matching by kind only.
var (
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrConflict        = &Error{Kind: KindConflict}
	ErrForbidden       = &Error{Kind: KindForbidden}
	ErrValidation      = &Error{Kind: KindValidation}
	ErrStore           = &Error{Kind: KindStore}
	ErrUnauthorized    = &Error{Kind: KindUnauthorized}
	ErrTooManyRequests = &Error{Kind: KindTooManyRequests}
)

// Error carries the kind plus the offending entity and identifier so the
// API layer can build a distinct message and status for each failure.
type Error struct {
	Kind    Kind
	Code    string
	Entity  string
	ID      string
	Message string
	Details interface{}
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by Kind, and by Code when the target sets one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

// ========================================
// CONSTRUCTORS
// ========================================

func NotFound(code, entity, id string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Code:    code,
		Entity:  entity,
		ID:      id,
		Message: fmt.Sprintf("%s not found with id %s", entity, id),
	}
}

func Conflict(code, entity, id, message string) *Error {
	return &Error{
		Kind:    KindConflict,
		Code:    code,
		Entity:  entity,
		ID:      id,
		Message: message,
	}
}

func Forbidden(code, entity, id, message string) *Error {
	return &Error{
		Kind:    KindForbidden,
		Code:    code,
		Entity:  entity,
		ID:      id,
		Message: message,
	}
}

func Unauthorized(code, message string) *Error {
	return &Error{
		Kind:    KindUnauthorized,
		Code:    code,
		Message: message,
	}
}

func TooManyRequests(code, message string) *Error {
	return &Error{
		Kind:    KindTooManyRequests,
		Code:    code,
		Message: message,
	}
}

// Store wraps a persistence failure. op describes what was attempted.
func Store(op string, err error) *Error {
	return &Error{
		Kind:    KindStore,
		Code:    string(KindStore),
		Message: fmt.Sprintf("failed to %s", op),
		Err:     err,
	}
}

// Validation wraps an ozzo-validation result; field errors go to Details.
func Validation(err error) *Error {
	appErr := &Error{
		Kind:    KindValidation,
		Code:    string(KindValidation),
		Message: "validation failed",
		Err:     err,
	}

	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		details := make(map[string]string, len(fieldErrs))
		for field, fe := range fieldErrs {
			details[field] = fe.Error()
		}
		appErr.Details = details
	} else if err != nil {
		appErr.Message = err.Error()
		appErr.Err = nil
	}

	return appErr
}

// InvalidInput is a validation failure that did not come from ozzo rules.
func InvalidInput(code, message string) *Error {
	return &Error{
		Kind:    KindValidation,
		Code:    code,
		Message: message,
	}
}

// ========================================
// HELPERS
// ========================================

// KindOf returns the Kind of the first *Error in the chain, or KindStore
// for anything unclassified.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindStore
}

func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
