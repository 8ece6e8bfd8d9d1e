package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorsIsMatchesByKind(t *testing.T) {
	err := fmt.Errorf("create review: %w", Conflict("REV002", "review", "abc", "already reviewed"))

	assert.True(t, errors.Is(err, ErrConflict))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(err, &Error{Kind: KindConflict, Code: "REV002"}))
	assert.False(t, errors.Is(err, &Error{Kind: KindConflict, Code: "BOOK003"}))
}

func TestNotFoundCarriesEntityAndID(t *testing.T) {
	err := NotFound("BOOK001", "book", "42")

	assert.Equal(t, KindNotFound, err.Kind)
	assert.Equal(t, "book", err.Entity)
	assert.Equal(t, "42", err.ID)
	assert.Equal(t, "book not found with id 42", err.Error())
}

func TestStoreWrapsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Store("update book aggregate", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindStore, KindOf(err))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestValidationCollectsFieldErrors(t *testing.T) {
	req := struct{ Title string }{}
	verr := validation.ValidateStruct(&req,
		validation.Field(&req.Title, validation.Required),
	)
	require.Error(t, verr)

	err := Validation(verr)
	details, ok := err.Details.(map[string]string)
	require.True(t, ok)
	assert.Contains(t, details, "Title")
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err.Kind))
}

func TestKindOfUnclassified(t *testing.T) {
	assert.Equal(t, KindStore, KindOf(errors.New("boom")))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindNotFound:        http.StatusNotFound,
		KindConflict:        http.StatusConflict,
		KindForbidden:       http.StatusForbidden,
		KindValidation:      http.StatusBadRequest,
		KindUnauthorized:    http.StatusUnauthorized,
		KindTooManyRequests: http.StatusTooManyRequests,
		KindStore:           http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, HTTPStatus(kind), string(kind))
	}
}
