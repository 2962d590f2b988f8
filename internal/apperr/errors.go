// Package apperr defines the error taxonomy shared by services and the HTTP
// layer. Services wrap these sentinels with context; handlers map them to
// status codes with HTTPStatus.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound covers both missing entities and ownership mismatches on
	// most read paths, so callers cannot probe for other users' sessions.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is an ownership mismatch on the metric/suggestion item
	// paths, which do distinguish missing from foreign-owned.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthorized is a missing or invalid auth token or credential.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrValidation is a malformed request (bad enum value, mixed-session batch).
	ErrValidation = errors.New("validation failed")
	// ErrConflict is a uniqueness violation (duplicate registration email).
	ErrConflict = errors.New("conflict")
)

// NotFoundf wraps ErrNotFound with a formatted message.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrNotFound}, args...)...)
}

// Forbiddenf wraps ErrForbidden with a formatted message.
func Forbiddenf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrForbidden}, args...)...)
}

// Unauthorizedf wraps ErrUnauthorized with a formatted message.
func Unauthorizedf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrUnauthorized}, args...)...)
}

// Validationf wraps ErrValidation with a formatted message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}

// Conflictf wraps ErrConflict with a formatted message.
func Conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrConflict}, args...)...)
}

// HTTPStatus maps err to an HTTP status code. Unrecognized errors map to 500.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
