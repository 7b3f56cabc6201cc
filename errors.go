package terminology

import (
	"fmt"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes attached to terminology errors.
const (
	TextCodeBadRequest = "BAD_REQUEST"
	TextCodeNotFound   = "NOT_FOUND"
)

// BadRequest returns an error for a missing or contradictory parameter.
func BadRequest(format string, args ...any) error {
	return goerrors.New(fmt.Sprintf(format, args...), goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(TextCodeBadRequest)
}

// NotFound returns an error for a source, collection or concept that
// cannot be resolved.
func NotFound(format string, args ...any) error {
	return goerrors.New(fmt.Sprintf(format, args...), goerrors.CategoryNotFound).
		WithCode(http.StatusNotFound).
		WithTextCode(TextCodeNotFound)
}

// IsBadRequest reports whether err carries the bad-input category.
func IsBadRequest(err error) bool {
	return hasCategory(err, goerrors.CategoryBadInput)
}

// IsNotFound reports whether err carries the not-found category.
func IsNotFound(err error) bool {
	return hasCategory(err, goerrors.CategoryNotFound)
}

// StatusCode maps err to an HTTP status for the transport layer.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsBadRequest(err):
		return http.StatusBadRequest
	case IsNotFound(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func hasCategory(err error, category goerrors.Category) bool {
	if err == nil {
		return false
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich.Category == category
	}
	return false
}
