package terminology

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadRequest(t *testing.T) {
	err := BadRequest("parameter %q is required", "code")

	var rich *goerrors.Error
	require.True(t, goerrors.As(err, &rich))
	assert.Equal(t, goerrors.CategoryBadInput, rich.Category)
	assert.Equal(t, http.StatusBadRequest, rich.Code)
	assert.Equal(t, TextCodeBadRequest, rich.TextCode)
	assert.True(t, IsBadRequest(err))
	assert.False(t, IsNotFound(err))
}

func TestNotFound(t *testing.T) {
	err := NotFound("source %q not found", "CIEL")

	var rich *goerrors.Error
	require.True(t, goerrors.As(err, &rich))
	assert.Equal(t, goerrors.CategoryNotFound, rich.Category)
	assert.Equal(t, http.StatusNotFound, rich.Code)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsBadRequest(err))
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusOK, StatusCode(nil))
	assert.Equal(t, http.StatusBadRequest, StatusCode(BadRequest("x")))
	assert.Equal(t, http.StatusNotFound, StatusCode(NotFound("x")))
	assert.Equal(t, http.StatusInternalServerError, StatusCode(errors.New("boom")))
}

func TestCategory_Wrapped(t *testing.T) {
	err := fmt.Errorf("resolve collection: %w", NotFound("collection not found"))
	assert.True(t, IsNotFound(err))
	assert.False(t, IsNotFound(errors.New("plain")))
	assert.False(t, IsBadRequest(nil))
}
