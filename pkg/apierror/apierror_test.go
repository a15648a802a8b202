package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultsServerMessage(t *testing.T) {
	assert.Equal(t, DefaultMessage, New(http.StatusInternalServerError, "").Message)
	assert.Equal(t, DefaultMessage, New(http.StatusBadGateway, "").Message)
	assert.Empty(t, New(http.StatusBadRequest, "").Message)
	assert.Equal(t, "nope", New(http.StatusForbidden, "nope").Message)
}

func TestErrorStringIncludesCause(t *testing.T) {
	cause := errors.New("connection refused")
	e := Wrap(http.StatusBadGateway, "upstream failed", cause)

	assert.Equal(t, "upstream failed: connection refused", e.Error())
	assert.Equal(t, "plain", New(http.StatusNotFound, "plain").Error())
}

func TestUnwrapPreservesChain(t *testing.T) {
	sentinel := errors.New("row not found")
	e := Wrap(http.StatusNotFound, "user not found", fmt.Errorf("lookup: %w", sentinel))

	assert.True(t, errors.Is(e, sentinel))
}

func TestFrom(t *testing.T) {
	orig := Conflict("email already taken")
	wrapped := fmt.Errorf("register: %w", orig)

	got, ok := From(wrapped)
	require.True(t, ok)
	assert.Same(t, orig, got)

	_, ok = From(errors.New("opaque"))
	assert.False(t, ok)
}

func TestTaxonomyHelpers(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, BadRequest("bad", map[string]string{"email": "required"}).Status)
	assert.Equal(t, http.StatusUnauthorized, Unauthorized("no").Status)
	assert.Equal(t, http.StatusNotFound, NotFound("gone").Status)
	assert.Equal(t, http.StatusConflict, Conflict("taken").Status)

	in := Internal(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, in.Status)
	assert.Equal(t, DefaultMessage, in.Message)
	assert.EqualError(t, in.Unwrap(), "boom")
}

func TestWithDetails(t *testing.T) {
	details := map[string]string{"username": "must be at least 3 characters"}
	e := WithDetails(http.StatusBadRequest, "validation failed", details)

	assert.Equal(t, details, e.Details)
	assert.Equal(t, "validation failed", e.Message)
}
