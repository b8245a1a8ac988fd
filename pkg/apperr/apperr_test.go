package apperr

import (
	"net/http"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrom(t *testing.T) {
	t.Run("typed error passes through wrapping", func(t *testing.T) {
		base := NotFound("product %s not found", "p1")
		wrapped := errors.Wrap(base, "add item")

		got := From(wrapped)
		require.NotNil(t, got)
		assert.Equal(t, CodeNotFound, got.Code)
		assert.Equal(t, http.StatusNotFound, got.Status)
		assert.Equal(t, "product p1 not found", got.Message)
	})

	t.Run("unexpected error becomes internal without leaking", func(t *testing.T) {
		got := From(errors.New("pq: connection reset"))
		assert.Equal(t, CodeInternal, got.Code)
		assert.Equal(t, http.StatusInternalServerError, got.Status)
		assert.NotContains(t, got.Message, "connection reset")
	})
}

func TestIsMatchesByCode(t *testing.T) {
	err := errors.Wrap(Conflict("flash sale overlap"), "create sale")
	assert.True(t, errors.Is(err, Conflict("")))
	assert.False(t, errors.Is(err, NotFound("")))
}

func TestWithCauseKeepsStatus(t *testing.T) {
	cause := errors.New("gateway timeout")
	err := Internal("payment gateway failure").WithCause(cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
}
