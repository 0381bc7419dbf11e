package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches outer code", func(t *testing.T) {
		err := New(CodeNotFound, "missing")
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeInternal))
	})

	t.Run("matches nested code through fmt wrapping", func(t *testing.T) {
		inner := New(CodeConflict, "duplicate")
		outer := Wrap(fmt.Errorf("store: %w", inner), CodeInternal, "create failed")
		assert.True(t, HasCode(outer, CodeInternal))
		assert.True(t, HasCode(outer, CodeConflict))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
		assert.False(t, HasCode(nil, CodeInternal))
	})
}

func TestWrap(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
	})

	t.Run("cause is reachable with errors.Is", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := Wrap(cause, CodeUnavailable, "ledger unavailable")
		require.Error(t, err)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "ledger unavailable: connection refused", err.Error())
		assert.Equal(t, CodeUnavailable, CodeOf(err))
		assert.Equal(t, "ledger unavailable", MessageOf(err))
	})
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:  http.StatusBadRequest,
		CodeForbidden:   http.StatusForbidden,
		CodeLocked:      http.StatusLocked,
		CodeUnavailable: http.StatusServiceUnavailable,
		Code("unknown"): http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, HTTPStatus(code), "code %s", code)
	}
}
