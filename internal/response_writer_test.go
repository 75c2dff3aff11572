package internal_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/loom/internal"
)

// bareWriter is an http.ResponseWriter with no optional interfaces.
type bareWriter struct{ h http.Header }

func (b *bareWriter) Header() http.Header {
	if b.h == nil {
		b.h = make(http.Header)
	}
	return b.h
}
func (b *bareWriter) Write(p []byte) (int, error) { return len(p), nil }
func (b *bareWriter) WriteHeader(int)             {}

func TestResponseWriterCommit(t *testing.T) {
	t.Parallel()

	t.Run("write header commits the status", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		rw := internal.NewResponseWriter(w, false)

		assert.False(t, rw.Written())
		rw.WriteHeader(http.StatusNotFound)

		assert.True(t, rw.Written())
		assert.Equal(t, http.StatusNotFound, rw.Status())
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("second write header is ignored", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		rw := internal.NewResponseWriter(w, false)

		rw.WriteHeader(http.StatusOK)
		rw.WriteHeader(http.StatusNotFound)

		assert.Equal(t, http.StatusOK, rw.Status())
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("first write commits an implicit 200", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		rw := internal.NewResponseWriter(w, false)

		n, err := rw.Write([]byte("hello"))
		require.NoError(t, err)
		assert.Equal(t, 5, n)

		assert.True(t, rw.Written())
		assert.Equal(t, http.StatusOK, rw.Status())
		assert.Equal(t, "hello", w.Body.String())
	})

	t.Run("size accumulates across writes", func(t *testing.T) {
		t.Parallel()

		rw := internal.NewResponseWriter(httptest.NewRecorder(), false)

		_, err := rw.Write([]byte("hello "))
		require.NoError(t, err)
		_, err = rw.Write([]byte("world"))
		require.NoError(t, err)

		assert.Equal(t, int64(11), rw.Size())
	})

	t.Run("htmx statuses pass through unchanged", func(t *testing.T) {
		t.Parallel()

		// Clients handle non-2xx swaps via htmx configuration; the
		// writer never rewrites what negotiation decided.
		for _, code := range []int{
			http.StatusOK,
			http.StatusUnprocessableEntity,
			http.StatusNotFound,
			http.StatusInternalServerError,
		} {
			w := httptest.NewRecorder()
			rw := internal.NewResponseWriter(w, true)
			rw.WriteHeader(code)

			assert.Equal(t, code, w.Code)
			assert.True(t, rw.IsHTMX())
		}
	})
}

func TestResponseWriterHooks(t *testing.T) {
	t.Parallel()

	t.Run("a hook can still stage headers", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		rw := internal.NewResponseWriter(w, false)

		rw.OnBeforeWrite(func() {
			rw.Header().Set("Set-Cookie", "sid=1")
		})
		rw.WriteHeader(http.StatusCreated)

		assert.Equal(t, "sid=1", w.Header().Get("Set-Cookie"))
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("hooks run in registration order", func(t *testing.T) {
		t.Parallel()

		rw := internal.NewResponseWriter(httptest.NewRecorder(), false)

		var order []int
		rw.OnBeforeWrite(func() { order = append(order, 1) })
		rw.OnBeforeWrite(func() { order = append(order, 2) })
		rw.OnBeforeWrite(func() { order = append(order, 3) })

		_, err := rw.Write([]byte("x"))
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2, 3}, order)
	})

	t.Run("hooks run once across header and write", func(t *testing.T) {
		t.Parallel()

		rw := internal.NewResponseWriter(httptest.NewRecorder(), false)

		calls := 0
		rw.OnBeforeWrite(func() { calls++ })

		rw.WriteHeader(http.StatusOK)
		_, err := rw.Write([]byte("data"))
		require.NoError(t, err)

		assert.Equal(t, 1, calls)
	})

	t.Run("hooks registered after commit never run", func(t *testing.T) {
		t.Parallel()

		rw := internal.NewResponseWriter(httptest.NewRecorder(), false)
		rw.WriteHeader(http.StatusOK)

		called := false
		rw.OnBeforeWrite(func() { called = true })
		_, err := rw.Write([]byte("data"))
		require.NoError(t, err)

		assert.False(t, called)
	})
}

func TestResponseWriterPassthrough(t *testing.T) {
	t.Parallel()

	t.Run("flush reaches the underlying flusher", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		rw := internal.NewResponseWriter(w, false)

		assert.True(t, rw.CanFlush())
		rw.Flush()
		assert.True(t, w.Flushed)
	})

	t.Run("flush tolerates writers without support", func(t *testing.T) {
		t.Parallel()

		rw := internal.NewResponseWriter(&bareWriter{}, false)
		assert.False(t, rw.CanFlush())
		rw.Flush()
	})

	t.Run("hijack and push report unsupported", func(t *testing.T) {
		t.Parallel()

		rw := internal.NewResponseWriter(httptest.NewRecorder(), false)

		_, _, err := rw.Hijack()
		assert.ErrorIs(t, err, http.ErrNotSupported)

		err = rw.Push("/asset.css", nil)
		assert.ErrorIs(t, err, http.ErrNotSupported)
	})

	t.Run("header and unwrap expose the wrapped writer", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		rw := internal.NewResponseWriter(w, false)

		rw.Header().Set("X-Test", "value")
		assert.Equal(t, "value", w.Header().Get("X-Test"))
		assert.Same(t, http.ResponseWriter(w), rw.Unwrap())
	})
}
