package middlewares_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/loom"
	"github.com/dmitrymomot/loom/middlewares"
)

// observeErrors records the error each request resolved to, from the
// vantage point of middleware outside the one under test.
func observeErrors(sink *error) loom.Middleware {
	return func(next loom.HandlerFunc) loom.HandlerFunc {
		return func(c loom.Context) (any, error) {
			value, err := next(c)
			*sink = err
			return value, err
		}
	}
}

func TestRecover(t *testing.T) {
	t.Parallel()

	t.Run("converts panic to error for outer middleware", func(t *testing.T) {
		t.Parallel()

		var observed error
		app := loom.New(loom.WithMiddleware(
			observeErrors(&observed),
			middlewares.Recover(),
		))
		app.GET("/", func(c loom.Context) (any, error) {
			panic("boom")
		})
		require.NoError(t, app.Freeze())

		w := httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, http.StatusInternalServerError, w.Code)
		require.True(t, loom.IsPanicError(observed))

		pe := loom.AsPanicError(observed)
		require.NotNil(t, pe)
		assert.Equal(t, "boom", pe.Value)
		assert.NotEmpty(t, pe.Stack)
	})

	t.Run("stack capture can be disabled", func(t *testing.T) {
		t.Parallel()

		var observed error
		app := loom.New(loom.WithMiddleware(
			observeErrors(&observed),
			middlewares.Recover(middlewares.WithRecoverDisablePrintStack()),
		))
		app.GET("/", func(c loom.Context) (any, error) {
			panic("quiet")
		})
		require.NoError(t, app.Freeze())

		w := httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		pe := loom.AsPanicError(observed)
		require.NotNil(t, pe)
		assert.Empty(t, pe.Stack)
	})

	t.Run("normal requests pass through", func(t *testing.T) {
		t.Parallel()

		app := loom.New(loom.WithMiddleware(middlewares.Recover()))
		app.GET("/", func(c loom.Context) (any, error) { return "ok", nil })
		require.NoError(t, app.Freeze())

		w := httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ok", w.Body.String())
	})

	t.Run("error returns are not rewrapped", func(t *testing.T) {
		t.Parallel()

		handlerErr := errors.New("plain failure")
		var observed error
		app := loom.New(loom.WithMiddleware(
			observeErrors(&observed),
			middlewares.Recover(),
		))
		app.GET("/", func(c loom.Context) (any, error) {
			return nil, handlerErr
		})
		require.NoError(t, app.Freeze())

		w := httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, http.StatusInternalServerError, w.Code)
		assert.ErrorIs(t, observed, handlerErr)
		assert.False(t, loom.IsPanicError(observed))
	})
}
