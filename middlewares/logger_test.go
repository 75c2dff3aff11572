package middlewares_test

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/loom"
	"github.com/dmitrymomot/loom/middlewares"
)

func TestLogger(t *testing.T) {
	t.Parallel()

	t.Run("logs method path and status", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		app := loom.New(
			loom.WithCustomLogger(slog.New(slog.NewTextHandler(&buf, nil))),
			loom.WithMiddleware(middlewares.Logger()),
		)
		app.GET("/hello", func(c loom.Context) (any, error) { return "hi", nil })
		require.NoError(t, app.Freeze())

		w := httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/hello", nil))

		require.Equal(t, http.StatusOK, w.Code)
		out := buf.String()
		assert.Contains(t, out, "msg=request")
		assert.Contains(t, out, "method=GET")
		assert.Contains(t, out, "path=/hello")
		assert.Contains(t, out, "status=200")
		assert.Contains(t, out, "duration=")
	})

	t.Run("logs explicit status codes", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		app := loom.New(
			loom.WithCustomLogger(slog.New(slog.NewTextHandler(&buf, nil))),
			loom.WithMiddleware(middlewares.Logger()),
		)
		app.POST("/things", func(c loom.Context) (any, error) {
			return loom.WithStatus("created", http.StatusCreated), nil
		})
		require.NoError(t, app.Freeze())

		w := httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/things", nil))

		require.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, buf.String(), "status=201")
	})

	t.Run("failed requests logged as warning", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		app := loom.New(
			loom.WithCustomLogger(slog.New(slog.NewTextHandler(&buf, nil))),
			loom.WithMiddleware(middlewares.Logger()),
		)
		app.GET("/fail", func(c loom.Context) (any, error) {
			return nil, errors.New("storage offline")
		})
		require.NoError(t, app.Freeze())

		w := httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))

		require.Equal(t, http.StatusInternalServerError, w.Code)
		out := buf.String()
		assert.Contains(t, out, "request failed")
		assert.Contains(t, out, "storage offline")
	})

	t.Run("skip predicate silences paths", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		app := loom.New(
			loom.WithCustomLogger(slog.New(slog.NewTextHandler(&buf, nil))),
			loom.WithMiddleware(middlewares.Logger(
				middlewares.WithLoggerSkip(func(path string) bool { return path == "/health" }),
			)),
		)
		app.GET("/health", func(c loom.Context) (any, error) { return "up", nil })
		app.GET("/page", func(c loom.Context) (any, error) { return "page", nil })
		require.NoError(t, app.Freeze())

		w := httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.NotContains(t, buf.String(), "msg=request")

		w = httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/page", nil))
		assert.Contains(t, buf.String(), "path=/page")
	})
}
