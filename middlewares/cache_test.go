package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/loom"
	"github.com/dmitrymomot/loom/middlewares"
	"github.com/dmitrymomot/loom/pkg/cache"
)

// pageApp serves /page through the cache middleware and counts how
// often the handler actually renders.
func pageApp(t *testing.T, opts ...middlewares.PageCacheOption) (*loom.App, *int) {
	t.Helper()

	store := cache.NewMemory[middlewares.CachedPage]()
	t.Cleanup(func() { _ = store.Close() })

	renders := 0
	app := loom.New()
	app.GET("/page", func(c loom.Context) (any, error) {
		renders++
		return "<h1>rendered</h1>", nil
	}, middlewares.PageCache(store, opts...))
	require.NoError(t, app.Freeze())
	return app, &renders
}

func get(app *loom.App, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/page", nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)
	return w
}

func TestPageCache(t *testing.T) {
	t.Parallel()

	t.Run("second request is served from cache", func(t *testing.T) {
		t.Parallel()

		app, renders := pageApp(t)

		first := get(app)
		require.Equal(t, http.StatusOK, first.Code)
		assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
		assert.Contains(t, first.Body.String(), "rendered")

		second := get(app)
		require.Equal(t, http.StatusOK, second.Code)
		assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
		assert.Equal(t, first.Body.String(), second.Body.String())
		assert.Equal(t, first.Header().Get("Content-Type"), second.Header().Get("Content-Type"))
		assert.Equal(t, 1, *renders)
	})

	t.Run("fragment requests are keyed apart from pages", func(t *testing.T) {
		t.Parallel()

		app, renders := pageApp(t)

		get(app)
		get(app, "HX-Request", "true", "HX-Target", "#list")

		assert.Equal(t, 2, *renders, "a cached page must not answer an hx-request")

		get(app, "HX-Request", "true", "HX-Target", "#list")
		assert.Equal(t, 2, *renders, "the fragment entry should now hit")

		get(app, "HX-Request", "true", "HX-Target", "#sidebar")
		assert.Equal(t, 3, *renders, "a different target is a different entry")
	})

	t.Run("cookie-carrying requests bypass by default", func(t *testing.T) {
		t.Parallel()

		app, renders := pageApp(t)

		w := get(app, "Cookie", "sid=abc")
		assert.Empty(t, w.Header().Get("X-Cache"))
		get(app, "Cookie", "sid=abc")
		assert.Equal(t, 2, *renders)
	})

	t.Run("allow-cookies opts back in", func(t *testing.T) {
		t.Parallel()

		app, renders := pageApp(t, middlewares.WithPageCacheAllowCookies())

		get(app, "Cookie", "sid=abc")
		w := get(app, "Cookie", "sid=abc")
		assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
		assert.Equal(t, 1, *renders)
	})

	t.Run("no-cache request refreshes the entry", func(t *testing.T) {
		t.Parallel()

		app, renders := pageApp(t)

		get(app)
		require.Equal(t, 1, *renders)

		w := get(app, "Cache-Control", "no-cache")
		assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
		assert.Equal(t, 2, *renders)

		w = get(app)
		assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
		assert.Equal(t, 2, *renders)
	})

	t.Run("ttl expires entries", func(t *testing.T) {
		t.Parallel()

		app, renders := pageApp(t, middlewares.WithPageCacheTTL(20*time.Millisecond))

		get(app)
		time.Sleep(40 * time.Millisecond)
		get(app)
		assert.Equal(t, 2, *renders)
	})

	t.Run("skip predicate bypasses", func(t *testing.T) {
		t.Parallel()

		app, renders := pageApp(t, middlewares.WithPageCacheSkip(func(c loom.Context) bool {
			return c.Query("preview") != ""
		}))

		w := httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/page?preview=1", nil))
		assert.Empty(t, w.Header().Get("X-Cache"))

		w = httptest.NewRecorder()
		app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/page?preview=1", nil))
		assert.Equal(t, 2, *renders)
	})

	t.Run("custom key function", func(t *testing.T) {
		t.Parallel()

		app, renders := pageApp(t, middlewares.WithPageCacheKey(func(c loom.Context) string {
			return "everyone-gets-the-same-page"
		}))

		get(app)
		get(app, "HX-Request", "true")
		assert.Equal(t, 1, *renders, "a constant key collapses all variants")
	})
}

func TestPageCacheStoresOnlyCompleteOKResponses(t *testing.T) {
	t.Parallel()

	t.Run("non-200 is not stored", func(t *testing.T) {
		t.Parallel()

		store := cache.NewMemory[middlewares.CachedPage]()
		t.Cleanup(func() { _ = store.Close() })

		renders := 0
		app := loom.New()
		app.GET("/gone", func(c loom.Context) (any, error) {
			renders++
			return loom.WithStatus("<p>moved away</p>", http.StatusGone), nil
		}, middlewares.PageCache(store))
		require.NoError(t, app.Freeze())

		for range 2 {
			w := httptest.NewRecorder()
			app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/gone", nil))
			require.Equal(t, http.StatusGone, w.Code)
			assert.Empty(t, w.Header().Get("X-Cache"))
		}
		assert.Equal(t, 2, renders)
	})

	t.Run("errors pass through uncached", func(t *testing.T) {
		t.Parallel()

		store := cache.NewMemory[middlewares.CachedPage]()
		t.Cleanup(func() { _ = store.Close() })

		renders := 0
		app := loom.New()
		app.GET("/broken", func(c loom.Context) (any, error) {
			renders++
			return nil, c.Error(http.StatusServiceUnavailable, "warming up")
		}, middlewares.PageCache(store))
		require.NoError(t, app.Freeze())

		for range 2 {
			w := httptest.NewRecorder()
			app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/broken", nil))
			require.Equal(t, http.StatusServiceUnavailable, w.Code)
		}
		assert.Equal(t, 2, renders)
	})

	t.Run("POST bypasses entirely", func(t *testing.T) {
		t.Parallel()

		store := cache.NewMemory[middlewares.CachedPage]()
		t.Cleanup(func() { _ = store.Close() })

		renders := 0
		app := loom.New()
		app.POST("/submit", func(c loom.Context) (any, error) {
			renders++
			return "accepted", nil
		}, middlewares.PageCache(store))
		require.NoError(t, app.Freeze())

		for range 2 {
			w := httptest.NewRecorder()
			app.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/submit", nil))
			require.Equal(t, http.StatusOK, w.Code)
			assert.Empty(t, w.Header().Get("X-Cache"))
		}
		assert.Equal(t, 2, renders)
	})
}
