package middlewares

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrymomot/loom/internal"
	"github.com/dmitrymomot/loom/pkg/cache"
	"github.com/dmitrymomot/loom/pkg/htmx"
)

// CachedPage is the stored form of a rendered response. Its fields are
// exported so the Redis cache backend can serialize it.
type CachedPage struct {
	Status      int               `json:"status"`
	ContentType string            `json:"content_type"`
	Headers     []internal.Header `json:"headers,omitempty"`
	Body        []byte            `json:"body"`
}

// PageCacheConfig configures the page cache middleware.
type PageCacheConfig struct {
	// TTL is passed to the cache on store. Zero uses the cache's
	// default TTL.
	TTL time.Duration

	// Key derives the cache key for a request. The default varies on
	// host, request URI, and the htmx fragment headers.
	Key func(c internal.Context) string

	// AllowCookies also caches requests that carry cookies. Off by
	// default: responses to cookie-carrying requests may be rendered
	// for one specific visitor.
	AllowCookies bool

	// Skip bypasses the cache for matching requests.
	Skip func(c internal.Context) bool
}

// PageCacheOption configures PageCacheConfig.
type PageCacheOption func(*PageCacheConfig)

// WithPageCacheTTL sets how long stored pages stay fresh.
func WithPageCacheTTL(d time.Duration) PageCacheOption {
	return func(cfg *PageCacheConfig) {
		cfg.TTL = d
	}
}

// WithPageCacheKey replaces the default key derivation.
func WithPageCacheKey(fn func(c internal.Context) string) PageCacheOption {
	return func(cfg *PageCacheConfig) {
		cfg.Key = fn
	}
}

// WithPageCacheAllowCookies caches requests that carry cookies. Only
// safe on routes whose output does not depend on who is asking.
func WithPageCacheAllowCookies() PageCacheOption {
	return func(cfg *PageCacheConfig) {
		cfg.AllowCookies = true
	}
}

// WithPageCacheSkip bypasses the cache when skip returns true.
func WithPageCacheSkip(skip func(c internal.Context) bool) PageCacheOption {
	return func(cfg *PageCacheConfig) {
		cfg.Skip = skip
	}
}

// PageCache returns middleware that answers repeated GET requests from
// a cache of rendered responses. Only complete 200 responses without
// cookie directives are stored. Fragment requests are keyed apart from
// full pages, so a cached page never answers an hx-request and vice
// versa. Responses gain an X-Cache header reporting HIT or MISS.
//
// Attach it to routes whose output is the same for every visitor:
//
//	pages := cache.NewMemory[middlewares.CachedPage](cache.WithCapacity(1000))
//	app.GET("/pricing", showPricing, middlewares.PageCache(pages,
//	    middlewares.WithPageCacheTTL(5*time.Minute),
//	))
func PageCache(store cache.Cache[CachedPage], opts ...PageCacheOption) internal.Middleware {
	cfg := &PageCacheConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Key == nil {
		cfg.Key = PageCacheKey
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) (any, error) {
			r := c.HTTPRequest()
			if r.Method != http.MethodGet {
				return next(c)
			}
			if cfg.Skip != nil && cfg.Skip(c) {
				return next(c)
			}
			if !cfg.AllowCookies && len(r.Cookies()) > 0 {
				return next(c)
			}

			key := cfg.Key(c)

			// A no-cache request skips the lookup but still refreshes
			// the stored entry on the way out.
			if !wantsFresh(r) {
				if page, ok, err := store.Get(c.Context(), key); err == nil && ok {
					return restorePage(page).WithHeader("X-Cache", "HIT"), nil
				}
			}

			value, err := next(c)
			if err != nil {
				return value, err
			}

			resp, ok := value.(*internal.Response)
			if !ok || resp.StatusCode() != http.StatusOK || len(resp.Cookies()) > 0 {
				return value, nil
			}

			if err := store.Set(c.Context(), key, snapshotPage(resp), cfg.TTL); err != nil {
				c.LogWarn("page cache store failed", "key", key, "error", err.Error())
			}
			return resp.WithHeader("X-Cache", "MISS"), nil
		}
	}
}

// PageCacheKey is the default key derivation: host and request URI,
// with fragment requests partitioned by the htmx target.
func PageCacheKey(c internal.Context) string {
	r := c.HTTPRequest()

	var b strings.Builder
	b.WriteString(r.Host)
	b.WriteString(r.URL.RequestURI())
	if htmx.IsHTMX(r) {
		b.WriteString("|hx")
		if target := htmx.Target(r); target != "" {
			b.WriteByte('|')
			b.WriteString(target)
		}
	}
	return b.String()
}

func wantsFresh(r *http.Request) bool {
	cc := r.Header.Get("Cache-Control")
	return strings.Contains(cc, "no-cache") ||
		strings.Contains(cc, "no-store") ||
		r.Header.Get("Pragma") == "no-cache"
}

func snapshotPage(resp *internal.Response) CachedPage {
	return CachedPage{
		Status:      resp.StatusCode(),
		ContentType: resp.ContentType(),
		Headers:     resp.Headers(),
		Body:        resp.Body(),
	}
}

func restorePage(page CachedPage) *internal.Response {
	resp := internal.NewResponse(page.Status, page.ContentType, page.Body)
	for _, h := range page.Headers {
		resp = resp.WithAddedHeader(h.Key, h.Value)
	}
	return resp
}
