package internal_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/loom/internal"
	"github.com/dmitrymomot/loom/pkg/cookie"
	"github.com/dmitrymomot/loom/pkg/session"
)

// probe reports what src yields inside a live GET or POST / request.
func probe(t *testing.T, src internal.ExtractorSource, req *http.Request, opts ...internal.Option) (string, bool) {
	t.Helper()

	var (
		val   string
		found bool
	)
	requestVia(t, req, opts, func(c internal.Context) {
		val, found = src(c)
	})
	return val, found
}

// probeParam is probe against a GET /{id} route, for path value sources.
func probeParam(t *testing.T, src internal.ExtractorSource, req *http.Request) (string, bool) {
	t.Helper()

	var (
		val    string
		found  bool
		called bool
	)
	app := internal.New(internal.WithHandlers(routes(func(r internal.Router) {
		r.GET("/{id}", func(c internal.Context) (any, error) {
			called = true
			val, found = src(c)
			return "", nil
		})
	})))
	require.NoError(t, app.Freeze())
	app.ServeHTTP(httptest.NewRecorder(), req)
	require.True(t, called, "request never reached the param route")
	return val, found
}

func TestExtractor(t *testing.T) {
	t.Parallel()

	hit := func(v string) internal.ExtractorSource {
		return func(internal.Context) (string, bool) { return v, true }
	}
	miss := func(internal.Context) (string, bool) { return "", false }

	tests := []struct {
		name    string
		sources []internal.ExtractorSource
		want    string
		found   bool
	}{
		{"no sources", nil, "", false},
		{"first hit wins", []internal.ExtractorSource{hit("first"), hit("second")}, "first", true},
		{"misses fall through", []internal.ExtractorSource{miss, hit("later")}, "later", true},
		{"blank hit counts as a miss", []internal.ExtractorSource{hit(""), hit("real")}, "real", true},
		{"all miss", []internal.ExtractorSource{miss, miss}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v, ok := internal.NewExtractor(tt.sources...).Extract(nil)
			require.Equal(t, tt.found, ok)
			require.Equal(t, tt.want, v)
		})
	}

	t.Run("request sources compose", func(t *testing.T) {
		t.Parallel()

		ext := internal.NewExtractor(
			internal.FromHeader("X-Missing"),
			internal.FromQuery("token"),
		)
		req := httptest.NewRequest(http.MethodGet, "/?token=found", nil)
		v, ok := probe(t, ext.Extract, req)
		require.True(t, ok)
		require.Equal(t, "found", v)
	})
}

func TestRequestSources(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		src   internal.ExtractorSource
		shape func(r *http.Request)
		want  string
		found bool
	}{
		{"header present", internal.FromHeader("X-Api-Key"),
			func(r *http.Request) { r.Header.Set("X-Api-Key", "secret123") }, "secret123", true},
		{"header missing", internal.FromHeader("X-Api-Key"), nil, "", false},
		{"header empty reads as absent", internal.FromHeader("X-Api-Key"),
			func(r *http.Request) { r.Header.Set("X-Api-Key", "") }, "", false},
		{"query present", internal.FromQuery("token"),
			func(r *http.Request) { r.URL.RawQuery = "token=abc" }, "abc", true},
		{"query missing", internal.FromQuery("token"), nil, "", false},
		{"query empty reads as absent", internal.FromQuery("token"),
			func(r *http.Request) { r.URL.RawQuery = "token=" }, "", false},
		{"cookie present", internal.FromCookie("auth"),
			func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "auth", Value: "token123"}) }, "token123", true},
		{"cookie missing", internal.FromCookie("auth"), nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.shape != nil {
				tt.shape(req)
			}
			v, ok := probe(t, tt.src, req)
			require.Equal(t, tt.found, ok)
			require.Equal(t, tt.want, v)
		})
	}
}

func TestFromBearerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		auth  string
		want  string
		found bool
	}{
		{"standard prefix", "Bearer my-token-123", "my-token-123", true},
		{"uppercase prefix", "BEARER token-upper", "token-upper", true},
		{"mixed case prefix", "bEaReR mixed-token", "mixed-token", true},
		{"no header", "", "", false},
		{"different scheme", "Basic dXNlcjpwYXNz", "", false},
		{"prefix with no token", "Bearer ", "", false},
		{"bare scheme", "Bearer", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			v, ok := probe(t, internal.FromBearerToken(), req)
			require.Equal(t, tt.found, ok)
			require.Equal(t, tt.want, v)
		})
	}
}

func TestSecureCookieSources(t *testing.T) {
	t.Parallel()

	opts := []internal.Option{
		internal.WithCookieOptions(cookie.WithSecret(strings.Repeat("s", 32))),
	}

	// issue sets one cookie through a request and hands back whatever
	// the response carried.
	issue := func(t *testing.T, set func(c internal.Context) error) []*http.Cookie {
		t.Helper()

		w := requestVia(t, httptest.NewRequest(http.MethodGet, "/", nil), opts, func(c internal.Context) {
			require.NoError(t, set(c))
		})
		cookies := w.Result().Cookies()
		require.NotEmpty(t, cookies)
		return cookies
	}

	carry := func(cookies []*http.Cookie) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		for _, ck := range cookies {
			req.AddCookie(ck)
		}
		return req
	}

	t.Run("signed cookie round-trips", func(t *testing.T) {
		t.Parallel()

		cookies := issue(t, func(c internal.Context) error {
			return c.SetCookieSigned("sid", "signed-value", 3600)
		})
		v, ok := probe(t, internal.FromCookieSigned("sid"), carry(cookies), opts...)
		require.True(t, ok)
		require.Equal(t, "signed-value", v)
	})

	t.Run("encrypted cookie round-trips", func(t *testing.T) {
		t.Parallel()

		cookies := issue(t, func(c internal.Context) error {
			return c.SetCookieEncrypted("enc", "encrypted-value", 3600)
		})
		v, ok := probe(t, internal.FromCookieEncrypted("enc"), carry(cookies), opts...)
		require.True(t, ok)
		require.Equal(t, "encrypted-value", v)
	})

	t.Run("tampered signed cookie reads as absent", func(t *testing.T) {
		t.Parallel()

		cookies := issue(t, func(c internal.Context) error {
			return c.SetCookieSigned("sid", "signed-value", 3600)
		})
		cookies[0].Value += "x"
		v, ok := probe(t, internal.FromCookieSigned("sid"), carry(cookies), opts...)
		require.False(t, ok)
		require.Empty(t, v)
	})

	t.Run("absent cookies read as absent", func(t *testing.T) {
		t.Parallel()

		for _, src := range []internal.ExtractorSource{
			internal.FromCookieSigned("sid"),
			internal.FromCookieEncrypted("enc"),
		} {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			v, ok := probe(t, src, req, opts...)
			require.False(t, ok)
			require.Empty(t, v)
		}
	})
}

func TestFromParam(t *testing.T) {
	t.Parallel()

	t.Run("named segment", func(t *testing.T) {
		t.Parallel()

		v, ok := probeParam(t, internal.FromParam("id"), httptest.NewRequest(http.MethodGet, "/abc123", nil))
		require.True(t, ok)
		require.Equal(t, "abc123", v)
	})

	t.Run("name not in the route", func(t *testing.T) {
		t.Parallel()

		v, ok := probeParam(t, internal.FromParam("slug"), httptest.NewRequest(http.MethodGet, "/something", nil))
		require.False(t, ok)
		require.Empty(t, v)
	})
}

func TestFromForm(t *testing.T) {
	t.Parallel()

	postForm := func(form url.Values) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req
	}

	t.Run("field present", func(t *testing.T) {
		t.Parallel()

		v, ok := probe(t, internal.FromForm("email"), postForm(url.Values{"email": {"user@example.com"}}))
		require.True(t, ok)
		require.Equal(t, "user@example.com", v)
	})

	t.Run("field missing", func(t *testing.T) {
		t.Parallel()

		v, ok := probe(t, internal.FromForm("email"), postForm(url.Values{"name": {"John"}}))
		require.False(t, ok)
		require.Empty(t, v)
	})
}

func TestFromSession(t *testing.T) {
	t.Parallel()

	// seeded answers every lookup with a session holding values, and
	// builds the request carrying its cookie.
	seeded := func(values map[string]any) (*mockSessionStore, *http.Request) {
		tok := testToken(5)
		store := &mockSessionStore{
			onGet: func(context.Context, string) (*session.Session, error) {
				s := session.New("sess-1", tok, time.Now().Add(time.Hour))
				for k, v := range values {
					s.SetValue(k, v)
				}
				return s, nil
			},
		}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "__sid", Value: tok})
		return store, req
	}

	t.Run("string value", func(t *testing.T) {
		t.Parallel()

		store, req := seeded(map[string]any{"tenant_id": "tenant-abc"})
		v, ok := probe(t, internal.FromSession("tenant_id"), req, internal.WithSession(store))
		require.True(t, ok)
		require.Equal(t, "tenant-abc", v)
	})

	t.Run("non-string value renders as text", func(t *testing.T) {
		t.Parallel()

		store, req := seeded(map[string]any{"count": 42})
		v, ok := probe(t, internal.FromSession("count"), req, internal.WithSession(store))
		require.True(t, ok)
		require.Equal(t, "42", v)
	})

	t.Run("missing key", func(t *testing.T) {
		t.Parallel()

		store, req := seeded(nil)
		v, ok := probe(t, internal.FromSession("anything"), req, internal.WithSession(store))
		require.False(t, ok)
		require.Empty(t, v)
	})

	t.Run("no session configured", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		v, ok := probe(t, internal.FromSession("key"), req)
		require.False(t, ok)
		require.Empty(t, v)
	})
}
