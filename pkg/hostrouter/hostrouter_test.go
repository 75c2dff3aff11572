package hostrouter_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/loom/pkg/hostrouter"
)

// tag answers every request with name, so tests can see which
// handler won.
func tag(name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, name)
	})
}

func dispatch(router *hostrouter.Router, host string) string {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = host
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec.Body.String()
}

func TestRouter(t *testing.T) {
	t.Parallel()

	router := hostrouter.New(hostrouter.Routes{
		"example.com":       tag("site"),
		"api.example.com":   tag("api"),
		"*.example.com":     tag("tenant"),
		"Admin.Other.ORG":   tag("admin"),
		"cdn.other.org:443": tag("cdn"),
	}, tag("fallback"))

	tests := []struct {
		name string
		host string
		want string
	}{
		{"apex host", "example.com", "site"},
		{"exact beats wildcard", "api.example.com", "api"},
		{"wildcard catches one label", "acme.example.com", "tenant"},
		{"wildcard does not recurse", "deep.acme.example.com", "fallback"},
		{"unknown host", "other.com", "fallback"},
		{"port is ignored", "example.com:8080", "site"},
		{"case is ignored", "Example.COM", "site"},
		{"pattern case is normalized", "admin.other.org", "admin"},
		{"pattern port is normalized", "cdn.other.org", "cdn"},
		{"empty host", "", "fallback"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, dispatch(router, tt.host))
		})
	}
}

func TestRouterIPv6(t *testing.T) {
	t.Parallel()

	router := hostrouter.New(hostrouter.Routes{"[::1]": tag("loopback")}, tag("fallback"))
	assert.Equal(t, "loopback", dispatch(router, "[::1]:8080"))
	assert.Equal(t, "loopback", dispatch(router, "[::1]"))
}

func TestRouterNilFallback(t *testing.T) {
	t.Parallel()

	router := hostrouter.New(hostrouter.Routes{"example.com": tag("site")}, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "other.com"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetDomainBasic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		host string
		want string
	}{
		{"example.com", "example.com"},
		{"example.com:8080", "example.com"},
		{"Example.COM:443", "example.com"},
		{"[::1]:8080", "[::1]"},
		{"[::1]", "[::1]"},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Host = tt.host
			assert.Equal(t, tt.want, hostrouter.GetDomain(req))
		})
	}
}

func TestGetSubdomainBasic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		host string
		base string
		want string
	}{
		{"single label", "foo.example.com", "example.com", "foo"},
		{"nested labels", "bar.foo.example.com", "example.com", "bar.foo"},
		{"base itself", "example.com", "example.com", ""},
		{"different domain", "foo.other.com", "example.com", ""},
		{"suffix but not label boundary", "badexample.com", "example.com", ""},
		{"mixed case with port", "Foo.Example.COM:8080", "example.com", "foo"},
		{"empty base", "foo.example.com", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Host = tt.host
			assert.Equal(t, tt.want, hostrouter.GetSubdomain(req, tt.base))
		})
	}
}
