package hostrouter

import (
	"net/http"
	"strings"
)

// Routes maps host patterns to handlers. A pattern is either an
// exact host ("api.example.com") or a wildcard ("*.example.com").
// Like TLS certificates, a wildcard covers exactly one label:
// "*.example.com" matches "foo.example.com" but not
// "bar.foo.example.com".
type Routes map[string]http.Handler

// Router dispatches requests by their Host header.
type Router struct {
	exact    map[string]http.Handler
	wildcard map[string]http.Handler // keyed by the part after "*."
	fallback http.Handler
}

// New builds a Router. Patterns are normalized the same way incoming
// hosts are, so case and stray ports in patterns do not matter. An
// exact pattern beats a wildcard covering the same host. Requests
// matching nothing go to fallback; a nil fallback answers 404.
func New(routes Routes, fallback http.Handler) *Router {
	if fallback == nil {
		fallback = http.NotFoundHandler()
	}
	r := &Router{
		exact:    make(map[string]http.Handler, len(routes)),
		wildcard: make(map[string]http.Handler),
		fallback: fallback,
	}

	for pattern, handler := range routes {
		if handler == nil {
			continue
		}
		if rest, ok := strings.CutPrefix(pattern, "*."); ok {
			r.wildcard[normalizeHost(rest)] = handler
			continue
		}
		if pattern = normalizeHost(pattern); pattern != "" {
			r.exact[pattern] = handler
		}
	}
	return r
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	host := normalizeHost(req.Host)

	if h, ok := r.exact[host]; ok {
		h.ServeHTTP(w, req)
		return
	}
	if _, parent, ok := strings.Cut(host, "."); ok {
		if h, ok := r.wildcard[parent]; ok {
			h.ServeHTTP(w, req)
			return
		}
	}
	r.fallback.ServeHTTP(w, req)
}

// normalizeHost lowercases host and drops a trailing port. Bracketed
// IPv6 hosts keep their brackets so they can be used as exact
// patterns verbatim.
func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if i := strings.LastIndexByte(host, ':'); i >= 0 && !strings.Contains(host[i:], "]") {
		host = host[:i]
	}
	return host
}
