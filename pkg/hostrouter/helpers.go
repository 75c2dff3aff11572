package hostrouter

import (
	"net/http"
	"strings"
)

// GetDomain returns the request host, lowercased and without the
// port: "Example.COM:8080" becomes "example.com", "[::1]:8080"
// becomes "[::1]".
func GetDomain(r *http.Request) string {
	return normalizeHost(r.Host)
}

// GetSubdomain returns what the request host carries in front of
// baseDomain: with base "example.com", "foo.example.com" yields
// "foo" and "bar.foo.example.com" yields "bar.foo". It returns ""
// when the host is the base domain itself, belongs to a different
// domain, or baseDomain is empty.
func GetSubdomain(r *http.Request, baseDomain string) string {
	base := normalizeHost(baseDomain)
	if base == "" {
		return ""
	}
	sub, ok := strings.CutSuffix(normalizeHost(r.Host), "."+base)
	if !ok {
		return ""
	}
	return sub
}
