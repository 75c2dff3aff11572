package internal

import (
	"fmt"
	"strings"
)

// ExtractorSource reads one candidate value off the request.
// Returns ("", false) when the source has nothing.
type ExtractorSource = func(Context) (string, bool)

// Extractor tries sources in order and settles on the first hit.
// The zero value extracts nothing.
type Extractor struct {
	sources []ExtractorSource
}

// NewExtractor chains sources; earlier sources win.
func NewExtractor(sources ...ExtractorSource) Extractor {
	return Extractor{sources: sources}
}

// Extract returns the first non-empty value any source yields, or
// ("", false) when they all miss.
func (e Extractor) Extract(c Context) (string, bool) {
	for _, src := range e.sources {
		if v, ok := src(c); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// stringSource adapts a plain getter into a source; empty means absent.
func stringSource(get func(Context) string) ExtractorSource {
	return func(c Context) (string, bool) {
		v := get(c)
		return v, v != ""
	}
}

// cookieSource adapts a fallible getter; an unreadable cookie counts
// as absent rather than failing the whole chain.
func cookieSource(get func(Context) (string, error)) ExtractorSource {
	return func(c Context) (string, bool) {
		v, err := get(c)
		if err != nil {
			return "", false
		}
		return v, v != ""
	}
}

// FromHeader reads a request header.
func FromHeader(name string) ExtractorSource {
	return stringSource(func(c Context) string { return c.Header(name) })
}

// FromQuery reads a query parameter.
func FromQuery(name string) ExtractorSource {
	return stringSource(func(c Context) string { return c.Query(name) })
}

// FromParam reads a path parameter, formatted as a string regardless of
// its declared type.
func FromParam(name string) ExtractorSource {
	return stringSource(func(c Context) string { return c.ParamString(name) })
}

// FromForm reads a form field.
func FromForm(name string) ExtractorSource {
	return stringSource(func(c Context) string { return c.Form(name) })
}

// FromCookie reads a plain cookie.
func FromCookie(name string) ExtractorSource {
	return cookieSource(func(c Context) (string, error) { return c.Cookie(name) })
}

// FromCookieSigned reads a signed cookie.
func FromCookieSigned(name string) ExtractorSource {
	return cookieSource(func(c Context) (string, error) { return c.CookieSigned(name) })
}

// FromCookieEncrypted reads an encrypted cookie.
func FromCookieEncrypted(name string) ExtractorSource {
	return cookieSource(func(c Context) (string, error) { return c.CookieEncrypted(name) })
}

// FromSession reads a session value. Non-string values are rendered
// with fmt.Sprint.
func FromSession(key string) ExtractorSource {
	return func(c Context) (string, bool) {
		val, err := c.SessionValue(key)
		if err != nil || val == nil {
			return "", false
		}
		s, ok := val.(string)
		if !ok {
			s = fmt.Sprint(val)
		}
		return s, s != ""
	}
}

// FromBearerToken reads the token off an "Authorization: Bearer ..."
// header; the scheme comparison is case-insensitive.
func FromBearerToken() ExtractorSource {
	const prefix = "Bearer "
	return func(c Context) (string, bool) {
		auth := c.Header("Authorization")
		if len(auth) <= len(prefix) || !strings.EqualFold(auth[:len(prefix)], prefix) {
			return "", false
		}
		return auth[len(prefix):], true
	}
}
