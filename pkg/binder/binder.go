// Package binder populates Go structs from HTTP request data.
//
// Three sources are supported, each returning a binding function with
// the same shape so callers can treat them uniformly:
//
//	binder.Form()  // application/x-www-form-urlencoded and multipart bodies, `form` tags
//	binder.Query() // URL query parameters, `query` tags
//	binder.JSON()  // JSON request bodies, `json` tags
//
// Form and query binding convert values to the field's type: strings,
// booleans, integers, unsigned integers, floats, time.Time (RFC 3339),
// and slices of those for repeated parameters. Pointer fields are
// allocated on demand and nested structs are bound recursively.
package binder

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// multipartMemory bounds the in-memory portion of multipart parsing;
// larger file parts spill to disk.
const multipartMemory = 32 << 20

// Form returns a binding function that populates v from the request's
// form body using `form` struct tags. Multipart bodies are parsed too,
// but file parts are left to the handler.
func Form() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		if err := parseForm(r); err != nil {
			return errors.Join(ErrParseForm, err)
		}
		return bindValues(r.PostForm, "form", v)
	}
}

// Query returns a binding function that populates v from URL query
// parameters using `query` struct tags.
func Query() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		return bindValues(r.URL.Query(), "query", v)
	}
}

// JSON returns a binding function that decodes the request body into v.
// An empty body leaves v untouched rather than failing, so optional
// JSON payloads do not need special-casing.
func JSON() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		if r.Body == nil {
			return nil
		}
		err := json.NewDecoder(r.Body).Decode(v)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, io.EOF):
			return nil
		default:
			return errors.Join(ErrDecodeJSON, err)
		}
	}
}

func parseForm(r *http.Request) error {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		return r.ParseMultipartForm(multipartMemory)
	}
	return r.ParseForm()
}

// Values binds an arbitrary url.Values map using the given tag name.
// Exposed for callers that collect values outside the request object,
// such as parsed websocket messages or test fixtures.
func Values(values url.Values, tag string, v any) error {
	return bindValues(values, tag, v)
}
