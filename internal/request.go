package internal

import (
	"context"
	"io"
	"net/http"
	"net/url"
)

// Request is an immutable snapshot of an inbound HTTP exchange. It is
// created once per request by the entry adapter and read by middleware
// and handlers; no field can be mutated after construction. Reading the
// body is the only effectful operation; it is safe to repeat only if
// the caller buffers it.
type Request struct {
	ctx        context.Context
	body       io.ReadCloser
	header     http.Header
	query      url.Values
	params     map[string]any
	cookies    []*http.Cookie
	method     string
	path       string
	proto      string
	host       string
	remoteAddr string
}

// newRequest snapshots the relevant parts of an *http.Request. The
// header map is shared with the underlying request, not copied; callers
// must treat it as read-only.
func newRequest(r *http.Request) *Request {
	return &Request{
		ctx:        r.Context(),
		body:       r.Body,
		header:     r.Header,
		query:      r.URL.Query(),
		cookies:    r.Cookies(),
		method:     r.Method,
		path:       r.URL.Path,
		proto:      r.Proto,
		host:       r.Host,
		remoteAddr: r.RemoteAddr,
	}
}

// withParams returns a copy of the request carrying the path parameters
// extracted by the router. The receiver is left untouched.
func (r *Request) withParams(params map[string]any) *Request {
	clone := *r
	clone.params = params
	return &clone
}

// Method returns the HTTP method.
func (r *Request) Method() string { return r.method }

// Path returns the request path.
func (r *Request) Path() string { return r.path }

// Proto returns the protocol version, e.g. "HTTP/1.1".
func (r *Request) Proto() string { return r.proto }

// Host returns the value of the Host header.
func (r *Request) Host() string { return r.host }

// RemoteAddr returns the peer address.
func (r *Request) RemoteAddr() string { return r.remoteAddr }

// Header returns the first value of the named header.
func (r *Request) Header(name string) string { return r.header.Get(name) }

// HeaderValues returns all values of the named header.
func (r *Request) HeaderValues(name string) []string { return r.header.Values(name) }

// Query returns the first value of the named query parameter.
func (r *Request) Query(name string) string { return r.query.Get(name) }

// QueryValues returns all values of the named query parameter.
func (r *Request) QueryValues(name string) []string { return r.query[name] }

// Param returns the extracted path parameter as its declared type:
// string for plain and path parameters, int for {name:int}, float64
// for {name:float}. Returns nil when the parameter does not exist.
func (r *Request) Param(name string) any {
	if r.params == nil {
		return nil
	}
	return r.params[name]
}

// Params returns all extracted path parameters.
func (r *Request) Params() map[string]any { return r.params }

// Cookie returns the named cookie or http.ErrNoCookie.
func (r *Request) Cookie(name string) (*http.Cookie, error) {
	for _, c := range r.cookies {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, http.ErrNoCookie
}

// Cookies returns all parsed request cookies.
func (r *Request) Cookies() []*http.Cookie { return r.cookies }

// Body returns the lazy body reader.
func (r *Request) Body() io.ReadCloser { return r.body }

// Context returns the context carried by the exchange. It is canceled
// when the client disconnects or the server shuts down.
func (r *Request) Context() context.Context { return r.ctx }
