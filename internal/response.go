package internal

import (
	"iter"
	"net/http"
)

// Content types produced by negotiation.
const (
	ContentTypeHTML   = "text/html; charset=utf-8"
	ContentTypeJSON   = "application/json; charset=utf-8"
	ContentTypeText   = "text/plain; charset=utf-8"
	ContentTypeBinary = "application/octet-stream"
	ContentTypeSSE    = "text/event-stream"
)

// Header is a single response header entry. Responses keep headers as
// an ordered list so the wire order is reproducible.
type Header struct {
	Key   string
	Value string
}

// Response is a complete, buffered HTTP response value: status,
// content type, ordered headers, cookie directives, and body. Every
// mutator returns a new Response; the receiver is never altered, so a
// Response can be shared, cached, and passed through middleware safely.
// The body slice is shared, not copied; callers must not mutate a body
// they handed to a Response.
type Response struct {
	contentType string
	body        []byte
	headers     []Header
	cookies     []*http.Cookie
	status      int
}

// NewResponse builds a buffered response.
func NewResponse(status int, contentType string, body []byte) *Response {
	return &Response{status: status, contentType: contentType, body: body}
}

// NoContent builds an empty 204 response.
func NoContent() *Response {
	return &Response{status: http.StatusNoContent}
}

func (r *Response) isResponder() {}

// StatusCode returns the HTTP status.
func (r *Response) StatusCode() int { return r.status }

// ContentType returns the Content-Type value.
func (r *Response) ContentType() string { return r.contentType }

// Body returns the buffered body.
func (r *Response) Body() []byte { return r.body }

// Headers returns the ordered header list.
func (r *Response) Headers() []Header { return r.headers }

// Header returns the first value set for the named header.
func (r *Response) Header(key string) string {
	for _, h := range r.headers {
		if http.CanonicalHeaderKey(h.Key) == http.CanonicalHeaderKey(key) {
			return h.Value
		}
	}
	return ""
}

// Cookies returns the cookie-set directives.
func (r *Response) Cookies() []*http.Cookie { return r.cookies }

func (r *Response) clone() *Response {
	clone := *r
	clone.headers = append([]Header(nil), r.headers...)
	clone.cookies = append([]*http.Cookie(nil), r.cookies...)
	return &clone
}

// WithStatus returns a copy with the status code replaced.
func (r *Response) WithStatus(status int) *Response {
	clone := r.clone()
	clone.status = status
	return clone
}

// WithContentType returns a copy with the content type replaced.
func (r *Response) WithContentType(ct string) *Response {
	clone := r.clone()
	clone.contentType = ct
	return clone
}

// WithHeader returns a copy with the named header set, replacing any
// existing values for that key.
func (r *Response) WithHeader(key, value string) *Response {
	clone := r.clone()
	key = http.CanonicalHeaderKey(key)
	kept := clone.headers[:0]
	for _, h := range clone.headers {
		if http.CanonicalHeaderKey(h.Key) != key {
			kept = append(kept, h)
		}
	}
	clone.headers = append(kept, Header{Key: key, Value: value})
	return clone
}

// WithAddedHeader returns a copy with an additional value appended for
// the named header, keeping existing values.
func (r *Response) WithAddedHeader(key, value string) *Response {
	clone := r.clone()
	clone.headers = append(clone.headers, Header{Key: http.CanonicalHeaderKey(key), Value: value})
	return clone
}

// WithCookie returns a copy with a cookie-set directive appended.
func (r *Response) WithCookie(c *http.Cookie) *Response {
	clone := r.clone()
	clone.cookies = append(clone.cookies, c)
	return clone
}

// WithBody returns a copy with the body replaced.
func (r *Response) WithBody(body []byte) *Response {
	clone := r.clone()
	clone.body = body
	return clone
}

// StreamingResponse is the peer of Response for progressive HTML: the
// body is a lazy sequence of chunks written with chunked transfer
// encoding and flushed as they arrive. It carries the same status,
// header, and cookie fields with the same immutable-transform contract.
// The chunk sequence itself is shared between copies and must support
// early termination: when the consumer stops pulling, the producer's
// deferred cleanup runs.
type StreamingResponse struct {
	chunks      iter.Seq2[string, error]
	contentType string
	headers     []Header
	cookies     []*http.Cookie
	status      int
}

// NewStreamingResponse wraps a lazy chunk sequence as an HTML response.
func NewStreamingResponse(chunks iter.Seq2[string, error]) *StreamingResponse {
	return &StreamingResponse{status: http.StatusOK, contentType: ContentTypeHTML, chunks: chunks}
}

func (r *StreamingResponse) isResponder() {}

// StatusCode returns the HTTP status.
func (r *StreamingResponse) StatusCode() int { return r.status }

// ContentType returns the Content-Type value.
func (r *StreamingResponse) ContentType() string { return r.contentType }

// Chunks returns the lazy body sequence.
func (r *StreamingResponse) Chunks() iter.Seq2[string, error] { return r.chunks }

// Headers returns the ordered header list.
func (r *StreamingResponse) Headers() []Header { return r.headers }

// Cookies returns the cookie-set directives.
func (r *StreamingResponse) Cookies() []*http.Cookie { return r.cookies }

func (r *StreamingResponse) clone() *StreamingResponse {
	clone := *r
	clone.headers = append([]Header(nil), r.headers...)
	clone.cookies = append([]*http.Cookie(nil), r.cookies...)
	return &clone
}

// WithStatus returns a copy with the status code replaced. The status
// can only take effect before the first chunk is written.
func (r *StreamingResponse) WithStatus(status int) *StreamingResponse {
	clone := r.clone()
	clone.status = status
	return clone
}

// WithContentType returns a copy with the content type replaced.
func (r *StreamingResponse) WithContentType(ct string) *StreamingResponse {
	clone := r.clone()
	clone.contentType = ct
	return clone
}

// WithHeader returns a copy with the named header set, replacing any
// existing values for that key.
func (r *StreamingResponse) WithHeader(key, value string) *StreamingResponse {
	clone := r.clone()
	key = http.CanonicalHeaderKey(key)
	kept := clone.headers[:0]
	for _, h := range clone.headers {
		if http.CanonicalHeaderKey(h.Key) != key {
			kept = append(kept, h)
		}
	}
	clone.headers = append(kept, Header{Key: key, Value: value})
	return clone
}

// WithCookie returns a copy with a cookie-set directive appended.
func (r *StreamingResponse) WithCookie(c *http.Cookie) *StreamingResponse {
	clone := r.clone()
	clone.cookies = append(clone.cookies, c)
	return clone
}

// SSEResponse represents an open Server-Sent-Events stream. The SSE
// protocol fixes the response headers (text/event-stream, no caching,
// no buffering), so unlike its peers the header mutators here are
// deliberate no-ops: they return the receiver unchanged rather than
// silently pretending a header was set.
type SSEResponse struct {
	stream *EventStream
}

// NewSSEResponse wraps an event stream for serving.
func NewSSEResponse(stream *EventStream) *SSEResponse {
	return &SSEResponse{stream: stream}
}

func (r *SSEResponse) isResponder() {}

// StatusCode always reports 200; the status line is fixed by the
// protocol.
func (r *SSEResponse) StatusCode() int { return http.StatusOK }

// ContentType always reports text/event-stream.
func (r *SSEResponse) ContentType() string { return ContentTypeSSE }

// Stream returns the event stream being served.
func (r *SSEResponse) Stream() *EventStream { return r.stream }

// WithStatus is a no-op: the SSE status line is fixed by the protocol.
func (r *SSEResponse) WithStatus(int) *SSEResponse { return r }

// WithContentType is a no-op: the SSE content type is fixed by the
// protocol.
func (r *SSEResponse) WithContentType(string) *SSEResponse { return r }

// WithHeader is a no-op: SSE response headers are fixed by the
// protocol.
func (r *SSEResponse) WithHeader(string, string) *SSEResponse { return r }
