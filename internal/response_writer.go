package internal

import (
	"bufio"
	"net"
	"net/http"
	"sync"
)

// ResponseWriter wraps http.ResponseWriter with commit tracking: it
// knows whether the response has started, runs staged hooks just
// before the first byte leaves, and records status and size for
// logging. The streaming paths use it to detect flush support.
//
// Unlike some htmx-oriented stacks, the status code is never rewritten:
// negotiation decides the real status (422 for validation failures,
// error statuses for error pages) and clients are expected to handle
// non-2xx swaps via htmx configuration.
type ResponseWriter struct {
	http.ResponseWriter
	status      int
	size        int64
	written     bool
	isHTMX      bool
	beforeWrite []func()
	mu          sync.Mutex
}

// NewResponseWriter wraps w. The staged status starts at 200.
func NewResponseWriter(w http.ResponseWriter, isHTMX bool) *ResponseWriter {
	return &ResponseWriter{
		ResponseWriter: w,
		status:         http.StatusOK,
		isHTMX:         isHTMX,
	}
}

// OnBeforeWrite registers a hook to run when the response commits.
// Hooks run in registration order on the first WriteHeader or Write,
// whichever comes first. This is the window where staged state (dirty
// sessions, cookies) can still make it into the response, including
// streamed and event-stream responses.
func (w *ResponseWriter) OnBeforeWrite(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.beforeWrite = append(w.beforeWrite, fn)
}

// commit performs the one-time transition to a committed response:
// fix the status, drain the hooks, send the header. Later calls are
// no-ops. A zero code keeps the staged status. Hooks run outside the
// lock so they may inspect the writer.
func (w *ResponseWriter) commit(code int) {
	w.mu.Lock()
	if w.written {
		w.mu.Unlock()
		return
	}
	w.written = true
	if code != 0 {
		w.status = code
	}
	code = w.status
	hooks := w.beforeWrite
	w.beforeWrite = nil
	w.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
	w.ResponseWriter.WriteHeader(code)
}

// WriteHeader commits the response with the given status. Second and
// later calls are ignored.
func (w *ResponseWriter) WriteHeader(code int) {
	w.commit(code)
}

// Write sends body bytes, committing the response with the staged
// status (an implicit 200) if WriteHeader was never called.
func (w *ResponseWriter) Write(b []byte) (int, error) {
	w.commit(0)
	n, err := w.ResponseWriter.Write(b)
	w.size += int64(n)
	return n, err
}

// Status returns the response status: the committed code after the
// response started, the staged one before.
func (w *ResponseWriter) Status() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// Size returns the number of body bytes written so far.
func (w *ResponseWriter) Size() int64 {
	return w.size
}

// Written reports whether the response has been committed.
func (w *ResponseWriter) Written() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}

// IsHTMX reports whether the request this writer answers came from
// htmx.
func (w *ResponseWriter) IsHTMX() bool {
	return w.isHTMX
}

// CanFlush reports whether the underlying writer supports streaming.
func (w *ResponseWriter) CanFlush() bool {
	_, ok := w.ResponseWriter.(http.Flusher)
	return ok
}

// Flush forwards to the underlying http.Flusher when there is one.
func (w *ResponseWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Hijack forwards to the underlying http.Hijacker, or reports
// http.ErrNotSupported.
func (w *ResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := w.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}

// Push forwards to the underlying http.Pusher, or reports
// http.ErrNotSupported.
func (w *ResponseWriter) Push(target string, opts *http.PushOptions) error {
	if pusher, ok := w.ResponseWriter.(http.Pusher); ok {
		return pusher.Push(target, opts)
	}
	return http.ErrNotSupported
}

// Unwrap exposes the underlying writer for middleware that needs the
// original.
func (w *ResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
