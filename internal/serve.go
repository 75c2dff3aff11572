package internal

import (
	"fmt"
	"html"
	"iter"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
)

// ServeHTTP is the entry point for every request. The first request
// freezes the app if Run has not done so already.
//
// The pipeline: route lookup, app middleware chain around dispatch,
// negotiation of whatever the chain returned, then one of three write
// paths (buffered, streaming, event stream). Errors from any stage
// funnel through error dispatch, so the client always gets a response
// shaped by the same rules.
func (app *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := app.Freeze(); err != nil {
		c := newContext(w, r, app, nil)
		app.send(c, app.dispatchError(c, fmt.Errorf("loom: app failed to start: %w", err)))
		return
	}

	match, allowed := app.router.lookup(r.Method, r.URL.Path)
	c := newContext(w, r, app, match)
	c.allowed = allowed

	value, err := app.runChain(c)
	if err != nil {
		app.send(c, app.dispatchError(c, err))
		return
	}
	if value == nil {
		if c.Written() {
			return
		}
		app.send(c, app.dispatchError(c, &NegotiationError{Value: nil}))
		return
	}

	resp, err := app.negotiate(c, value)
	if err != nil {
		app.send(c, app.dispatchError(c, err))
		return
	}
	app.send(c, resp)
}

// runChain executes the composed app chain with panic containment.
// http.ErrAbortHandler passes through untouched; it is the stdlib's
// own signal for a dead connection, not a handler bug.
func (app *App) runChain(c Context) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			if r == http.ErrAbortHandler {
				panic(r)
			}
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return app.chain(c)
}

// send writes a negotiated response. Responses are value objects up to
// this point; this is the only place the pipeline touches the wire for
// framework-shaped responses.
func (app *App) send(c *requestContext, resp Responder) {
	if resp == nil {
		return
	}
	if c.Written() {
		app.log().WarnContext(c.Context(), "response already written, dropping negotiated response",
			slog.String("path", c.request.URL.Path))
		return
	}

	switch v := resp.(type) {
	case *Response:
		app.writeBuffered(c, v)
	case *StreamingResponse:
		app.writeStream(c, v)
	case *SSEResponse:
		if err := app.serveSSE(c, c.responseWriter, v); err != nil {
			app.logError(c, err)
			app.send(c, app.builtinError(c, err))
		}
	default:
		app.logError(c, &NegotiationError{Value: resp})
		app.send(c, app.builtinError(c, &NegotiationError{Value: resp}))
	}
}

// applyResponseHeaders merges a response's header list and cookies into
// the outgoing header map. The first occurrence of a key replaces any
// header staged through the Context, so the response value stays the
// source of truth; repeated keys append in order.
func applyResponseHeaders(rw *ResponseWriter, headers []Header, cookies []*http.Cookie) {
	h := rw.Header()
	seen := make(map[string]bool, len(headers))
	for _, hdr := range headers {
		key := http.CanonicalHeaderKey(hdr.Key)
		if seen[key] {
			h.Add(key, hdr.Value)
		} else {
			h.Set(key, hdr.Value)
			seen[key] = true
		}
	}
	for _, ck := range cookies {
		http.SetCookie(rw, ck)
	}
}

func (app *App) writeBuffered(c *requestContext, resp *Response) {
	rw := c.responseWriter

	applyResponseHeaders(rw, resp.Headers(), resp.Cookies())
	if resp.ContentType() != "" {
		rw.Header().Set("Content-Type", resp.ContentType())
	}

	status := resp.StatusCode()
	body := resp.Body()
	if bodyAllowed(status) && len(body) > 0 {
		rw.Header().Set("Content-Length", strconv.Itoa(len(body)))
	}
	rw.WriteHeader(status)

	if c.request.Method == http.MethodHead || !bodyAllowed(status) {
		return
	}
	if _, err := rw.Write(body); err != nil {
		app.log().DebugContext(c.Context(), "response write failed", slog.Any("error", err))
	}
}

// bodyAllowed mirrors the RFC rules the stdlib enforces.
func bodyAllowed(status int) bool {
	switch {
	case status >= 100 && status <= 199:
		return false
	case status == http.StatusNoContent, status == http.StatusNotModified:
		return false
	}
	return true
}

// writeStream sends a streaming response chunk by chunk.
//
// Failure handling depends on when the failure happens. The first
// chunk is pulled before anything is committed, so an early failure
// still gets the full error treatment: status, error page, the works.
// Once bytes are on the wire the status line is history; a mid-stream
// failure is logged, an HTML comment marks the truncation point for
// anyone inspecting the payload, and the connection closes cleanly.
func (app *App) writeStream(c *requestContext, resp *StreamingResponse) {
	rw := c.responseWriter
	if !rw.CanFlush() {
		app.logError(c, ErrStreamingUnsupported)
		app.send(c, app.builtinError(c, ErrStreamingUnsupported))
		return
	}

	next, stop := iter.Pull2(resp.Chunks())
	defer stop()

	chunk, chunkErr, ok := next()
	if ok && chunkErr != nil {
		app.send(c, app.dispatchError(c, chunkErr))
		return
	}

	applyResponseHeaders(rw, resp.Headers(), resp.Cookies())
	if resp.ContentType() != "" {
		rw.Header().Set("Content-Type", resp.ContentType())
	}
	rw.WriteHeader(resp.StatusCode())

	if c.request.Method == http.MethodHead {
		return
	}

	for ok {
		if chunkErr != nil {
			app.logError(c, chunkErr)
			_, _ = rw.Write([]byte(app.streamAbortMarker(chunkErr)))
			return
		}
		if chunk != "" {
			if _, err := rw.Write([]byte(chunk)); err != nil {
				app.log().DebugContext(c.Context(), "stream write failed", slog.Any("error", err))
				return
			}
			rw.Flush()
		}
		chunk, chunkErr, ok = next()
	}
}

// streamAbortMarker is appended when a stream dies after bytes were
// sent. Debug builds include the reason; production marks the spot
// without leaking internals.
func (app *App) streamAbortMarker(err error) string {
	if app.debug {
		reason := strings.ReplaceAll(html.EscapeString(err.Error()), "--", "- -")
		return fmt.Sprintf("\n<!-- stream aborted: %s -->", reason)
	}
	return "\n<!-- stream aborted -->"
}
