package internal

import (
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
)

var errorIface = reflect.TypeOf((*error)(nil)).Elem()

// errorRegistration binds an error shape to a handler. The shape is
// either a sentinel value (matched with errors.Is) or a type prototype
// (matched by dynamic type first, then through the wrap chain with
// errors.As).
type errorRegistration struct {
	target  error
	rtype   reflect.Type
	handler ErrorHandler
}

// matchExact reports an exact hit: same dynamic type, or the identical
// sentinel anywhere in the chain.
func (r errorRegistration) matchExact(err error) bool {
	if r.rtype != nil && reflect.TypeOf(err) == r.rtype {
		return true
	}
	return r.target != nil && errors.Is(err, r.target)
}

// matchAs reports a wider hit: the chain contains an error assignable
// to the registered type. This is how a handler registered for a base
// type picks up wrapped and embedded derivatives.
func (r errorRegistration) matchAs(err error) bool {
	if r.rtype == nil {
		return false
	}
	if r.rtype.Kind() != reflect.Interface && !r.rtype.Implements(errorIface) {
		return false
	}
	return errors.As(err, reflect.New(r.rtype).Interface())
}

// OnError registers a handler for errors matching target, which may be
// a sentinel value or a prototype of an error type:
//
//	app.OnError(storage.ErrNotFound, notFoundHandler)
//	app.OnError(&PaymentError{}, paymentFailedHandler)
//
// Matching is two-phase across all registrations: exact type and
// sentinel hits win over wrap-chain matches, and within a phase the
// first registration wins. Must be called before the app starts
// serving.
func (app *App) OnError(target error, handler ErrorHandler) {
	app.ensureSetup("OnError")
	if target == nil || handler == nil {
		panic("loom: OnError requires a non-nil target and handler")
	}
	app.errRegs = append(app.errRegs, errorRegistration{
		target:  target,
		rtype:   reflect.TypeOf(target),
		handler: handler,
	})
}

// OnErrorCode registers a handler for every error carrying the given
// HTTP status code, consulted only when no type or sentinel
// registration matched. Must be called before the app starts serving.
func (app *App) OnErrorCode(code int, handler ErrorHandler) {
	app.ensureSetup("OnErrorCode")
	if handler == nil {
		panic("loom: OnErrorCode requires a non-nil handler")
	}
	if app.codeRegs == nil {
		app.codeRegs = make(map[int]ErrorHandler)
	}
	app.codeRegs[code] = handler
}

// OnErrorDefault registers the fallback handler consulted when nothing
// else matched. Must be called before the app starts serving.
func (app *App) OnErrorDefault(handler ErrorHandler) {
	app.ensureSetup("OnErrorDefault")
	app.defaultErrHandler = handler
}

// dispatchError resolves a handler error into a concrete Responder. It
// never fails: a registered handler that errors (or returns something
// unnegotiable) is logged and the built-in rendering takes over, so the
// client always receives a well-formed error response.
func (app *App) dispatchError(c Context, err error) Responder {
	app.logError(c, err)

	if handler := app.findErrorHandler(err); handler != nil {
		value, herr := handler(c, err)
		if herr == nil {
			resp, nerr := app.negotiate(c, value)
			if nerr == nil {
				return overlayErrorStatus(resp, err)
			}
			herr = nerr
		}
		app.log().ErrorContext(c.Request().Context(), "error handler failed",
			slog.Any("error", herr),
			slog.String("original_error", err.Error()),
		)
	}

	return app.builtinError(c, err)
}

// findErrorHandler walks the dispatch order: exact type or sentinel,
// then wrap-chain type match, then status code, then the registered
// default. Returns nil when only the built-in rendering remains.
func (app *App) findErrorHandler(err error) ErrorHandler {
	for _, reg := range app.errRegs {
		if reg.matchExact(err) {
			return reg.handler
		}
	}
	for _, reg := range app.errRegs {
		if reg.matchAs(err) {
			return reg.handler
		}
	}
	if handler, ok := app.codeRegs[statusFor(err)]; ok {
		return handler
	}
	return app.defaultErrHandler
}

// overlayErrorStatus keeps custom error pages honest: a handler that
// returned a template or plain value gets the error's status instead of
// the 200 negotiation defaulted to. Handlers that set a status
// explicitly keep it.
func overlayErrorStatus(resp Responder, err error) Responder {
	if r, ok := resp.(*Response); ok && r.status == http.StatusOK {
		return r.WithStatus(statusFor(err))
	}
	return resp
}

// statusFor extracts the HTTP status an error maps to. Anything that
// does not announce a status is an internal failure.
func statusFor(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}
	var coded interface{ StatusCode() int }
	if errors.As(err, &coded) {
		return coded.StatusCode()
	}
	return http.StatusInternalServerError
}

func (app *App) logError(c Context, err error) {
	status := statusFor(err)
	attrs := []any{
		slog.Int("status", status),
		slog.String("method", c.Request().Method()),
		slog.String("path", c.Request().Path()),
		slog.Any("error", err),
	}
	var panicErr *PanicError
	if errors.As(err, &panicErr) {
		attrs = append(attrs, slog.String("stack", string(panicErr.Stack)))
	}

	ctx := c.Request().Context()
	if status >= http.StatusInternalServerError {
		app.log().ErrorContext(ctx, "request failed", attrs...)
	} else {
		app.log().DebugContext(ctx, "request error", attrs...)
	}
}

// builtinError renders the framework's own error response: a compact
// fragment for htmx requests, a full page otherwise. Debug mode adds
// the error chain and any captured panic stack; production shows only
// the status text so internals never leak.
func (app *App) builtinError(c Context, err error) Responder {
	status := statusFor(err)
	title := http.StatusText(status)
	if title == "" {
		title = fmt.Sprintf("Error %d", status)
	}

	var body string
	if c.IsHTMX() {
		body = errorFragment(status, title, app.debugDetail(err))
	} else {
		body = errorPage(status, title, app.debugDetail(err))
	}

	resp := NewResponse(status, ContentTypeHTML, []byte(body))

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		if len(httpErr.Allow) > 0 {
			resp = resp.WithHeader("Allow", strings.Join(httpErr.Allow, ", "))
		}
		if httpErr.RequestID != "" {
			resp = resp.WithHeader("X-Request-ID", httpErr.RequestID)
		}
	}
	return resp
}

// debugDetail builds the diagnostic block shown in debug mode; empty in
// production.
func (app *App) debugDetail(err error) string {
	if !app.debug {
		return ""
	}

	var b strings.Builder
	for e := err; e != nil; e = errors.Unwrap(e) {
		fmt.Fprintf(&b, "%T: %s\n", e, e.Error())
	}
	var panicErr *PanicError
	if errors.As(err, &panicErr) {
		b.WriteString("\n")
		b.Write(panicErr.Stack)
	}
	return b.String()
}

func errorPage(status int, title, detail string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%d %s</title>
<style>
body{font-family:system-ui,sans-serif;margin:0;display:grid;min-height:100vh;place-items:center;background:#fafafa;color:#1a1a1a}
main{max-width:48rem;padding:2rem;text-align:center}
h1{font-size:4rem;margin:0}
p{color:#666}
pre{text-align:left;background:#1a1a1a;color:#e8e8e8;padding:1rem;border-radius:.5rem;overflow-x:auto;font-size:.8rem}
</style>
</head>
<body>
<main>
<h1>%d</h1>
<p>%s</p>`, status, html.EscapeString(title), status, html.EscapeString(title))
	if detail != "" {
		fmt.Fprintf(&b, "\n<pre>%s</pre>", html.EscapeString(detail))
	}
	b.WriteString("\n</main>\n</body>\n</html>\n")
	return b.String()
}

func errorFragment(status int, title, detail string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<div class="loom-error" role="alert"><strong>%d</strong> %s`,
		status, html.EscapeString(title))
	if detail != "" {
		fmt.Fprintf(&b, "<pre>%s</pre>", html.EscapeString(detail))
	}
	b.WriteString("</div>")
	return b.String()
}
