package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"slices"
	"strings"

	"github.com/dmitrymomot/loom/pkg/htmx"
)

// negotiate maps a handler return value onto a concrete Responder.
//
// The mapping is by shape, checked in a fixed order: concrete responses
// pass through untouched, directives render through the template engine,
// and plain Go values fall back to sensible defaults (string to HTML,
// []byte to binary, map/slice/struct to JSON). A value that matches no
// branch is a programmer error and surfaces as a NegotiationError.
//
// negotiate runs twice per request: once when the route handler returns
// (so middleware observes a concrete Responder) and once more on the
// value the outermost middleware returns (so a middleware that
// short-circuits with a raw value still gets the same treatment). The
// pass-through branch makes the second run a no-op for already
// negotiated values.
func (app *App) negotiate(c Context, value any) (Responder, error) {
	switch v := value.(type) {
	case nil:
		return nil, &NegotiationError{Value: nil}

	case Responder:
		return v, nil

	case *StatusDirective:
		return app.negotiateWithStatus(c, v.value, v.status, nil)

	case *HeadersDirective:
		return app.negotiateWithStatus(c, v.value, v.status, v.headers)

	case *RedirectDirective:
		return app.negotiateRedirect(c, v), nil

	case *PageDirective:
		return app.renderPage(v.name, v.data)

	case *FragmentDirective:
		return app.renderFragment(c, v)

	case *AutoDirective:
		if c.IsHTMX() && !c.IsBoosted() {
			return app.renderFragment(c, &FragmentDirective{data: v.data, name: v.name, block: v.block})
		}
		return app.renderPage(v.name, v.data)

	case *MultiDirective:
		return app.renderMulti(c, v)

	case *InvalidDirective:
		return app.renderInvalid(c, v)

	case *StreamDirective:
		if app.engine == nil {
			return nil, ErrNoTemplateEngine
		}
		return NewStreamingResponse(app.engine.RenderStream(v.name, v.data)), nil

	case *EventStream:
		return NewSSEResponse(v), nil

	case Component:
		html, err := renderComponent(c.Request().Context(), v)
		if err != nil {
			return nil, err
		}
		return NewResponse(http.StatusOK, ContentTypeHTML, []byte(html)), nil

	case string:
		return NewResponse(http.StatusOK, ContentTypeHTML, []byte(v)), nil

	case []byte:
		return NewResponse(http.StatusOK, ContentTypeBinary, v), nil
	}

	if jsonable(value) {
		body, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("marshal response: %w", err)
		}
		return NewResponse(http.StatusOK, ContentTypeJSON, body), nil
	}

	return nil, &NegotiationError{Value: value}
}

// negotiateWithStatus resolves the wrapped value first, then overlays
// the explicit status and headers. Extra headers win over whatever the
// inner negotiation produced.
func (app *App) negotiateWithStatus(c Context, value any, status int, headers map[string]string) (Responder, error) {
	inner, err := app.negotiate(c, value)
	if err != nil {
		return nil, err
	}
	switch resp := inner.(type) {
	case *Response:
		if status > 0 {
			resp = resp.WithStatus(status)
		}
		for _, k := range sortedKeys(headers) {
			resp = resp.WithHeader(k, headers[k])
		}
		return resp, nil
	case *StreamingResponse:
		if status > 0 {
			resp = resp.WithStatus(status)
		}
		for _, k := range sortedKeys(headers) {
			resp = resp.WithHeader(k, headers[k])
		}
		return resp, nil
	default:
		// SSE responses have a fixed status and wire format.
		return inner, nil
	}
}

func (app *App) negotiateRedirect(c Context, d *RedirectDirective) *Response {
	if c.IsHTMX() {
		// htmx performs redirects client-side; a 3xx status would make
		// the browser follow it transparently and swap the target page
		// into the triggering element.
		return NewResponse(http.StatusOK, ContentTypeHTML, nil).
			WithHeader(htmx.HeaderHXRedirect, d.url)
	}
	return NewResponse(d.status, ContentTypeHTML, nil).
		WithHeader("Location", d.url)
}

func (app *App) renderPage(name string, data any) (*Response, error) {
	if app.engine == nil {
		return nil, ErrNoTemplateEngine
	}
	html, err := app.engine.Render(name, data)
	if err != nil {
		return nil, fmt.Errorf("render page %q: %w", name, err)
	}
	return NewResponse(http.StatusOK, ContentTypeHTML, []byte(html)), nil
}

func (app *App) renderFragment(c Context, d *FragmentDirective) (*Response, error) {
	if app.engine == nil {
		return nil, ErrNoTemplateEngine
	}
	html, err := app.engine.RenderBlock(d.name, d.block, d.data)
	if err != nil {
		return nil, fmt.Errorf("render block %q of %q: %w", d.block, d.name, err)
	}
	resp := NewResponse(http.StatusOK, ContentTypeHTML, []byte(html))
	if d.target != "" && c.IsHTMX() {
		resp = resp.WithHeader(htmx.HeaderHXRetarget, d.target)
	}
	return resp, nil
}

// renderMulti renders the primary fragment plus any out-of-band
// fragments into a single response body. Rendering is all-or-nothing:
// a failure in any fragment abandons the whole response so the client
// never receives a partial update.
func (app *App) renderMulti(c Context, d *MultiDirective) (*Response, error) {
	if app.engine == nil {
		return nil, ErrNoTemplateEngine
	}
	primary, err := app.engine.RenderBlock(d.primary.name, d.primary.block, d.primary.data)
	if err != nil {
		return nil, fmt.Errorf("render block %q of %q: %w", d.primary.block, d.primary.name, err)
	}

	var b strings.Builder
	b.WriteString(primary)
	for _, oob := range d.oob {
		html, err := app.engine.RenderBlock(oob.Template, oob.Block, oob.Data)
		if err != nil {
			return nil, fmt.Errorf("render oob block %q of %q: %w", oob.Block, oob.Template, err)
		}
		b.WriteString(`<div id="`)
		b.WriteString(oob.TargetID)
		b.WriteString(`" hx-swap-oob="true">`)
		b.WriteString(html)
		b.WriteString(`</div>`)
	}

	resp := NewResponse(http.StatusOK, ContentTypeHTML, []byte(b.String()))
	if d.primary.target != "" && c.IsHTMX() {
		resp = resp.WithHeader(htmx.HeaderHXRetarget, d.primary.target)
	}
	return resp, nil
}

// renderInvalid renders a validation failure as 422 with retargeting
// headers, so the fragment lands in the form's error container instead
// of the element that triggered the request.
func (app *App) renderInvalid(c Context, d *InvalidDirective) (*Response, error) {
	if app.engine == nil {
		return nil, ErrNoTemplateEngine
	}
	html, err := app.engine.RenderBlock(d.name, d.block, d.data)
	if err != nil {
		return nil, fmt.Errorf("render block %q of %q: %w", d.block, d.name, err)
	}
	resp := NewResponse(http.StatusUnprocessableEntity, ContentTypeHTML, []byte(html))
	if c.IsHTMX() {
		resp = resp.
			WithHeader(htmx.HeaderHXRetarget, app.validationTarget).
			WithHeader(htmx.HeaderHXReswap, string(htmx.SwapInnerHTML)).
			WithHeader(htmx.HeaderHXTrigger, htmx.TriggerValue(map[string]any{"validation-failed": nil}))
	}
	return resp, nil
}

func renderComponent(ctx context.Context, comp Component) (string, error) {
	var buf bytes.Buffer
	if err := comp.Render(ctx, &buf); err != nil {
		return "", fmt.Errorf("render component: %w", err)
	}
	return buf.String(), nil
}

// jsonable reports whether a value belongs to the JSON fallback branch:
// maps, slices, arrays, and structs (directly or behind pointers).
// Scalars are excluded on purpose; returning a bare int or bool is
// almost always a bug, and the negotiation error names the fix.
func jsonable(value any) bool {
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return true
	default:
		return false
	}
}

// sortedKeys makes header overlay order deterministic; map iteration
// order would otherwise leak into the serialized header list.
func sortedKeys(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
