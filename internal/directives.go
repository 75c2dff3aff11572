package internal

import (
	"iter"
	"net/http"
	"time"
)

// Directives are lightweight values returned from handlers that tell
// content negotiation how to build the wire response. They carry no
// rendered output themselves; rendering happens during negotiation.

// RedirectDirective produces a redirect response. For htmx requests the
// redirect is expressed as an HX-Redirect header with a 200 status so
// the client-side library performs a full-page navigation.
type RedirectDirective struct {
	url    string
	status int
}

// Redirect builds a redirect directive with the default 302 status.
func Redirect(url string) *RedirectDirective {
	return &RedirectDirective{url: url, status: http.StatusFound}
}

// RedirectWithStatus builds a redirect directive with an explicit
// status code.
func RedirectWithStatus(url string, status int) *RedirectDirective {
	return &RedirectDirective{url: url, status: status}
}

// PageDirective renders a full template.
type PageDirective struct {
	data any
	name string
}

// Page renders the named template in full.
//
// Example:
//
//	func (h *Shop) index(c loom.Context) (any, error) {
//	    return loom.Page("shop/index.html", loom.M{"products": products}), nil
//	}
func Page(name string, data any) *PageDirective {
	return &PageDirective{name: name, data: data}
}

// FragmentDirective renders a single named block of a template. The
// block must be defined (or overridden) by that template itself.
//
// When yielded from an event stream, the rendered markup is emitted as
// an SSE event named "fragment" unless Target set an explicit name.
type FragmentDirective struct {
	data   any
	name   string
	block  string
	target string
}

// Fragment renders one block of the named template.
func Fragment(name, block string, data any) *FragmentDirective {
	return &FragmentDirective{name: name, block: block, data: data}
}

// Target returns a copy of the directive with an SSE event name, used
// to route the fragment to a named client-side swap target.
func (d *FragmentDirective) Target(event string) *FragmentDirective {
	clone := *d
	clone.target = event
	return &clone
}

// AutoDirective renders the block for partial-update requests and the
// full template otherwise, keyed off the HX-Request header.
type AutoDirective struct {
	data  any
	name  string
	block string
}

// Auto picks between full-page and fragment rendering based on whether
// the inbound request is a partial update.
func Auto(name, block string, data any) *AutoDirective {
	return &AutoDirective{name: name, block: block, data: data}
}

// OOBFragment is a secondary fragment appended to a response with an
// out-of-band swap marker, targeting an element elsewhere on the
// already-rendered page.
type OOBFragment struct {
	Data     any
	Template string
	Block    string
	TargetID string
}

// OOB builds an out-of-band fragment targeting the element with the
// given id.
func OOB(template, block, targetID string, data any) OOBFragment {
	return OOBFragment{Template: template, Block: block, TargetID: targetID, Data: data}
}

// MultiDirective renders a primary fragment plus any number of
// out-of-band fragments in one response body. A render failure in any
// fragment aborts the whole response.
type MultiDirective struct {
	primary *FragmentDirective
	oob     []OOBFragment
}

// Multi combines a primary fragment with out-of-band fragments.
//
// Example:
//
//	return loom.Multi(
//	    loom.Fragment("cart.html", "items", cart),
//	    loom.OOB("cart.html", "badge", "cart-badge", cart),
//	), nil
func Multi(primary *FragmentDirective, oob ...OOBFragment) *MultiDirective {
	return &MultiDirective{primary: primary, oob: oob}
}

// InvalidDirective renders a fragment as a 422 validation failure. On
// partial-update requests the response also retargets the client's
// swap to the configured error container and fires a trigger event so
// client code can react.
type InvalidDirective struct {
	data  any
	name  string
	block string
}

// Invalid renders a validation-error fragment with HTTP status 422.
func Invalid(name, block string, data any) *InvalidDirective {
	return &InvalidDirective{name: name, block: block, data: data}
}

// StreamDirective renders a template as a progressive stream: chunks
// are sent with chunked transfer encoding as the engine produces them.
type StreamDirective struct {
	data any
	name string
}

// Stream renders the named template progressively.
func Stream(name string, data any) *StreamDirective {
	return &StreamDirective{name: name, data: data}
}

// StatusDirective negotiates an inner value and then overrides the
// resulting status code.
type StatusDirective struct {
	value  any
	status int
}

// WithStatus wraps a value so its negotiated response carries the
// given status.
//
// Example:
//
//	return loom.WithStatus(loom.M{"ok": true}, http.StatusCreated), nil
func WithStatus(value any, status int) *StatusDirective {
	return &StatusDirective{value: value, status: status}
}

// HeadersDirective negotiates an inner value, overrides the status,
// and merges extra headers in. Extra headers win on key collision.
type HeadersDirective struct {
	value   any
	headers map[string]string
	status  int
}

// WithHeaders wraps a value with a status override and extra headers.
func WithHeaders(value any, status int, headers map[string]string) *HeadersDirective {
	return &HeadersDirective{value: value, status: status, headers: headers}
}

// M is shorthand for template and JSON data maps.
type M = map[string]any

// Default heartbeat interval for event streams.
const defaultHeartbeat = 15 * time.Second

// EventErrorMode controls how a single event's render failure is
// surfaced to the client. The failing event is always isolated (one
// bad event never tears down the connection) and always logged
// server-side.
type EventErrorMode uint8

const (
	// EventErrorAuto emits detailed error events in debug mode and
	// silently skips failed events in production.
	EventErrorAuto EventErrorMode = iota
	// EventErrorDetailed emits a named "error" event with diagnostic
	// detail and continues the stream.
	EventErrorDetailed
	// EventErrorGeneric emits a named "error" event with no detail.
	EventErrorGeneric
	// EventErrorSilent skips the failed event entirely.
	EventErrorSilent
)

// EventStream wraps a lazily produced sequence of event payloads for
// Server-Sent-Events delivery. Yielded items may be sse.Event values,
// plain strings, JSON-able maps, or *FragmentDirective values rendered
// through the template engine. One EventStream instance exists per
// active connection; it is destroyed when the producer finishes, the
// client disconnects, or an unrecoverable error occurs.
type EventStream struct {
	source    iter.Seq[any]
	heartbeat time.Duration
	errorMode EventErrorMode
}

// EventStreamOption configures an event stream.
type EventStreamOption func(*EventStream)

// WithHeartbeat sets the keep-alive comment interval. A comment line is
// written whenever no event has been produced for this long. Defaults
// to 15 seconds.
func WithHeartbeat(d time.Duration) EventStreamOption {
	return func(s *EventStream) {
		if d > 0 {
			s.heartbeat = d
		}
	}
}

// WithEventErrorMode overrides how per-event render failures are
// reported to the client.
func WithEventErrorMode(mode EventErrorMode) EventStreamOption {
	return func(s *EventStream) {
		s.errorMode = mode
	}
}

// Events wraps an event source for SSE delivery. The source must
// release any resources it holds via defer: when the client
// disconnects, iteration stops early and deferred cleanup runs.
//
// Example:
//
//	return loom.Events(func(yield func(any) bool) {
//	    sub := broker.Subscribe(c.Context(), "ticker")
//	    for msg, err := range sub {
//	        if err != nil || !yield(msg) {
//	            return
//	        }
//	    }
//	}, loom.WithHeartbeat(10*time.Second)), nil
func Events(source iter.Seq[any], opts ...EventStreamOption) *EventStream {
	s := &EventStream{source: source, heartbeat: defaultHeartbeat}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Heartbeat returns the configured keep-alive interval.
func (s *EventStream) Heartbeat() time.Duration { return s.heartbeat }
