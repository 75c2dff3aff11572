package sse

import (
	"net/http"
	"strconv"
	"strings"
)

// Event is a single Server-Sent Event. Zero-value fields are omitted
// from the wire representation.
type Event struct {
	// ID sets the event ID the browser echoes back in the
	// Last-Event-ID header on reconnect.
	ID string

	// Event names the event type; the client listens with
	// addEventListener(name). Empty means the default "message" type.
	Event string

	// Data is the event payload. Newlines are allowed: each line is
	// emitted as its own data: field and the client reassembles them.
	Data string

	// Retry suggests a reconnection delay, in milliseconds.
	Retry int
}

// Format serializes the event per the EventSource specification,
// terminated by the blank line that marks event dispatch.
func (e Event) Format() []byte {
	var b strings.Builder

	if e.ID != "" {
		b.WriteString("id: ")
		b.WriteString(e.ID)
		b.WriteByte('\n')
	}
	if e.Event != "" {
		b.WriteString("event: ")
		b.WriteString(e.Event)
		b.WriteByte('\n')
	}
	if e.Retry > 0 {
		b.WriteString("retry: ")
		b.WriteString(strconv.Itoa(e.Retry))
		b.WriteByte('\n')
	}
	for _, line := range strings.Split(e.Data, "\n") {
		b.WriteString("data: ")
		b.WriteString(strings.TrimSuffix(line, "\r"))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')

	return []byte(b.String())
}

// Comment formats an SSE comment line. Comments are ignored by
// EventSource clients, which makes them the standard heartbeat: they
// keep proxies from idling out the connection without dispatching an
// event to application code.
func Comment(text string) []byte {
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		b.WriteString(": ")
		b.WriteString(strings.TrimSuffix(line, "\r"))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return []byte(b.String())
}

// WriteHeaders sets the response headers an event-stream response
// requires. X-Accel-Buffering disables response buffering in nginx,
// which would otherwise hold events back.
func WriteHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
}
