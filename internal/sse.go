package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/loom/pkg/sse"
)

// Event-stream connection states. Transitions are one-way:
// open -> streaming -> closing -> closed.
const (
	sseOpen int32 = iota
	sseStreaming
	sseClosing
	sseClosed
)

// sseConn drives a single event-stream connection: it pulls values from
// the producer, formats them as wire events, and interleaves heartbeat
// comments. The producer runs in its own goroutine under the request's
// cancellation scope; all writing happens on the handler goroutine,
// which is the only one allowed to touch the ResponseWriter.
type sseConn struct {
	app    *App
	w      *ResponseWriter
	stream *EventStream
	state  atomic.Int32
	nextID uint64
}

// serveSSE streams an SSEResponse until the producer finishes or the
// client disconnects. It must not be called after anything has been
// written to w.
func (app *App) serveSSE(c Context, w *ResponseWriter, resp *SSEResponse) error {
	if !w.CanFlush() {
		return ErrStreamingUnsupported
	}

	conn := &sseConn{
		app:    app,
		w:      w,
		stream: resp.Stream(),
	}
	conn.run(c.Request().Context())
	return nil
}

func (conn *sseConn) run(ctx context.Context) {
	sse.WriteHeaders(conn.w)
	conn.w.WriteHeader(http.StatusOK)
	conn.w.Flush()
	conn.state.Store(sseStreaming)

	items := make(chan any)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return conn.produce(gctx, items)
	})

	ticker := time.NewTicker(conn.stream.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case item, ok := <-items:
			if !ok {
				conn.finish(g)
				return
			}
			if !conn.writeItem(gctx, item) {
				conn.state.Store(sseClosing)
				_ = g.Wait()
				conn.state.Store(sseClosed)
				return
			}
			// A real event proves the connection is alive, so the
			// keep-alive clock starts over.
			ticker.Reset(conn.stream.heartbeat)

		case <-ticker.C:
			if err := conn.write(sse.Comment("keep-alive")); err != nil {
				conn.state.Store(sseClosing)
				_ = g.Wait()
				conn.state.Store(sseClosed)
				return
			}

		case <-gctx.Done():
			// Client went away or the request was canceled. The
			// producer sees the same context, so waiting here cannot
			// block for long.
			conn.state.Store(sseClosing)
			_ = g.Wait()
			conn.state.Store(sseClosed)
			return
		}
	}
}

// produce pulls values from the event source and hands them to the
// writer. Returning early out of the range loop runs the source's
// deferred cleanup, so a disconnect releases whatever the producer
// holds (subscriptions, rows, file handles) before the goroutine
// exits.
func (conn *sseConn) produce(ctx context.Context, items chan<- any) (err error) {
	defer close(items)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("event producer panicked: %v", r)
		}
	}()

	for item := range conn.stream.source {
		select {
		case items <- item:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// finish runs after the producer closed the channel. A clean exit just
// closes the connection; a fatal producer error becomes one final error
// event so the client learns the stream died instead of silently
// reconnecting forever.
func (conn *sseConn) finish(g *errgroup.Group) {
	conn.state.Store(sseClosing)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		conn.app.log().Error("event stream producer failed", slog.Any("error", err))
		_ = conn.write(sse.Event{Event: "error", Data: conn.errorPayload(err)}.Format())
	}
	conn.state.Store(sseClosed)
}

// writeItem converts one produced value into a wire event and sends it.
// Conversion failures are isolated per event: the failure is logged and
// reported per the stream's error mode, and the stream moves on to the
// next value. The return value is false only when the connection itself
// is gone.
func (conn *sseConn) writeItem(ctx context.Context, item any) bool {
	event, err := conn.eventFor(ctx, item)
	if err != nil {
		conn.app.log().Error("dropping event", slog.Any("error", err))
		if conn.stream.errorMode == EventErrorSilent {
			return true
		}
		event = sse.Event{Event: "error", Data: conn.errorPayload(err)}
	}
	return conn.write(event.Format()) == nil
}

// eventFor maps a produced value onto a wire event. Explicit sse.Event
// values pass through; fragment directives render a template block with
// the event named after the directive's target (falling back to the
// block name); strings and bytes become raw data; everything JSON-able
// is marshaled.
func (conn *sseConn) eventFor(ctx context.Context, item any) (sse.Event, error) {
	conn.nextID++
	id := fmt.Sprintf("%d", conn.nextID)

	switch v := item.(type) {
	case sse.Event:
		if v.ID == "" {
			v.ID = id
		}
		return v, nil

	case *sse.Event:
		event := *v
		if event.ID == "" {
			event.ID = id
		}
		return event, nil

	case *FragmentDirective:
		if conn.app.engine == nil {
			return sse.Event{}, ErrNoTemplateEngine
		}
		html, err := conn.app.engine.RenderBlock(v.name, v.block, v.data)
		if err != nil {
			return sse.Event{}, fmt.Errorf("render block %q of %q: %w", v.block, v.name, err)
		}
		name := v.target
		if name == "" {
			name = v.block
		}
		return sse.Event{ID: id, Event: name, Data: html}, nil

	case Component:
		html, err := renderComponent(ctx, v)
		if err != nil {
			return sse.Event{}, err
		}
		return sse.Event{ID: id, Data: html}, nil

	case string:
		return sse.Event{ID: id, Data: v}, nil

	case []byte:
		return sse.Event{ID: id, Data: string(v)}, nil

	case error:
		return sse.Event{}, v
	}

	if jsonable(item) {
		data, err := json.Marshal(item)
		if err != nil {
			return sse.Event{}, fmt.Errorf("marshal event payload: %w", err)
		}
		return sse.Event{ID: id, Data: string(data)}, nil
	}

	return sse.Event{}, &NegotiationError{Value: item}
}

// errorPayload picks the client-visible error text per the stream's
// error mode. Detailed payloads are reserved for debug builds unless
// the stream explicitly opts in.
func (conn *sseConn) errorPayload(err error) string {
	detailed := conn.stream.errorMode == EventErrorDetailed ||
		(conn.stream.errorMode == EventErrorAuto && conn.app.debug)
	if detailed {
		return err.Error()
	}
	return "event processing failed"
}

func (conn *sseConn) write(p []byte) error {
	if _, err := conn.w.Write(p); err != nil {
		return err
	}
	conn.w.Flush()
	return nil
}
