package internal

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dmitrymomot/loom/pkg/sse"
)

// TestMain verifies that no test in this directory leaves a goroutine
// behind, which is the failure mode event streams are most prone to.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fromSlice adapts a fixed set of values into an event source.
func fromSlice(items ...any) iter.Seq[any] {
	return func(yield func(any) bool) {
		for _, item := range items {
			if !yield(item) {
				return
			}
		}
	}
}

// serveEvents mounts the handler at /events, runs one request through
// the full pipeline, and returns the recorder after the stream closed.
func serveEvents(t *testing.T, handler HandlerFunc, opts ...Option) *httptest.ResponseRecorder {
	t.Helper()
	app := New(opts...)
	app.GET("/events", handler)
	require.NoError(t, app.Freeze())

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events", nil))
	return rec
}

func TestSSEHeadersAndSequence(t *testing.T) {
	t.Parallel()

	rec := serveEvents(t, func(c Context) (any, error) {
		return Events(fromSlice("one", M{"n": 2})), nil
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "keep-alive", rec.Header().Get("Connection"))
	assert.Equal(t, "no", rec.Header().Get("X-Accel-Buffering"))
	assert.True(t, rec.Flushed, "events must be flushed as they are written")

	assert.Equal(t, "id: 1\ndata: one\n\nid: 2\ndata: {\"n\":2}\n\n", rec.Body.String())
}

func TestSSEEventPassthrough(t *testing.T) {
	t.Parallel()

	rec := serveEvents(t, func(c Context) (any, error) {
		return Events(fromSlice(
			sse.Event{Event: "tick", Data: "t1"},
			&sse.Event{ID: "custom", Event: "tick", Data: "t2"},
			sse.Event{Data: "a\nb"},
		)), nil
	})

	// An explicit ID is kept, but still consumes a slot in the sequence,
	// and multi-line payloads split into one data field per line.
	assert.Equal(t,
		"id: 1\nevent: tick\ndata: t1\n\n"+
			"id: custom\nevent: tick\ndata: t2\n\n"+
			"id: 3\ndata: a\ndata: b\n\n",
		rec.Body.String())
}

func TestSSEFragmentEvents(t *testing.T) {
	t.Parallel()

	t.Run("block name and explicit target", func(t *testing.T) {
		t.Parallel()
		rec := serveEvents(t, func(c Context) (any, error) {
			return Events(fromSlice(
				Fragment("list.html", "rows", nil),
				Fragment("list.html", "rows", nil).Target("refresh"),
			)), nil
		}, WithTemplates(stubEngine{}))

		assert.Equal(t,
			"id: 1\nevent: rows\ndata: block:list.html#rows\n\n"+
				"id: 2\nevent: refresh\ndata: block:list.html#rows\n\n",
			rec.Body.String())
	})

	t.Run("render failure becomes an error event", func(t *testing.T) {
		t.Parallel()
		rec := serveEvents(t, func(c Context) (any, error) {
			return Events(fromSlice(
				Fragment("list.html", "broken", nil),
				"still alive",
			)), nil
		}, WithTemplates(stubEngine{}))

		assert.Equal(t,
			"event: error\ndata: event processing failed\n\n"+
				"id: 2\ndata: still alive\n\n",
			rec.Body.String())
	})

	t.Run("without an engine", func(t *testing.T) {
		t.Parallel()
		rec := serveEvents(t, func(c Context) (any, error) {
			return Events(fromSlice(Fragment("list.html", "rows", nil)),
				WithEventErrorMode(EventErrorDetailed)), nil
		})

		assert.Contains(t, rec.Body.String(), "event: error\n")
		assert.Contains(t, rec.Body.String(), ErrNoTemplateEngine.Error())
	})
}

func TestSSEPerEventFailureModes(t *testing.T) {
	t.Parallel()

	// The middle value cannot be negotiated; the stream must survive it
	// and keep counting ids.
	source := func() iter.Seq[any] { return fromSlice("good-1", 42, "good-2") }

	t.Run("default hides detail", func(t *testing.T) {
		t.Parallel()
		rec := serveEvents(t, func(c Context) (any, error) {
			return Events(source()), nil
		})
		assert.Equal(t,
			"id: 1\ndata: good-1\n\n"+
				"event: error\ndata: event processing failed\n\n"+
				"id: 3\ndata: good-2\n\n",
			rec.Body.String())
	})

	t.Run("silent drops the event", func(t *testing.T) {
		t.Parallel()
		rec := serveEvents(t, func(c Context) (any, error) {
			return Events(source(), WithEventErrorMode(EventErrorSilent)), nil
		})
		assert.Equal(t, "id: 1\ndata: good-1\n\nid: 3\ndata: good-2\n\n", rec.Body.String())
	})

	t.Run("detailed names the type", func(t *testing.T) {
		t.Parallel()
		rec := serveEvents(t, func(c Context) (any, error) {
			return Events(source(), WithEventErrorMode(EventErrorDetailed)), nil
		})
		assert.Contains(t, rec.Body.String(), "cannot negotiate handler return value of type int")
	})

	t.Run("debug implies detail", func(t *testing.T) {
		t.Parallel()
		rec := serveEvents(t, func(c Context) (any, error) {
			return Events(source()), nil
		}, WithDebug(true))
		assert.Contains(t, rec.Body.String(), "type int")
	})

	t.Run("yielded errors fail their event", func(t *testing.T) {
		t.Parallel()
		rec := serveEvents(t, func(c Context) (any, error) {
			return Events(fromSlice("ok", errors.New("lookup failed"), "ok"),
				WithEventErrorMode(EventErrorDetailed)), nil
		})
		assert.Contains(t, rec.Body.String(), "event: error\ndata: lookup failed\n\n")
		assert.True(t, strings.HasSuffix(rec.Body.String(), "id: 3\ndata: ok\n\n"))
	})
}

func TestSSEHeartbeat(t *testing.T) {
	t.Parallel()

	rec := serveEvents(t, func(c Context) (any, error) {
		return Events(func(yield func(any) bool) {
			if !yield("first") {
				return
			}
			time.Sleep(80 * time.Millisecond)
		}, WithHeartbeat(10*time.Millisecond)), nil
	})

	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "id: 1\ndata: first\n\n"))
	assert.GreaterOrEqual(t, strings.Count(body, ": keep-alive\n\n"), 1,
		"an idle producer must not starve the connection of traffic")
}

func TestSSEProducerPanic(t *testing.T) {
	t.Parallel()

	angry := func(yield func(any) bool) {
		yield("ok")
		panic("exploded")
	}

	t.Run("production payload is generic", func(t *testing.T) {
		t.Parallel()
		rec := serveEvents(t, func(c Context) (any, error) {
			return Events(angry), nil
		})
		assert.Equal(t,
			"id: 1\ndata: ok\n\nevent: error\ndata: event processing failed\n\n",
			rec.Body.String())
	})

	t.Run("debug payload carries the panic", func(t *testing.T) {
		t.Parallel()
		rec := serveEvents(t, func(c Context) (any, error) {
			return Events(angry), nil
		}, WithDebug(true))
		assert.Contains(t, rec.Body.String(), "data: event producer panicked: exploded")
	})
}

func TestSSEClientDisconnect(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	cleaned := make(chan struct{})

	app := New()
	app.GET("/events", func(c Context) (any, error) {
		return Events(func(yield func(any) bool) {
			defer close(cleaned)
			for i := 0; ; i++ {
				if !yield(fmt.Sprintf("tick-%d", i)) {
					return
				}
				if i == 0 {
					close(started)
				}
			}
		}), nil
	})
	require.NoError(t, app.Freeze())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		app.ServeHTTP(rec, req)
	}()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("stream never started")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not return after disconnect")
	}
	select {
	case <-cleaned:
	case <-time.After(2 * time.Second):
		t.Fatal("producer cleanup did not run")
	}

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "id: 1\ndata: tick-0\n\n")
}

// noFlushWriter hides the recorder's Flush method, mimicking a writer
// that cannot stream.
type noFlushWriter struct{ http.ResponseWriter }

func TestSSEUnflushableWriter(t *testing.T) {
	t.Parallel()

	app := New()
	app.GET("/events", func(c Context) (any, error) {
		return Events(fromSlice("never sent")), nil
	})
	require.NoError(t, app.Freeze())

	rec := httptest.NewRecorder()
	app.ServeHTTP(noFlushWriter{rec}, httptest.NewRequest(http.MethodGet, "/events", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, ContentTypeHTML, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<h1>500</h1>")
}
