package middlewares

import (
	"net/http"
	"runtime"

	"github.com/dmitrymomot/loom/internal"
)

// DefaultStackSize caps the captured stack trace, in bytes.
const DefaultStackSize = 4096

// RecoverConfig configures the recover middleware.
type RecoverConfig struct {
	// StackSize caps the captured stack trace. Defaults to DefaultStackSize.
	StackSize int

	// DisablePrintStack leaves the stack trace out of the log line and
	// the resulting PanicError.
	DisablePrintStack bool
}

// RecoverOption configures RecoverConfig.
type RecoverOption func(*RecoverConfig)

// WithRecoverStackSize caps the captured stack trace, in bytes.
func WithRecoverStackSize(size int) RecoverOption {
	return func(cfg *RecoverConfig) {
		cfg.StackSize = size
	}
}

// WithRecoverDisablePrintStack leaves stack traces out of the logs.
func WithRecoverDisablePrintStack() RecoverOption {
	return func(cfg *RecoverConfig) {
		cfg.DisablePrintStack = true
	}
}

// Recover returns middleware that converts panics into a *PanicError at
// its position in the chain, so outer middleware (logging, metrics)
// observes an ordinary error return instead of an unwinding stack.
//
// The pipeline has a last-resort recover of its own; install this
// middleware when something outside it needs to see the failure.
// http.ErrAbortHandler is re-raised untouched, as it is the stdlib's
// signal for a dead connection rather than a handler bug.
func Recover(opts ...RecoverOption) internal.Middleware {
	cfg := &RecoverConfig{StackSize: DefaultStackSize}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) (value any, err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if r == http.ErrAbortHandler {
					panic(r)
				}

				attrs := []any{"panic", r}
				var stack []byte
				if !cfg.DisablePrintStack {
					stack = make([]byte, cfg.StackSize)
					stack = stack[:runtime.Stack(stack, false)]
					attrs = append(attrs, "stack", string(stack))
				}
				c.LogError("panic recovered", attrs...)

				value = nil
				err = &internal.PanicError{Value: r, Stack: stack}
			}()

			return next(c)
		}
	}
}
