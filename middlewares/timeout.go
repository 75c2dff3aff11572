package middlewares

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrymomot/loom/internal"
)

// DefaultTimeout is used when Timeout is handed a non-positive duration.
const DefaultTimeout = 30 * time.Second

// TimeoutError reports that a request ran past its deadline.
type TimeoutError struct {
	Duration time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request timeout after %s", e.Duration)
}

// IsTimeoutError reports whether err wraps a *TimeoutError.
func IsTimeoutError(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// AsTimeoutError unwraps err to a *TimeoutError when one is present.
func AsTimeoutError(err error) (*TimeoutError, bool) {
	var te *TimeoutError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// timeoutContextKey carries the deadline context for GetTimeoutContext.
type timeoutContextKey struct{}

// Timeout returns middleware that bounds how long the rest of the chain
// may take. When the deadline passes first, the request resolves to a
// *TimeoutError; map it to 504 with an OnError registration:
//
//	app.OnError(&middlewares.TimeoutError{}, func(c loom.Context, err error) (any, error) {
//	    return loom.WithStatus(loom.Page("errors/timeout", nil), 504), nil
//	})
//
// The handler goroutine keeps running after the deadline; long
// operations should watch GetTimeoutContext(c).Done() and bail out.
func Timeout(timeout time.Duration) internal.Middleware {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) (any, error) {
			ctx, cancel := context.WithTimeout(c.Context(), timeout)
			defer cancel()

			c.Set(timeoutContextKey{}, ctx)

			type result struct {
				value any
				err   error
			}
			done := make(chan result, 1)
			go func() {
				value, err := next(c)
				done <- result{value: value, err: err}
			}()

			// A cancelled parent context (client gone) is reported as
			// the cancellation it is, not mislabeled as a timeout.
			select {
			case res := <-done:
				return res.value, res.err
			case <-ctx.Done():
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					c.LogWarn("request timeout", "timeout", timeout.String())
					return nil, &TimeoutError{Duration: timeout}
				}
				return nil, ctx.Err()
			}
		}
	}
}

// GetTimeoutContext returns the deadline context installed by Timeout,
// falling back to the plain request context when the middleware is not
// in the chain.
func GetTimeoutContext(c internal.Context) context.Context {
	if ctx, ok := c.Get(timeoutContextKey{}).(context.Context); ok {
		return ctx
	}
	return c.Context()
}
