package middlewares

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/loom/internal"
	"github.com/dmitrymomot/loom/pkg/id"
	"github.com/dmitrymomot/loom/pkg/logger"
)

// requestIDKey carries the request ID through the request context.
type requestIDKey struct{}

// DefaultRequestIDHeaders are consulted in order for an ID assigned by
// an upstream proxy or gateway.
var DefaultRequestIDHeaders = []string{"X-Request-ID", "X-Request-Id", "X-Correlation-ID"}

// RequestIDConfig configures the request ID middleware.
type RequestIDConfig struct {
	// Generator mints an ID when no inbound header carries one.
	// Defaults to id.NewULID.
	Generator func() string

	// ResponseHeader is the header the ID is echoed on. Defaults to
	// "X-Request-ID".
	ResponseHeader string

	// Headers are consulted in order for an inbound ID. Defaults to
	// DefaultRequestIDHeaders.
	Headers []string
}

// RequestIDOption configures RequestIDConfig.
type RequestIDOption func(*RequestIDConfig)

// WithRequestIDHeaders sets the inbound headers consulted for an existing ID.
func WithRequestIDHeaders(headers ...string) RequestIDOption {
	return func(cfg *RequestIDConfig) {
		cfg.Headers = headers
	}
}

// WithRequestIDGenerator sets the generator used when no inbound header
// carries an ID.
func WithRequestIDGenerator(gen func() string) RequestIDOption {
	return func(cfg *RequestIDConfig) {
		cfg.Generator = gen
	}
}

// WithRequestIDResponseHeader sets the header the ID is echoed on.
func WithRequestIDResponseHeader(header string) RequestIDOption {
	return func(cfg *RequestIDConfig) {
		cfg.ResponseHeader = header
	}
}

// RequestID returns middleware that tags every request with an ID.
// The first configured inbound header wins, so tracing IDs minted by an
// upstream proxy survive; requests arriving without one get a generated
// ULID. The ID lands in the request context for GetRequestID and is
// echoed on the response.
func RequestID(opts ...RequestIDOption) internal.Middleware {
	cfg := &RequestIDConfig{
		Generator:      id.NewULID,
		ResponseHeader: "X-Request-ID",
		Headers:        DefaultRequestIDHeaders,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	sources := make([]internal.ExtractorSource, len(cfg.Headers))
	for i, header := range cfg.Headers {
		sources[i] = internal.FromHeader(header)
	}
	inbound := internal.NewExtractor(sources...)

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) (any, error) {
			reqID, ok := inbound.Extract(c)
			if !ok {
				reqID = cfg.Generator()
			}

			c.Set(requestIDKey{}, reqID)
			c.SetHeader(cfg.ResponseHeader, reqID)
			return next(c)
		}
	}
}

// GetRequestID reads the request ID assigned by the middleware, empty
// when the middleware did not run.
func GetRequestID(c internal.Context) string {
	v, _ := c.Get(requestIDKey{}).(string)
	return v
}

// RequestIDExtractor adapts the request ID into a logger attribute so
// every log line written through the request context carries
// "request_id". Pass it to logger.New or loom.WithLogger.
func RequestIDExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		v, ok := ctx.Value(requestIDKey{}).(string)
		if !ok || v == "" {
			return slog.Attr{}, false
		}
		return slog.String("request_id", v), true
	}
}
