package health

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Status is the reported state of a check or of the service overall.
type Status string

const (
	// Healthy means the check passed.
	Healthy Status = "healthy"
	// Unhealthy means the check failed or timed out.
	Unhealthy Status = "unhealthy"
)

const defaultTimeout = 5 * time.Second

// CheckFunc probes one dependency. The hook constructors in pkg/db,
// pkg/redis and the session stores all return this shape.
type CheckFunc func(ctx context.Context) error

// Checks maps check names to their probe functions.
type Checks map[string]CheckFunc

// Response is the readiness report returned to the prober.
type Response struct {
	Status Status           `json:"status"`
	Checks map[string]Check `json:"checks,omitempty"`
}

// Check is the outcome of a single probe.
type Check struct {
	Status   Status `json:"status"`
	Duration string `json:"duration,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Option configures check execution.
type Option func(*config)

type config struct {
	timeout time.Duration
	log     *slog.Logger
}

func newConfig(opts []Option) config {
	cfg := config{
		timeout: defaultTimeout,
		log:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithTimeout bounds one readiness pass across all checks. The
// default is 5 seconds.
func WithTimeout(d time.Duration) Option {
	return func(cfg *config) {
		if d > 0 {
			cfg.timeout = d
		}
	}
}

// WithLogger reports failing checks to the given logger. By default
// failures only show up in the response body.
func WithLogger(log *slog.Logger) Option {
	return func(cfg *config) {
		if log != nil {
			cfg.log = log
		}
	}
}

type outcome struct {
	name  string
	check Check
}

// runChecks probes every dependency at once and gathers the results.
// A slow check delays the response only up to the shared timeout, not
// once per check.
func runChecks(ctx context.Context, checks Checks, cfg config) *Response {
	resp := &Response{Status: Healthy}
	if len(checks) == 0 {
		return resp
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	results := make(chan outcome, len(checks))
	for name, fn := range checks {
		go func() {
			results <- outcome{name: name, check: runOne(ctx, name, fn, cfg.log)}
		}()
	}

	resp.Checks = make(map[string]Check, len(checks))
	for range len(checks) {
		r := <-results
		resp.Checks[r.name] = r.check
		if r.check.Status == Unhealthy {
			resp.Status = Unhealthy
		}
	}
	return resp
}

func runOne(ctx context.Context, name string, fn CheckFunc, log *slog.Logger) Check {
	start := time.Now()
	err := probe(ctx, fn)
	dur := time.Since(start).Round(10 * time.Microsecond).String()

	if err != nil {
		log.WarnContext(ctx, "health check failed",
			slog.String("check", name),
			slog.String("error", err.Error()),
		)
		return Check{Status: Unhealthy, Duration: dur, Error: err.Error()}
	}
	return Check{Status: Healthy, Duration: dur}
}

// probe calls fn, converting a panic into an error so one broken
// check cannot take the process down through the readiness endpoint.
func probe(ctx context.Context, fn CheckFunc) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrCheckPanicked, p)
		}
	}()
	return fn(ctx)
}
