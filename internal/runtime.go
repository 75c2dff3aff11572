package internal

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// runServer opens the listener, brackets the server with the startup
// and shutdown hooks, and blocks until a signal or a serve failure.
// Shared by App.Run and the package-level Run.
func runServer(handler http.Handler, cfg *runConfig) error {
	logger := cfg.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	addr := cfg.address
	if addr == "" {
		addr = ":8080"
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       defaultReadTimeout,
		WriteTimeout:      defaultWriteTimeout,
		IdleTimeout:       defaultIdleTimeout,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		MaxHeaderBytes:    defaultMaxHeaderBytes,
	}

	baseCtx := cfg.baseCtx
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(baseCtx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Listen before the hooks run so they and the logs see the actual
	// address, including a kernel-assigned port for ":0".
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return err
	}

	// Startup hooks warm caches, ping databases, start subscribers. A
	// failure aborts startup but still runs the shutdown hooks, so
	// partial initializations clean up after themselves.
	for _, hook := range cfg.startupHooks {
		if err := hook(ctx); err != nil {
			_ = ln.Close()
			runHooks(cfg.shutdownHooks, cfg.shutdownTimeout, logger)
			return err
		}
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("address", ln.Addr().String()))
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	drainCtx, drainCancel := context.WithTimeout(context.Background(), cfg.shutdownTimeout)
	defer drainCancel()

	errs := []error{server.Shutdown(drainCtx)}
	errs = append(errs, runHooks(cfg.shutdownHooks, cfg.shutdownTimeout, logger))

	if err := errors.Join(errs...); err != nil {
		logger.Error("shutdown completed with errors")
		return err
	}

	logger.Info("shutdown completed")
	return nil
}

// runHooks runs shutdown hooks under a fresh timeout, continuing past
// failures so every hook gets its chance to clean up.
func runHooks(hooks []func(context.Context) error, timeout time.Duration, logger *slog.Logger) error {
	if len(hooks) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	for _, hook := range hooks {
		if err := hook(ctx); err != nil {
			errs = append(errs, err)
			logger.Error("shutdown hook failed", slog.Any("error", err))
		}
	}
	return errors.Join(errs...)
}
