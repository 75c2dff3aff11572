package internal

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrymomot/loom/pkg/hostrouter"
)

// Run starts the app's HTTP server and blocks until shutdown. The app
// is frozen before the listener opens, so structural mistakes
// (duplicate routes, bad filter registrations) fail startup instead of
// the first unlucky request.
//
// Example:
//
//	app := loom.New(loom.WithTemplates(views))
//	app.GET("/", home)
//	err := app.Run(":8080", loom.Logger(log))
func (app *App) Run(addr string, opts ...RunOption) error {
	if err := app.Freeze(); err != nil {
		return err
	}

	cfg := newRunConfig(opts)
	cfg.address = addr
	if cfg.logger == nil {
		cfg.logger = app.log()
	}

	return runServer(app, cfg)
}

// Run starts a multi-domain HTTP server and blocks until shutdown.
// Use this for composing multiple Apps under different domain patterns.
// Every composed app is frozen before the server starts.
//
// Example:
//
//	api := loom.New()
//	api.Register(handlers.NewAPI(repo))
//
//	site := loom.New(loom.WithTemplates(views))
//	site.Register(handlers.NewPages(repo))
//
//	err := loom.Run(
//	    loom.Domain("api.acme.com", api),
//	    loom.Fallback(site),
//	    loom.Address(":8080"),
//	)
func Run(opts ...RunOption) error {
	cfg := newRunConfig(opts)

	handler, err := composeHandler(cfg)
	if err != nil {
		return err
	}
	return runServer(handler, cfg)
}

// composeHandler freezes every configured app and assembles the host
// dispatch around them.
func composeHandler(cfg *runConfig) (http.Handler, error) {
	freeze := func(app *App) error {
		if err := app.Freeze(); err != nil {
			return fmt.Errorf("loom: app failed to start: %w", err)
		}
		return nil
	}

	if len(cfg.domains) == 0 {
		if cfg.fallback == nil {
			return nil, errors.New("loom.Run: no domains or fallback configured")
		}
		if err := freeze(cfg.fallback); err != nil {
			return nil, err
		}
		return cfg.fallback, nil
	}

	routes := make(hostrouter.Routes, len(cfg.domains))
	for pattern, app := range cfg.domains {
		if err := freeze(app); err != nil {
			return nil, err
		}
		routes[pattern] = app
	}

	var fallback http.Handler
	if cfg.fallback != nil {
		if err := freeze(cfg.fallback); err != nil {
			return nil, err
		}
		fallback = cfg.fallback
	}

	return hostrouter.New(routes, fallback), nil
}
