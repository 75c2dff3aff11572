// Package loom is a hypermedia-first web framework for building
// server-rendered applications with htmx.
//
// Handlers return values instead of writing responses. The framework
// inspects each returned value together with the request and decides
// how to send it: as a full HTML page, as an htmx fragment, as a
// chunked stream, or as a Server-Sent Events connection. Handlers stay
// free of protocol plumbing.
//
// # Quick Start
//
// Create an app, register routes, and run:
//
//	views, err := htmlview.New(templatesFS)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	app := loom.New(
//	    loom.WithTemplates(views),
//	    loom.WithLogger("web"),
//	)
//
//	app.GET("/", func(c loom.Context) (any, error) {
//	    return loom.Page("home", loom.M{"Title": "Welcome"}), nil
//	})
//
//	if err := app.Run(":8080"); err != nil {
//	    log.Fatal(err)
//	}
//
// # Handlers
//
// A handler receives a Context and returns a value and an error:
//
//	func (h *ContactHandler) show(c loom.Context) (any, error) {
//	    contact, err := h.repo.Find(c, loom.Param[int64](c, "id"))
//	    if err != nil {
//	        return nil, loom.ErrNotFound("no such contact")
//	    }
//	    return loom.Auto("contacts/show", "detail", contact), nil
//	}
//
// Group routes into feature bundles by implementing [Handler]:
//
//	func (h *ContactHandler) Routes(r loom.Router) {
//	    r.GET("/contacts", h.list)
//	    r.GET("/contacts/{id:int}", h.show).Named("contact.show")
//	    r.POST("/contacts", h.create)
//	}
//
// # Directives
//
// Returned values steer content negotiation:
//
//   - [Page] renders a full page.
//   - [Fragment] renders one template block for an htmx swap.
//   - [Auto] picks Fragment for htmx requests and Page otherwise.
//   - [Multi] combines a fragment with out-of-band updates.
//   - [Invalid] re-renders a form with validation errors as a 422.
//   - [Stream] sends the page in chunks as it renders.
//   - [Events] opens a Server-Sent Events connection.
//   - [Redirect] navigates, using HX-Redirect for htmx clients.
//
// Strings, []byte, maps, and structs are also negotiable: maps and
// structs become JSON, strings become HTML. Values implementing
// [Component] render themselves, which makes templ components
// returnable directly.
//
// # Middleware
//
// Middleware wraps handlers and sees the returned value on the way
// out:
//
//	func Timed(next loom.HandlerFunc) loom.HandlerFunc {
//	    return func(c loom.Context) (any, error) {
//	        start := time.Now()
//	        v, err := next(c)
//	        c.LogInfo("handled", "duration", time.Since(start))
//	        return v, err
//	    }
//	}
//
// # Error Handling
//
// Errors returned from handlers flow through error dispatch. Register
// handlers for specific errors, status codes, or everything:
//
//	app.OnError(storage.ErrNotFound, func(c loom.Context, err error) (any, error) {
//	    return loom.WithStatus(loom.Page("errors/404", nil), 404), nil
//	})
//	app.OnErrorCode(500, internalError)
//
// Unhandled errors fall back to a built-in error page that shows
// diagnostic detail in debug mode and a generic message otherwise.
//
// # Lifecycle
//
// The app is mutable during setup and frozen at startup. Run compiles
// the route table, hands filters and globals to the template engine,
// and only then opens the listener, so structural mistakes fail the
// boot instead of a request. Registering routes after startup panics.
//
// Shutdown is graceful: SIGINT/SIGTERM stop the listener, in-flight
// requests drain within the shutdown timeout, and open SSE connections
// are closed.
package loom
