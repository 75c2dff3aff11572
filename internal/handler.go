package internal

// Handler declares routes on a router.
//
// Example:
//
//	type AccountHandler struct {
//	    repo *repository.Queries
//	}
//
//	func (h *AccountHandler) Routes(r loom.Router) {
//	    r.GET("/login", h.showLogin)
//	    r.POST("/login", h.handleLogin)
//	}
type Handler interface {
	Routes(r Router)
}

// HandlerFunc is the signature for route handlers. The returned value
// is mapped onto the wire by content negotiation: an already-built
// Response/StreamingResponse/SSEResponse passes through untouched,
// directives (Page, Fragment, Stream, Events, Redirect, ...) render,
// strings become HTML, byte slices an octet stream, and maps, slices,
// and structs serialize to JSON. Returning a non-nil error hands the
// request to error dispatch instead.
type HandlerFunc func(c Context) (any, error)

// Middleware wraps a HandlerFunc to add cross-cutting concerns. The
// contract is purely structural: any function of this shape composes.
// A middleware may skip next entirely and return its own value, call
// next exactly once and transform the result, or recover an error
// raised deeper in the chain. Calling next more than once is undefined
// behavior and is the caller's responsibility to avoid.
//
// The value received from next is already negotiated: one of
// *Response, *StreamingResponse, or *SSEResponse. Only buffered
// *Response values can be safely inspected and rewritten; the two
// streaming kinds must be passed through untouched.
//
// Example:
//
//	func Auth(next loom.HandlerFunc) loom.HandlerFunc {
//	    return func(c loom.Context) (any, error) {
//	        if !isAuthenticated(c) {
//	            return loom.Redirect("/login"), nil
//	        }
//	        return next(c)
//	    }
//	}
type Middleware func(next HandlerFunc) HandlerFunc

// ErrorHandler handles errors surfacing from the middleware chain. The
// returned value is negotiated exactly like a route handler's. A
// registered handler fully controls its response and bypasses the
// built-in diagnostic pages.
type ErrorHandler func(c Context, err error) (any, error)

// Responder marks the three terminal response kinds produced by
// content negotiation.
type Responder interface {
	isResponder()
}

// buildChain composes the middleware sequence around the terminal
// dispatch function, right to left, so the first registered middleware
// runs outermost: its pre-next code first on the way in, its post-next
// code last on the way out. The chain is built once at freeze and is
// immutable afterwards.
func buildChain(terminal HandlerFunc, middleware []Middleware) HandlerFunc {
	h := terminal
	for i := len(middleware) - 1; i >= 0; i-- {
		h = middleware[i](h)
	}
	return h
}
