// Package internal implements the loom framework core: the route
// table, the middleware chain, content negotiation, error dispatch,
// and the serving lifecycle.
//
// This package is internal and should not be imported directly. Import
// "github.com/dmitrymomot/loom" instead, which re-exports the public
// API.
//
// # Request Flow
//
// Every request passes through the same pipeline:
//
//  1. The compiled route table matches the method and path, decoding
//     typed path parameters as it goes. No match is a 404; a path that
//     exists under other methods is a 405 carrying the Allow set.
//  2. The middleware chain runs: app middleware outermost, then group
//     middleware, then route middleware, then the handler. Each layer
//     sees the handler's return value and error on the way out.
//  3. The returned value is negotiated into a Responder: a buffered
//     Response, a StreamingResponse, or an SSEResponse.
//  4. The Responder is written. Buffered responses are sent atomically
//     with Content-Length; streams and SSE write incrementally with
//     per-chunk flushes.
//
// Errors returned from any layer are routed through error dispatch
// before anything is written, so an error handler's replacement value
// goes through negotiation like a normal handler return.
//
// # Lifecycle
//
// The App moves through three states: setup, compiling, and frozen.
// Registration methods (GET, Use, Register, Filter, Global) are only
// legal during setup and panic afterwards. Freeze compiles the pending
// routes into the immutable table, registers filters and globals with
// the template engine, and flips the app to frozen exactly once;
// concurrent Freeze calls observe the same result. Run calls Freeze
// before opening the listener.
//
// # Context
//
// Context embeds context.Context, delegating Deadline, Done, Err, and
// Value to the request context, so it can be handed directly to
// database calls and HTTP clients:
//
//	func (h *ContactHandler) show(c internal.Context) (any, error) {
//	    contact, err := h.repo.Find(c, c.Param("id").(int64))
//	    if err != nil {
//	        return nil, err
//	    }
//	    return internal.Auto("contacts/show", "detail", contact), nil
//	}
//
// Handlers never write through the Context. SetHeader and the cookie
// and session helpers stage outgoing state; the framework merges it
// into whatever response the handler returns, including streams.
package internal
