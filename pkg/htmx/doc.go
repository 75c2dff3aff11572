// Package htmx holds the htmx wire protocol: the request headers the
// client library attaches when it issues a request, the response
// headers it reacts to, and the swap-strategy grammar of the hx-swap
// attribute.
//
// The framework consumes this package in three places. Content
// negotiation reads IsHTMX to choose between full pages and fragments,
// validation and error responses steer the client with HX-Retarget,
// HX-Reswap, and HX-Trigger, and the static checker validates hx-swap
// attribute values with ValidSwap.
//
// Handlers rarely need the package directly; returning directives
// produces the right headers. It is exported for code working below
// the directive layer:
//
//	func (h *handler) save(c loom.Context) (any, error) {
//		if htmx.IsBoosted(c.HTTPRequest()) {
//			// boosted navigation expects a full page
//		}
//		// ...
//	}
package htmx
