// Package middlewares provides HTTP middleware for Loom applications.
//
// Every middleware follows the same shape: it wraps a HandlerFunc and
// may act before calling the next handler, after it returns, or both.
// Because route handlers are resolved to a concrete response before
// app-level middleware unwinds, middleware on the way out observes the
// response that will be written, not an unresolved return value.
//
// # Request ID
//
// RequestID assigns a unique ID to each request for tracing. It checks
// incoming headers for an existing ID or generates a new ULID.
//
//	app := loom.New(
//	    loom.WithMiddleware(
//	        middlewares.RequestID(),
//	    ),
//	)
//
// Use RequestIDExtractor() with WithLogger for automatic request_id in
// all logs:
//
//	app := loom.New(
//	    loom.WithLogger("api", middlewares.RequestIDExtractor()),
//	    loom.WithMiddleware(
//	        middlewares.RequestID(),
//	    ),
//	)
//
// # Logger
//
// Logger records one line per request with method, path, status, and
// duration, through the context logger so request-scoped attributes
// come along:
//
//	app := loom.New(
//	    loom.WithMiddleware(
//	        middlewares.RequestID(),
//	        middlewares.Logger(),
//	    ),
//	)
//
// # Recover
//
// Recover catches panics at its position in the chain and converts them
// to *loom.PanicError, so outer middleware sees an error return instead
// of an unwinding panic. The pipeline has a last-resort recover of its
// own; add this middleware when outer middleware (such as Logger) should
// observe panics as errors.
//
//	app := loom.New(
//	    loom.WithMiddleware(
//	        middlewares.Logger(),
//	        middlewares.Recover(),
//	    ),
//	)
//
// # Timeout
//
// Timeout enforces a per-request deadline and returns *TimeoutError when
// it expires. The handler goroutine keeps running after the deadline;
// handlers doing slow work should watch c.Context().Done().
//
//	app := loom.New(
//	    loom.WithMiddleware(
//	        middlewares.Timeout(5*time.Second),
//	    ),
//	)
//	app.OnError(&middlewares.TimeoutError{}, func(c loom.Context, err error) (any, error) {
//	    return nil, loom.NewHTTPError(http.StatusGatewayTimeout, "request timed out")
//	})
//
// # CORS
//
// CORS handles Cross-Origin Resource Sharing. It answers preflight
// (OPTIONS) requests and adds CORS headers to all responses.
//
//	app := loom.New(
//	    loom.WithMiddleware(
//	        middlewares.CORS(
//	            middlewares.WithAllowOrigins("https://app.example.com"),
//	            middlewares.WithAllowCredentials(),
//	        ),
//	    ),
//	)
//
// # CSRF
//
// CSRF implements double-submit cookie protection. Safe methods mint a
// token cookie; unsafe methods must echo the token in a header or form
// field. Read the token in handlers with CSRFToken(c) to embed it in
// pages.
//
//	app := loom.New(
//	    loom.WithMiddleware(
//	        middlewares.CSRF(),
//	    ),
//	)
//
// # Language
//
// Language resolves the request language against a supported list, from
// an explicit choice (query parameter, cookie) or the Accept-Language
// header, and exposes it via c.Language().
//
//	app := loom.New(
//	    loom.WithMiddleware(
//	        middlewares.Language([]string{"en", "de", "uk"}),
//	    ),
//	)
//
// # Recommended Order
//
//	loom.WithMiddleware(
//	    middlewares.CORS(),       // answer preflight before anything else
//	    middlewares.RequestID(),  // assign ID for all subsequent logging
//	    middlewares.Logger(),     // log with the request ID attached
//	    middlewares.Recover(),    // panics become errors the logger sees
//	    middlewares.Timeout(5*time.Second),
//	    middlewares.CSRF(),
//	    middlewares.Language([]string{"en"}),
//	)
package middlewares
