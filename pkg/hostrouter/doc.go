// Package hostrouter dispatches HTTP requests by Host header, which
// is how one listener serves an apex site, an API subdomain, and
// wildcard tenant subdomains at once:
//
//	router := hostrouter.New(hostrouter.Routes{
//	    "example.com":     site,
//	    "api.example.com": api,
//	    "*.example.com":   tenants,
//	}, site)
//	http.ListenAndServe(":8080", router)
//
// Matching is case-insensitive and ignores the port. An exact
// pattern wins over a wildcard; a wildcard covers one label, the way
// TLS certificates do.
//
// GetDomain and GetSubdomain answer the follow-up question inside a
// wildcard handler: which tenant is this request for? The framework
// exposes them as Context.Domain and Context.Subdomain.
package hostrouter
