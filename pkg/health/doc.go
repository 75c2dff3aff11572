// Package health serves liveness and readiness probes as plain
// net/http handlers.
//
// Liveness says the process is running; readiness says its
// dependencies answer. Checks are plain functions, and the connector
// packages already export them in the right shape:
//
//	mux.Handle("/health/live", health.LivenessHandler())
//	mux.Handle("/health/ready", health.ReadinessHandler(health.Checks{
//	    "db":    db.Healthcheck(pool),
//	    "redis": redis.Healthcheck(client),
//	}))
//
// All checks of one readiness pass run in parallel under a shared
// timeout, so a stalled dependency costs one timeout, not one per
// check. A check that panics is reported as unhealthy instead of
// crashing the process.
//
// Probes get "OK" or "Service Unavailable" in plain text. Appending
// ?format=json (or sending Accept: application/json) returns the
// per-check breakdown with durations and error messages:
//
//	{"status":"unhealthy","checks":{
//	    "db":    {"status":"healthy","duration":"1.42ms"},
//	    "redis": {"status":"unhealthy","duration":"5s","error":"redis: unhealthy: dial tcp ..."}}}
//
// Inside the framework the same handlers sit behind
// loom.WithHealthChecks; this package stays importable on its own for
// services that do not use the router.
package health
