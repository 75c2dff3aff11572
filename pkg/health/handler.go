package health

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// LivenessHandler answers every request with 200. It only proves the
// process is up and serving; dependency state belongs to readiness.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respond(w, r, http.StatusOK, &Response{Status: Healthy})
	}
}

// ReadinessHandler runs the given checks on every request and answers
// 200 when all pass, 503 otherwise. Point load balancer and
// orchestrator readiness probes at it.
func ReadinessHandler(checks Checks, opts ...Option) http.HandlerFunc {
	cfg := newConfig(opts)

	return func(w http.ResponseWriter, r *http.Request) {
		resp := runChecks(r.Context(), checks, cfg)

		status := http.StatusOK
		if resp.Status == Unhealthy {
			status = http.StatusServiceUnavailable
		}
		respond(w, r, status, resp)
	}
}

func respond(w http.ResponseWriter, r *http.Request, status int, resp *Response) {
	if wantsJSON(r) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if status == http.StatusOK {
		_, _ = io.WriteString(w, "OK")
	} else {
		_, _ = io.WriteString(w, "Service Unavailable")
	}
}

// wantsJSON reports whether the caller asked for the structured body.
// The query form exists so the report is one curl away in a browser
// or terminal.
func wantsJSON(r *http.Request) bool {
	if r.URL.Query().Get("format") == "json" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
