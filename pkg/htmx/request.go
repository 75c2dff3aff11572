package htmx

import "net/http"

// IsHTMX reports whether the request was issued by htmx rather than a
// full browser navigation. The check is exact: htmx sends the literal
// value "true".
func IsHTMX(r *http.Request) bool {
	return r.Header.Get(HeaderHXRequest) == "true"
}

// IsBoosted reports whether the request came through an hx-boost
// element. Boosted requests carry HX-Request too, but they replace the
// whole body and expect a full page, not a fragment.
func IsBoosted(r *http.Request) bool {
	return r.Header.Get(HeaderHXBoosted) == "true"
}

// IsHistoryRestore reports whether htmx is restoring a page from its
// local history cache, which likewise expects a full page.
func IsHistoryRestore(r *http.Request) bool {
	return r.Header.Get(HeaderHXHistoryRestoreRequest) == "true"
}

// CurrentURL returns the browser's URL at the moment the request
// fired, or "" outside htmx.
func CurrentURL(r *http.Request) string {
	return r.Header.Get(HeaderHXCurrentURL)
}

// Target returns the id of the element the response will be swapped
// into, without the leading "#". Empty when the triggering element
// declared no explicit target.
func Target(r *http.Request) string {
	return r.Header.Get(HeaderHXTarget)
}

// TriggerID returns the id of the element that fired the request.
// htmx reuses the HX-Trigger header name for this on the request side.
func TriggerID(r *http.Request) string {
	return r.Header.Get(HeaderHXTrigger)
}

// TriggerName returns the name attribute of the element that fired
// the request, useful for distinguishing buttons in one form.
func TriggerName(r *http.Request) string {
	return r.Header.Get(HeaderHXTriggerName)
}

// Prompt returns the user's answer to an hx-prompt dialog, or "".
func Prompt(r *http.Request) string {
	return r.Header.Get(HeaderHXPrompt)
}
