package htmx

// Request headers. htmx attaches these to every request it issues;
// the framework reads them to classify requests and route fragments.
const (
	HeaderHXRequest               = "HX-Request"
	HeaderHXBoosted               = "HX-Boosted"
	HeaderHXCurrentURL            = "HX-Current-URL"
	HeaderHXHistoryRestoreRequest = "HX-History-Restore-Request"
	HeaderHXPrompt                = "HX-Prompt"
	HeaderHXTarget                = "HX-Target"
	HeaderHXTriggerName           = "HX-Trigger-Name"
)

// Response headers. htmx inspects these on every response it receives.
// HX-Trigger doubles as a request header carrying the id of the
// element that fired the request.
const (
	HeaderHXLocation           = "HX-Location"
	HeaderHXPushURL            = "HX-Push-Url"
	HeaderHXRedirect           = "HX-Redirect"
	HeaderHXRefresh            = "HX-Refresh"
	HeaderHXReplaceURL         = "HX-Replace-Url"
	HeaderHXReselect           = "HX-Reselect"
	HeaderHXReswap             = "HX-Reswap"
	HeaderHXRetarget           = "HX-Retarget"
	HeaderHXTrigger            = "HX-Trigger"
	HeaderHXTriggerAfterSettle = "HX-Trigger-After-Settle"
	HeaderHXTriggerAfterSwap   = "HX-Trigger-After-Swap"
)
