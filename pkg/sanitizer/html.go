// Package sanitizer cleans user input: HTML sanitization through
// bluemonday policies and tag-driven struct sanitization that runs
// automatically during request binding.
package sanitizer

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// strict strips every tag, leaving plain text.
var strict = sync.OnceValue(bluemonday.StrictPolicy)

// safe keeps the formatting a bio or comment legitimately uses and
// nothing that can execute.
var safe = sync.OnceValue(func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowStandardURLs()
	p.AllowElements(
		"p", "br",
		"strong", "b", "em", "i",
		"ul", "ol", "li",
		"code", "pre", "blockquote",
	)
	p.AllowAttrs("href").OnElements("a")
	p.RequireNoFollowOnLinks(true)
	return p
})

// StripHTML removes all markup and returns plain text. It backs the
// xss directive of SanitizeStruct.
func StripHTML(s string) string {
	return strict().Sanitize(s)
}

// SanitizeHTML keeps safe formatting (paragraphs, emphasis, lists,
// code, nofollow links) and drops scripts, event handlers and
// javascript: URLs. It backs the html directive of SanitizeStruct.
func SanitizeHTML(s string) string {
	return safe().Sanitize(s)
}

// SanitizeHTMLCustom applies a caller-supplied bluemonday policy. A
// nil policy returns s unchanged.
func SanitizeHTMLCustom(s string, policy *bluemonday.Policy) string {
	if policy == nil {
		return s
	}
	return policy.Sanitize(s)
}
