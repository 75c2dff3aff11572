package check

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/dmitrymomot/loom/pkg/htmx"
)

// verbAttrs maps htmx request attributes to HTTP methods.
var verbAttrs = map[string]string{
	"hx-get":    "GET",
	"hx-post":   "POST",
	"hx-put":    "PUT",
	"hx-patch":  "PATCH",
	"hx-delete": "DELETE",
}

// targetKeywords are the non-selector values hx-target accepts.
var targetKeywords = []string{"this", "closest ", "find ", "next", "previous"}

type scanner struct {
	report *Report
	routes []Route
	ext    string
}

// scanFile tokenizes one template. The tokenizer is used instead of the
// DOM parser because it preserves raw bytes, which is what makes line
// numbers possible.
func (s *scanner) scanFile(path string, src []byte) {
	tokenizer := html.NewTokenizer(bytes.NewReader(src))
	line := 1
	ids := make(map[string]int)

	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			return
		}

		if tt == html.StartTagToken || tt == html.SelfClosingTagToken {
			s.checkTag(path, line, tokenizer, ids)
		}

		line += bytes.Count(tokenizer.Raw(), []byte{'\n'})
	}
}

func (s *scanner) checkTag(path string, line int, tokenizer *html.Tokenizer, ids map[string]int) {
	attrs := make(map[string]string)
	for {
		key, val, more := tokenizer.TagAttr()
		attrs[string(key)] = string(val)
		if !more {
			break
		}
	}

	if id, ok := attrs["id"]; ok && id != "" && !isDynamic(id) {
		if firstLine, seen := ids[id]; seen {
			s.report.add(Finding{
				Template: path,
				Line:     line,
				Severity: SeverityWarning,
				Category: CategoryID,
				Message:  fmt.Sprintf("duplicate id %q (first seen at line %d); targets and out-of-band swaps resolve only the first", id, firstLine),
			})
		} else {
			ids[id] = line
		}
	}

	for attr, method := range verbAttrs {
		if url, ok := attrs[attr]; ok {
			s.checkRequest(path, line, attr, method, url)
		}
	}

	if target, ok := attrs["hx-target"]; ok {
		s.checkTarget(path, line, target)
	}

	if swap, ok := attrs["hx-swap"]; ok {
		s.checkSwap(path, line, swap)
	}

	if oob, ok := attrs["hx-swap-oob"]; ok {
		s.checkOOB(path, line, oob, attrs)
	}
}

func (s *scanner) checkRequest(path string, line int, attr, method, url string) {
	if url == "" {
		s.report.add(Finding{
			Template: path,
			Line:     line,
			Severity: SeverityError,
			Category: CategoryRoute,
			Message:  fmt.Sprintf("%s has an empty URL", attr),
		})
		return
	}
	if isDynamic(url) || isExternal(url) {
		return
	}
	if len(s.routes) == 0 {
		return
	}

	req := strings.SplitN(url, "?", 2)[0]
	matched, methodOnly := matchRoutes(s.routes, method, req)
	switch {
	case matched:
	case methodOnly != "":
		s.report.add(Finding{
			Template: path,
			Line:     line,
			Route:    methodOnly,
			Severity: SeverityError,
			Category: CategoryRoute,
			Message:  fmt.Sprintf("%s=%q matches %s but not with method %s", attr, url, methodOnly, method),
		})
	default:
		s.report.add(Finding{
			Template: path,
			Line:     line,
			Severity: SeverityError,
			Category: CategoryRoute,
			Message:  fmt.Sprintf("%s=%q matches no registered route", attr, url),
		})
	}
}

func (s *scanner) checkTarget(path string, line int, target string) {
	if target == "" || isDynamic(target) {
		return
	}
	if strings.HasPrefix(target, "#") || strings.HasPrefix(target, ".") || strings.HasPrefix(target, "[") {
		return
	}
	for _, keyword := range targetKeywords {
		if target == strings.TrimSpace(keyword) || strings.HasPrefix(target, keyword) {
			return
		}
	}
	// Bare element selectors (body, form, table) are valid CSS.
	if !strings.ContainsAny(target, " #.[") && target == strings.ToLower(target) {
		return
	}
	s.report.add(Finding{
		Template: path,
		Line:     line,
		Severity: SeverityWarning,
		Category: CategoryTarget,
		Message:  fmt.Sprintf("hx-target=%q is not a selector or htmx keyword", target),
	})
}

func (s *scanner) checkSwap(path string, line int, swap string) {
	if swap == "" || isDynamic(swap) {
		return
	}
	if !htmx.ValidSwap(swap) {
		s.report.add(Finding{
			Template: path,
			Line:     line,
			Severity: SeverityWarning,
			Category: CategorySwap,
			Message:  fmt.Sprintf("hx-swap=%q is not a known swap strategy", strings.Fields(swap)[0]),
		})
	}
}

// checkOOB flags out-of-band swap declarations that the client cannot
// apply: with the default outerHTML strategy the element must carry an
// id for htmx to find its counterpart in the page.
func (s *scanner) checkOOB(path string, line int, oob string, attrs map[string]string) {
	if isDynamic(oob) {
		return
	}
	// "true" and bare strategies match by id; "strategy:selector" names
	// its own target.
	if strings.Contains(oob, ":") {
		return
	}
	if id := attrs["id"]; id == "" {
		s.report.add(Finding{
			Template: path,
			Line:     line,
			Severity: SeverityError,
			Category: CategoryOOB,
			Message:  "hx-swap-oob element has no id; the swap can never match",
		})
	}
}

// isDynamic reports whether a value contains template syntax and so
// cannot be validated statically.
func isDynamic(s string) bool {
	return strings.Contains(s, "{{")
}

func isExternal(url string) bool {
	return strings.HasPrefix(url, "http://") ||
		strings.HasPrefix(url, "https://") ||
		strings.HasPrefix(url, "//")
}
