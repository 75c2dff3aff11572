package htmlview

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
	"sync"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	markdownOnce sync.Once
	markdown     goldmark.Markdown
)

// markdownProcessor is built lazily; most applications never call the
// markdown filter and should not pay for goldmark setup.
func markdownProcessor() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdown = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		)
	})
	return markdown
}

// builtinFilters returns the default template function set. Engine
// construction copies it, so registering custom filters never mutates
// the shared map.
func builtinFilters() template.FuncMap {
	return template.FuncMap{
		"markdown": filterMarkdown,
		"safe":     filterSafe,
		"upper":    strings.ToUpper,
		"lower":    strings.ToLower,
		"trim":     strings.TrimSpace,
		"truncate": filterTruncate,
		"default":  filterDefault,
		"date":     filterDate,
		"json":     filterJSON,
	}
}

// filterMarkdown converts CommonMark (plus GFM tables, strikethrough,
// task lists, autolinks) to HTML. Output is marked safe because
// goldmark escapes raw HTML by default.
func filterMarkdown(s string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdownProcessor().Convert([]byte(s), &buf); err != nil {
		return "", fmt.Errorf("htmlview: markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// filterSafe marks a string as trusted HTML, bypassing escaping. Only
// use it on markup the application generated itself.
func filterSafe(s string) template.HTML {
	return template.HTML(s)
}

// filterTruncate shortens a string to at most n runes, appending an
// ellipsis when it cut something.
func filterTruncate(n int, s string) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 0 {
		return ""
	}
	return string(runes[:n]) + "…"
}

// filterDefault substitutes a fallback for empty string values.
func filterDefault(fallback, value any) any {
	if s, ok := value.(string); ok && s == "" {
		return fallback
	}
	if value == nil {
		return fallback
	}
	return value
}

// filterDate formats a time.Time with the given layout.
func filterDate(layout string, t time.Time) string {
	return t.Format(layout)
}

// filterJSON renders a value as JSON, for embedding state into
// data attributes or inline scripts.
func filterJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("htmlview: json: %w", err)
	}
	return string(b), nil
}
