package htmx

import (
	"encoding/json"
	"slices"
	"strings"
)

// TriggerValue builds an HX-Trigger header value from event names and
// optional detail payloads. Events whose detail is nil are joined by
// name; any non-nil detail forces the JSON object form, which htmx
// delivers as the DOM event's detail. Names are emitted in sorted
// order so the header is deterministic.
func TriggerValue(events map[string]any) string {
	if len(events) == 0 {
		return ""
	}
	names := make([]string, 0, len(events))
	plain := true
	for name, detail := range events {
		names = append(names, name)
		if detail != nil {
			plain = false
		}
	}
	slices.Sort(names)
	if plain {
		return strings.Join(names, ", ")
	}
	b, err := json.Marshal(events)
	if err != nil {
		// Undeliverable details degrade to a bare event notification.
		return strings.Join(names, ", ")
	}
	return string(b)
}
