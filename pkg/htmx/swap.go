package htmx

import "strings"

// SwapStrategy is the first token of an hx-swap attribute value,
// before any timing, scroll, or transition modifiers.
type SwapStrategy string

const (
	SwapInnerHTML   SwapStrategy = "innerHTML"
	SwapOuterHTML   SwapStrategy = "outerHTML"
	SwapTextContent SwapStrategy = "textContent"
	SwapBeforeBegin SwapStrategy = "beforebegin"
	SwapAfterBegin  SwapStrategy = "afterbegin"
	SwapBeforeEnd   SwapStrategy = "beforeend"
	SwapAfterEnd    SwapStrategy = "afterend"
	SwapDelete      SwapStrategy = "delete"
	SwapNone        SwapStrategy = "none"
)

// Strategies lists every swap strategy htmx understands.
func Strategies() []SwapStrategy {
	return []SwapStrategy{
		SwapInnerHTML,
		SwapOuterHTML,
		SwapTextContent,
		SwapBeforeBegin,
		SwapAfterBegin,
		SwapBeforeEnd,
		SwapAfterEnd,
		SwapDelete,
		SwapNone,
	}
}

// ValidSwap reports whether an hx-swap attribute value names a known
// strategy. Modifiers after the first token are not validated.
func ValidSwap(value string) bool {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return false
	}
	switch SwapStrategy(fields[0]) {
	case SwapInnerHTML, SwapOuterHTML, SwapTextContent,
		SwapBeforeBegin, SwapAfterBegin, SwapBeforeEnd, SwapAfterEnd,
		SwapDelete, SwapNone:
		return true
	}
	return false
}
