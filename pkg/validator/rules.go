package validator

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

// Standard translation keys emitted by the built-in rules.
const (
	keyRequired    = "validation.required"
	keyMinLength   = "validation.min_length"
	keyMaxLength   = "validation.max_length"
	keyExactLength = "validation.exact_length"
	keyMin         = "validation.min"
	keyMax         = "validation.max"
	keyMinItems    = "validation.min_items"
	keyMaxItems    = "validation.max_items"
	keyExactItems  = "validation.exact_items"
	keyEmail       = "validation.email"
)

// Rule is a single validation check, evaluated at construction time.
// Error is populated whether or not the check failed, so callers can
// inspect translation metadata without applying the rule.
type Rule struct {
	Error  ValidationError
	Failed bool
}

type number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

func rule(failed bool, field, message, key string, values map[string]any) Rule {
	values["field"] = field
	return Rule{
		Failed: failed,
		Error: ValidationError{
			Field:             field,
			Message:           message,
			TranslationKey:    key,
			TranslationValues: values,
		},
	}
}

// RequiredString fails when the value is empty or only whitespace.
func RequiredString(field, value string) Rule {
	return rule(strings.TrimSpace(value) == "",
		field, "is required", keyRequired, map[string]any{})
}

// RequiredSlice fails when the slice has no elements.
func RequiredSlice[T any](field string, value []T) Rule {
	return rule(len(value) == 0,
		field, "is required", keyRequired, map[string]any{})
}

// RequiredMap fails when the map has no entries.
func RequiredMap[K comparable, V any](field string, value map[K]V) Rule {
	return rule(len(value) == 0,
		field, "is required", keyRequired, map[string]any{})
}

// RequiredNum fails when the value is zero.
func RequiredNum[T number](field string, value T) Rule {
	return rule(value == 0,
		field, "is required", keyRequired, map[string]any{})
}

// MinLenString fails when the value is shorter than min runes.
func MinLenString(field, value string, min int) Rule {
	return rule(utf8.RuneCountInString(value) < min,
		field, fmt.Sprintf("must be at least %d characters", min),
		keyMinLength, map[string]any{"min": min})
}

// MaxLenString fails when the value is longer than max runes.
func MaxLenString(field, value string, max int) Rule {
	return rule(utf8.RuneCountInString(value) > max,
		field, fmt.Sprintf("must not exceed %d characters", max),
		keyMaxLength, map[string]any{"max": max})
}

// LenString fails when the value is not exactly length runes.
func LenString(field, value string, length int) Rule {
	return rule(utf8.RuneCountInString(value) != length,
		field, fmt.Sprintf("must be exactly %d characters", length),
		keyExactLength, map[string]any{"length": length})
}

// MinNum fails when the value is below min.
func MinNum[T number](field string, value, min T) Rule {
	return rule(value < min,
		field, fmt.Sprintf("must be at least %v", min),
		keyMin, map[string]any{"min": min})
}

// MaxNum fails when the value exceeds max.
func MaxNum[T number](field string, value, max T) Rule {
	return rule(value > max,
		field, fmt.Sprintf("must not exceed %v", max),
		keyMax, map[string]any{"max": max})
}

// MinLenSlice fails when the slice has fewer than min elements.
func MinLenSlice[T any](field string, value []T, min int) Rule {
	return rule(len(value) < min,
		field, fmt.Sprintf("must contain at least %d items", min),
		keyMinItems, map[string]any{"min": min})
}

// MaxLenSlice fails when the slice has more than max elements.
func MaxLenSlice[T any](field string, value []T, max int) Rule {
	return rule(len(value) > max,
		field, fmt.Sprintf("must not contain more than %d items", max),
		keyMaxItems, map[string]any{"max": max})
}

// LenSlice fails when the slice does not have exactly count elements.
func LenSlice[T any](field string, value []T, count int) Rule {
	return rule(len(value) != count,
		field, fmt.Sprintf("must contain exactly %d items", count),
		keyExactItems, map[string]any{"count": count})
}

// EmailString fails when the value is not a valid RFC 5322 address.
// Empty values pass; combine with RequiredString to force presence.
func EmailString(field, value string) Rule {
	failed := false
	if value != "" {
		addr, err := mail.ParseAddress(value)
		failed = err != nil || addr.Address != value
	}
	return rule(failed,
		field, "must be a valid email address", keyEmail, map[string]any{})
}
