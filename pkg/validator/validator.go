package validator

import (
	"errors"
	"strings"
)

// ValidationError describes a single failed check on a named field.
// TranslationKey and TranslationValues carry enough context to rebuild
// the message in another language without re-running validation.
type ValidationError struct {
	TranslationValues map[string]any
	Field             string
	Message           string
	TranslationKey    string
}

// ValidationErrors is an ordered collection of validation failures.
// It implements error so it can travel through regular error returns.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e))
	for _, v := range e {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Get returns the messages recorded for a field, in order.
func (e ValidationErrors) Get(field string) []string {
	var msgs []string
	for _, v := range e {
		if v.Field == field {
			msgs = append(msgs, v.Message)
		}
	}
	return msgs
}

// GetErrors returns the full error records for a field, in order.
func (e ValidationErrors) GetErrors(field string) []ValidationError {
	var errs []ValidationError
	for _, v := range e {
		if v.Field == field {
			errs = append(errs, v)
		}
	}
	return errs
}

// Has reports whether any error was recorded for a field.
func (e ValidationErrors) Has(field string) bool {
	for _, v := range e {
		if v.Field == field {
			return true
		}
	}
	return false
}

// Translate rewrites each Message in place using fn, typically backed by
// an i18n catalog. Errors without a TranslationKey keep their original
// message. A nil fn is a no-op. Field, TranslationKey, and
// TranslationValues are left untouched so Translate can run again with
// a different language.
func (e ValidationErrors) Translate(fn func(key string, values map[string]any) string) {
	if fn == nil {
		return
	}
	for i := range e {
		if e[i].TranslationKey == "" {
			continue
		}
		e[i].Message = fn(e[i].TranslationKey, e[i].TranslationValues)
	}
}

// Apply evaluates the given rules and returns the collected failures as
// a single error, or nil when every rule passed. Failures keep the
// order the rules were passed in.
func Apply(rules ...Rule) error {
	var errs ValidationErrors
	for _, r := range rules {
		if r.Failed {
			errs = append(errs, r.Error)
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// IsValidationError reports whether err carries ValidationErrors
// anywhere in its chain.
func IsValidationError(err error) bool {
	var ve ValidationErrors
	return errors.As(err, &ve)
}

// ExtractValidationErrors pulls ValidationErrors out of an error chain.
// Returns nil when err does not carry any.
func ExtractValidationErrors(err error) ValidationErrors {
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}
