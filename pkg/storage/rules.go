package storage

import "fmt"

// Rule vets an upload before any bytes reach the store. Rules see the
// declared size and the sniffed content type.
type Rule func(size int64, contentType string) error

// MaxSize rejects uploads over limit bytes.
func MaxSize(limit int64) Rule {
	return func(size int64, _ string) error {
		if size > limit {
			return fmt.Errorf("%w: %d bytes with a limit of %d", ErrFileTooLarge, size, limit)
		}
		return nil
	}
}

// MinSize rejects uploads under limit bytes.
func MinSize(limit int64) Rule {
	return func(size int64, _ string) error {
		if size < limit {
			return fmt.Errorf("%w: %d bytes with a minimum of %d", ErrFileTooSmall, size, limit)
		}
		return nil
	}
}

// Types allows only the listed content types. A pattern ending in
// "/*" allows the whole primary type, as in "image/*".
func Types(patterns ...string) Rule {
	return func(_ int64, contentType string) error {
		if !matchType(contentType, patterns) {
			return fmt.Errorf("%w: %s", ErrTypeNotAllowed, contentType)
		}
		return nil
	}
}

// Images allows any image type.
func Images() Rule {
	return Types("image/*")
}

// Documents allows common document formats.
func Documents() Rule {
	return Types(
		"application/pdf",
		"text/plain",
		"text/csv",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.ms-excel",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	)
}

func runRules(rules []Rule, size int64, contentType string) error {
	for _, rule := range rules {
		if err := rule(size, contentType); err != nil {
			return err
		}
	}
	return nil
}
