package sanitizer

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// SanitizeStruct rewrites the string fields of v according to their
// `sanitize` struct tags. Directives are comma-separated and applied
// left to right:
//
//	type CreateContactRequest struct {
//		Name  string `form:"name"  sanitize:"trim,name"`
//		Email string `form:"email" sanitize:"trim,lower,email"`
//		Bio   string `form:"bio"   sanitize:"trim,html"`
//	}
//
// Supported directives:
//
//	trim   - strip leading and trailing whitespace
//	lower  - lowercase
//	upper  - uppercase
//	email  - lowercase and strip whitespace (canonical address form)
//	name   - collapse internal whitespace runs to single spaces
//	xss    - strip all HTML, leaving plain text
//	html   - keep safe formatting tags, strip everything dangerous
//
// Nested structs and pointers are walked recursively, string slices
// have each element sanitized, and non-string fields are ignored. v
// must be a pointer to a struct so rewrites are visible to the caller.
func SanitizeStruct(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("sanitizer: target must be a non-nil pointer, got %T", v)
	}
	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return fmt.Errorf("sanitizer: target must point to a struct, got %s", rv.Kind())
	}
	return sanitizeFields(rv)
}

func sanitizeFields(rv reflect.Value) error {
	rt := rv.Type()
	for i := range rt.NumField() {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}

		fv := rv.Field(i)
		for fv.Kind() == reflect.Pointer {
			if fv.IsNil() {
				break
			}
			fv = fv.Elem()
		}
		if fv.Kind() == reflect.Pointer {
			continue
		}

		tag := sf.Tag.Get("sanitize")

		switch fv.Kind() {
		case reflect.Struct:
			if fv.Type() == reflect.TypeOf(time.Time{}) {
				continue
			}
			if err := sanitizeFields(fv); err != nil {
				return err
			}

		case reflect.String:
			if tag == "" {
				continue
			}
			out, err := applyDirectives(fv.String(), tag)
			if err != nil {
				return fmt.Errorf("sanitizer: field %s: %w", sf.Name, err)
			}
			fv.SetString(out)

		case reflect.Slice:
			if tag == "" || fv.Type().Elem().Kind() != reflect.String {
				continue
			}
			for j := range fv.Len() {
				out, err := applyDirectives(fv.Index(j).String(), tag)
				if err != nil {
					return fmt.Errorf("sanitizer: field %s[%d]: %w", sf.Name, j, err)
				}
				fv.Index(j).SetString(out)
			}
		}
	}
	return nil
}

func applyDirectives(s, tag string) (string, error) {
	for _, directive := range strings.Split(tag, ",") {
		directive = strings.TrimSpace(directive)
		switch directive {
		case "", "-":
			continue
		case "trim":
			s = strings.TrimSpace(s)
		case "lower":
			s = strings.ToLower(s)
		case "upper":
			s = strings.ToUpper(s)
		case "email":
			s = strings.ToLower(strings.Join(strings.Fields(s), ""))
		case "name":
			s = strings.Join(strings.Fields(s), " ")
		case "xss":
			s = StripHTML(s)
		case "html":
			s = SanitizeHTML(s)
		default:
			return "", fmt.Errorf("unknown directive %q", directive)
		}
	}
	return s, nil
}
