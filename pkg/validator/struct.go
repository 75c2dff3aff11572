package validator

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// ValidateStruct validates v against the `validate` struct tags of its
// fields. Rules are separated by semicolons, parameters follow a colon:
//
//	type CreateContactRequest struct {
//		Name  string `form:"name"  validate:"required;min:2;max:100"`
//		Email string `form:"email" validate:"required;email"`
//	}
//
// Supported rules: required, min, max, len, email. The min/max/len
// rules apply to rune counts for strings, element counts for slices and
// maps, and the numeric value for number fields.
//
// Failures are reported under the field's form, query, or json tag name
// (first one present), falling back to the lowercased Go field name.
// The returned error is ValidationErrors when checks failed, or a plain
// error for malformed tags and non-struct inputs.
func ValidateStruct(v any) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return fmt.Errorf("validator: cannot validate nil %s", rv.Type())
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return fmt.Errorf("validator: expected struct, got %s", rv.Kind())
	}

	var errs ValidationErrors
	if err := validateFields(rv, &errs); err != nil {
		return err
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateFields(rv reflect.Value, errs *ValidationErrors) error {
	rt := rv.Type()
	for i := range rt.NumField() {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}

		fv := rv.Field(i)
		tag := sf.Tag.Get("validate")

		// Nested structs are validated recursively unless they carry
		// their own tag. time.Time stays opaque.
		if tag == "" {
			nested := fv
			for nested.Kind() == reflect.Pointer && !nested.IsNil() {
				nested = nested.Elem()
			}
			if nested.Kind() == reflect.Struct && nested.Type() != reflect.TypeOf(time.Time{}) {
				if err := validateFields(nested, errs); err != nil {
					return err
				}
			}
			continue
		}

		name := fieldName(sf)
		for _, raw := range strings.Split(tag, ";") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			ruleName, param, _ := strings.Cut(raw, ":")
			r, err := checkField(name, fv, ruleName, param)
			if err != nil {
				return fmt.Errorf("validator: field %s: %w", sf.Name, err)
			}
			if r.Failed {
				*errs = append(*errs, r.Error)
			}
		}
	}
	return nil
}

// fieldName resolves the reporting name for a field so failures line up
// with the wire names clients submit.
func fieldName(sf reflect.StructField) string {
	for _, tag := range []string{"form", "query", "json"} {
		if v := sf.Tag.Get(tag); v != "" && v != "-" {
			name, _, _ := strings.Cut(v, ",")
			if name != "" {
				return name
			}
		}
	}
	r, size := utf8.DecodeRuneInString(sf.Name)
	return string(unicode.ToLower(r)) + sf.Name[size:]
}

func checkField(name string, fv reflect.Value, ruleName, param string) (Rule, error) {
	for fv.Kind() == reflect.Pointer {
		if fv.IsNil() {
			if ruleName == "required" {
				return rule(true, name, "is required", keyRequired, map[string]any{}), nil
			}
			return Rule{}, nil
		}
		fv = fv.Elem()
	}

	switch ruleName {
	case "required":
		return checkRequired(name, fv)
	case "min":
		return checkBound(name, fv, param, boundMin)
	case "max":
		return checkBound(name, fv, param, boundMax)
	case "len":
		return checkBound(name, fv, param, boundExact)
	case "email":
		if fv.Kind() != reflect.String {
			return Rule{}, fmt.Errorf("email rule requires a string, got %s", fv.Kind())
		}
		return EmailString(name, fv.String()), nil
	default:
		return Rule{}, fmt.Errorf("unknown rule %q", ruleName)
	}
}

func checkRequired(name string, fv reflect.Value) (Rule, error) {
	switch fv.Kind() {
	case reflect.String:
		return RequiredString(name, fv.String()), nil
	case reflect.Slice, reflect.Array, reflect.Map:
		return rule(fv.Len() == 0, name, "is required", keyRequired, map[string]any{}), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return rule(fv.IsZero(), name, "is required", keyRequired, map[string]any{}), nil
	case reflect.Bool:
		return rule(!fv.Bool(), name, "is required", keyRequired, map[string]any{}), nil
	default:
		return Rule{}, fmt.Errorf("required rule does not support %s", fv.Kind())
	}
}

type bound int

const (
	boundMin bound = iota
	boundMax
	boundExact
)

func checkBound(name string, fv reflect.Value, param string, b bound) (Rule, error) {
	switch fv.Kind() {
	case reflect.String:
		n, err := strconv.Atoi(param)
		if err != nil {
			return Rule{}, fmt.Errorf("invalid length parameter %q", param)
		}
		switch b {
		case boundMin:
			return MinLenString(name, fv.String(), n), nil
		case boundMax:
			return MaxLenString(name, fv.String(), n), nil
		default:
			return LenString(name, fv.String(), n), nil
		}

	case reflect.Slice, reflect.Array, reflect.Map:
		n, err := strconv.Atoi(param)
		if err != nil {
			return Rule{}, fmt.Errorf("invalid count parameter %q", param)
		}
		count := fv.Len()
		switch b {
		case boundMin:
			return rule(count < n, name,
				fmt.Sprintf("must contain at least %d items", n),
				keyMinItems, map[string]any{"min": n}), nil
		case boundMax:
			return rule(count > n, name,
				fmt.Sprintf("must not contain more than %d items", n),
				keyMaxItems, map[string]any{"max": n}), nil
		default:
			return rule(count != n, name,
				fmt.Sprintf("must contain exactly %d items", n),
				keyExactItems, map[string]any{"count": n}), nil
		}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		limit, err := strconv.ParseFloat(param, 64)
		if err != nil {
			return Rule{}, fmt.Errorf("invalid numeric parameter %q", param)
		}
		value := numericValue(fv)
		values := map[string]any{}
		switch b {
		case boundMin:
			values["min"] = numParam(param)
			return rule(value < limit, name,
				fmt.Sprintf("must be at least %s", param), keyMin, values), nil
		case boundMax:
			values["max"] = numParam(param)
			return rule(value > limit, name,
				fmt.Sprintf("must not exceed %s", param), keyMax, values), nil
		default:
			return Rule{}, fmt.Errorf("len rule does not support %s", fv.Kind())
		}

	default:
		return Rule{}, fmt.Errorf("min/max/len rules do not support %s", fv.Kind())
	}
}

func numericValue(fv reflect.Value) float64 {
	switch fv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(fv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(fv.Uint())
	default:
		return fv.Float()
	}
}

// numParam keeps integer parameters as int in translation values so
// templates render "18" rather than "18.000000".
func numParam(s string) any {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
