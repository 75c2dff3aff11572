package binder

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

var timeType = reflect.TypeOf(time.Time{})

// bindValues walks the struct fields of v and assigns converted values
// from the url.Values map. Fields resolve their parameter name from the
// given tag, falling back to the lowercased Go field name. A tag of "-"
// skips the field.
func bindValues(values url.Values, tag string, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return ErrTargetNotPointer
	}
	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return ErrTargetNotStruct
	}
	return bindStruct(values, tag, rv)
}

func bindStruct(values url.Values, tag string, rv reflect.Value) error {
	rt := rv.Type()
	for i := range rt.NumField() {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}

		name := paramName(sf, tag)
		if name == "-" {
			continue
		}

		fv := rv.Field(i)

		// Nested structs without their own parameter share the parent's
		// value namespace.
		if isNestedStruct(fv) && !values.Has(name) {
			target := fv
			if target.Kind() == reflect.Pointer {
				if target.IsNil() {
					target.Set(reflect.New(target.Type().Elem()))
				}
				target = target.Elem()
			}
			if err := bindStruct(values, tag, target); err != nil {
				return err
			}
			continue
		}

		raw, ok := values[name]
		if !ok || len(raw) == 0 {
			continue
		}

		if err := setField(fv, raw); err != nil {
			return fmt.Errorf("binder: field %s: %w", sf.Name, err)
		}
	}
	return nil
}

func paramName(sf reflect.StructField, tag string) string {
	if v := sf.Tag.Get(tag); v != "" {
		name, _, _ := strings.Cut(v, ",")
		if name != "" {
			return name
		}
	}
	r, size := utf8.DecodeRuneInString(sf.Name)
	return string(unicode.ToLower(r)) + sf.Name[size:]
}

func isNestedStruct(fv reflect.Value) bool {
	t := fv.Type()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct && t != timeType
}

func setField(fv reflect.Value, raw []string) error {
	if fv.Kind() == reflect.Pointer {
		if fv.IsNil() {
			fv.Set(reflect.New(fv.Type().Elem()))
		}
		return setField(fv.Elem(), raw)
	}

	if fv.Kind() == reflect.Slice {
		slice := reflect.MakeSlice(fv.Type(), len(raw), len(raw))
		for i, item := range raw {
			if err := setScalar(slice.Index(i), item); err != nil {
				return err
			}
		}
		fv.Set(slice)
		return nil
	}

	return setScalar(fv, raw[0])
}

func setScalar(fv reflect.Value, raw string) error {
	if fv.Type() == timeType {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return fmt.Errorf("invalid time %q: %w", raw, err)
		}
		fv.Set(reflect.ValueOf(t))
		return nil
	}

	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Bool:
		// Checkboxes submit "on" when checked.
		if raw == "on" {
			fv.SetBool(true)
			return nil
		}
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid bool %q: %w", raw, err)
		}
		fv.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, fv.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer %q: %w", raw, err)
		}
		fv.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, fv.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid unsigned integer %q: %w", raw, err)
		}
		fv.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, fv.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid number %q: %w", raw, err)
		}
		fv.SetFloat(f)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedType, fv.Kind())
	}
	return nil
}
