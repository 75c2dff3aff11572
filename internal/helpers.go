package internal

import (
	"reflect"
	"strconv"
)

// paramType covers the types path and query parameters convert to.
type paramType interface {
	~string | ~int | ~int64 | ~float64 | ~bool
}

// ContextValue returns the typed request-scoped value under key, or the
// zero value when absent or of a different type.
func ContextValue[T any](c Context, key any) T {
	v, _ := c.Get(key).(T)
	return v
}

// Param returns a typed path parameter. Parameters declared with a type
// in the route pattern are already decoded, and a matching T is handed
// back directly; anything else converts from the string form. Absent or
// unconvertible parameters yield the zero value.
func Param[T paramType](c Context, name string) T {
	if v, ok := c.Param(name).(T); ok {
		return v
	}
	v, _ := convertParam[T](c.ParamString(name))
	return v
}

// Query returns a typed query parameter, zero when missing or
// unparseable.
func Query[T paramType](c Context, name string) T {
	v, _ := convertParam[T](c.Query(name))
	return v
}

// QueryDefault returns a typed query parameter, or def when the
// parameter is missing or unparseable.
func QueryDefault[T paramType](c Context, name string, def T) T {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	if v, ok := convertParam[T](raw); ok {
		return v
	}
	return def
}

// convertParam parses raw into T by T's kind, so a derived type like
// "type Slug string" converts the same way its underlying type does.
func convertParam[T paramType](raw string) (T, bool) {
	var out T
	rv := reflect.ValueOf(&out).Elem()
	switch rv.Kind() {
	case reflect.String:
		rv.SetString(raw)
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || rv.OverflowInt(n) {
			return out, false
		}
		rv.SetInt(n)
	case reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return out, false
		}
		rv.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return out, false
		}
		rv.SetBool(b)
	default:
		return out, false
	}
	return out, true
}
