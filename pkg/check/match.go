package check

import (
	"strconv"
	"strings"
)

// matchRoutes reports whether any route serves method+path. When only
// the method differs, the second return names the pattern that would
// have matched, so the finding can say which route to fix.
func matchRoutes(routes []Route, method, path string) (bool, string) {
	var methodMiss string
	for _, route := range routes {
		if !matchPattern(route.Pattern, path) {
			continue
		}
		if strings.EqualFold(route.Method, method) {
			return true, ""
		}
		// HEAD requests fall back to GET handlers at runtime.
		if method == "HEAD" && strings.EqualFold(route.Method, "GET") {
			return true, ""
		}
		if methodMiss == "" {
			methodMiss = route.Pattern
		}
	}
	return false, methodMiss
}

// matchPattern mirrors the runtime matcher closely enough for static
// checking: exact statics, typed params ({id:int}, {id:float}), and a
// trailing {rest:path} that swallows the remainder.
func matchPattern(pattern, path string) bool {
	patSegs := splitPath(pattern)
	pathSegs := splitPath(path)

	for i, seg := range patSegs {
		if isPathParam(seg) {
			// Consumes everything left, including nothing.
			return true
		}
		if i >= len(pathSegs) {
			return false
		}
		if !matchSegment(seg, pathSegs[i]) {
			return false
		}
	}
	return len(patSegs) == len(pathSegs)
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func isPathParam(seg string) bool {
	return strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, ":path}")
}

func matchSegment(pattern, value string) bool {
	if !strings.HasPrefix(pattern, "{") || !strings.HasSuffix(pattern, "}") {
		return pattern == value
	}

	spec := pattern[1 : len(pattern)-1]
	_, typ, ok := strings.Cut(spec, ":")
	if !ok || typ == "string" {
		return value != ""
	}
	switch typ {
	case "int":
		_, err := strconv.ParseInt(value, 10, 64)
		return err == nil
	case "float":
		_, err := strconv.ParseFloat(value, 64)
		return err == nil
	default:
		return value != ""
	}
}
