package internal

import (
	"fmt"
	"strconv"
	"strings"
)

// segKind classifies a parsed pattern segment.
type segKind uint8

const (
	segStatic segKind = iota
	segParam
	segCatchAll
)

// paramKind is the declared type of a parameter segment.
// Typed parameters convert during matching; a failed conversion means
// the candidate does not match, it is never a server error.
type paramKind uint8

const (
	paramString paramKind = iota
	paramInt
	paramFloat
)

func (k paramKind) String() string {
	switch k {
	case paramInt:
		return "int"
	case paramFloat:
		return "float"
	default:
		return "string"
	}
}

// segment is one element of a parsed route pattern.
type segment struct {
	value string // static literal or parameter name
	kind  segKind
	ptype paramKind
}

// Route is an immutable record of a registered endpoint: the parsed
// pattern, the allowed HTTP methods, the handler, and an optional name
// for URL reversal. Routes are created during the setup phase and are
// never mutated after the application freezes.
type Route struct {
	Handler HandlerFunc
	Pattern string
	name    string
	Methods []string

	app        *App
	segments   []segment
	middleware []Middleware
	composed   HandlerFunc // route chain with the handler at its core, built at freeze
}

// Name returns the route's reversal name, if any.
func (r *Route) Name() string { return r.name }

// Named assigns a reversal name to the route. Names must be unique
// across the application; duplicates are reported at freeze time.
// Calling Named after the application has frozen panics.
//
// Example:
//
//	app.Get("/users/{id:int}", showUser).Named("users.show")
func (r *Route) Named(name string) *Route {
	if r.app != nil {
		r.app.ensureSetup("Route.Named")
	}
	r.name = name
	return r
}

// RouteMatch is the result of a successful router lookup: the matched
// route plus the extracted, type-converted path parameters.
type RouteMatch struct {
	Route  *Route
	Params map[string]any
}

// parsePattern splits a route pattern into segments. Supported syntax:
//
//	/users              static
//	/users/{id}         string parameter
//	/users/{id:int}     integer parameter
//	/files/{rest:path}  catch-all, must be the final segment
//
// Patterns must begin with "/". A trailing slash is ignored except for
// the root pattern.
func parsePattern(pattern string) ([]segment, error) {
	if pattern == "" || pattern[0] != '/' {
		return nil, fmt.Errorf("route pattern %q must begin with a slash", pattern)
	}
	if pattern == "/" {
		return nil, nil
	}

	raw := strings.Split(strings.Trim(pattern, "/"), "/")
	segs := make([]segment, 0, len(raw))
	for i, part := range raw {
		switch {
		case part == "":
			return nil, fmt.Errorf("route pattern %q contains an empty segment", pattern)
		case strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}"):
			seg, err := parseParamSegment(part[1 : len(part)-1])
			if err != nil {
				return nil, fmt.Errorf("route pattern %q: %w", pattern, err)
			}
			if seg.kind == segCatchAll && i != len(raw)-1 {
				return nil, fmt.Errorf("route pattern %q: catch-all parameter %q must be the final segment", pattern, seg.value)
			}
			segs = append(segs, seg)
		case strings.ContainsAny(part, "{}"):
			return nil, fmt.Errorf("route pattern %q: unbalanced braces in segment %q", pattern, part)
		default:
			segs = append(segs, segment{kind: segStatic, value: part})
		}
	}
	return segs, nil
}

func parseParamSegment(spec string) (segment, error) {
	name, typ, hasType := strings.Cut(spec, ":")
	if name == "" {
		return segment{}, fmt.Errorf("parameter %q has no name", "{"+spec+"}")
	}
	if !hasType {
		return segment{kind: segParam, value: name, ptype: paramString}, nil
	}
	switch typ {
	case "string":
		return segment{kind: segParam, value: name, ptype: paramString}, nil
	case "int":
		return segment{kind: segParam, value: name, ptype: paramInt}, nil
	case "float":
		return segment{kind: segParam, value: name, ptype: paramFloat}, nil
	case "path":
		return segment{kind: segCatchAll, value: name}, nil
	default:
		return segment{}, fmt.Errorf("parameter %q has unknown type %q (want string, int, float, or path)", name, typ)
	}
}

// convertSegment converts a raw path segment to the parameter's declared
// type. Returns false when conversion fails, which disqualifies the
// candidate route rather than failing the request.
func convertSegment(raw string, kind paramKind) (any, bool) {
	switch kind {
	case paramInt:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, false
		}
		return v, true
	case paramFloat:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, false
		}
		return v, true
	default:
		return raw, true
	}
}

// buildPath reverses a parsed pattern into a concrete path using the
// given name/value pairs. Every parameter in the pattern must be
// supplied; extra pairs are an error.
func buildPath(pattern string, segs []segment, pairs map[string]string) (string, error) {
	var b strings.Builder
	used := 0
	for _, seg := range segs {
		b.WriteByte('/')
		switch seg.kind {
		case segStatic:
			b.WriteString(seg.value)
		default:
			v, ok := pairs[seg.value]
			if !ok {
				return "", fmt.Errorf("missing value for parameter %q in pattern %q", seg.value, pattern)
			}
			if seg.kind == segParam {
				if _, ok := convertSegment(v, seg.ptype); !ok {
					return "", fmt.Errorf("value %q is not a valid %s for parameter %q", v, seg.ptype, seg.value)
				}
			}
			b.WriteString(v)
			used++
		}
	}
	if used != len(pairs) {
		return "", fmt.Errorf("pattern %q does not use all provided parameters", pattern)
	}
	if b.Len() == 0 {
		return "/", nil
	}
	return b.String(), nil
}

// splitPath normalizes and splits a request path into segments.
// A trailing slash is ignored except for the root path.
func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
