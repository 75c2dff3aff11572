package internal

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
)

// compiledRouter is the immutable matching structure built once from the
// full route set at freeze time: a prefix tree keyed by path segment,
// with terminal nodes grouped by HTTP method. Lookups never mutate
// shared state, so concurrent matching needs no locking.
type compiledRouter struct {
	root  *node
	named map[string]*Route
}

// node is one level of the prefix tree. Static children are tried
// before parameter edges, so a static segment always beats a parameter
// at the same depth regardless of registration order. Parameter edges
// are kept in registration order; a typed edge whose conversion fails
// simply passes matching on to the next candidate.
type node struct {
	static   map[string]*node
	params   []*paramEdge
	catchAll []*catchEdge
	leaf     map[string]*Route
}

type paramEdge struct {
	child *node
	name  string
	ptype paramKind
}

// catchEdge terminates matching: a {name:path} parameter consumes the
// remainder of the request path.
type catchEdge struct {
	leaf map[string]*Route
	name string
}

func newCompiledRouter() *compiledRouter {
	return &compiledRouter{
		root:  &node{},
		named: make(map[string]*Route),
	}
}

// compileRoutes builds the matching structure from the registered route
// set. Registration-time mistakes (duplicate methods on one pattern,
// duplicate reversal names) surface here so that startup fails fast.
func compileRoutes(routes []*Route) (*compiledRouter, error) {
	cr := newCompiledRouter()
	for _, rt := range routes {
		if err := cr.insert(rt); err != nil {
			return nil, err
		}
		if rt.name == "" {
			continue
		}
		if prev, exists := cr.named[rt.name]; exists {
			return nil, fmt.Errorf("route name %q used by both %s and %s", rt.name, prev.Pattern, rt.Pattern)
		}
		cr.named[rt.name] = rt
	}
	return cr, nil
}

func (cr *compiledRouter) insert(rt *Route) error {
	n := cr.root
	for _, seg := range rt.segments {
		switch seg.kind {
		case segStatic:
			n = n.staticChild(seg.value)
		case segParam:
			n = n.paramChild(seg.value, seg.ptype)
		case segCatchAll:
			return addLeaf(n.catchAllLeaf(seg.value), rt)
		}
	}
	return addLeaf(n.leafMap(), rt)
}

func (n *node) staticChild(value string) *node {
	if n.static == nil {
		n.static = make(map[string]*node)
	}
	child, ok := n.static[value]
	if !ok {
		child = &node{}
		n.static[value] = child
	}
	return child
}

func (n *node) paramChild(name string, ptype paramKind) *node {
	for _, e := range n.params {
		if e.name == name && e.ptype == ptype {
			return e.child
		}
	}
	e := &paramEdge{name: name, ptype: ptype, child: &node{}}
	n.params = append(n.params, e)
	return e.child
}

func (n *node) catchAllLeaf(name string) map[string]*Route {
	for _, e := range n.catchAll {
		if e.name == name {
			return e.leaf
		}
	}
	e := &catchEdge{name: name, leaf: make(map[string]*Route)}
	n.catchAll = append(n.catchAll, e)
	return e.leaf
}

func (n *node) leafMap() map[string]*Route {
	if n.leaf == nil {
		n.leaf = make(map[string]*Route)
	}
	return n.leaf
}

func addLeaf(leaf map[string]*Route, rt *Route) error {
	for _, m := range rt.Methods {
		if prev, exists := leaf[m]; exists {
			return fmt.Errorf("duplicate route: %s %s already registered as %s", m, rt.Pattern, prev.Pattern)
		}
		leaf[m] = rt
	}
	return nil
}

// paramValue carries one extracted parameter while the tree walk is in
// progress; the map is materialized only for the winning candidate.
type paramValue struct {
	value any
	name  string
}

// lookup maps (method, path) to a RouteMatch. On failure the returned
// match is nil and allowed holds the union of methods registered at
// every candidate leaf for that path: empty means 404, non-empty 405.
func (cr *compiledRouter) lookup(method, path string) (match *RouteMatch, allowed []string) {
	segs := splitPath(path)
	st := &walkState{method: method}
	match = cr.root.match(st, segs, nil)
	if match != nil {
		return match, nil
	}
	if len(st.allow) == 0 {
		return nil, nil
	}
	allowed = make([]string, 0, len(st.allow))
	for m := range st.allow {
		allowed = append(allowed, m)
	}
	slices.Sort(allowed)
	return nil, allowed
}

type walkState struct {
	allow  map[string]struct{}
	method string
}

func (st *walkState) recordAllow(leaf map[string]*Route) {
	if st.allow == nil {
		st.allow = make(map[string]struct{})
	}
	for m := range leaf {
		st.allow[m] = struct{}{}
	}
	if _, hasGet := leaf[http.MethodGet]; hasGet {
		st.allow[http.MethodHead] = struct{}{}
	}
}

func (n *node) match(st *walkState, segs []string, params []paramValue) *RouteMatch {
	if len(segs) == 0 {
		if len(n.leaf) == 0 {
			return nil
		}
		if rt := routeForMethod(n.leaf, st.method); rt != nil {
			return makeMatch(rt, params)
		}
		st.recordAllow(n.leaf)
		return nil
	}

	seg, rest := segs[0], segs[1:]

	if child, ok := n.static[seg]; ok {
		if m := child.match(st, rest, params); m != nil {
			return m
		}
	}
	for _, e := range n.params {
		v, ok := convertSegment(seg, e.ptype)
		if !ok {
			continue
		}
		if m := e.child.match(st, rest, append(params, paramValue{name: e.name, value: v})); m != nil {
			return m
		}
	}
	for _, e := range n.catchAll {
		if len(e.leaf) == 0 {
			continue
		}
		remainder := strings.Join(segs, "/")
		if rt := routeForMethod(e.leaf, st.method); rt != nil {
			return makeMatch(rt, append(params, paramValue{name: e.name, value: remainder}))
		}
		st.recordAllow(e.leaf)
	}
	return nil
}

// routeForMethod resolves the route for a method at a leaf. HEAD
// requests fall back to the GET route when no explicit HEAD route
// exists; the body is suppressed at write time.
func routeForMethod(leaf map[string]*Route, method string) *Route {
	if rt, ok := leaf[method]; ok {
		return rt
	}
	if method == http.MethodHead {
		return leaf[http.MethodGet]
	}
	return nil
}

func makeMatch(rt *Route, params []paramValue) *RouteMatch {
	m := &RouteMatch{Route: rt}
	if len(params) > 0 {
		m.Params = make(map[string]any, len(params))
		for _, p := range params {
			m.Params[p.name] = p.value
		}
	}
	return m
}

// reverse builds a concrete URL for a named route.
func (cr *compiledRouter) reverse(name string, pairs map[string]string) (string, error) {
	rt, ok := cr.named[name]
	if !ok {
		return "", fmt.Errorf("no route named %q", name)
	}
	return buildPath(rt.Pattern, rt.segments, pairs)
}
