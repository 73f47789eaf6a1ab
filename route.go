// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package velithon

import (
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/velithon-go/velithon/convertor"
	"github.com/velithon-go/velithon/verrors"
)

// Route is an immutable route registration: a compiled pattern, the set of
// methods it answers to, its handler, and its own middleware/formatter
// overrides (a route-level formatter wins over the app-level one; routers
// carry no formatter of their own).
type Route struct {
	Pattern   *convertor.Pattern
	Methods   map[string]bool
	Handler   Handler
	Name      string
	Formatter verrors.Formatter

	// staticPrefix is the longest literal prefix of Pattern.Raw. It is
	// recorded at registration; Router.Match does not consult it.
	staticPrefix string

	// static and staticHash accelerate matching for capture-free patterns:
	// instead of running the segment scanner, Match compares a 64-bit
	// xxhash digest of the request path against staticHash, falling back
	// to a full string compare only once the hashes agree.
	static     bool
	staticHash uint64
}

func newRoute(pattern *convertor.Pattern, methods []string, handler Handler, name string) *Route {
	set := make(map[string]bool, len(methods))
	for _, m := range methods {
		set[strings.ToUpper(m)] = true
	}
	route := &Route{
		Pattern:      pattern,
		Methods:      set,
		Handler:      handler,
		Name:         name,
		staticPrefix: staticPrefixOf(pattern),
	}
	if pattern.IsStatic() {
		route.static = true
		route.staticHash = xxhash.Sum64String(pattern.Raw)
	}
	return route
}

func staticPrefixOf(p *convertor.Pattern) string {
	var b strings.Builder
	for _, seg := range p.Segments {
		if seg.IsCapture() {
			break
		}
		b.WriteByte('/')
		b.WriteString(seg.Literal)
	}
	return b.String()
}

// MatchResult is the outcome of Router.match.
type MatchResult int

const (
	// MatchNone means no route's pattern matched the path at all.
	MatchNone MatchResult = iota
	// MatchWrongMethod means a route's pattern matched but not its method
	// set; the router accumulates the union of allowed methods across all
	// such matches (§4.2).
	MatchWrongMethod
	// MatchFull means a route matched both pattern and method.
	MatchFull
)

// Router holds an ordered list of routes and matches them in registration
// order: the first route whose pattern AND method both match wins. The
// router never reorders routes on its own initiative, even when a later,
// more literal route would otherwise be preferable (§4.2, and explicitly
// rejected as an Open Question — no automatic static-segment reprioritization
// happens across routes; only the compiler's own per-pattern segment
// comparison is "static-first").
type Router struct {
	prefix     string
	routes     []*Route
	named      map[string]*Route
	notFound   Handler
	notAllowed func(allowed []string) Handler
}

// NewRouter builds an empty router mounted at prefix ("" or "/" for root).
func NewRouter(prefix string) *Router {
	return &Router{
		prefix: normalizeMountPrefix(prefix),
		named:  map[string]*Route{},
	}
}

func normalizeMountPrefix(prefix string) string {
	if prefix == "" || prefix == "/" {
		return ""
	}
	return strings.TrimSuffix(prefix, "/")
}

// Handle registers a route for methods at pattern. It panics on a malformed
// pattern or duplicate name, matching the teacher's fail-fast registration
// style (route tables are built once at startup, not per request).
func (r *Router) Handle(methods []string, pattern string, handler Handler, opts ...RouteOption) *Route {
	compiled, err := convertor.Compile(r.prefix + pattern)
	if err != nil {
		panic(err)
	}
	route := newRoute(compiled, methods, handler, "")
	for _, opt := range opts {
		opt(route)
	}
	if route.Name != "" {
		if _, dup := r.named[route.Name]; dup {
			panic("velithon: duplicate route name " + route.Name)
		}
		r.named[route.Name] = route
	}
	r.routes = append(r.routes, route)
	return route
}

// RouteOption customizes a Route at registration time.
type RouteOption func(*Route)

// WithName attaches a reverse-routing name (§4.2's url_for).
func WithName(name string) RouteOption {
	return func(r *Route) { r.Name = name }
}

// WithFormatter attaches a route-level error Formatter override.
func WithFormatter(f verrors.Formatter) RouteOption {
	return func(r *Route) { r.Formatter = f }
}

func (r *Router) Get(pattern string, h Handler, opts ...RouteOption) *Route {
	return r.Handle([]string{"GET"}, pattern, h, opts...)
}
func (r *Router) Post(pattern string, h Handler, opts ...RouteOption) *Route {
	return r.Handle([]string{"POST"}, pattern, h, opts...)
}
func (r *Router) Put(pattern string, h Handler, opts ...RouteOption) *Route {
	return r.Handle([]string{"PUT"}, pattern, h, opts...)
}
func (r *Router) Patch(pattern string, h Handler, opts ...RouteOption) *Route {
	return r.Handle([]string{"PATCH"}, pattern, h, opts...)
}
func (r *Router) Delete(pattern string, h Handler, opts ...RouteOption) *Route {
	return r.Handle([]string{"DELETE"}, pattern, h, opts...)
}

// Match finds the route for method and path per §4.2's precedence: the
// first registered route whose pattern AND method both match wins. A route
// whose pattern matches but whose method does not is skipped; the router
// keeps scanning and remembers the union of those routes' methods, so a
// later pattern match with the right method can still win, and a 405 can
// report every method any matching pattern would have accepted.
func (r *Router) Match(method, path string) (*Route, map[string]any, MatchResult, []string) {
	var allowed []string
	seen := map[string]bool{}
	pathHash := xxhash.Sum64String(path)
	for _, route := range r.routes {
		var params map[string]any
		var ok bool
		if route.static {
			ok = route.staticHash == pathHash && route.Pattern.Raw == path
		} else {
			params, ok = route.Pattern.Match(path)
		}
		if !ok {
			continue
		}
		if route.Methods[method] {
			return route, params, MatchFull, nil
		}
		for m := range route.Methods {
			if !seen[m] {
				seen[m] = true
				allowed = append(allowed, m)
			}
		}
	}
	if len(allowed) > 0 {
		return nil, nil, MatchWrongMethod, allowed
	}
	return nil, nil, MatchNone, nil
}

// URLFor reverse-routes name with params, matching §4.2's url_for.
func (r *Router) URLFor(name string, params map[string]any) (string, error) {
	route, ok := r.named[name]
	if !ok {
		return "", verrors.NotFound("no route named " + name)
	}
	return route.Pattern.Format(params)
}

// Routes returns the registered routes in registration order, primarily for
// introspection (docs generation, tests).
func (r *Router) Routes() []*Route { return r.routes }
