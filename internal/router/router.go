// Package router resolves parsed requests to handlers.
//
// Each method has its own table keyed by exact path. GET requests that miss
// their table fall back to the static roots, in order, and then to the
// handler registered under "*". POST, PUT and DELETE only consult their own
// table; a miss there produces no response.
package router

import (
	"sort"

	"fredwork/internal/request"
	"fredwork/internal/response"
)

// WildcardPath is the path of the last-resort GET handler.
const WildcardPath = "*"

// Handler serves one request by writing at most one response to w.
type Handler interface {
	Serve(w *response.Sink, req *request.Request)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(w *response.Sink, req *request.Request)

// Serve calls f(w, req).
func (f HandlerFunc) Serve(w *response.Sink, req *request.Request) {
	f(w, req)
}

// Lookup finds static file content for a request path under an ordered list
// of roots.
type Lookup interface {
	Lookup(path string, roots []string) (string, bool)
}

// Outcome says how a request was resolved.
type Outcome string

const (
	OutcomeMatched  Outcome = "matched"
	OutcomeStatic   Outcome = "static"
	OutcomeWildcard Outcome = "wildcard"
	OutcomeMiss     Outcome = "miss"
)

// Resolution is the result of resolving a request.
type Resolution struct {
	Outcome Outcome
	Handler Handler
	Body    string
}

// Route is one registered (method, path) pair.
type Route struct {
	Method request.Method `json:"method"`
	Path   string         `json:"path"`
}

// Router holds the route tables and static roots. It is never modified
// after Build, so it can be shared between connections without locking.
type Router struct {
	tables map[request.Method]map[string]Handler
	roots  []string
	lookup Lookup
}

// Resolve picks the handler or static body for req.
func (r *Router) Resolve(req *request.Request) Resolution {
	table := r.tables[req.Method]
	if h, ok := table[req.Path]; ok {
		return Resolution{Outcome: OutcomeMatched, Handler: h}
	}
	if req.Method != request.GET {
		return Resolution{Outcome: OutcomeMiss}
	}
	if r.lookup != nil && len(r.roots) > 0 {
		if body, ok := r.lookup.Lookup(req.Path, r.roots); ok {
			return Resolution{Outcome: OutcomeStatic, Body: body}
		}
	}
	if h, ok := table[WildcardPath]; ok {
		return Resolution{Outcome: OutcomeWildcard, Handler: h}
	}
	return Resolution{Outcome: OutcomeMiss}
}

// Dispatch resolves req and acts on the result: the handler is called with
// the request as parsed, a static body is written as HTML, and a miss
// writes nothing.
func (r *Router) Dispatch(w *response.Sink, req *request.Request) Outcome {
	res := r.Resolve(req)
	switch res.Outcome {
	case OutcomeMatched, OutcomeWildcard:
		res.Handler.Serve(w, req)
	case OutcomeStatic:
		_ = w.HTML(res.Body)
	}
	return res.Outcome
}

// Roots returns a copy of the static roots.
func (r *Router) Roots() []string {
	return append([]string(nil), r.roots...)
}

// Routes lists the registered routes ordered by method table then path.
func (r *Router) Routes() []Route {
	var routes []Route
	for _, m := range request.Methods {
		paths := make([]string, 0, len(r.tables[m]))
		for p := range r.tables[m] {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		for _, p := range paths {
			routes = append(routes, Route{Method: m, Path: p})
		}
	}
	return routes
}

// Builder collects registrations at startup.
type Builder struct {
	tables map[request.Method]map[string]Handler
	roots  []string
	lookup Lookup
}

// NewBuilder creates an empty builder. lookup may be nil when no static
// roots are used.
func NewBuilder(lookup Lookup) *Builder {
	tables := make(map[request.Method]map[string]Handler, len(request.Methods))
	for _, m := range request.Methods {
		tables[m] = make(map[string]Handler)
	}
	return &Builder{tables: tables, lookup: lookup}
}

// Handle registers h for method and path. Registering the same pair again
// replaces the earlier handler.
func (b *Builder) Handle(method request.Method, path string, h Handler) *Builder {
	table, ok := b.tables[method]
	if !ok {
		table = make(map[string]Handler)
		b.tables[method] = table
	}
	table[path] = h
	return b
}

// Get registers a GET handler.
func (b *Builder) Get(path string, h Handler) *Builder { return b.Handle(request.GET, path, h) }

// Post registers a POST handler.
func (b *Builder) Post(path string, h Handler) *Builder { return b.Handle(request.POST, path, h) }

// Put registers a PUT handler.
func (b *Builder) Put(path string, h Handler) *Builder { return b.Handle(request.PUT, path, h) }

// Delete registers a DELETE handler.
func (b *Builder) Delete(path string, h Handler) *Builder { return b.Handle(request.DELETE, path, h) }

// Static appends a static root. Earlier roots take precedence.
func (b *Builder) Static(root string) *Builder {
	b.roots = append(b.roots, root)
	return b
}

// Build returns an immutable router with a snapshot of the registrations.
func (b *Builder) Build() *Router {
	tables := make(map[request.Method]map[string]Handler, len(b.tables))
	for m, table := range b.tables {
		copied := make(map[string]Handler, len(table))
		for p, h := range table {
			copied[p] = h
		}
		tables[m] = copied
	}
	return &Router{
		tables: tables,
		roots:  append([]string(nil), b.roots...),
		lookup: b.lookup,
	}
}
