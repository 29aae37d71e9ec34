package server

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/kbukum/folio/component"
)

// mount is a handler registered on the root mux with Handle.
type mount struct {
	pattern string
	handler string
}

var systemPaths = map[string]bool{
	"/health":  true,
	"/version": true,
}

var methodRank = map[string]int{"GET": 0, "POST": 1, "PUT": 2, "PATCH": 3, "DELETE": 4}

// routes merges gin routes with mounted handlers. API routes sort by path
// and method; /health and /version go last.
func (s *Server) routes() []component.Route {
	var routes []component.Route
	for _, r := range s.engine.Routes() {
		routes = append(routes, component.Route{
			Method:  r.Method,
			Path:    r.Path,
			Handler: formatHandlerName(r.Handler),
		})
	}

	s.mu.Lock()
	for _, m := range s.mounts {
		method, path, ok := strings.Cut(m.pattern, " ")
		if !ok {
			method, path = "ANY", m.pattern
		}
		routes = append(routes, component.Route{Method: method, Path: path, Handler: m.handler})
	}
	s.mu.Unlock()

	slices.SortStableFunc(routes, func(a, b component.Route) int {
		if sa, sb := systemPaths[a.Path], systemPaths[b.Path]; sa != sb {
			if sa {
				return 1
			}
			return -1
		}
		if c := strings.Compare(a.Path, b.Path); c != 0 {
			return c
		}
		return cmp.Compare(rank(a.Method), rank(b.Method))
	})
	return routes
}

func rank(method string) int {
	if r, ok := methodRank[method]; ok {
		return r
	}
	return len(methodRank)
}

// handlerTypeName renders a mounted handler for display: *sse.Handler
// becomes "sse.Handler".
func handlerTypeName(h any) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", h), "*")
}

// formatHandlerName shortens gin's handler path for display:
// "github.com/kbukum/folio/site.(*API).project-fm" becomes "API.project".
func formatHandlerName(fullPath string) string {
	name := strings.TrimSuffix(fullPath, "-fm")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.NewReplacer("(*", "", ")", "").Replace(name)

	// Closures are named after the function that returned them:
	// "endpoint.Health.func1" is shown as "health".
	if strings.Contains(name, ".func") {
		parts := strings.Split(name, ".")
		for i := len(parts) - 1; i >= 0; i-- {
			if !strings.HasPrefix(parts[i], "func") {
				return strings.ToLower(parts[i])
			}
		}
	}

	if pkg, rest, ok := strings.Cut(name, "."); ok && pkg == strings.ToLower(pkg) && rest != "" {
		name = rest
	}
	return name
}
