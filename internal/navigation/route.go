// Package navigation holds the route table of the web app and the guard that
// decides, before every navigation, whether the destination may be shown.
package navigation

import (
	"fmt"
	"net/url"
	"strings"
)

// Route names of the default table.
const (
	RouteAuth          = "auth"
	RouteProgramations = "programations"
	RouteProgramation  = "programation"
	RouteSongs         = "songs"
	RouteUsers         = "users"
)

// Route is one entry of the route table. Path uses ":name" segments for
// parameters.
type Route struct {
	Name         string `json:"name"`
	Path         string `json:"path"`
	View         string `json:"view"`
	RequiresAuth bool   `json:"requiresAuth"`
}

// Table is an immutable, ordered set of routes with unique names.
type Table struct {
	routes []Route
	byName map[string]Route
}

// NewTable validates routes and builds a table from them.
func NewTable(routes ...Route) (*Table, error) {
	t := &Table{
		routes: make([]Route, 0, len(routes)),
		byName: make(map[string]Route, len(routes)),
	}
	paths := make(map[string]string, len(routes))

	for _, r := range routes {
		if r.Name == "" {
			return nil, fmt.Errorf("route with path %q has no name", r.Path)
		}
		if !strings.HasPrefix(r.Path, "/") {
			return nil, fmt.Errorf("route %q: path %q must start with /", r.Name, r.Path)
		}
		if r.View == "" {
			return nil, fmt.Errorf("route %q has no view", r.Name)
		}
		if _, dup := t.byName[r.Name]; dup {
			return nil, fmt.Errorf("duplicate route name %q", r.Name)
		}
		if other, dup := paths[r.Path]; dup {
			return nil, fmt.Errorf("routes %q and %q share path %q", other, r.Name, r.Path)
		}
		paths[r.Path] = r.Name
		t.byName[r.Name] = r
		t.routes = append(t.routes, r)
	}
	return t, nil
}

// DefaultRoutes returns the routes of the web app.
func DefaultRoutes() []Route {
	return []Route{
		{Name: RouteAuth, Path: "/", View: "AuthView"},
		{Name: RouteProgramations, Path: "/programations", View: "ProgramationsView", RequiresAuth: true},
		{Name: RouteProgramation, Path: "/programation/:id", View: "ProgramationView"},
		{Name: RouteSongs, Path: "/songs", View: "SongsView", RequiresAuth: true},
		{Name: RouteUsers, Path: "/users", View: "UsersView", RequiresAuth: true},
	}
}

// DefaultTable returns the table built from DefaultRoutes.
func DefaultTable() *Table {
	t, err := NewTable(DefaultRoutes()...)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the route called name.
func (t *Table) Lookup(name string) (Route, bool) {
	r, ok := t.byName[name]
	return r, ok
}

// Routes returns the routes in declaration order.
func (t *Table) Routes() []Route {
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// PathFor builds the concrete path of route name, filling ":param" segments
// from params. Values are path-escaped.
func (t *Table) PathFor(name string, params map[string]string) (string, error) {
	r, ok := t.byName[name]
	if !ok {
		return "", fmt.Errorf("unknown route %q", name)
	}

	segments := strings.Split(r.Path, "/")
	for i, seg := range segments {
		if !strings.HasPrefix(seg, ":") {
			continue
		}
		key := strings.TrimSuffix(seg[1:], "?")
		value, ok := params[key]
		if !ok || value == "" {
			return "", fmt.Errorf("route %q: missing parameter %q", name, key)
		}
		segments[i] = url.PathEscape(value)
	}
	return strings.Join(segments, "/"), nil
}
