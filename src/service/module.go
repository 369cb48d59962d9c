package service

import (
	"net/http"
	"strings"
)

// Route is a single endpoint of a Module. Path is relative to the module's
// mount point and may contain {wildcards}.
type Route struct {
	Method  string
	Path    string
	Handler http.HandlerFunc
}

// Module is a named group of routes.
type Module struct {
	routes []Route
}

// NewModule ...
func NewModule() *Module {
	return &Module{}
}

// Get adds a GET route.
func (m *Module) Get(path string, h http.HandlerFunc) *Module {
	return m.Handle(http.MethodGet, path, h)
}

// Post adds a POST route.
func (m *Module) Post(path string, h http.HandlerFunc) *Module {
	return m.Handle(http.MethodPost, path, h)
}

// Handle adds a route for method and path.
func (m *Module) Handle(method, path string, h http.HandlerFunc) *Module {
	m.routes = append(m.routes, Route{
		Method:  method,
		Path:    path,
		Handler: h,
	})
	return m
}

// Routes ...
func (m *Module) Routes() []Route {
	return m.routes
}

func pattern(method, prefix, path string) string {
	return method + " " + prefix + "/" + strings.TrimPrefix(path, "/")
}
