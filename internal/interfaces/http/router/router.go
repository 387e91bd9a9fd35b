// Package router assembles the gin engine: middleware chain, versioned API
// groups and the public tracking endpoint.
package router

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
)

// Router mounts domain groups under /api/<version>
type Router struct {
	engine     *gin.Engine
	apiVersion string
	groups     []*DomainGroup
}

// RouterOption configures a Router
type RouterOption func(*Router)

// WithAPIVersion replaces the default "v1" path segment
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) { r.apiVersion = version }
}

func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, apiVersion: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register queues groups for Setup
func (r *Router) Register(groups ...*DomainGroup) *Router {
	r.groups = append(r.groups, groups...)
	return r
}

// Setup mounts every registered group. mw runs before any group middleware.
func (r *Router) Setup(mw ...gin.HandlerFunc) {
	api := r.engine.Group(r.basePath(), mw...)
	for _, g := range r.groups {
		sub := api.Group(g.prefix, g.middleware...)
		for _, rt := range g.routes {
			sub.Handle(rt.Method, rt.Path, rt.handlers...)
		}
	}
}

// Routes lists "METHOD path" for every registered route, in registration order
func (r *Router) Routes() []string {
	var out []string
	for _, g := range r.groups {
		for _, rt := range g.routes {
			out = append(out, rt.Method+" "+path.Join(r.basePath(), g.prefix, rt.Path))
		}
	}
	return out
}

func (r *Router) basePath() string {
	return "/api/" + r.apiVersion
}

// Route is one method and path of a DomainGroup
type Route struct {
	Method   string
	Path     string
	handlers []gin.HandlerFunc
}

// DomainGroup collects the routes of one bounded context under a prefix
type DomainGroup struct {
	name       string
	prefix     string
	middleware []gin.HandlerFunc
	routes     []Route
}

func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

// Use adds middleware that runs only for this group
func (g *DomainGroup) Use(mw ...gin.HandlerFunc) *DomainGroup {
	g.middleware = append(g.middleware, mw...)
	return g
}

func (g *DomainGroup) add(method, p string, h []gin.HandlerFunc) *DomainGroup {
	g.routes = append(g.routes, Route{Method: method, Path: p, handlers: h})
	return g
}

func (g *DomainGroup) GET(p string, h ...gin.HandlerFunc) *DomainGroup {
	return g.add(http.MethodGet, p, h)
}

func (g *DomainGroup) POST(p string, h ...gin.HandlerFunc) *DomainGroup {
	return g.add(http.MethodPost, p, h)
}

func (g *DomainGroup) PUT(p string, h ...gin.HandlerFunc) *DomainGroup {
	return g.add(http.MethodPut, p, h)
}

func (g *DomainGroup) DELETE(p string, h ...gin.HandlerFunc) *DomainGroup {
	return g.add(http.MethodDelete, p, h)
}

func (g *DomainGroup) Name() string   { return g.name }
func (g *DomainGroup) Prefix() string { return g.prefix }

// Routes returns the group's routes relative to its prefix
func (g *DomainGroup) Routes() []Route {
	return g.routes
}
