// Package router declares the versioned API route table.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/medcare/backend/internal/interfaces/http/handler"
	"github.com/medcare/backend/internal/interfaces/http/middleware"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, apiVersion: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a RouteRegistrar to be registered later
func (r *Router) Register(registrars ...RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrars...)
	return r
}

// Setup mounts every registrar under /api/<version>.
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// DomainGroup creates a route group for a specific domain
type DomainGroup struct {
	name       string
	prefix     string
	routes     []routeDefinition
	middleware []gin.HandlerFunc
}

type routeDefinition struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewDomainGroup creates a new domain-specific route group
func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

// Use adds middleware to this group
func (dg *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	dg.middleware = append(dg.middleware, middleware...)
	return dg
}

func (dg *DomainGroup) handle(method, path string, handlers []gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, routeDefinition{method: method, path: path, handlers: handlers})
	return dg
}

// GET registers a GET route
func (dg *DomainGroup) GET(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodGet, path, handlers)
}

// POST registers a POST route
func (dg *DomainGroup) POST(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodPost, path, handlers)
}

// PUT registers a PUT route
func (dg *DomainGroup) PUT(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.handle(http.MethodPut, path, handlers)
}

// RegisterRoutes implements RouteRegistrar interface
func (dg *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(dg.prefix)
	if len(dg.middleware) > 0 {
		group.Use(dg.middleware...)
	}
	for _, route := range dg.routes {
		group.Handle(route.method, route.path, route.handlers...)
	}
}

// Name returns the group name
func (dg *DomainGroup) Name() string {
	return dg.name
}

// Prefix returns the group prefix
func (dg *DomainGroup) Prefix() string {
	return dg.prefix
}

// Handlers are the endpoint handlers of the API.
type Handlers struct {
	System       *handler.SystemHandler
	Entitlements *handler.EntitlementHandler
	Plans        *handler.PlanHandler
	Revenue      *handler.RevenueHandler
	Clinic       *handler.ClinicHandler
}

// Groups returns the authenticated route groups. Authentication and
// principal loading are applied by the caller on the engine.
func Groups(h Handlers) []RouteRegistrar {
	entitlements := NewDomainGroup("entitlements", "/entitlements").
		GET("/summary", h.Entitlements.GetSummary).
		GET("/gate", h.Entitlements.CheckAction).
		POST("/gate", h.Entitlements.CheckRule)

	plans := NewDomainGroup("plans", "/plans").
		Use(middleware.RequireCapability(middleware.CanManagePlans)).
		GET("", h.Plans.ListPlans).
		PUT("/:code", h.Plans.SavePlan).
		POST("/bootstrap", h.Plans.Bootstrap)

	reports := NewDomainGroup("reports", "/reports").
		Use(middleware.RequireCapability(middleware.CanViewRevenue)).
		POST("/revenue", h.Revenue.ComputeRevenue)

	clinic := NewDomainGroup("clinic", "").
		POST("/appointments", h.Clinic.CreateAppointment).
		POST("/doctors", h.Clinic.CreateDoctor).
		POST("/patients", h.Clinic.CreatePatient)

	system := NewDomainGroup("system", "/system").
		GET("/info", h.System.GetSystemInfo)

	return []RouteRegistrar{entitlements, plans, reports, clinic, system}
}

// MountHealth serves the unauthenticated health check at /health and
// /api/<version>/health.
func MountHealth(engine *gin.Engine, apiVersion string, h *handler.SystemHandler) {
	engine.GET("/health", h.Health)
	engine.GET("/api/"+apiVersion+"/health", h.Health)
}
