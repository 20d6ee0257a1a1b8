// Package handler is the HTTP surface of the starter. Handlers stay thin:
// the admission middleware has already bound the tenant, so each handler
// only calls into the lifecycle, registry or repository layers.
package handler

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/suteetoe/tenantstarter/internal/lifecycle"
	mid "github.com/suteetoe/tenantstarter/internal/middleware"
	"github.com/suteetoe/tenantstarter/internal/model"
	"github.com/suteetoe/tenantstarter/internal/policy"
	"github.com/suteetoe/tenantstarter/internal/registry"
	"github.com/suteetoe/tenantstarter/internal/resolver"
	"github.com/suteetoe/tenantstarter/internal/storage"
	"github.com/suteetoe/tenantstarter/internal/tenancy"
	"github.com/suteetoe/tenantstarter/pkg/jwtutil"
	"github.com/suteetoe/tenantstarter/pkg/logger"
	"github.com/suteetoe/tenantstarter/prometheus"
)

// Data is the partition-scoped data access the handlers need
type Data interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	UserByUsername(ctx context.Context, username string) (*model.User, error)
	RecordLogin(ctx context.Context, u *model.User, ip, userAgent string) error
	ListLocations(ctx context.Context) ([]model.Location, error)
	CreateContactMessage(ctx context.Context, m *model.ContactMessage) error
	ListContactMessages(ctx context.Context) ([]model.ContactMessage, error)
}

// Handler holds the dependencies of every route
type Handler struct {
	catalog  registry.Catalog
	manager  *lifecycle.Manager
	resolver *resolver.Resolver
	data     Data
	media    *storage.TenantStorage
	jwt      *jwtutil.JWTUtil
	ping     func(ctx context.Context) error
}

// Config lists the dependencies of a Handler. Media and Ping are optional.
type Config struct {
	Catalog  registry.Catalog
	Manager  *lifecycle.Manager
	Resolver *resolver.Resolver
	Data     Data
	Media    *storage.TenantStorage
	JWT      *jwtutil.JWTUtil
	Ping     func(ctx context.Context) error
}

// New creates a Handler
func New(cfg Config) *Handler {
	return &Handler{
		catalog:  cfg.Catalog,
		manager:  cfg.Manager,
		resolver: cfg.Resolver,
		data:     cfg.Data,
		media:    cfg.Media,
		jwt:      cfg.JWT,
		ping:     cfg.Ping,
	}
}

// Register installs the middleware chain and every route on e
func (h *Handler) Register(e *echo.Echo) {
	e.Use(middleware.Recover())
	e.Use(mid.RequestIDMiddleware())
	e.Use(logger.Middleware())
	e.Use(prometheus.MetricsMiddleware())

	// Partition independent
	e.GET("/metrics", echo.WrapHandler(prometheus.GetPrometheusHandler()))
	e.GET("/health", h.HealthCheck)

	site := mid.TenantMiddleware(h.resolver)
	e.GET("/api/context", h.TenantContext, site)

	// Public route table
	public := []echo.MiddlewareFunc{site, mid.RequireTable(policy.RoutesPublic)}
	e.POST("/contact", h.CreateContactMessage, public...)

	publicAdmin := append(public,
		mid.RequireSurface(tenancy.SurfacePublicAdmin),
		mid.JWTAuthMiddleware(h.jwt),
		requireSuperuser,
	)
	e.GET("/admin/tenants", h.ListTenants, publicAdmin...)
	e.POST("/admin/tenants", h.CreateTenant, publicAdmin...)
	e.DELETE("/admin/tenants/:schema", h.DeleteTenant, publicAdmin...)
	e.POST("/admin/tenants/:schema/domains", h.AddDomain, publicAdmin...)
	e.DELETE("/admin/tenants/:schema/domains/:domain", h.RemoveDomain, publicAdmin...)
	e.GET("/admin/messages", h.ListContactMessages, publicAdmin...)

	// Tenant route table
	tenant := []echo.MiddlewareFunc{site, mid.RequireTable(policy.RoutesTenant)}
	e.POST("/auth/login", h.Login, tenant...)
	e.GET("/api/locations", h.ListLocations, tenant...)
	e.GET("/media/:name", h.GetMedia, tenant...)

	tenantAdmin := append(tenant,
		mid.RequireSurface(tenancy.SurfaceTenantAdmin),
		mid.JWTAuthMiddleware(h.jwt),
	)
	e.GET("/admin/users", h.ListUsers, tenantAdmin...)
	e.GET("/admin/locations", h.ListLocations, tenantAdmin...)
	e.POST("/media", h.UploadMedia, tenantAdmin...)
}
