package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/suteetoe/tenantstarter/internal/lifecycle"
	mid "github.com/suteetoe/tenantstarter/internal/middleware"
	"github.com/suteetoe/tenantstarter/internal/model"
	"github.com/suteetoe/tenantstarter/internal/tenancy"
	"github.com/suteetoe/tenantstarter/pkg/logger"
)

// TenantRequest defines the structure for tenant creation requests
type TenantRequest struct {
	Name            string   `json:"name" validate:"required,max=200"`
	Domain          string   `json:"domain" validate:"required,hostname_port|hostname"`
	Email           string   `json:"email" validate:"omitempty,email"`
	Password        string   `json:"password" validate:"omitempty,min=8"`
	Schema          string   `json:"schema"`
	Description     string   `json:"description"`
	ContactName     string   `json:"contact_name"`
	ContactPhone    string   `json:"contact_phone"`
	Street          string   `json:"street"`
	City            string   `json:"city"`
	ZipCode         string   `json:"zip_code"`
	Canton          string   `json:"canton"`
	PrimaryColor    string   `json:"primary_color"`
	DefaultLanguage string   `json:"default_language"`
	ActiveLanguages []string `json:"active_languages"`
}

// DomainRequest defines the structure for domain assignment requests
type DomainRequest struct {
	Domain  string `json:"domain" validate:"required"`
	Primary bool   `json:"primary"`
}

// requireSuperuser lets only superuser tokens reach the public admin
func requireSuperuser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims := mid.ClaimsFrom(c)
		if claims == nil || !claims.Superuser {
			logger.FromEcho(c).Warn("Public admin requires a superuser token")
			return c.JSON(http.StatusForbidden, echo.Map{"error": "Superuser access required"})
		}
		return next(c)
	}
}

// ListTenants returns every registered tenant with its domains
func (h *Handler) ListTenants(c echo.Context) error {
	log := logger.FromEcho(c)
	tenants, err := h.catalog.ListTenants(c.Request().Context())
	if err != nil {
		return respondError(c, "Failed to list tenants", err)
	}
	log.Info("Tenants retrieved successfully", zap.Int("count", len(tenants)))
	return c.JSON(http.StatusOK, tenants)
}

// CreateTenant registers and provisions a tenant and creates its first admin
func (h *Handler) CreateTenant(c echo.Context) error {
	log := logger.FromEcho(c)

	var req TenantRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if err := model.ValidateStruct(&req); err != nil {
		return respondError(c, "Invalid tenant", errors.Join(tenancy.ErrInvalidTenant, err))
	}

	res, err := h.manager.CreateTenant(c.Request().Context(), lifecycle.Request{
		Name:     req.Name,
		Domain:   req.Domain,
		Email:    req.Email,
		Password: req.Password,
		Schema:   req.Schema,
		Tenant: &model.Tenant{
			Description:     req.Description,
			ContactName:     req.ContactName,
			ContactEmail:    req.Email,
			ContactPhone:    req.ContactPhone,
			Street:          req.Street,
			City:            req.City,
			ZipCode:         req.ZipCode,
			Canton:          req.Canton,
			PrimaryColor:    req.PrimaryColor,
			DefaultLanguage: req.DefaultLanguage,
			ActiveLanguages: req.ActiveLanguages,
		},
	})
	if res == nil {
		return respondError(c, "Failed to create tenant", err)
	}

	body := echo.Map{
		"tenant": res.Tenant,
		"domain": res.Domain.Domain,
	}
	if err != nil {
		// The tenant is usable; only its admin is missing
		log.Warn("Tenant created without admin", zap.Error(err))
		body["warning"] = err.Error()
		return c.JSON(http.StatusCreated, body)
	}
	if res.Admin != nil {
		body["admin"] = res.Admin.Username
		if res.PasswordGenerated {
			body["admin_password"] = res.Password
		}
	}
	log.Info("Tenant created successfully",
		zap.String("schema", res.Tenant.SchemaName),
		zap.String("domain", res.Domain.Domain))
	return c.JSON(http.StatusCreated, body)
}

// DeleteTenant decommissions a tenant. ?force=true is needed for an active
// tenant and ?purge=true also frees its partition key.
func (h *Handler) DeleteTenant(c echo.Context) error {
	ctx := c.Request().Context()
	schemaName := c.Param("schema")
	force, _ := strconv.ParseBool(c.QueryParam("force"))
	purge, _ := strconv.ParseBool(c.QueryParam("purge"))

	t, err := h.catalog.TenantBySchema(ctx, schemaName)
	if err != nil {
		return respondError(c, "Tenant not found", err)
	}
	if err := h.manager.Decommission(ctx, t, force); err != nil {
		return respondError(c, "Failed to decommission tenant", err)
	}
	if purge {
		if err := h.manager.Purge(ctx, t); err != nil {
			return respondError(c, "Failed to purge tenant", err)
		}
	}
	logger.FromEcho(c).Info("Tenant decommissioned",
		zap.String("schema", schemaName),
		zap.Bool("purged", purge))
	return c.NoContent(http.StatusNoContent)
}

// AddDomain routes another hostname to a tenant
func (h *Handler) AddDomain(c echo.Context) error {
	ctx := c.Request().Context()
	var req DomainRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	if err := model.ValidateStruct(&req); err != nil {
		return respondError(c, "Invalid domain", errors.Join(tenancy.ErrInvalidTenant, err))
	}

	t, err := h.catalog.TenantBySchema(ctx, c.Param("schema"))
	if err != nil {
		return respondError(c, "Tenant not found", err)
	}
	d, err := h.catalog.AddDomain(ctx, t.ID, req.Domain, req.Primary)
	if err != nil {
		return respondError(c, "Failed to add domain", err)
	}
	logger.FromEcho(c).Info("Domain added",
		zap.String("schema", t.SchemaName),
		zap.String("domain", d.Domain),
		zap.Bool("primary", d.IsPrimary))
	return c.JSON(http.StatusCreated, d)
}

// RemoveDomain stops routing a hostname. The tenant must own it.
func (h *Handler) RemoveDomain(c echo.Context) error {
	ctx := c.Request().Context()
	t, err := h.catalog.TenantBySchema(ctx, c.Param("schema"))
	if err != nil {
		return respondError(c, "Tenant not found", err)
	}
	owner, err := h.catalog.TenantByDomain(ctx, c.Param("domain"))
	if err != nil || owner.ID != t.ID {
		return respondError(c, "Domain not found", tenancy.ErrDomainNotFound)
	}
	if err := h.catalog.RemoveDomain(ctx, c.Param("domain")); err != nil {
		return respondError(c, "Failed to remove domain", err)
	}
	return c.NoContent(http.StatusNoContent)
}
