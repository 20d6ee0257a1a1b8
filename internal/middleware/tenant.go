package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/suteetoe/tenantstarter/internal/model"
	"github.com/suteetoe/tenantstarter/internal/policy"
	"github.com/suteetoe/tenantstarter/internal/resolver"
	"github.com/suteetoe/tenantstarter/internal/tenancy"
	"github.com/suteetoe/tenantstarter/pkg/logger"
	"github.com/suteetoe/tenantstarter/prometheus"
)

// Echo context keys set by TenantMiddleware
const (
	TenantKey   = "tenant"
	DecisionKey = "decision"
	LanguageKey = "language"
	// TableKey is read by the metrics middleware
	TableKey = "route_table"
)

// TenantMiddleware resolves the request host, binds the tenant to the
// request context for the rest of the chain and applies the policy. The
// binding is released when the chain returns, including by panic.
func TenantMiddleware(r *resolver.Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			log := logger.FromEcho(c)

			ctx, release, t, err := r.Enter(req.Context(), req.Host)
			if err != nil {
				if errors.Is(err, tenancy.ErrTenantNotFound) {
					log.Warn("Unknown host", zap.String("host", req.Host))
					return c.JSON(http.StatusNotFound, map[string]string{"error": "Unknown host"})
				}
				log.Error("Tenant resolution failed", zap.String("host", req.Host), zap.Error(err))
				return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Tenant resolution failed"})
			}
			defer release()

			if !t.IsPublic() && !t.IsActive {
				prometheus.RecordPolicyDenied("inactive")
				log.Warn("Request for inactive tenant", zap.String("schema", t.SchemaName))
				return c.JSON(http.StatusForbidden, map[string]string{"error": tenancy.ErrTenantInactive.Error()})
			}

			decision := policy.Apply(t)
			lang := r.Scoper().NegotiateLanguage(ctx, req.Header.Get("Accept-Language"))

			c.SetRequest(req.WithContext(ctx))
			c.Set(TenantKey, t)
			c.Set(DecisionKey, decision)
			c.Set(LanguageKey, lang)
			c.Set(TableKey, string(decision.Table))
			c.Response().Header().Set("Content-Language", lang)
			logger.With(c,
				zap.String("tenant", t.Name),
				zap.String("schema", t.SchemaName),
			)

			return next(c)
		}
	}
}

// TenantFrom returns the tenant bound by TenantMiddleware
func TenantFrom(c echo.Context) *model.Tenant {
	t, _ := c.Get(TenantKey).(*model.Tenant)
	return t
}

// DecisionFrom returns the policy decision for the request, or the zero
// Decision when TenantMiddleware did not run
func DecisionFrom(c echo.Context) policy.Decision {
	d, _ := c.Get(DecisionKey).(policy.Decision)
	return d
}

// LanguageFrom returns the negotiated language
func LanguageFrom(c echo.Context) string {
	lang, _ := c.Get(LanguageKey).(string)
	return lang
}

// RequireTable rejects requests whose partition does not serve table
func RequireTable(table policy.Table) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := policy.CheckTable(TenantFrom(c), table); err != nil {
				return deny(c, "route_table", err)
			}
			return next(c)
		}
	}
}

// RequireSurface rejects requests for an admin surface the partition
// does not expose.
func RequireSurface(surface tenancy.Surface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := policy.CheckSurface(TenantFrom(c), surface); err != nil {
				return deny(c, "surface", err)
			}
			return next(c)
		}
	}
}

func deny(c echo.Context, reason string, err error) error {
	if errors.Is(err, tenancy.ErrNoTenantContext) {
		logger.FromEcho(c).Error("Policy check without tenant context", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "No tenant context"})
	}
	prometheus.RecordPolicyDenied(reason)
	logger.FromEcho(c).Warn("Request denied by policy", zap.String("reason", reason), zap.Error(err))
	return c.JSON(http.StatusForbidden, map[string]string{"error": "Not available on this site"})
}
