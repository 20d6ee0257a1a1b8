package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	mid "github.com/suteetoe/tenantstarter/internal/middleware"
	"github.com/suteetoe/tenantstarter/pkg/logger"
)

// HealthCheck handles the health check endpoint
func (h *Handler) HealthCheck(c echo.Context) error {
	log := logger.FromEcho(c)

	response := map[string]interface{}{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	}

	// Check database connection if requested
	if c.QueryParam("check") == "db" && h.ping != nil {
		if err := h.ping(c.Request().Context()); err != nil {
			log.Error("Database ping error", zap.Error(err))
			response["status"] = "error"
			response["db_status"] = "error"
			response["db_error"] = "Failed to ping database"
			return c.JSON(http.StatusInternalServerError, response)
		}
		response["db_status"] = "ok"
	}

	return c.JSON(http.StatusOK, response)
}

// TenantContext describes the partition serving the request
func (h *Handler) TenantContext(c echo.Context) error {
	t := mid.TenantFrom(c)
	decision := mid.DecisionFrom(c)
	locales := h.resolver.Scoper().Locales(c.Request().Context())

	return c.JSON(http.StatusOK, echo.Map{
		"tenant":         t.Name,
		"type":           t.Type,
		"schema":         t.SchemaName,
		"primary_domain": t.PrimaryDomain(),
		"route_table":    decision.Table,
		"language":       mid.LanguageFrom(c),
		"languages":      locales,
		"theme":          decision.Theme,
	})
}
