package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/suteetoe/tenantstarter/internal/policy"
	"github.com/suteetoe/tenantstarter/internal/repository"
	"github.com/suteetoe/tenantstarter/internal/storage"
	"github.com/suteetoe/tenantstarter/internal/tenancy"
	"github.com/suteetoe/tenantstarter/pkg/logger"
)

// statusFor maps a domain error onto an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, tenancy.ErrInvalidKey),
		errors.Is(err, tenancy.ErrInvalidTenant):
		return http.StatusBadRequest
	case errors.Is(err, tenancy.ErrDuplicateDomain),
		errors.Is(err, tenancy.ErrDuplicateKey),
		errors.Is(err, tenancy.ErrDecommissionRefused):
		return http.StatusConflict
	case errors.Is(err, tenancy.ErrTenantNotFound),
		errors.Is(err, tenancy.ErrDomainNotFound),
		errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, policy.ErrForbidden),
		errors.Is(err, tenancy.ErrCrossPartition),
		errors.Is(err, tenancy.ErrTenantInactive):
		return http.StatusForbidden
	}
	// ErrNoTenantContext and ErrMissingPartition are configuration faults
	return http.StatusInternalServerError
}

// respondError logs err and writes it as JSON. Server errors hide the cause.
func respondError(c echo.Context, msg string, err error) error {
	status := statusFor(err)
	log := logger.FromEcho(c)
	if status >= http.StatusInternalServerError {
		log.Error(msg, zap.Error(err))
		return c.JSON(status, echo.Map{"error": msg})
	}
	log.Warn(msg, zap.Error(err))
	return c.JSON(status, echo.Map{"error": msg, "detail": err.Error()})
}
