package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	mid "github.com/suteetoe/tenantstarter/internal/middleware"
	"github.com/suteetoe/tenantstarter/internal/model"
	"github.com/suteetoe/tenantstarter/internal/repository"
	"github.com/suteetoe/tenantstarter/pkg/logger"
)

// LoginRequest defines the structure for admin login requests
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login checks a staff user's password and issues a token bound to the
// current partition.
func (h *Handler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	log := logger.FromEcho(c)

	var req LoginRequest
	if err := c.Bind(&req); err != nil || model.ValidateStruct(&req) != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Username and password are required"})
	}

	user, err := h.data.UserByUsername(ctx, req.Username)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return respondError(c, "Login failed", err)
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		log.Warn("Invalid credentials", zap.String("username", req.Username))
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid credentials"})
	}
	if !user.IsStaff {
		log.Warn("Admin login by non-staff user", zap.String("username", user.Username))
		return c.JSON(http.StatusForbidden, echo.Map{"error": "Staff access required"})
	}

	t := mid.TenantFrom(c)
	token, err := h.jwt.GenerateToken(t.SchemaName, user.ID, user.Username, user.Email, user.IsSuperuser)
	if err != nil {
		return respondError(c, "Failed to issue token", err)
	}
	if err := h.data.RecordLogin(ctx, user, c.RealIP(), c.Request().UserAgent()); err != nil {
		log.Warn("Failed to record login", zap.Error(err))
	}

	log.Info("User logged in", zap.String("username", user.Username))
	return c.JSON(http.StatusOK, echo.Map{
		"token":    token,
		"username": user.Username,
	})
}

// ListUsers returns the users of the current partition
func (h *Handler) ListUsers(c echo.Context) error {
	users, err := h.data.ListUsers(c.Request().Context())
	if err != nil {
		return respondError(c, "Failed to retrieve users", err)
	}
	logger.FromEcho(c).Info("Users retrieved successfully", zap.Int("count", len(users)))
	return c.JSON(http.StatusOK, users)
}

// ListLocations returns the active locations of the current partition
func (h *Handler) ListLocations(c echo.Context) error {
	locations, err := h.data.ListLocations(c.Request().Context())
	if err != nil {
		return respondError(c, "Failed to retrieve locations", err)
	}
	return c.JSON(http.StatusOK, locations)
}
