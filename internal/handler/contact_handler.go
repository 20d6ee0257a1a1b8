package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/suteetoe/tenantstarter/internal/model"
	"github.com/suteetoe/tenantstarter/internal/tenancy"
	"github.com/suteetoe/tenantstarter/pkg/logger"
)

// ContactRequest defines the structure for contact form submissions
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// CreateContactMessage stores a message sent from the public site
func (h *Handler) CreateContactMessage(c echo.Context) error {
	var req ContactRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	msg := &model.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	}
	if err := model.ValidateStruct(msg); err != nil {
		return respondError(c, "Invalid message", errors.Join(tenancy.ErrInvalidTenant, err))
	}
	if err := h.data.CreateContactMessage(c.Request().Context(), msg); err != nil {
		return respondError(c, "Failed to send message", err)
	}
	logger.FromEcho(c).Info("Contact message received", zap.Uint("message_id", msg.ID))
	return c.JSON(http.StatusCreated, echo.Map{"id": msg.ID})
}

// ListContactMessages returns the messages for the public admin
func (h *Handler) ListContactMessages(c echo.Context) error {
	messages, err := h.data.ListContactMessages(c.Request().Context())
	if err != nil {
		return respondError(c, "Failed to retrieve messages", err)
	}
	return c.JSON(http.StatusOK, messages)
}
