package handlers

import (
	"net/netip"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-core/internal/api/dto"
	"github.com/spec-kit/helpdesk-core/internal/auth"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// AuthHandler serves login and logout.
type AuthHandler struct {
	login *auth.LoginService
}

// NewAuthHandler builds the handler.
func NewAuthHandler(login *auth.LoginService) *AuthHandler {
	return &AuthHandler{login: login}
}

// Login authenticates and opens a session.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password are required", nil)
	}

	addr, err := netip.ParseAddr(c.IP())
	if err != nil {
		return apperrors.NewValidationError("unable to determine client address", nil)
	}

	sess, token, err := h.login.Login(c.UserContext(), req.Email, req.Password, addr, c.Get("User-Agent"))
	if err != nil {
		return err
	}

	return c.JSON(dto.LoginResponse{
		Token:     token,
		SessionID: sess.ID,
		ExpiresAt: sess.ExpiresAt,
		Device:    sess.Device,
	})
}

// Logout ends the current session.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sess, ok := auth.SessionFromContext(c)
	if !ok || sess == nil {
		return apperrors.NewUnauthorized("no active session")
	}
	if err := h.login.Logout(c.UserContext(), sess.ID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "logged_out"})
}
