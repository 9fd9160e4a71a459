package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-core/internal/api/dto"
	"github.com/spec-kit/helpdesk-core/internal/auth"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// SessionsHandler serves the cross-device session surface.
type SessionsHandler struct {
	sessions repository.SessionRepository
	login    *auth.LoginService
}

// NewSessionsHandler builds the handler.
func NewSessionsHandler(sessions repository.SessionRepository, login *auth.LoginService) *SessionsHandler {
	return &SessionsHandler{sessions: sessions, login: login}
}

// List returns the caller's active sessions across devices.
func (h *SessionsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	currentID := ""
	if sess, ok := auth.SessionFromContext(c); ok && sess != nil {
		currentID = sess.ID
	}

	sessions, err := h.sessions.ListActiveByUser(c.UserContext(), principal.UserID)
	if err != nil {
		return apperrors.MapError(err)
	}

	out := make([]dto.SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, dto.FromSession(s, currentID))
	}
	return c.JSON(fiber.Map{"sessions": out})
}

// Remaining answers the remaining-time query from the authoritative
// tracker record. Pollers should send X-Session-Poll so the query
// itself does not push the deadline.
func (h *SessionsHandler) Remaining(c *fiber.Ctx) error {
	verdict, ok := auth.VerdictFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	return c.JSON(dto.RemainingResponse{
		RemainingSeconds: int64(verdict.Remaining.Seconds()),
		Warning:          verdict.Warning,
	})
}

// Revoke ends one of the caller's other sessions.
func (h *SessionsHandler) Revoke(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	sessionID := c.Params("id")
	if sessionID == "" {
		return apperrors.NewValidationError("session id required", nil)
	}
	if err := h.login.RevokeOther(c.UserContext(), principal.UserID, sessionID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "revoked"})
}
