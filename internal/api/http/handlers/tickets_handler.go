package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/api/dto"
	"github.com/spec-kit/helpdesk-core/internal/auth"
	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// TicketsHandler serves the ticket surface the batch jobs operate on:
// creation, assignment, first response, and resolution. Status
// transitions record history entries with the acting principal.
type TicketsHandler struct {
	tickets       repository.TicketRepository
	history       repository.TicketHistoryRepository
	notifications repository.NotificationRepository
	logger        *zap.Logger
}

// NewTicketsHandler builds the handler.
func NewTicketsHandler(
	tickets repository.TicketRepository,
	history repository.TicketHistoryRepository,
	notifications repository.NotificationRepository,
	logger *zap.Logger,
) *TicketsHandler {
	return &TicketsHandler{
		tickets:       tickets,
		history:       history,
		notifications: notifications,
		logger:        logger,
	}
}

// Create opens a ticket on behalf of the caller.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	if strings.TrimSpace(req.Title) == "" {
		return apperrors.NewValidationError("title is required", nil)
	}
	priority, err := parsePriority(req.Priority)
	if err != nil {
		return err
	}

	ticket := &domain.Ticket{
		RequesterID: principal.UserID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Status:      domain.TicketStatusOpen,
		Priority:    priority,
	}
	if err := h.tickets.Create(c.UserContext(), ticket); err != nil {
		return apperrors.MapError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromTicket(*ticket))
}

// Get returns one ticket. Requesters see their own tickets, staff see all.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	ticket, err := h.tickets.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return apperrors.MapError(err)
	}
	if principal.Role == domain.RoleUser && ticket.RequesterID != principal.UserID {
		return apperrors.NewForbidden("not your ticket")
	}
	return c.JSON(dto.FromTicket(*ticket))
}

// Assign hands the ticket to a technician and moves it to ASSIGNED.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req struct {
		AssigneeID string `json:"assignee_id"`
	}
	if err := c.BodyParser(&req); err != nil || req.AssigneeID == "" {
		return apperrors.NewValidationError("assignee_id is required", nil)
	}

	ticketID := c.Params("id")
	ticket, err := h.tickets.GetByID(c.UserContext(), ticketID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if ticket.Status.Terminal() {
		return apperrors.NewConflict("ticket is closed", nil)
	}

	now := time.Now().UTC()
	if err := h.tickets.Assign(c.UserContext(), ticketID, req.AssigneeID, now); err != nil {
		return apperrors.MapError(err)
	}
	h.recordHistory(c, ticketID, principal, domain.ChangeTypeAssignee,
		map[string]any{"assignee_id": ticket.AssigneeID},
		map[string]any{"assignee_id": req.AssigneeID})
	return c.JSON(fiber.Map{"status": "assigned"})
}

// FirstResponse stamps the first staff reply. The stamp is idempotent:
// once set it never moves, so repeated replies keep the original SLA
// measurement point.
func (h *TicketsHandler) FirstResponse(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	now := time.Now().UTC()
	if err := h.tickets.SetFirstResponse(c.UserContext(), c.Params("id"), now); err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"status": "recorded"})
}

// Resolve moves the ticket to RESOLVED and stamps resolved_at, which
// starts the auto-close grace clock.
func (h *TicketsHandler) Resolve(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	ticketID := c.Params("id")
	ticket, err := h.tickets.GetByID(c.UserContext(), ticketID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if ticket.Status.Terminal() {
		return apperrors.NewConflict("ticket is already closed", nil)
	}

	now := time.Now().UTC()
	if err := h.tickets.SetResolved(c.UserContext(), ticketID, now); err != nil {
		return apperrors.MapError(err)
	}
	h.recordHistory(c, ticketID, principal, domain.ChangeTypeStatus,
		map[string]any{"status": string(ticket.Status)},
		map[string]any{"status": string(domain.TicketStatusResolved)})
	return c.JSON(fiber.Map{"status": "resolved"})
}

// History returns the ticket's audit trail.
func (h *TicketsHandler) History(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	ticketID := c.Params("id")
	ticket, err := h.tickets.GetByID(c.UserContext(), ticketID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if principal.Role == domain.RoleUser && ticket.RequesterID != principal.UserID {
		return apperrors.NewForbidden("not your ticket")
	}

	entries, err := h.history.ListByTicket(c.UserContext(), ticketID)
	if err != nil {
		return apperrors.MapError(err)
	}
	out := make([]dto.TicketHistoryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.FromTicketHistory(e))
	}
	return c.JSON(fiber.Map{"history": out})
}

// Notifications lists notifications addressed to the caller or their role.
func (h *TicketsHandler) Notifications(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	items, err := h.notifications.ListForUser(c.UserContext(), principal.UserID, principal.Role, limit)
	if err != nil {
		return apperrors.MapError(err)
	}
	out := make([]dto.NotificationResponse, 0, len(items))
	for _, n := range items {
		out = append(out, dto.FromNotification(n))
	}
	return c.JSON(fiber.Map{"notifications": out})
}

func (h *TicketsHandler) recordHistory(
	c *fiber.Ctx,
	ticketID string,
	principal *auth.Principal,
	changeType domain.TicketChangeType,
	oldValue, newValue map[string]any,
) {
	actor := domain.ActorTypeStaff
	if principal.Role == domain.RoleUser {
		actor = domain.ActorTypeUser
	}
	entry := &domain.TicketHistory{
		TicketID:    ticketID,
		ChangedBy:   actor,
		ChangedByID: &principal.UserID,
		ChangeType:  changeType,
		OldValue:    oldValue,
		NewValue:    newValue,
	}
	if err := h.history.Create(c.UserContext(), entry); err != nil {
		h.logger.Error("failed to record ticket history",
			zap.String("ticket_id", ticketID),
			zap.Error(err))
	}
}

func parsePriority(raw string) (domain.TicketPriority, error) {
	candidate := domain.TicketPriority(strings.ToUpper(strings.TrimSpace(raw)))
	for _, p := range domain.Priorities() {
		if candidate == p {
			return p, nil
		}
	}
	return "", apperrors.NewValidationError("invalid priority", map[string]any{
		"allowed": domain.Priorities(),
	})
}
