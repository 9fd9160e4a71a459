package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

// TicketResponse payload.
type TicketResponse struct {
	ID              string     `json:"id"`
	RequesterID     string     `json:"requester_id"`
	AssigneeID      *string    `json:"assignee_id,omitempty"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Status          string     `json:"status"`
	Priority        string     `json:"priority"`
	CreatedAt       time.Time  `json:"created_at"`
	FirstResponseAt *time.Time `json:"first_response_at,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	ClosedAt        *time.Time `json:"closed_at,omitempty"`
}

// FromTicket maps a domain ticket.
func FromTicket(t domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:              t.ID,
		RequesterID:     t.RequesterID,
		AssigneeID:      t.AssigneeID,
		Title:           t.Title,
		Description:     t.Description,
		Status:          string(t.Status),
		Priority:        string(t.Priority),
		CreatedAt:       t.CreatedAt,
		FirstResponseAt: t.FirstResponseAt,
		ResolvedAt:      t.ResolvedAt,
		ClosedAt:        t.ClosedAt,
	}
}

// TicketHistoryResponse is one audit trail entry.
type TicketHistoryResponse struct {
	ID          string         `json:"id"`
	ChangedBy   string         `json:"changed_by"`
	ChangedByID *string        `json:"changed_by_id,omitempty"`
	ChangeType  string         `json:"change_type"`
	OldValue    map[string]any `json:"old_value,omitempty"`
	NewValue    map[string]any `json:"new_value,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// FromTicketHistory maps an audit entry.
func FromTicketHistory(e domain.TicketHistory) TicketHistoryResponse {
	return TicketHistoryResponse{
		ID:          e.ID,
		ChangedBy:   string(e.ChangedBy),
		ChangedByID: e.ChangedByID,
		ChangeType:  string(e.ChangeType),
		OldValue:    e.OldValue,
		NewValue:    e.NewValue,
		CreatedAt:   e.CreatedAt,
	}
}

// NotificationResponse payload.
type NotificationResponse struct {
	ID            string     `json:"id"`
	Type          string     `json:"type"`
	Title         string     `json:"title"`
	Message       string     `json:"message"`
	RelatedEntity *string    `json:"related_entity,omitempty"`
	ReadAt        *time.Time `json:"read_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// FromNotification maps a domain notification.
func FromNotification(n domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:            n.ID,
		Type:          string(n.Type),
		Title:         n.Title,
		Message:       n.Message,
		RelatedEntity: n.RelatedEntity,
		ReadAt:        n.ReadAt,
		CreatedAt:     n.CreatedAt,
	}
}
