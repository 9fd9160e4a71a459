package events

import (
	"time"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketEscalated   EventType = "ticket_escalated"
	EventSLABreached       EventType = "sla_breached"
	EventTicketAutoClosed  EventType = "ticket_auto_closed"
	EventSessionTerminated EventType = "session_terminated"
)

// Event represents a domain event emitted by sweepers and the session
// pipeline. RelatedID is the ticket or session the event concerns.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	RelatedID string      `json:"related_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketEscalatedPayload payload.
type TicketEscalatedPayload struct {
	Priority domain.TicketPriority `json:"priority"`
	AgeHours float64               `json:"age_hours"`
	Title    string                `json:"title"`
}

// SLABreachedPayload payload.
type SLABreachedPayload struct {
	Priority           domain.TicketPriority `json:"priority"`
	ResponseBreached   bool                  `json:"response_breached"`
	ResolutionBreached bool                  `json:"resolution_breached"`
	ElapsedHours       float64               `json:"elapsed_hours"`
}

// TicketAutoClosedPayload payload.
type TicketAutoClosedPayload struct {
	RequesterID string    `json:"requester_id"`
	ResolvedAt  time.Time `json:"resolved_at"`
}

// SessionTerminatedPayload payload.
type SessionTerminatedPayload struct {
	UserID string                   `json:"user_id"`
	Reason domain.TerminationReason `json:"reason"`
}
