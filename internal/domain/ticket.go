package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen        TicketStatus = "OPEN"
	TicketStatusAssigned    TicketStatus = "ASSIGNED"
	TicketStatusInProgress  TicketStatus = "IN_PROGRESS"
	TicketStatusWaitingUser TicketStatus = "WAITING_USER"
	TicketStatusResolved    TicketStatus = "RESOLVED"
	TicketStatusClosed      TicketStatus = "CLOSED"
)

// Terminal reports whether no further SLA evaluation applies to the status.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// Priorities lists every priority value in ascending urgency.
func Priorities() []TicketPriority {
	return []TicketPriority{TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent}
}

// Ticket is the aggregate for support requests. FirstResponseAt and
// ResolvedAt, when set, are never earlier than CreatedAt.
type Ticket struct {
	ID              string
	RequesterID     string
	AssigneeID      *string
	Title           string
	Description     string
	Status          TicketStatus
	Priority        TicketPriority
	CreatedAt       time.Time
	UpdatedAt       time.Time
	FirstResponseAt *time.Time
	ResolvedAt      *time.Time
	ClosedAt        *time.Time
}

// Unassigned reports whether no technician holds the ticket.
func (t *Ticket) Unassigned() bool {
	return t.AssigneeID == nil || *t.AssigneeID == ""
}
