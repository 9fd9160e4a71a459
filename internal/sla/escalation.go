package sla

import (
	"time"

	"github.com/spec-kit/helpdesk-core/internal/config"
	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// Escalatable reports whether an unassigned ticket has aged past its
// priority's trigger. Only OPEN tickets with no assignee and a
// configured priority (urgent/high) qualify. Age is raw wall-clock
// time, not business hours; that asymmetry with the SLA evaluator is
// deliberate: an unassigned urgent ticket left over a weekend should
// still fire on Monday's first sweep.
func Escalatable(t *domain.Ticket, now time.Time, cfg config.EscalationConfig) bool {
	if t.Status != domain.TicketStatusOpen || !t.Unassigned() {
		return false
	}
	threshold, ok := cfg.UnassignedAgeHours[t.Priority]
	if !ok {
		return false
	}
	return now.Sub(t.CreatedAt).Hours() >= threshold
}

// PartitionEscalatable filters tickets through Escalatable and groups
// the qualifying ones by priority for reporting.
func PartitionEscalatable(tickets []domain.Ticket, now time.Time, cfg config.EscalationConfig) map[domain.TicketPriority][]domain.Ticket {
	result := make(map[domain.TicketPriority][]domain.Ticket)
	for i := range tickets {
		t := &tickets[i]
		if Escalatable(t, now, cfg) {
			result[t.Priority] = append(result[t.Priority], *t)
		}
	}
	return result
}
