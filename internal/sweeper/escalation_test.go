package sweeper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/config"
	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/events"
	"github.com/spec-kit/helpdesk-core/internal/observability"
)

func escalationTestConfig(renotify bool) config.EscalationConfig {
	return config.EscalationConfig{
		UnassignedAgeHours: map[domain.TicketPriority]float64{
			domain.TicketPriorityUrgent: 2,
			domain.TicketPriorityHigh:   4,
		},
		Renotify: renotify,
	}
}

func openTicket(id string, priority domain.TicketPriority, createdAt time.Time) *domain.Ticket {
	return &domain.Ticket{
		ID:        id,
		Title:     "vpn down",
		Status:    domain.TicketStatusOpen,
		Priority:  priority,
		CreatedAt: createdAt,
	}
}

func TestEscalationSweepFlagsAgedTickets(t *testing.T) {
	now := time.Date(2026, time.March, 2, 14, 0, 0, 0, time.UTC)
	assignee := "tech-1"
	taken := openTicket("taken", domain.TicketPriorityUrgent, now.Add(-6*time.Hour))
	taken.AssigneeID = &assignee

	repo := newFakeTicketRepo(
		openTicket("aged-urgent", domain.TicketPriorityUrgent, now.Add(-3*time.Hour)),
		openTicket("fresh-urgent", domain.TicketPriorityUrgent, now.Add(-time.Hour)),
		openTicket("aged-high", domain.TicketPriorityHigh, now.Add(-5*time.Hour)),
		taken,
	)
	dispatcher := events.NewInMemoryDispatcher()
	got := capture(dispatcher, events.EventTicketEscalated)

	sweeper := NewEscalationSweeper(repo, dispatcher, escalationTestConfig(true), zap.NewNop(), observability.NewMetrics()).
		WithClock(func() time.Time { return now })

	require.NoError(t, sweeper.Run(context.Background()))

	ids := make(map[string]bool)
	for _, e := range *got {
		ids[e.RelatedID] = true
	}
	assert.Equal(t, map[string]bool{"aged-urgent": true, "aged-high": true}, ids)
}

func TestEscalationRenotifyRepeatsEveryRun(t *testing.T) {
	now := time.Date(2026, time.March, 2, 14, 0, 0, 0, time.UTC)
	repo := newFakeTicketRepo(openTicket("t1", domain.TicketPriorityUrgent, now.Add(-3*time.Hour)))
	dispatcher := events.NewInMemoryDispatcher()
	got := capture(dispatcher, events.EventTicketEscalated)

	sweeper := NewEscalationSweeper(repo, dispatcher, escalationTestConfig(true), zap.NewNop(), observability.NewMetrics()).
		WithClock(func() time.Time { return now })

	require.NoError(t, sweeper.Run(context.Background()))
	require.NoError(t, sweeper.Run(context.Background()))
	require.NoError(t, sweeper.Run(context.Background()))

	assert.Len(t, *got, 3, "unremediated tickets re-flag on every run")
}

func TestEscalationDedupeWhenRenotifyDisabled(t *testing.T) {
	now := time.Date(2026, time.March, 2, 14, 0, 0, 0, time.UTC)
	repo := newFakeTicketRepo(openTicket("t1", domain.TicketPriorityUrgent, now.Add(-3*time.Hour)))
	dispatcher := events.NewInMemoryDispatcher()
	got := capture(dispatcher, events.EventTicketEscalated)

	sweeper := NewEscalationSweeper(repo, dispatcher, escalationTestConfig(false), zap.NewNop(), observability.NewMetrics()).
		WithClock(func() time.Time { return now })

	require.NoError(t, sweeper.Run(context.Background()))
	require.NoError(t, sweeper.Run(context.Background()))

	assert.Len(t, *got, 1, "suppressed repeats while renotify is off")
}

func TestEscalationSweepMetrics(t *testing.T) {
	now := time.Date(2026, time.March, 2, 14, 0, 0, 0, time.UTC)
	repo := newFakeTicketRepo(openTicket("t1", domain.TicketPriorityUrgent, now.Add(-3*time.Hour)))
	metrics := observability.NewMetrics()

	sweeper := NewEscalationSweeper(repo, events.NewInMemoryDispatcher(), escalationTestConfig(true), zap.NewNop(), metrics).
		WithClock(func() time.Time { return now })

	require.NoError(t, sweeper.Run(context.Background()))
	assert.Equal(t, int64(1), metrics.SweepRuns("escalation"))
}
