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

func slaTestConfig() (config.SLAConfig, config.WorkingHoursConfig) {
	slaCfg := config.SLAConfig{
		Thresholds: map[domain.TicketPriority]config.SLAThreshold{
			domain.TicketPriorityUrgent: {ResponseHours: 2, ResolutionHours: 8},
		},
	}
	hours := config.WorkingHoursConfig{
		Days: map[time.Weekday]bool{
			time.Monday:    true,
			time.Tuesday:   true,
			time.Wednesday: true,
			time.Thursday:  true,
			time.Friday:    true,
		},
		Start: config.ClockTime{Hour: 9},
		End:   config.ClockTime{Hour: 17},
	}
	return slaCfg, hours
}

func TestSLASweepPublishesBreaches(t *testing.T) {
	// Monday noon; created 09:00 the same day, so 3 business hours
	// elapsed against a 2h urgent response limit.
	now := time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)
	breached := openTicket("late", domain.TicketPriorityUrgent, time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC))
	fine := openTicket("fine", domain.TicketPriorityUrgent, now.Add(-time.Hour))
	resolved := resolvedTicket("done", now.Add(-time.Hour))

	repo := newFakeTicketRepo(breached, fine, resolved)
	dispatcher := events.NewInMemoryDispatcher()
	got := capture(dispatcher, events.EventSLABreached)

	slaCfg, hours := slaTestConfig()
	sweeper := NewSLASweeper(repo, dispatcher, slaCfg, hours, true, zap.NewNop(), observability.NewMetrics()).
		WithClock(func() time.Time { return now })

	require.NoError(t, sweeper.Run(context.Background()))

	require.Len(t, *got, 1)
	assert.Equal(t, "late", (*got)[0].RelatedID)
	payload, ok := (*got)[0].Payload.(events.SLABreachedPayload)
	require.True(t, ok)
	assert.True(t, payload.ResponseBreached)
	assert.False(t, payload.ResolutionBreached)
	assert.Equal(t, 3.0, payload.ElapsedHours)
}

func TestSLASweepSkipsRespondedTickets(t *testing.T) {
	now := time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)
	ticket := openTicket("responded", domain.TicketPriorityUrgent, time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC))
	responded := ticket.CreatedAt.Add(30 * time.Minute)
	ticket.FirstResponseAt = &responded

	repo := newFakeTicketRepo(ticket)
	dispatcher := events.NewInMemoryDispatcher()
	got := capture(dispatcher, events.EventSLABreached)

	slaCfg, hours := slaTestConfig()
	sweeper := NewSLASweeper(repo, dispatcher, slaCfg, hours, true, zap.NewNop(), observability.NewMetrics()).
		WithClock(func() time.Time { return now })

	require.NoError(t, sweeper.Run(context.Background()))
	assert.Empty(t, *got)
}

func TestSLASweepRenotifyPolicy(t *testing.T) {
	now := time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)
	breached := openTicket("late", domain.TicketPriorityUrgent, time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC))

	t.Run("renotify repeats every run", func(t *testing.T) {
		repo := newFakeTicketRepo(breached)
		dispatcher := events.NewInMemoryDispatcher()
		got := capture(dispatcher, events.EventSLABreached)

		slaCfg, hours := slaTestConfig()
		sweeper := NewSLASweeper(repo, dispatcher, slaCfg, hours, true, zap.NewNop(), observability.NewMetrics()).
			WithClock(func() time.Time { return now })

		for i := 0; i < 3; i++ {
			require.NoError(t, sweeper.Run(context.Background()))
		}
		assert.Len(t, *got, 3)
	})

	t.Run("disabled suppresses repeats", func(t *testing.T) {
		repo := newFakeTicketRepo(breached)
		dispatcher := events.NewInMemoryDispatcher()
		got := capture(dispatcher, events.EventSLABreached)

		slaCfg, hours := slaTestConfig()
		sweeper := NewSLASweeper(repo, dispatcher, slaCfg, hours, false, zap.NewNop(), observability.NewMetrics()).
			WithClock(func() time.Time { return now })

		for i := 0; i < 3; i++ {
			require.NoError(t, sweeper.Run(context.Background()))
		}
		require.Len(t, *got, 1)
		assert.Equal(t, "late", (*got)[0].RelatedID)
	})
}
