package sweeper

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/config"
	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/events"
	"github.com/spec-kit/helpdesk-core/internal/observability"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	"github.com/spec-kit/helpdesk-core/internal/sla"
)

// EscalationSweeper flags open, unassigned urgent/high tickets that
// have aged past their wall-clock trigger and notifies the helpdesk
// admin role. With renotify enabled (the default, matching the
// long-standing behavior) every run re-flags unremediated tickets;
// disabling it suppresses repeats for the process lifetime.
type EscalationSweeper struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	cfg        config.EscalationConfig
	logger     *zap.Logger
	metrics    *observability.Metrics

	mu       sync.Mutex
	notified map[string]struct{}

	now func() time.Time
}

// NewEscalationSweeper creates the sweeper.
func NewEscalationSweeper(tickets repository.TicketRepository, dispatcher events.Dispatcher, cfg config.EscalationConfig, logger *zap.Logger, metrics *observability.Metrics) *EscalationSweeper {
	return &EscalationSweeper{
		tickets:    tickets,
		dispatcher: dispatcher,
		cfg:        cfg,
		logger:     logger,
		metrics:    metrics,
		notified:   make(map[string]struct{}),
		now:        time.Now,
	}
}

// WithClock overrides the sweeper clock. Test use.
func (s *EscalationSweeper) WithClock(now func() time.Time) *EscalationSweeper {
	s.now = now
	return s
}

// Name implements Job.
func (s *EscalationSweeper) Name() string { return "escalation" }

// Run implements Job.
func (s *EscalationSweeper) Run(ctx context.Context) error {
	now := s.now()

	candidates, err := s.tickets.ListUnassignedOpen(ctx, []domain.TicketPriority{
		domain.TicketPriorityUrgent,
		domain.TicketPriorityHigh,
	})
	if err != nil {
		return err
	}

	partitioned := sla.PartitionEscalatable(candidates, now, s.cfg)

	escalated := 0
	for priority, tickets := range partitioned {
		for i := range tickets {
			t := &tickets[i]
			if !s.shouldNotify(t.ID) {
				continue
			}
			escalated++
			s.logger.Warn("ticket escalated",
				zap.String("ticket_id", t.ID),
				zap.String("priority", string(priority)),
				zap.Float64("age_hours", now.Sub(t.CreatedAt).Hours()))
			s.publish(ctx, t, now)
		}
	}

	s.metrics.RecordSweep(s.Name(), escalated, 0)
	s.logger.Info("escalation sweep complete",
		zap.Int("candidates", len(candidates)),
		zap.Int("escalated", escalated))
	return nil
}

func (s *EscalationSweeper) shouldNotify(ticketID string) bool {
	if s.cfg.Renotify {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, seen := s.notified[ticketID]; seen {
		return false
	}
	s.notified[ticketID] = struct{}{}
	return true
}

func (s *EscalationSweeper) publish(ctx context.Context, t *domain.Ticket, now time.Time) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketEscalated,
		RelatedID: t.ID,
		Timestamp: now,
		Payload: events.TicketEscalatedPayload{
			Priority: t.Priority,
			AgeHours: now.Sub(t.CreatedAt).Hours(),
			Title:    t.Title,
		},
	})
}
