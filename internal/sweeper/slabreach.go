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

// SLASweeper evaluates every non-terminal ticket against its
// priority's business-hours thresholds and notifies the helpdesk
// admin role about breaches. Repeat notifications follow the same
// renotify knob as escalation: enabled re-flags unremediated breaches
// every run, disabled suppresses repeats for the process lifetime.
type SLASweeper struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	slaCfg     config.SLAConfig
	hours      config.WorkingHoursConfig
	renotify   bool
	logger     *zap.Logger
	metrics    *observability.Metrics

	mu       sync.Mutex
	notified map[string]struct{}

	now func() time.Time
}

// NewSLASweeper creates the sweeper.
func NewSLASweeper(tickets repository.TicketRepository, dispatcher events.Dispatcher, slaCfg config.SLAConfig, hours config.WorkingHoursConfig, renotify bool, logger *zap.Logger, metrics *observability.Metrics) *SLASweeper {
	return &SLASweeper{
		tickets:    tickets,
		dispatcher: dispatcher,
		slaCfg:     slaCfg,
		hours:      hours,
		renotify:   renotify,
		logger:     logger,
		metrics:    metrics,
		notified:   make(map[string]struct{}),
		now:        time.Now,
	}
}

// WithClock overrides the sweeper clock. Test use.
func (s *SLASweeper) WithClock(now func() time.Time) *SLASweeper {
	s.now = now
	return s
}

// Name implements Job.
func (s *SLASweeper) Name() string { return "sla_breach" }

// Run implements Job.
func (s *SLASweeper) Run(ctx context.Context) error {
	now := s.now()

	active, err := s.tickets.ListByStatuses(ctx, []domain.TicketStatus{
		domain.TicketStatusOpen,
		domain.TicketStatusAssigned,
		domain.TicketStatusInProgress,
	}, 0)
	if err != nil {
		return err
	}

	breached := 0
	for i := range active {
		t := &active[i]
		result := sla.Evaluate(t, now, s.slaCfg, s.hours)
		if !result.Breached() {
			continue
		}
		if !s.shouldNotify(t.ID) {
			continue
		}
		breached++
		s.logger.Warn("sla breached",
			zap.String("ticket_id", t.ID),
			zap.String("priority", string(t.Priority)),
			zap.Bool("response", result.ResponseBreached),
			zap.Bool("resolution", result.ResolutionBreached),
			zap.Float64("elapsed_hours", result.ElapsedHours))
		s.publish(ctx, t, result, now)
	}

	s.metrics.RecordSweep(s.Name(), breached, 0)
	s.logger.Info("sla sweep complete",
		zap.Int("evaluated", len(active)),
		zap.Int("breached", breached))
	return nil
}

func (s *SLASweeper) shouldNotify(ticketID string) bool {
	if s.renotify {
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

func (s *SLASweeper) publish(ctx context.Context, t *domain.Ticket, result sla.BreachResult, now time.Time) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventSLABreached,
		RelatedID: t.ID,
		Timestamp: now,
		Payload: events.SLABreachedPayload{
			Priority:           t.Priority,
			ResponseBreached:   result.ResponseBreached,
			ResolutionBreached: result.ResolutionBreached,
			ElapsedHours:       result.ElapsedHours,
		},
	})
}
