package sweeper

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/events"
	"github.com/spec-kit/helpdesk-core/internal/observability"
	"github.com/spec-kit/helpdesk-core/internal/repository"
)

// AutoCloseSweeper closes tickets that stayed resolved past the grace
// period. Each ticket commits independently: a persistence failure is
// logged and skipped, so one bad row never rolls back the rest of the
// batch, and notification delivery is fire-and-forget through the
// dispatcher.
type AutoCloseSweeper struct {
	tickets    repository.TicketRepository
	history    repository.TicketHistoryRepository
	dispatcher events.Dispatcher
	graceDays  int
	logger     *zap.Logger
	metrics    *observability.Metrics

	now func() time.Time
}

// NewAutoCloseSweeper creates the sweeper.
func NewAutoCloseSweeper(tickets repository.TicketRepository, history repository.TicketHistoryRepository, dispatcher events.Dispatcher, graceDays int, logger *zap.Logger, metrics *observability.Metrics) *AutoCloseSweeper {
	return &AutoCloseSweeper{
		tickets:    tickets,
		history:    history,
		dispatcher: dispatcher,
		graceDays:  graceDays,
		logger:     logger,
		metrics:    metrics,
		now:        time.Now,
	}
}

// WithClock overrides the sweeper clock. Test use.
func (s *AutoCloseSweeper) WithClock(now func() time.Time) *AutoCloseSweeper {
	s.now = now
	return s
}

// Name implements Job.
func (s *AutoCloseSweeper) Name() string { return "auto_close" }

// Run implements Job.
func (s *AutoCloseSweeper) Run(ctx context.Context) error {
	now := s.now()
	cutoff := now.AddDate(0, 0, -s.graceDays)

	candidates, err := s.tickets.ListResolvedBefore(ctx, cutoff)
	if err != nil {
		return err
	}

	closed := 0
	failed := 0
	for i := range candidates {
		t := &candidates[i]
		if err := s.closeOne(ctx, t, now); err != nil {
			failed++
			s.logger.Error("failed to auto-close ticket",
				zap.String("ticket_id", t.ID), zap.Error(err))
			continue
		}
		closed++
	}

	s.metrics.RecordSweep(s.Name(), closed, failed)
	s.logger.Info("auto-close sweep complete",
		zap.Int("found", len(candidates)),
		zap.Int("closed", closed),
		zap.Int("failed", failed))
	return nil
}

func (s *AutoCloseSweeper) closeOne(ctx context.Context, t *domain.Ticket, now time.Time) error {
	if err := s.tickets.UpdateStatus(ctx, t.ID, domain.TicketStatusClosed, now); err != nil {
		return err
	}

	entry := &domain.TicketHistory{
		TicketID:   t.ID,
		ChangedBy:  domain.ActorTypeSystem,
		ChangeType: domain.ChangeTypeStatus,
		OldValue:   map[string]any{"status": string(domain.TicketStatusResolved)},
		NewValue:   map[string]any{"status": string(domain.TicketStatusClosed)},
	}
	if err := s.history.Create(ctx, entry); err != nil {
		// The transition already committed; losing the audit row is
		// logged but does not undo the close.
		s.logger.Error("failed to record auto-close history",
			zap.String("ticket_id", t.ID), zap.Error(err))
	}

	if s.dispatcher != nil && t.ResolvedAt != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventTicketAutoClosed,
			RelatedID: t.ID,
			Timestamp: now,
			Payload: events.TicketAutoClosedPayload{
				RequesterID: t.RequesterID,
				ResolvedAt:  *t.ResolvedAt,
			},
		})
	}
	return nil
}
