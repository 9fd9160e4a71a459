package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/events"
	"github.com/spec-kit/helpdesk-core/internal/repository"
)

// Service turns domain events into persisted notification rows. All
// delivery is best effort: a failed insert is logged and dropped, it
// never propagates back into the sweep or request that published the
// event.
type Service struct {
	notifications repository.NotificationRepository
	dispatcher    events.Dispatcher
	logger        *zap.Logger
}

// NewService creates the service.
func NewService(notifications repository.NotificationRepository, dispatcher events.Dispatcher, logger *zap.Logger) *Service {
	return &Service{
		notifications: notifications,
		dispatcher:    dispatcher,
		logger:        logger,
	}
}

// RegisterHandlers subscribes to events.
func (s *Service) RegisterHandlers() {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Subscribe(events.EventTicketEscalated, s.handleTicketEscalated)
	s.dispatcher.Subscribe(events.EventSLABreached, s.handleSLABreached)
	s.dispatcher.Subscribe(events.EventTicketAutoClosed, s.handleTicketAutoClosed)
	s.dispatcher.Subscribe(events.EventSessionTerminated, s.handleSessionTerminated)
}

func (s *Service) handleTicketEscalated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketEscalatedPayload)
	if !ok {
		return nil
	}
	role := domain.RoleAdminHelpdesk
	s.create(ctx, &domain.Notification{
		RecipientRole: &role,
		Type:          domain.NotificationEscalation,
		Title:         fmt.Sprintf("Unassigned %s ticket needs attention", payload.Priority),
		Message: fmt.Sprintf("Ticket %q has been unassigned for %.1f hours.",
			payload.Title, payload.AgeHours),
		RelatedEntity: &event.RelatedID,
	})
	return nil
}

func (s *Service) handleSLABreached(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.SLABreachedPayload)
	if !ok {
		return nil
	}
	role := domain.RoleAdminHelpdesk
	kind := "resolution"
	if payload.ResponseBreached {
		kind = "response"
		if payload.ResolutionBreached {
			kind = "response and resolution"
		}
	}
	s.create(ctx, &domain.Notification{
		RecipientRole: &role,
		Type:          domain.NotificationSLABreach,
		Title:         fmt.Sprintf("SLA %s breach on %s ticket", kind, payload.Priority),
		Message: fmt.Sprintf("Elapsed business time is %.2f hours, beyond the %s limit.",
			payload.ElapsedHours, kind),
		RelatedEntity: &event.RelatedID,
	})
	return nil
}

func (s *Service) handleTicketAutoClosed(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketAutoClosedPayload)
	if !ok {
		return nil
	}
	s.create(ctx, &domain.Notification{
		RecipientID:   &payload.RequesterID,
		Type:          domain.NotificationAutoClose,
		Title:         "Your resolved ticket was closed",
		Message:       "The ticket stayed resolved past the grace period and was closed automatically.",
		RelatedEntity: &event.RelatedID,
	})
	return nil
}

func (s *Service) handleSessionTerminated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.SessionTerminatedPayload)
	if !ok {
		return nil
	}
	if payload.Reason != domain.TerminationHijack {
		return nil
	}
	s.create(ctx, &domain.Notification{
		RecipientID:   &payload.UserID,
		Type:          domain.NotificationSecurity,
		Title:         "A session was terminated for security reasons",
		Message:       "Sign-in activity from an unexpected network ended one of your sessions. Please sign in again.",
		RelatedEntity: &event.RelatedID,
	})
	return nil
}

func (s *Service) create(ctx context.Context, n *domain.Notification) {
	if err := s.notifications.Create(ctx, n); err != nil {
		s.logger.Warn("failed to persist notification",
			zap.String("type", string(n.Type)),
			zap.Error(err))
		return
	}
	s.logger.Info("notification created",
		zap.String("type", string(n.Type)),
		zap.String("title", n.Title))
}
