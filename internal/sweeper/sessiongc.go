package sweeper

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/observability"
	"github.com/spec-kit/helpdesk-core/internal/repository"
)

// SessionGCSweeper deletes inactive session records once they fall
// out of the retention window.
type SessionGCSweeper struct {
	sessions      repository.SessionRepository
	retentionDays int
	logger        *zap.Logger
	metrics       *observability.Metrics

	now func() time.Time
}

// NewSessionGCSweeper creates the sweeper.
func NewSessionGCSweeper(sessions repository.SessionRepository, retentionDays int, logger *zap.Logger, metrics *observability.Metrics) *SessionGCSweeper {
	return &SessionGCSweeper{
		sessions:      sessions,
		retentionDays: retentionDays,
		logger:        logger,
		metrics:       metrics,
		now:           time.Now,
	}
}

// WithClock overrides the sweeper clock. Test use.
func (s *SessionGCSweeper) WithClock(now func() time.Time) *SessionGCSweeper {
	s.now = now
	return s
}

// Name implements Job.
func (s *SessionGCSweeper) Name() string { return "session_gc" }

// Run implements Job.
func (s *SessionGCSweeper) Run(ctx context.Context) error {
	cutoff := s.now().AddDate(0, 0, -s.retentionDays)

	deleted, err := s.sessions.DeleteInactiveBefore(ctx, cutoff)
	if err != nil {
		return err
	}

	s.metrics.RecordSweep(s.Name(), int(deleted), 0)
	s.logger.Info("session gc complete", zap.Int64("deleted", deleted))
	return nil
}
