package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// Recorder maintains the durable per-session record: last-activity on
// every sighting, expiry only when the request is allowed to extend
// it. The Redis activity cache is refreshed alongside so the fallback
// timeout check stays usable when the store is down later.
type Recorder struct {
	store   Store
	cache   ActivityCache
	timeout time.Duration
	logger  *zap.Logger
}

// NewRecorder builds the tracking recorder.
func NewRecorder(store Store, cache ActivityCache, timeout time.Duration, logger *zap.Logger) *Recorder {
	return &Recorder{store: store, cache: cache, timeout: timeout, logger: logger}
}

// Record updates the session for one sighting. Polling requests touch
// last-activity but leave the expiry deadline where it is.
func (r *Recorder) Record(ctx context.Context, sess *domain.Session, req Request, now time.Time) error {
	sess.LastActivityAt = now
	if !req.Polling {
		sess.ExpiresAt = now.Add(r.timeout)
	}
	if sess.Device == "" && req.UserAgent != "" {
		sess.Device = ClassifyDevice(req.UserAgent)
	}

	if err := r.store.Upsert(ctx, sess); err != nil {
		return err
	}
	if r.cache != nil {
		if err := r.cache.Touch(ctx, sess.ID, sess.LastActivityAt, sess.ExpiresAt); err != nil {
			// Cache refresh is best effort; the durable record is
			// already up to date.
			r.logger.Warn("session activity cache touch failed",
				zap.String("session_id", sess.ID), zap.Error(err))
		}
	}
	return nil
}
