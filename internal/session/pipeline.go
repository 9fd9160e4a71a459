package session

import (
	"context"
	"errors"
	"net/netip"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/config"
	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/observability"
)

// Store is the durable session store the pipeline consults first.
type Store interface {
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	Upsert(ctx context.Context, sess *domain.Session) error
	MarkInactive(ctx context.Context, id string, reason domain.TerminationReason) error
}

// ActivityCache is the secondary last-activity record used when the
// durable store is unavailable.
type ActivityCache interface {
	Touch(ctx context.Context, id string, lastActivity, expiresAt time.Time) error
	LastActivity(ctx context.Context, id string) (time.Time, error)
	Delete(ctx context.Context, id string) error
}

// TerminatedHook is invoked whenever the pipeline pushes a session
// into a terminal state, so collaborators (notifications, audit) can
// react without the pipeline knowing about them.
type TerminatedHook func(ctx context.Context, sess *domain.Session, reason domain.TerminationReason)

// Pipeline runs the ordered per-request checkers: timeout validity
// first, then the hijack heuristic, then the tracking recorder. The
// order is load-bearing: an already-expired session must never be
// evaluated for hijacking, or stale sessions from roaming clients
// would produce false hijack reports.
type Pipeline struct {
	store         Store
	cache         ActivityCache
	recorder      *Recorder
	policy        SubnetPolicy
	timeout       time.Duration
	warning       time.Duration
	maxViolations int
	onTerminated  TerminatedHook
	logger        *zap.Logger
	metrics       *observability.Metrics

	// now is swappable for deterministic tests.
	now func() time.Time
}

// NewPipeline wires the pipeline from configuration.
func NewPipeline(store Store, cache ActivityCache, cfg config.SessionConfig, logger *zap.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		store:         store,
		cache:         cache,
		recorder:      NewRecorder(store, cache, cfg.Timeout(), logger),
		policy:        SubnetPolicy{TrustedProxies: cfg.TrustedProxies},
		timeout:       cfg.Timeout(),
		warning:       cfg.WarningWindow(),
		maxViolations: cfg.MaxViolations,
		logger:        logger,
		metrics:       metrics,
		now:           time.Now,
	}
}

// OnTerminated registers the terminal-state hook.
func (p *Pipeline) OnTerminated(hook TerminatedHook) {
	p.onTerminated = hook
}

// WithClock overrides the pipeline clock. Test use.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

// Authorize produces the single authoritative verdict for a request
// claiming the given session id. The returned session accompanies an
// Active verdict, except in degraded fallback mode where no durable
// record could be loaded.
func (p *Pipeline) Authorize(ctx context.Context, sessionID string, req Request) (Verdict, *domain.Session) {
	now := p.now()

	sess, err := p.store.GetByID(ctx, sessionID)
	switch {
	case errors.Is(err, ErrNotFound):
		// Stale or garbage-collected session data: plain anonymous.
		return p.record(anonymousVerdict()), nil
	case err != nil:
		return p.record(p.fallbackAuthorize(ctx, sessionID, req, now, err)), nil
	}

	if !sess.Active {
		return p.record(anonymousVerdict()), nil
	}

	// Checker 1: timeout validity.
	if sess.Expired(now) {
		p.terminate(ctx, sess, domain.TerminationExpired)
		return p.record(expiredVerdict()), nil
	}

	// Checker 2: hijack heuristic. Every detection is logged, even
	// the tolerated ones.
	switch p.policy.Evaluate(originAddr(sess), req.IP) {
	case DecisionMatch, DecisionSameSubnet:
		// Tolerated without counting.
	case DecisionProxyDrift:
		sess.ViolationCount++
		p.logger.Warn("session soft security violation",
			zap.String("session_id", sess.ID),
			zap.String("origin_ip", sess.IPAddress),
			zap.String("request_ip", req.IP.String()),
			zap.Int("violation_count", sess.ViolationCount))
		if sess.ViolationCount >= p.maxViolations {
			p.terminate(ctx, sess, domain.TerminationHijack)
			return p.record(terminatedVerdict()), nil
		}
	case DecisionForeign:
		p.logger.Warn("session hijack detected, foreign subnet",
			zap.String("session_id", sess.ID),
			zap.String("origin_ip", sess.IPAddress),
			zap.String("request_ip", req.IP.String()))
		p.terminate(ctx, sess, domain.TerminationHijack)
		return p.record(terminatedVerdict()), nil
	}

	// Checker 3: tracking recorder.
	if err := p.recorder.Record(ctx, sess, req, now); err != nil {
		p.logger.Warn("session tracking update failed",
			zap.String("session_id", sess.ID), zap.Error(err))
	}

	verdict := Verdict{
		State:     StateActive,
		Remaining: sess.Remaining(now),
		Warning:   sess.InWarning(now, p.warning),
	}
	return p.record(verdict), sess
}

// fallbackAuthorize handles the durable store being unavailable: the
// cached last-activity stands in for the stored deadline, judged
// against the idle timeout alone. The hijack checker needs the stored
// origin IP and cannot run here; with no record to update, tracking is
// skipped too. If the cache is also unavailable the request fails
// closed as unauthenticated.
func (p *Pipeline) fallbackAuthorize(ctx context.Context, sessionID string, req Request, now time.Time, storeErr error) Verdict {
	p.logger.Warn("session store unavailable, using activity fallback",
		zap.String("session_id", sessionID), zap.Error(storeErr))

	if p.cache == nil {
		return anonymousVerdict()
	}
	lastActivity, err := p.cache.LastActivity(ctx, sessionID)
	if err != nil {
		p.logger.Warn("session activity fallback unavailable",
			zap.String("session_id", sessionID), zap.Error(err))
		return anonymousVerdict()
	}

	if now.Sub(lastActivity) > p.timeout {
		return expiredVerdict()
	}

	if err := p.cache.Touch(ctx, sessionID, now, now.Add(p.timeout)); err != nil {
		p.logger.Warn("session activity fallback touch failed",
			zap.String("session_id", sessionID), zap.Error(err))
	}
	remaining := p.timeout - now.Sub(lastActivity)
	return Verdict{
		State:     StateActive,
		Remaining: remaining,
		Warning:   remaining <= p.warning,
	}
}

// Terminate pushes a session into a terminal state outside the
// request pipeline (logout, admin revocation).
func (p *Pipeline) Terminate(ctx context.Context, sess *domain.Session, reason domain.TerminationReason) {
	p.terminate(ctx, sess, reason)
}

func (p *Pipeline) terminate(ctx context.Context, sess *domain.Session, reason domain.TerminationReason) {
	sess.Active = false
	sess.TerminatedFor = &reason
	if err := p.store.MarkInactive(ctx, sess.ID, reason); err != nil {
		p.logger.Error("failed to mark session inactive",
			zap.String("session_id", sess.ID),
			zap.String("reason", string(reason)),
			zap.Error(err))
	}
	if p.cache != nil {
		if err := p.cache.Delete(ctx, sess.ID); err != nil {
			p.logger.Warn("failed to drop session activity cache entry",
				zap.String("session_id", sess.ID), zap.Error(err))
		}
	}
	if p.onTerminated != nil {
		p.onTerminated(ctx, sess, reason)
	}
}

func originAddr(sess *domain.Session) netip.Addr {
	addr, err := netip.ParseAddr(sess.IPAddress)
	if err != nil {
		return netip.Addr{}
	}
	return addr
}

func (p *Pipeline) record(v Verdict) Verdict {
	if p.metrics != nil {
		if v.Valid() {
			p.metrics.RecordVerdict("ACTIVE")
		} else {
			p.metrics.RecordVerdict(v.Reason)
		}
	}
	return v
}
