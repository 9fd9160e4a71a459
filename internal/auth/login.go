package auth

import (
	"context"
	"errors"
	"net/http"
	"net/netip"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/cache"
	"github.com/spec-kit/helpdesk-core/internal/config"
	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	"github.com/spec-kit/helpdesk-core/internal/session"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

// LoginService coordinates the Authenticating transition: credential,
// account-status and lockout checks, then session creation.
type LoginService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	activity session.ActivityCache
	attempts *cache.LoginAttempts
	tokens   *TokenManager
	timeout  time.Duration
	logger   *zap.Logger

	now func() time.Time
}

// LoginDependencies bundles collaborator requirements.
type LoginDependencies struct {
	UserRepo    repository.UserRepository
	SessionRepo repository.SessionRepository
	Activity    session.ActivityCache
	Attempts    *cache.LoginAttempts
}

// NewLoginService builds the service.
func NewLoginService(cfg config.Config, deps LoginDependencies, logger *zap.Logger) *LoginService {
	return &LoginService{
		users:    deps.UserRepo,
		sessions: deps.SessionRepo,
		activity: deps.Activity,
		attempts: deps.Attempts,
		tokens:   NewTokenManager(cfg.Auth.JWTSecret),
		timeout:  cfg.Session.Timeout(),
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the service clock. Test use.
func (s *LoginService) WithClock(now func() time.Time) *LoginService {
	s.now = now
	return s
}

// Login authenticates the principal and, on success, creates the
// session record plus its activity cache entry and issues a token
// naming the session. Failures report remaining attempts; once the
// threshold is hit the account is locked for the configured window.
func (s *LoginService) Login(ctx context.Context, email, password string, ip netip.Addr, userAgent string) (*domain.Session, string, error) {
	if s.attempts != nil {
		locked, retryAfter, err := s.attempts.Locked(ctx, email)
		if err != nil {
			s.logger.Warn("lockout check unavailable", zap.Error(err))
		} else if locked {
			return nil, "", apperrors.NewLocked(int64(retryAfter.Seconds()))
		}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", s.failAttempt(ctx, email)
	}
	if user.Status != domain.UserStatusActive {
		return nil, "", apperrors.NewForbidden("account suspended")
	}
	if err := ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", s.failAttempt(ctx, email)
	}

	if s.attempts != nil {
		if err := s.attempts.Reset(ctx, email); err != nil {
			s.logger.Warn("failed to reset login attempts", zap.Error(err))
		}
	}

	now := s.now()
	sess := &domain.Session{
		ID:             uuid.NewString(),
		UserID:         user.ID,
		IPAddress:      ip.String(),
		UserAgent:      userAgent,
		Device:         session.ClassifyDevice(userAgent),
		LoginAt:        now,
		LastActivityAt: now,
		ExpiresAt:      now.Add(s.timeout),
		ViolationCount: 0,
		Active:         true,
	}
	if err := s.sessions.Upsert(ctx, sess); err != nil {
		return nil, "", apperrors.MapError(err)
	}
	if s.activity != nil {
		if err := s.activity.Touch(ctx, sess.ID, sess.LastActivityAt, sess.ExpiresAt); err != nil {
			s.logger.Warn("failed to seed session activity cache",
				zap.String("session_id", sess.ID), zap.Error(err))
		}
	}

	token, err := s.tokens.GenerateToken(user.ID, user.Role, sess.ID)
	if err != nil {
		return nil, "", apperrors.MapError(err)
	}
	return sess, token, nil
}

// Logout marks the session inactive and drops its cache entry. A
// later request with the stale token is treated as anonymous.
func (s *LoginService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.MarkInactive(ctx, sessionID, domain.TerminationLogout); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return apperrors.NewNotFound("session", map[string]any{"session_id": sessionID})
		}
		return apperrors.MapError(err)
	}
	if s.activity != nil {
		if err := s.activity.Delete(ctx, sessionID); err != nil {
			s.logger.Warn("failed to drop session activity cache entry",
				zap.String("session_id", sessionID), zap.Error(err))
		}
	}
	return nil
}

// RevokeOther lets a principal end one of their other sessions.
func (s *LoginService) RevokeOther(ctx context.Context, userID, sessionID string) error {
	target, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return apperrors.NewNotFound("session", map[string]any{"session_id": sessionID})
	}
	if target.UserID != userID {
		return apperrors.NewForbidden("session belongs to another user")
	}
	return s.Logout(ctx, sessionID)
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *LoginService) TokenManager() *TokenManager {
	return s.tokens
}

func (s *LoginService) failAttempt(ctx context.Context, email string) error {
	remaining := 0
	if s.attempts != nil {
		r, err := s.attempts.Fail(ctx, email)
		if err != nil {
			s.logger.Warn("failed to record login attempt", zap.Error(err))
		} else {
			remaining = r
		}
	}
	return apperrors.NewDomainError("INVALID_CREDENTIALS", "invalid credentials", http.StatusUnauthorized, map[string]any{
		"remaining_attempts": remaining,
	})
}
