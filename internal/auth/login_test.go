package auth

import (
	"context"
	"errors"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/config"
	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/session"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

type fakeUserRepo struct {
	byEmail map[string]*domain.User
}

func (r *fakeUserRepo) Create(_ context.Context, _ *domain.User) error { return nil }

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	for _, u := range r.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, errors.New("user not found")
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return nil, errors.New("user not found")
	}
	return u, nil
}

type fakeSessionRepo struct {
	sessions map[string]*domain.Session
	marked   map[string]domain.TerminationReason
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{
		sessions: make(map[string]*domain.Session),
		marked:   make(map[string]domain.TerminationReason),
	}
}

func (r *fakeSessionRepo) GetByID(_ context.Context, id string) (*domain.Session, error) {
	sess, ok := r.sessions[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	return sess, nil
}

func (r *fakeSessionRepo) Upsert(_ context.Context, sess *domain.Session) error {
	copied := *sess
	r.sessions[sess.ID] = &copied
	return nil
}

func (r *fakeSessionRepo) MarkInactive(_ context.Context, id string, reason domain.TerminationReason) error {
	sess, ok := r.sessions[id]
	if !ok {
		return session.ErrNotFound
	}
	sess.Active = false
	r.marked[id] = reason
	return nil
}

func (r *fakeSessionRepo) ListActiveByUser(_ context.Context, userID string) ([]domain.Session, error) {
	var out []domain.Session
	for _, s := range r.sessions {
		if s.UserID == userID && s.Active {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) DeleteInactiveBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func testLoginService(t *testing.T, users *fakeUserRepo, sessions *fakeSessionRepo) *LoginService {
	t.Helper()
	cfg := config.Config{
		Auth:    config.AuthConfig{JWTSecret: "test-secret"},
		Session: config.SessionConfig{TimeoutMinutes: 120},
	}
	return NewLoginService(cfg, LoginDependencies{
		UserRepo:    users,
		SessionRepo: sessions,
	}, zap.NewNop())
}

func seedUser(t *testing.T, password string) *fakeUserRepo {
	t.Helper()
	hash, err := HashPassword(password, 4)
	require.NoError(t, err)
	return &fakeUserRepo{byEmail: map[string]*domain.User{
		"alex@example.com": {
			ID:           "user-1",
			Email:        "alex@example.com",
			PasswordHash: hash,
			Role:         domain.RoleUser,
			Status:       domain.UserStatusActive,
		},
	}}
}

func TestLoginCreatesSessionAndToken(t *testing.T) {
	now := time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)
	users := seedUser(t, "hunter2hunter2")
	sessions := newFakeSessionRepo()
	svc := testLoginService(t, users, sessions).WithClock(func() time.Time { return now })

	sess, token, err := svc.Login(context.Background(), "alex@example.com", "hunter2hunter2",
		netip.MustParseAddr("203.0.113.10"), "Mozilla/5.0 Chrome/120.0")
	require.NoError(t, err)
	require.NotNil(t, sess)
	require.NotEmpty(t, token)

	assert.Equal(t, "user-1", sess.UserID)
	assert.Equal(t, "203.0.113.10", sess.IPAddress)
	assert.Equal(t, now.Add(2*time.Hour), sess.ExpiresAt)
	assert.Equal(t, "Desktop Chrome", sess.Device)
	assert.True(t, sess.Active)

	// The token names the freshly created session.
	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, claims.SessionID)

	_, ok := sessions.sessions[sess.ID]
	assert.True(t, ok, "session record persisted")
}

func TestLoginRejectsBadPassword(t *testing.T) {
	users := seedUser(t, "correct-password")
	svc := testLoginService(t, users, newFakeSessionRepo())

	_, _, err := svc.Login(context.Background(), "alex@example.com", "wrong",
		netip.MustParseAddr("203.0.113.10"), "")
	require.Error(t, err)

	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, "INVALID_CREDENTIALS", domainErr.Code)
	assert.Equal(t, 401, domainErr.HTTPStatus)
}

func TestLoginRejectsUnknownEmail(t *testing.T) {
	users := seedUser(t, "correct-password")
	svc := testLoginService(t, users, newFakeSessionRepo())

	_, _, err := svc.Login(context.Background(), "nobody@example.com", "whatever",
		netip.MustParseAddr("203.0.113.10"), "")
	require.Error(t, err)

	// Unknown account and wrong password are indistinguishable.
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, "INVALID_CREDENTIALS", domainErr.Code)
}

func TestLoginRejectsSuspendedAccount(t *testing.T) {
	users := seedUser(t, "correct-password")
	users.byEmail["alex@example.com"].Status = domain.UserStatusSuspended
	svc := testLoginService(t, users, newFakeSessionRepo())

	_, _, err := svc.Login(context.Background(), "alex@example.com", "correct-password",
		netip.MustParseAddr("203.0.113.10"), "")
	require.Error(t, err)
	assert.Equal(t, 403, apperrors.ToDomainError(err).HTTPStatus)
}

func TestLogoutMarksSessionInactive(t *testing.T) {
	users := seedUser(t, "correct-password")
	sessions := newFakeSessionRepo()
	svc := testLoginService(t, users, sessions)

	sess, _, err := svc.Login(context.Background(), "alex@example.com", "correct-password",
		netip.MustParseAddr("203.0.113.10"), "")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), sess.ID))
	assert.Equal(t, domain.TerminationLogout, sessions.marked[sess.ID])
}

func TestLogoutUnknownSessionReturnsNotFound(t *testing.T) {
	users := seedUser(t, "correct-password")
	svc := testLoginService(t, users, newFakeSessionRepo())

	err := svc.Logout(context.Background(), "already-gone")
	require.Error(t, err)

	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
	assert.Equal(t, 404, domainErr.HTTPStatus)
}

func TestRevokeOtherEnforcesOwnership(t *testing.T) {
	users := seedUser(t, "correct-password")
	sessions := newFakeSessionRepo()
	sessions.sessions["foreign"] = &domain.Session{ID: "foreign", UserID: "someone-else", Active: true}
	svc := testLoginService(t, users, sessions)

	err := svc.RevokeOther(context.Background(), "user-1", "foreign")
	require.Error(t, err)
	assert.Equal(t, 403, apperrors.ToDomainError(err).HTTPStatus)

	sessions.sessions["mine"] = &domain.Session{ID: "mine", UserID: "user-1", Active: true}
	require.NoError(t, svc.RevokeOther(context.Background(), "user-1", "mine"))
	assert.Equal(t, domain.TerminationLogout, sessions.marked["mine"])
}
