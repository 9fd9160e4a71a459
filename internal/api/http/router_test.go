package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-core/internal/auth"
	"github.com/spec-kit/helpdesk-core/internal/config"
	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/session"
)

type stubUserRepo struct {
	users map[string]*domain.User
}

func (r *stubUserRepo) Create(_ context.Context, _ *domain.User) error { return nil }

func (r *stubUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

func (r *stubUserRepo) GetByEmail(_ context.Context, _ string) (*domain.User, error) {
	return nil, pgx.ErrNoRows
}

type stubSessionStore struct {
	sessions map[string]*domain.Session
}

func (s *stubSessionStore) GetByID(_ context.Context, id string) (*domain.Session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	return sess, nil
}

func (s *stubSessionStore) Upsert(_ context.Context, sess *domain.Session) error {
	copied := *sess
	s.sessions[sess.ID] = &copied
	return nil
}

func (s *stubSessionStore) MarkInactive(_ context.Context, id string, reason domain.TerminationReason) error {
	sess, ok := s.sessions[id]
	if !ok {
		return session.ErrNotFound
	}
	sess.Active = false
	sess.TerminatedFor = &reason
	return nil
}

// stubTicketRepo answers like the postgres repository does for a
// missing row.
type stubTicketRepo struct {
	tickets map[string]*domain.Ticket
}

func (r *stubTicketRepo) Create(_ context.Context, _ *domain.Ticket) error { return nil }

func (r *stubTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	t, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return t, nil
}

func (r *stubTicketRepo) ListByStatuses(_ context.Context, _ []domain.TicketStatus, _ int) ([]domain.Ticket, error) {
	return nil, nil
}

func (r *stubTicketRepo) ListUnassignedOpen(_ context.Context, _ []domain.TicketPriority) ([]domain.Ticket, error) {
	return nil, nil
}

func (r *stubTicketRepo) ListResolvedBefore(_ context.Context, _ time.Time) ([]domain.Ticket, error) {
	return nil, nil
}

func (r *stubTicketRepo) UpdateStatus(_ context.Context, _ string, _ domain.TicketStatus, _ time.Time) error {
	return pgx.ErrNoRows
}

func (r *stubTicketRepo) SetFirstResponse(_ context.Context, _ string, _ time.Time) error {
	return pgx.ErrNoRows
}

func (r *stubTicketRepo) SetResolved(_ context.Context, _ string, _ time.Time) error {
	return pgx.ErrNoRows
}

func (r *stubTicketRepo) Assign(_ context.Context, _ string, _ string, _ time.Time) error {
	return pgx.ErrNoRows
}

func newTicketApp(t *testing.T, tickets *stubTicketRepo) (*fiber.App, string) {
	t.Helper()
	now := time.Now()
	users := &stubUserRepo{users: map[string]*domain.User{
		"user-1": {ID: "user-1", Email: "alex@example.com", Role: domain.RoleUser, Status: domain.UserStatusActive},
	}}
	store := &stubSessionStore{sessions: map[string]*domain.Session{
		"sess-1": {
			ID:             "sess-1",
			UserID:         "user-1",
			IPAddress:      "203.0.113.10",
			Active:         true,
			LoginAt:        now,
			LastActivityAt: now,
			ExpiresAt:      now.Add(time.Hour),
		},
	}}

	tokens := auth.NewTokenManager("test-secret")
	sessCfg := config.SessionConfig{TimeoutMinutes: 120, WarningMinutes: 10, MaxViolations: 3}
	pipeline := session.NewPipeline(store, nil, sessCfg, zap.NewNop(), nil)
	middleware := auth.NewSessionMiddleware(tokens, pipeline, users, zap.NewNop())

	app := fiber.New(fiber.Config{ProxyHeader: "X-Forwarded-For"})
	app.Use(errorHandlingMiddleware(zap.NewNop()))
	ticketsHandler := handlers.NewTicketsHandler(tickets, nil, nil, zap.NewNop())
	group := app.Group("/tickets", middleware.Handle)
	group.Get("/:id", ticketsHandler.Get)

	token, err := tokens.GenerateToken("user-1", domain.RoleUser, "sess-1")
	require.NoError(t, err)
	return app, token
}

func TestGetTicketMissingIDReturnsNotFound(t *testing.T) {
	app, token := newTicketApp(t, &stubTicketRepo{tickets: map[string]*domain.Ticket{}})

	req := httptest.NewRequest(http.MethodGet, "/tickets/no-such-ticket", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Forwarded-For", "203.0.113.10")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "NOT_FOUND", body.Error.Code)
}

func TestGetTicketReturnsOwnTicket(t *testing.T) {
	ticket := &domain.Ticket{
		ID:          "ticket-1",
		RequesterID: "user-1",
		Title:       "printer on fire",
		Status:      domain.TicketStatusOpen,
		Priority:    domain.TicketPriorityHigh,
	}
	app, token := newTicketApp(t, &stubTicketRepo{tickets: map[string]*domain.Ticket{"ticket-1": ticket}})

	req := httptest.NewRequest(http.MethodGet, "/tickets/ticket-1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Forwarded-For", "203.0.113.10")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
