package auth

import (
	"net/netip"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/domain"
	"github.com/spec-kit/helpdesk-core/internal/repository"
	"github.com/spec-kit/helpdesk-core/internal/session"
	apperrors "github.com/spec-kit/helpdesk-core/pkg/util"
)

const (
	principalKey = "auth_principal"
	sessionKey   = "auth_session"
	verdictKey   = "auth_verdict"

	// Requests carrying this header update last-activity without
	// extending the session deadline (pure polling traffic).
	pollingHeader = "X-Session-Poll"
)

// Principal represents the authenticated caller.
type Principal struct {
	UserID string
	Role   domain.UserRole
	User   *domain.User
}

// SessionMiddleware validates bearer tokens, runs the session verdict
// pipeline, and loads the principal for valid requests. Terminal
// verdicts become structured 401 responses carrying the machine
// readable reason code.
type SessionMiddleware struct {
	tokens   *TokenManager
	pipeline *session.Pipeline
	users    repository.UserRepository
	logger   *zap.Logger
}

// NewSessionMiddleware constructs middleware.
func NewSessionMiddleware(tokens *TokenManager, pipeline *session.Pipeline, users repository.UserRepository, logger *zap.Logger) *SessionMiddleware {
	return &SessionMiddleware{tokens: tokens, pipeline: pipeline, users: users, logger: logger}
}

// Handle enforces authentication for protected routes.
func (m *SessionMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	// An address that does not parse is no basis for a hijack verdict.
	// Reject the request without touching the session.
	addr, err := netip.ParseAddr(c.IP())
	if err != nil {
		return apperrors.NewUnauthorized("client address unavailable")
	}

	req := session.Request{
		IP:        addr,
		UserAgent: c.Get("User-Agent"),
		Polling:   c.Get(pollingHeader) != "",
	}

	verdict, sess := m.pipeline.Authorize(c.UserContext(), claims.SessionID, req)
	if !verdict.Valid() {
		return apperrors.NewSessionInvalid(verdict.Reason, "session no longer valid")
	}

	principal := &Principal{UserID: claims.SubjectID, Role: claims.Role}
	user, err := m.users.GetByID(c.UserContext(), claims.SubjectID)
	if err != nil {
		return apperrors.NewUnauthorized("user not found")
	}
	if user.Status != domain.UserStatusActive {
		return apperrors.NewForbidden("account suspended")
	}
	principal.User = user
	principal.Role = user.Role

	// Surface the advisory warning window to interactive clients.
	if verdict.Warning {
		c.Set("X-Session-Warning", "true")
	}
	c.Set("X-Session-Expires-In", strconv.FormatInt(int64(verdict.Remaining.Seconds()), 10))

	c.Locals(principalKey, principal)
	c.Locals(sessionKey, sess)
	c.Locals(verdictKey, verdict)
	return c.Next()
}

// RequireRole ensures the principal holds one of the allowed roles.
func RequireRole(allowed ...domain.UserRole) fiber.Handler {
	allowedSet := make(map[domain.UserRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// SessionFromContext retrieves the request's session record.
func SessionFromContext(c *fiber.Ctx) (*domain.Session, bool) {
	val := c.Locals(sessionKey)
	if val == nil {
		return nil, false
	}
	sess, ok := val.(*domain.Session)
	return sess, ok
}

// VerdictFromContext retrieves the request's session verdict.
func VerdictFromContext(c *fiber.Ctx) (session.Verdict, bool) {
	val := c.Locals(verdictKey)
	if val == nil {
		return session.Verdict{}, false
	}
	verdict, ok := val.(session.Verdict)
	return verdict, ok
}
