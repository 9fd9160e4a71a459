package domain

import "time"

// TerminationReason records why a session left the active state.
type TerminationReason string

const (
	TerminationLogout  TerminationReason = "LOGOUT"
	TerminationExpired TerminationReason = "EXPIRED"
	TerminationHijack  TerminationReason = "HIJACK"
)

// Session is the durable per-session record, authoritative for
// remaining-time queries and cross-device listing. ViolationCount
// accumulates soft security violations and is never reset; it only
// goes away with the session itself.
type Session struct {
	ID             string
	UserID         string
	IPAddress      string
	UserAgent      string
	Device         string
	LoginAt        time.Time
	LastActivityAt time.Time
	ExpiresAt      time.Time
	ViolationCount int
	Active         bool
	TerminatedFor  *TerminationReason
}

// Expired reports whether the session deadline has passed.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Remaining returns the time left before expiry, never negative.
func (s *Session) Remaining(now time.Time) time.Duration {
	if d := s.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// InWarning reports whether the session is inside the advisory
// warning window preceding expiry.
func (s *Session) InWarning(now time.Time, window time.Duration) bool {
	return !s.Expired(now) && s.ExpiresAt.Sub(now) <= window
}
