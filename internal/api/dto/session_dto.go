package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// SessionResponse is one entry in the cross-device session listing.
type SessionResponse struct {
	ID             string    `json:"id"`
	Device         string    `json:"device"`
	IPAddress      string    `json:"ip_address"`
	LoginAt        time.Time `json:"login_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	Current        bool      `json:"current"`
}

// FromSession maps a domain session for listing.
func FromSession(s domain.Session, currentID string) SessionResponse {
	return SessionResponse{
		ID:             s.ID,
		Device:         s.Device,
		IPAddress:      s.IPAddress,
		LoginAt:        s.LoginAt,
		LastActivityAt: s.LastActivityAt,
		ExpiresAt:      s.ExpiresAt,
		Current:        s.ID == currentID,
	}
}

// RemainingResponse answers the remaining-time query.
type RemainingResponse struct {
	RemainingSeconds int64 `json:"remaining_seconds"`
	Warning          bool  `json:"warning"`
}
