package session

import (
	"errors"
	"net/netip"
	"time"

	"github.com/spec-kit/helpdesk-core/pkg/util"
)

// ErrNotFound is returned by session stores when no record exists for
// the id. Any other store error is treated as the store being
// unavailable, which triggers the fallback activity check.
var ErrNotFound = errors.New("session not found")

// State is the authoritative lifecycle state produced for a request.
type State string

const (
	StateAnonymous  State = "ANONYMOUS"
	StateActive     State = "ACTIVE"
	StateExpired    State = "EXPIRED"
	StateTerminated State = "TERMINATED"
)

// Verdict is the single outcome the ordered checker pipeline agrees
// on for one request. Warning is advisory only: the session remains
// active but its expiry is inside the warning window.
type Verdict struct {
	State     State
	Reason    string
	Warning   bool
	Remaining time.Duration
}

// Valid reports whether the request may proceed as authenticated.
func (v Verdict) Valid() bool {
	return v.State == StateActive
}

func anonymousVerdict() Verdict {
	return Verdict{State: StateAnonymous, Reason: util.CodeUnauthenticated}
}

func expiredVerdict() Verdict {
	return Verdict{State: StateExpired, Reason: util.CodeSessionExpired}
}

func terminatedVerdict() Verdict {
	return Verdict{State: StateTerminated, Reason: util.CodeSessionHijacked}
}

// Request carries the per-request facts the checkers evaluate.
// Polling requests update last-activity but never extend expiry.
type Request struct {
	IP        netip.Addr
	UserAgent string
	Polling   bool
}
