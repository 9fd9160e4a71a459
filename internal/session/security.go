package session

import "net/netip"

// Decision classifies the current request IP against the session's
// recorded origin.
type Decision int

const (
	// DecisionMatch: same address, nothing to record.
	DecisionMatch Decision = iota
	// DecisionSameSubnet: same /24 (or /64 for IPv6); tolerated
	// indefinitely without counting, typical of DHCP churn.
	DecisionSameSubnet
	// DecisionProxyDrift: a different address inside a configured
	// proxy range. Tolerated but counted as a soft violation.
	DecisionProxyDrift
	// DecisionForeign: a different, non-proxy subnet. Immediate hard
	// termination regardless of the accumulated counter.
	DecisionForeign
)

// SubnetPolicy implements the hijack tolerance rules over IP drift.
type SubnetPolicy struct {
	TrustedProxies []netip.Prefix
}

// Evaluate compares the session origin IP with the request IP.
// Unparseable addresses classify as foreign: an origin we cannot
// reason about is not a basis for trust.
func (p SubnetPolicy) Evaluate(origin, current netip.Addr) Decision {
	if !origin.IsValid() || !current.IsValid() {
		return DecisionForeign
	}
	origin = origin.Unmap()
	current = current.Unmap()

	if origin == current {
		return DecisionMatch
	}
	if sameSubnet(origin, current) {
		return DecisionSameSubnet
	}
	for _, prefix := range p.TrustedProxies {
		if prefix.Contains(current) {
			return DecisionProxyDrift
		}
	}
	return DecisionForeign
}

func sameSubnet(a, b netip.Addr) bool {
	if a.Is4() != b.Is4() {
		return false
	}
	bits := 64
	if a.Is4() {
		bits = 24
	}
	pa, err := a.Prefix(bits)
	if err != nil {
		return false
	}
	return pa.Contains(b)
}
