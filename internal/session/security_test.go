package session

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubnetPolicyExactMatch(t *testing.T) {
	policy := SubnetPolicy{}
	addr := netip.MustParseAddr("203.0.113.10")

	assert.Equal(t, DecisionMatch, policy.Evaluate(addr, addr))
}

func TestSubnetPolicySameSlash24(t *testing.T) {
	policy := SubnetPolicy{}

	origin := netip.MustParseAddr("203.0.113.10")
	current := netip.MustParseAddr("203.0.113.250")
	assert.Equal(t, DecisionSameSubnet, policy.Evaluate(origin, current))
}

func TestSubnetPolicySameIPv6Slash64(t *testing.T) {
	policy := SubnetPolicy{}

	origin := netip.MustParseAddr("2001:db8:1:2::1")
	current := netip.MustParseAddr("2001:db8:1:2::ffff")
	assert.Equal(t, DecisionSameSubnet, policy.Evaluate(origin, current))

	foreign := netip.MustParseAddr("2001:db8:1:3::1")
	assert.Equal(t, DecisionForeign, policy.Evaluate(origin, foreign))
}

func TestSubnetPolicyProxyDrift(t *testing.T) {
	policy := SubnetPolicy{
		TrustedProxies: []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")},
	}

	origin := netip.MustParseAddr("203.0.113.10")
	current := netip.MustParseAddr("10.1.2.3")
	assert.Equal(t, DecisionProxyDrift, policy.Evaluate(origin, current))
}

func TestSubnetPolicyForeignSubnet(t *testing.T) {
	policy := SubnetPolicy{
		TrustedProxies: []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")},
	}

	origin := netip.MustParseAddr("203.0.113.10")
	current := netip.MustParseAddr("198.51.100.7")
	assert.Equal(t, DecisionForeign, policy.Evaluate(origin, current))
}

func TestSubnetPolicyInvalidAddresses(t *testing.T) {
	policy := SubnetPolicy{}
	valid := netip.MustParseAddr("203.0.113.10")

	assert.Equal(t, DecisionForeign, policy.Evaluate(netip.Addr{}, valid))
	assert.Equal(t, DecisionForeign, policy.Evaluate(valid, netip.Addr{}))
}

func TestSubnetPolicyUnmapsV4InV6(t *testing.T) {
	policy := SubnetPolicy{}

	origin := netip.MustParseAddr("::ffff:203.0.113.10")
	current := netip.MustParseAddr("203.0.113.10")
	assert.Equal(t, DecisionMatch, policy.Evaluate(origin, current))
}

func TestSubnetPolicyMixedFamilies(t *testing.T) {
	policy := SubnetPolicy{}

	origin := netip.MustParseAddr("203.0.113.10")
	current := netip.MustParseAddr("2001:db8::1")
	assert.Equal(t, DecisionForeign, policy.Evaluate(origin, current))
}
