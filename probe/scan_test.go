package probe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostsInCIDR(t *testing.T) {
	hosts, err := hostsInCIDR("192.0.2.0/29")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"192.0.2.1", "192.0.2.2", "192.0.2.3",
		"192.0.2.4", "192.0.2.5", "192.0.2.6",
	}, hosts)
}

func TestHostsInCIDRPointToPoint(t *testing.T) {
	hosts, err := hostsInCIDR("192.0.2.0/31")
	require.NoError(t, err)
	assert.Equal(t, []string{"192.0.2.0", "192.0.2.1"}, hosts)

	hosts, err = hostsInCIDR("192.0.2.7/32")
	require.NoError(t, err)
	assert.Equal(t, []string{"192.0.2.7"}, hosts)
}

func TestHostsInCIDRNormalizesHostBits(t *testing.T) {
	hosts, err := hostsInCIDR("192.0.2.9/29")
	require.NoError(t, err)
	assert.Equal(t, "192.0.2.9", hosts[0])
	assert.Len(t, hosts, 6)
}

func TestHostsInCIDRRejectsGarbage(t *testing.T) {
	_, err := hostsInCIDR("not-a-network")
	assert.Error(t, err)

	_, err = hostsInCIDR("2001:db8::/64")
	assert.Error(t, err)
}

func TestSortByOctets(t *testing.T) {
	ips := []string{"192.0.2.10", "192.0.2.2", "192.0.2.1"}
	sortByOctets(ips)
	// octet order, not string order: .2 sorts before .10
	assert.Equal(t, []string{"192.0.2.1", "192.0.2.2", "192.0.2.10"}, ips)
}
