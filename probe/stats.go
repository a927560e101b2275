package probe

import (
	"github.com/neteye/snmpscope/snmp"
)

// Stats counts probe activity across operations.
type Stats struct {
	Sent     snmp.Counter
	Received snmp.Counter
	Timeouts snmp.Counter
	Errors   snmp.Counter

	Latency *snmp.LatencyHistogram
}

// NewStats creates a zeroed statistics block.
func NewStats() *Stats {
	return &Stats{
		Latency: snmp.NewLatencyHistogram(),
	}
}

// StatsSnapshot is a point-in-time copy of probe statistics.
type StatsSnapshot struct {
	Sent     int64
	Received int64
	Timeouts int64
	Errors   int64
	Latency  snmp.LatencyStats
}

// Snapshot returns a copy of the current statistics.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Sent:     s.Sent.Value(),
		Received: s.Received.Value(),
		Timeouts: s.Timeouts.Value(),
		Errors:   s.Errors.Value(),
		Latency:  s.Latency.Stats(),
	}
}
