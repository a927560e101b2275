package analyzer

import (
	"sync"
	"time"

	"github.com/neteye/snmpscope/snmp"
)

// Stats carries the live counters of the capture pipeline. Counters
// are atomic; the unique endpoint sets are guarded by a mutex because
// they are read by telemetry while the pipeline writes them.
type Stats struct {
	Total        snmp.Counter
	GetRequests  snmp.Counter
	SetRequests  snmp.Counter
	Responses    snmp.Counter
	Traps        snmp.Counter
	Errors       snmp.Counter
	DecodeErrors snmp.Counter

	mu           sync.Mutex
	sources      map[string]struct{}
	destinations map[string]struct{}
	start        time.Time
}

// NewStats creates a zeroed statistics block.
func NewStats() *Stats {
	return &Stats{
		sources:      make(map[string]struct{}),
		destinations: make(map[string]struct{}),
		start:        time.Now(),
	}
}

// Record updates the counters for one decoded packet.
func (s *Stats) Record(pkt *Packet) {
	s.Total.Add(1)

	s.mu.Lock()
	s.sources[pkt.SrcIP] = struct{}{}
	s.destinations[pkt.DstIP] = struct{}{}
	s.mu.Unlock()

	switch pkt.Kind {
	case KindGet, KindGetNext, KindGetBulk:
		s.GetRequests.Add(1)
	case KindSet:
		s.SetRequests.Add(1)
	case KindResponse:
		s.Responses.Add(1)
	case KindTrapV1, KindTrapV2:
		s.Traps.Add(1)
	}

	if pkt.HasErrorStatus && pkt.ErrorStatus != snmp.NoError {
		s.Errors.Add(1)
	}
}

// Snapshot is a point-in-time copy of the statistics.
type Snapshot struct {
	Total        int64
	GetRequests  int64
	SetRequests  int64
	Responses    int64
	Traps        int64
	Errors       int64
	DecodeErrors int64

	UniqueSources      int
	UniqueDestinations int
	Uptime             time.Duration
}

// Snapshot returns a copy of the current statistics.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	nSrc := len(s.sources)
	nDst := len(s.destinations)
	s.mu.Unlock()

	return Snapshot{
		Total:              s.Total.Value(),
		GetRequests:        s.GetRequests.Value(),
		SetRequests:        s.SetRequests.Value(),
		Responses:          s.Responses.Value(),
		Traps:              s.Traps.Value(),
		Errors:             s.Errors.Value(),
		DecodeErrors:       s.DecodeErrors.Value(),
		UniqueSources:      nSrc,
		UniqueDestinations: nDst,
		Uptime:             time.Since(s.start),
	}
}

// Rate returns the observed packet rate in packets per second.
func (s Snapshot) Rate() float64 {
	secs := s.Uptime.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(s.Total) / secs
}
