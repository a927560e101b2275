package analyzer

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Severity classifies an anomaly.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarn     Severity = "warn"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

func severityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityError:
		return 2
	case SeverityWarn:
		return 1
	default:
		return 0
	}
}

// Anomaly is one behavioral finding about observed traffic.
type Anomaly struct {
	Timestamp   time.Time
	SourceIP    string
	Description string
	Severity    Severity
	Type        string
}

// DefaultFloodThreshold is the per-source per-minute message count
// above which the flood rule fires.
const DefaultFloodThreshold = 100

// defaultCommunities are community strings too weak to go unreported.
var defaultCommunities = map[string]bool{
	"public":    true,
	"private":   true,
	"community": true,
}

var localSources = map[string]bool{
	"127.0.0.1": true,
	"::1":       true,
}

// rule is one detection entry: a predicate over the packet plus the
// stored classification. Rules are evaluated in order and fire
// independently; new rules slot into the list without touching the
// pipeline.
type rule struct {
	anomalyType string
	severity    Severity
	match       func(d *Detector, pkt *Packet) (string, bool)
}

// Detector applies the rule list to each decoded packet. Message
// counting uses a tumbling one-minute window per source IP; all
// counters reset together when the window ages out.
type Detector struct {
	mu          sync.Mutex
	counts      map[string]int
	floodFired  map[string]bool
	windowStart time.Time

	threshold int
	rules     []rule
}

// NewDetector creates a detector with the given flood threshold.
func NewDetector(floodThreshold int) *Detector {
	if floodThreshold <= 0 {
		floodThreshold = DefaultFloodThreshold
	}
	d := &Detector{
		counts:     make(map[string]int),
		floodFired: make(map[string]bool),
		threshold:  floodThreshold,
	}
	d.rules = []rule{
		{
			anomalyType: "flood",
			severity:    SeverityWarn,
			match: func(d *Detector, pkt *Packet) (string, bool) {
				if d.counts[pkt.SrcIP] <= d.threshold || d.floodFired[pkt.SrcIP] {
					return "", false
				}
				d.floodFired[pkt.SrcIP] = true
				return fmt.Sprintf("Flood potentiel depuis %s", pkt.SrcIP), true
			},
		},
		{
			anomalyType: "weak_community",
			severity:    SeverityInfo,
			match: func(d *Detector, pkt *Packet) (string, bool) {
				if !defaultCommunities[strings.ToLower(pkt.CommunityOrUser)] {
					return "", false
				}
				return "Community string par défaut détectée", true
			},
		},
		{
			anomalyType: "external_trap",
			severity:    SeverityWarn,
			match: func(d *Detector, pkt *Packet) (string, bool) {
				if !pkt.Kind.IsTrap() || localSources[pkt.SrcIP] {
					return "", false
				}
				return "Trap depuis source externe", true
			},
		},
	}
	return d
}

// Analyze runs the rule list over one packet. Firing rules combine
// into a single anomaly whose description is pipe-joined; the type and
// severity come from the most severe firing rule. Returns nil when
// nothing fires.
func (d *Detector) Analyze(pkt *Packet) *Anomaly {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.rollWindow(pkt.Timestamp)
	d.counts[pkt.SrcIP]++

	var (
		descriptions []string
		top          *rule
	)
	for i := range d.rules {
		r := &d.rules[i]
		desc, ok := r.match(d, pkt)
		if !ok {
			continue
		}
		descriptions = append(descriptions, desc)
		if top == nil || severityRank(r.severity) > severityRank(top.severity) {
			top = r
		}
	}

	if top == nil {
		return nil
	}
	return &Anomaly{
		Timestamp:   pkt.Timestamp,
		SourceIP:    pkt.SrcIP,
		Description: strings.Join(descriptions, " | "),
		Severity:    top.severity,
		Type:        top.anomalyType,
	}
}

// rollWindow resets all counters when the current minute window ends.
func (d *Detector) rollWindow(now time.Time) {
	if d.windowStart.IsZero() {
		d.windowStart = now
		return
	}
	if now.Sub(d.windowStart) > time.Minute {
		d.counts = make(map[string]int)
		d.floodFired = make(map[string]bool)
		d.windowStart = now
	}
}
