package analyzer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/neteye/snmpscope/snmp"
)

const (
	// pendingMaxAge is how long a request waits for its response.
	pendingMaxAge = 30 * time.Second
	// cleanupInterval is the period of the background expiry sweep.
	cleanupInterval = 60 * time.Second
)

// pairKey identifies a pending request by its ordered endpoint pair.
// Requests insert (src, dst); responses look up (dst, src), so
// bidirectional agents never correlate unrelated traffic.
type pairKey struct {
	requester string
	responder string
}

// Correlator matches responses to their requests and computes the
// round-trip latency. State is shared between the pipeline and the
// cleanup task and guarded by a mutex; the depth gauge mirrors the
// table size so telemetry reads it without taking the lock.
type Correlator struct {
	mu      sync.Mutex
	pending map[pairKey]time.Time
	depth   snmp.Gauge

	maxAge time.Duration
	logger *slog.Logger
}

// NewCorrelator creates a correlator with the default 30 s pending age.
func NewCorrelator(logger *slog.Logger) *Correlator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Correlator{
		pending: make(map[pairKey]time.Time),
		maxAge:  pendingMaxAge,
		logger:  logger,
	}
}

// Observe updates the pending table with one decoded packet. For a
// response with a matching request, it sets the packet's ResponseTime
// and consumes the entry. A response observed before its request (or
// after expiry) yields no latency.
func (c *Correlator) Observe(pkt *Packet) {
	switch {
	case pkt.Kind.IsRequest():
		c.mu.Lock()
		c.pending[pairKey{pkt.SrcIP, pkt.DstIP}] = pkt.Timestamp
		c.depth.Set(int64(len(c.pending)))
		c.mu.Unlock()

	case pkt.Kind == KindResponse:
		key := pairKey{pkt.DstIP, pkt.SrcIP}
		c.mu.Lock()
		reqTime, ok := c.pending[key]
		if ok {
			delete(c.pending, key)
			c.depth.Set(int64(len(c.pending)))
		}
		c.mu.Unlock()

		if ok {
			latency := pkt.Timestamp.Sub(reqTime)
			if latency >= 0 {
				pkt.ResponseTime = latency
				pkt.Correlated = true
			}
		}
	}
}

// Run sweeps expired entries every minute until ctx is cancelled.
func (c *Correlator) Run(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := c.expire(now); n > 0 {
				c.logger.Debug("expired pending requests", "count", n)
			}
		}
	}
}

// expire removes entries older than maxAge and returns how many.
func (c *Correlator) expire(now time.Time) int {
	cutoff := now.Add(-c.maxAge)

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, ts := range c.pending {
		if ts.Before(cutoff) {
			delete(c.pending, key)
			removed++
		}
	}
	c.depth.Set(int64(len(c.pending)))
	return removed
}

// PendingCount returns the number of unanswered requests.
func (c *Correlator) PendingCount() int {
	return int(c.depth.Value())
}
