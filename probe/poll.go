package probe

import (
	"context"
	"time"

	"github.com/neteye/snmpscope/analyzer"
	"github.com/neteye/snmpscope/snmp"
)

// Poll issues a GET every interval for the given duration. Each
// cycle's wall-clock cost is subtracted from the sleep with a floor of
// zero, so slow agents do not stretch the period. The loop stops
// cleanly when ctx is cancelled. With a sink attached, every
// successful poll inserts one metric row per returned varbind.
func (p *Prober) Poll(ctx context.Context, target string, oids []string, interval, duration time.Duration) (int, error) {
	p.logger.Info("polling démarré",
		"target", target,
		"interval", interval,
		"duration", duration)

	start := time.Now()
	polls := 0

	for time.Since(start) < duration {
		cycleStart := time.Now()

		result := p.Get(ctx, target, oids)
		polls++

		if result.Success {
			p.logger.Info("poll réussi", "poll", polls, "metrics", len(result.Values))
			if p.opts.Sink != nil {
				p.sinkMetrics(result)
			}
		} else {
			p.logger.Warn("poll échoué", "poll", polls, "error", result.Error)
		}

		sleep := interval - time.Since(cycleStart)
		if sleep < 0 {
			sleep = 0
		}

		select {
		case <-ctx.Done():
			p.logger.Info("polling interrompu", "polls", polls)
			return polls, ctx.Err()
		case <-time.After(sleep):
		}
	}

	p.logger.Info("polling terminé", "polls", polls)
	return polls, nil
}

func (p *Prober) sinkMetrics(result *Result) {
	latencyMS := result.ResponseTime.Milliseconds()

	for oid, raw := range result.Values {
		m := analyzer.Metric{
			Timestamp: result.Timestamp,
			SourceIP:  result.Target,
			OID:       oid,
			ValueRaw:  raw,
			LatencyMS: &latencyMS,
		}
		if num, ok := snmp.NumericValue(raw); ok {
			m.ValueNum = &num
		}
		if err := p.opts.Sink.InsertMetric(m); err != nil {
			p.logger.Error("metric insert failed", "oid", oid, "error", err)
		}
	}
}
