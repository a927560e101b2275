package probe

import (
	"context"
	"time"

	"github.com/neteye/snmpscope/snmp"
)

// GetBulk issues a single SNMPv2c GETBULK request and collects every
// returned varbind.
func (p *Prober) GetBulk(ctx context.Context, target string, oids []string, nonRepeaters, maxRepetitions int) *Result {
	result := &Result{
		Timestamp: time.Now(),
		Target:    target,
		Type:      "GETBULK",
		Community: p.opts.Community,
		OIDs:      append([]string(nil), oids...),
		Values:    make(map[string]string),
	}

	if maxRepetitions <= 0 {
		maxRepetitions = snmp.DefaultMaxRepetitions
	}

	parsed, err := parseOIDs(oids)
	if err != nil {
		result.Error = err.Error()
		p.stats.Errors.Add(1)
		return p.record(result)
	}

	conn, err := p.dial(p.agentAddr(target))
	if err != nil {
		result.Error = err.Error()
		p.stats.Errors.Add(1)
		return p.record(result)
	}
	defer conn.Close()

	requestID := p.nextRequestID()
	data, err := p.encodeRequest(snmp.NewGetBulkRequest(requestID, nonRepeaters, maxRepetitions, parsed...))
	if err != nil {
		result.Error = err.Error()
		p.stats.Errors.Add(1)
		return p.record(result)
	}

	start := time.Now()
	pdu, err := p.exchange(conn, data, requestID, parsed)
	result.ResponseTime = time.Since(start)
	if err != nil {
		switch {
		case snmp.IsTimeout(err):
			result.Error = errTimeout
			p.stats.Timeouts.Add(1)
			return p.record(result)
		default:
			result.Error = err.Error()
			p.stats.Errors.Add(1)
			if _, ok := snmp.IsSNMPError(err); !ok {
				return p.record(result)
			}
			// Error-status replies still carry collectable varbinds.
		}
	}

	result.Success = true
	p.stats.Latency.ObserveDuration(result.ResponseTime)
	p.fillValues(result, pdu.Variables)

	p.logger.Info("GETBULK réussi",
		"target", target,
		"values", len(result.Values),
		"response_ms", result.ResponseTimeMS())
	return p.record(result)
}
