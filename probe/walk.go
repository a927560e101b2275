package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/neteye/snmpscope/snmp"
)

// walkPause keeps iterative GETNEXT requests from flooding the agent.
const walkPause = 10 * time.Millisecond

// WalkNext enumerates a subtree with iterative GETNEXT requests,
// advancing the cursor to each returned OID. It stops after
// maxRepetitions iterations, on a missed reply, or when the returned
// OID leaves the subtree of startOID.
func (p *Prober) WalkNext(ctx context.Context, target, startOID string, maxRepetitions int) *Result {
	result := &Result{
		Timestamp: time.Now(),
		Target:    target,
		Type:      "GETNEXT",
		Community: p.opts.Community,
		OIDs:      []string{startOID},
		Values:    make(map[string]string),
	}

	if maxRepetitions <= 0 {
		maxRepetitions = snmp.DefaultMaxRepetitions
	}

	root, err := snmp.ParseOID(ResolveOID(startOID))
	if err != nil {
		result.Error = fmt.Sprintf("invalid OID '%s': %v", startOID, err)
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

	current := root.Copy()
	start := time.Now()
	total := 0

	for i := 0; i < maxRepetitions; i++ {
		select {
		case <-ctx.Done():
			result.Error = ctx.Err().Error()
			result.ResponseTime = time.Since(start)
			result.Success = total > 0
			return p.record(result)
		default:
		}

		requestID := p.nextRequestID()
		data, err := p.encodeRequest(snmp.NewGetNextRequest(requestID, current))
		if err != nil {
			result.Error = err.Error()
			p.stats.Errors.Add(1)
			break
		}

		pdu, err := p.exchange(conn, data, requestID, []snmp.OID{current})
		if err != nil {
			// A status reply (noSuchName on v1 agents) ends the walk
			// without being a transport failure.
			if _, ok := snmp.IsSNMPError(err); ok {
				break
			}
			if snmp.IsTimeout(err) {
				p.stats.Timeouts.Add(1)
			} else {
				result.Error = err.Error()
				p.stats.Errors.Add(1)
			}
			break
		}

		if len(pdu.Variables) == 0 {
			break
		}
		vb := &pdu.Variables[0]

		// End-of-subtree markers and escapes both terminate the walk.
		if vb.Type == snmp.TypeEndOfMibView || !vb.OID.HasPrefix(root) {
			break
		}

		result.Values[vb.OID.String()] = vb.Render()
		current = vb.OID
		total++

		select {
		case <-ctx.Done():
		case <-time.After(walkPause):
		}
	}

	result.ResponseTime = time.Since(start)
	result.Success = total > 0
	p.logger.Info("GETNEXT terminé",
		"target", target,
		"oids", total,
		"response_ms", result.ResponseTimeMS())
	return p.record(result)
}
