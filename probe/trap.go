package probe

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/neteye/snmpscope/snmp"
)

// DefaultEnterpriseOID is the trap OID used when none is given
// (netSnmpExampleHeartbeatNotification).
const DefaultEnterpriseOID = "1.3.6.1.4.1.8072.2.3.0.1"

// SendTrap emits an SNMPv2c trap to the target's notification port.
// Fire and forget: success means the datagram was sent.
func (p *Prober) SendTrap(ctx context.Context, target, enterpriseOID string, varbinds map[string]string) *Result {
	result := &Result{
		Timestamp: time.Now(),
		Target:    target,
		Type:      "TRAP",
		Community: p.opts.Community,
		Values:    make(map[string]string),
	}

	if enterpriseOID == "" {
		enterpriseOID = DefaultEnterpriseOID
	}
	trapOID, err := snmp.ParseOID(ResolveOID(enterpriseOID))
	if err != nil {
		result.Error = fmt.Sprintf("invalid enterprise OID '%s': %v", enterpriseOID, err)
		p.stats.Errors.Add(1)
		return p.record(result)
	}

	variables := make([]snmp.Variable, 0, len(varbinds))
	for rawOID, value := range varbinds {
		oid, err := snmp.ParseOID(ResolveOID(rawOID))
		if err != nil {
			result.Error = fmt.Sprintf("invalid OID '%s': %v", rawOID, err)
			p.stats.Errors.Add(1)
			return p.record(result)
		}
		variables = append(variables, snmp.Variable{
			OID:   oid,
			Type:  snmp.TypeOctetString,
			Value: value,
		})
		result.Values[oid.String()] = value
	}

	upTime := uint32(time.Since(p.start).Milliseconds() / 10) // TimeTicks are centiseconds
	pdu := snmp.NewTrapV2(p.nextRequestID(), upTime, trapOID, variables...)

	data, err := p.encodeRequest(pdu)
	if err != nil {
		result.Error = err.Error()
		p.stats.Errors.Add(1)
		return p.record(result)
	}

	addr := net.JoinHostPort(target, strconv.Itoa(p.opts.TrapPort))
	conn, err := p.dial(addr)
	if err != nil {
		result.Error = err.Error()
		p.stats.Errors.Add(1)
		return p.record(result)
	}
	defer conn.Close()

	if _, err := conn.Write(data); err != nil {
		result.Error = fmt.Sprintf("probe: send trap: %v", err)
		p.stats.Errors.Add(1)
		return p.record(result)
	}

	p.stats.Sent.Add(1)
	result.Success = true
	p.logger.Info("TRAP envoyé", "target", addr, "enterprise_oid", trapOID.String())
	return p.record(result)
}
