package analyzer

import (
	"time"

	"github.com/neteye/snmpscope/snmp"
)

// Meta carries the transport 5-tuple and arrival timestamp of a
// captured datagram.
type Meta struct {
	Timestamp time.Time
	SrcIP     string
	DstIP     string
	SrcPort   int
	DstPort   int
	Size      int
}

// Decode parses a raw UDP payload into a Packet. Rejected frames
// return a *snmp.DecodeError classified as malformed, truncated, or
// unsupported_version; they never reach the correlator or detector.
func Decode(payload []byte, meta Meta) (*Packet, error) {
	msg, err := snmp.DecodeMessage(payload)
	if err != nil {
		return nil, err
	}

	pkt := &Packet{
		Timestamp:  meta.Timestamp,
		SrcIP:      meta.SrcIP,
		DstIP:      meta.DstIP,
		SrcPort:    meta.SrcPort,
		DstPort:    meta.DstPort,
		Version:    msg.Version,
		PacketSize: meta.Size,
	}
	if pkt.PacketSize == 0 {
		pkt.PacketSize = len(payload)
	}

	switch {
	case msg.V3 != nil:
		pkt.CommunityOrUser = msg.V3.UserName
		// The scoped PDU may be encrypted; the kind stays unknown.
		pkt.Kind = KindUnknown

	case msg.TrapV1 != nil:
		pkt.CommunityOrUser = msg.Community
		pkt.Kind = KindTrapV1
		pkt.EnterpriseOID = msg.TrapV1.Enterprise.String()
		pkt.Variables = msg.TrapV1.Variables

	case msg.PDU != nil:
		pkt.CommunityOrUser = msg.Community
		pkt.Kind = kindOf(msg.PDU.Type)
		pkt.Variables = msg.PDU.Variables
		if msg.PDU.Type != snmp.PDUGetBulkRequest && msg.PDU.Type != snmp.PDUTrapV2 {
			pkt.ErrorStatus = msg.PDU.ErrorStatus
			pkt.HasErrorStatus = true
		}
	}

	return pkt, nil
}

func kindOf(t snmp.PDUType) Kind {
	switch t {
	case snmp.PDUGetRequest:
		return KindGet
	case snmp.PDUGetNextRequest:
		return KindGetNext
	case snmp.PDUGetBulkRequest:
		return KindGetBulk
	case snmp.PDUSetRequest:
		return KindSet
	case snmp.PDUGetResponse:
		return KindResponse
	case snmp.PDUTrapV1:
		return KindTrapV1
	case snmp.PDUTrapV2:
		return KindTrapV2
	default:
		return KindUnknown
	}
}
