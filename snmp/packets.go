package snmp

import (
	"bytes"
)

// PDU represents an SNMP Protocol Data Unit.
type PDU struct {
	Type        PDUType
	RequestID   int32
	ErrorStatus ErrorStatus
	ErrorIndex  int
	Variables   []Variable

	// GetBulk specific
	NonRepeaters   int
	MaxRepetitions int
}

// Encode encodes the PDU to bytes.
func (p *PDU) Encode() ([]byte, error) {
	var buf bytes.Buffer

	buf.Write(encodeTLV(TypeInteger, encodeInteger(int64(p.RequestID))))

	if p.Type == PDUGetBulkRequest {
		// GetBulk carries non-repeaters and max-repetitions in place of
		// error-status and error-index
		buf.Write(encodeTLV(TypeInteger, encodeInteger(int64(p.NonRepeaters))))
		buf.Write(encodeTLV(TypeInteger, encodeInteger(int64(p.MaxRepetitions))))
	} else {
		buf.Write(encodeTLV(TypeInteger, encodeInteger(int64(p.ErrorStatus))))
		buf.Write(encodeTLV(TypeInteger, encodeInteger(int64(p.ErrorIndex))))
	}

	varbinds, err := encodeVariableBindings(p.Variables)
	if err != nil {
		return nil, err
	}
	buf.Write(varbinds)

	return encodeTLV(BERType(p.Type), buf.Bytes()), nil
}

// decodePDU decodes a GET/GETNEXT/RESPONSE/SET/GETBULK/TRAPv2 PDU body.
func decodePDU(pduType PDUType, body *berReader) (*PDU, error) {
	pdu := &PDU{Type: pduType}

	requestID, err := body.readInteger()
	if err != nil {
		return nil, err
	}
	pdu.RequestID = int32(requestID)

	first, err := body.readInteger()
	if err != nil {
		return nil, err
	}
	second, err := body.readInteger()
	if err != nil {
		return nil, err
	}
	if pduType == PDUGetBulkRequest {
		pdu.NonRepeaters = int(first)
		pdu.MaxRepetitions = int(second)
	} else {
		pdu.ErrorStatus = ErrorStatus(first)
		pdu.ErrorIndex = int(second)
	}

	pdu.Variables, err = body.readVariableBindings()
	if err != nil {
		return nil, err
	}

	return pdu, nil
}

// TrapV1PDU represents an SNMPv1 Trap PDU.
type TrapV1PDU struct {
	Enterprise   OID
	AgentAddress []byte
	GenericTrap  int
	SpecificTrap int
	Timestamp    uint32
	Variables    []Variable
}

// Encode encodes the v1 trap PDU to bytes.
func (t *TrapV1PDU) Encode() ([]byte, error) {
	var buf bytes.Buffer

	buf.Write(encodeTLV(TypeObjectIdentifier, encodeOID(t.Enterprise)))
	buf.Write(encodeTLV(TypeIPAddress, t.AgentAddress))
	buf.Write(encodeTLV(TypeInteger, encodeInteger(int64(t.GenericTrap))))
	buf.Write(encodeTLV(TypeInteger, encodeInteger(int64(t.SpecificTrap))))
	buf.Write(encodeTLV(TypeTimeTicks, encodeUnsignedInteger(uint64(t.Timestamp))))

	varbinds, err := encodeVariableBindings(t.Variables)
	if err != nil {
		return nil, err
	}
	buf.Write(varbinds)

	return encodeTLV(TypeTrapV1, buf.Bytes()), nil
}

// decodeTrapV1PDU decodes an SNMPv1 trap PDU body.
func decodeTrapV1PDU(body *berReader) (*TrapV1PDU, error) {
	trap := &TrapV1PDU{}

	oidData, oidAt, err := body.expectTLV(TypeObjectIdentifier)
	if err != nil {
		return nil, err
	}
	trap.Enterprise, err = decodeOIDBytes(oidData, oidAt)
	if err != nil {
		return nil, err
	}

	_, addrData, _, err := body.readTLV()
	if err != nil {
		return nil, err
	}
	trap.AgentAddress = addrData

	gen, err := body.readInteger()
	if err != nil {
		return nil, err
	}
	trap.GenericTrap = int(gen)

	spec, err := body.readInteger()
	if err != nil {
		return nil, err
	}
	trap.SpecificTrap = int(spec)

	_, tsData, _, err := body.readTLV()
	if err != nil {
		return nil, err
	}
	trap.Timestamp = uint32(decodeUnsignedInteger(tsData))

	trap.Variables, err = body.readVariableBindings()
	if err != nil {
		return nil, err
	}

	return trap, nil
}

// Message represents a complete SNMP message of any supported version.
// Exactly one of PDU / TrapV1 is set for v1/v2c frames; V3 is set for
// v3 frames, whose scoped payload stays opaque.
type Message struct {
	Version   SNMPVersion
	Community string

	PDU    *PDU
	TrapV1 *TrapV1PDU
	V3     *V3Header
}

// Encode encodes a v1/v2c SNMP message to bytes.
func (m *Message) Encode() ([]byte, error) {
	var buf bytes.Buffer

	buf.Write(encodeTLV(TypeInteger, encodeInteger(int64(m.Version))))
	buf.Write(encodeTLV(TypeOctetString, []byte(m.Community)))

	var (
		pduBytes []byte
		err      error
	)
	switch {
	case m.TrapV1 != nil:
		pduBytes, err = m.TrapV1.Encode()
	case m.PDU != nil:
		pduBytes, err = m.PDU.Encode()
	default:
		err = ErrInvalidValue
	}
	if err != nil {
		return nil, err
	}
	buf.Write(pduBytes)

	return encodeTLV(TypeSequence, buf.Bytes()), nil
}

// PDUType returns the PDU kind of the message, if one was decoded.
func (m *Message) PDUType() (PDUType, bool) {
	switch {
	case m.TrapV1 != nil:
		return PDUTrapV1, true
	case m.PDU != nil:
		return m.PDU.Type, true
	default:
		return 0, false
	}
}

// DecodeMessage decodes an SNMP message of any supported version from a
// raw UDP payload. Rejected frames carry a *DecodeError classifying
// them as malformed, truncated, or unsupported_version.
func DecodeMessage(data []byte) (*Message, error) {
	if len(data) > MaxMessageSize {
		return nil, newDecodeError(DecodeMalformed, 0,
			"frame of %d bytes exceeds %d", len(data), MaxMessageSize)
	}

	r := newBERReader(data)

	seqData, seqAt, err := r.expectTLV(TypeSequence)
	if err != nil {
		return nil, err
	}
	seq := r.sub(seqData, seqAt)

	version, err := seq.readInteger()
	if err != nil {
		return nil, err
	}

	switch SNMPVersion(version) {
	case Version1, Version2c:
		return decodeCommunityMessage(SNMPVersion(version), seq)
	case Version3:
		return decodeV3Message(seq)
	default:
		return nil, newDecodeError(DecodeUnsupportedVersion, seqAt,
			"version %d not supported", version)
	}
}

func decodeCommunityMessage(version SNMPVersion, seq *berReader) (*Message, error) {
	communityData, _, err := seq.expectTLV(TypeOctetString)
	if err != nil {
		return nil, err
	}

	msg := &Message{
		Version:   version,
		Community: decodeText(communityData),
	}

	pduTag, pduData, pduAt, err := seq.readTLV()
	if err != nil {
		return nil, err
	}
	body := seq.sub(pduData, pduAt)

	switch PDUType(pduTag) {
	case PDUTrapV1:
		msg.TrapV1, err = decodeTrapV1PDU(body)
	case PDUGetRequest, PDUGetNextRequest, PDUGetResponse, PDUSetRequest,
		PDUGetBulkRequest, PDUInformRequest, PDUTrapV2:
		msg.PDU, err = decodePDU(PDUType(pduTag), body)
	default:
		err = newDecodeError(DecodeMalformed, pduAt, "unknown PDU tag 0x%02X", byte(pduTag))
	}
	if err != nil {
		return nil, err
	}

	return msg, nil
}

// NewGetRequest creates a new GET request PDU.
func NewGetRequest(requestID int32, oids ...OID) *PDU {
	return &PDU{
		Type:      PDUGetRequest,
		RequestID: requestID,
		Variables: nullVariables(oids),
	}
}

// NewGetNextRequest creates a new GET-NEXT request PDU.
func NewGetNextRequest(requestID int32, oids ...OID) *PDU {
	return &PDU{
		Type:      PDUGetNextRequest,
		RequestID: requestID,
		Variables: nullVariables(oids),
	}
}

// NewGetBulkRequest creates a new GET-BULK request PDU (v2c only).
func NewGetBulkRequest(requestID int32, nonRepeaters, maxRepetitions int, oids ...OID) *PDU {
	return &PDU{
		Type:           PDUGetBulkRequest,
		RequestID:      requestID,
		NonRepeaters:   nonRepeaters,
		MaxRepetitions: maxRepetitions,
		Variables:      nullVariables(oids),
	}
}

// NewSetRequest creates a new SET request PDU.
func NewSetRequest(requestID int32, variables ...Variable) *PDU {
	return &PDU{
		Type:      PDUSetRequest,
		RequestID: requestID,
		Variables: variables,
	}
}

// NewTrapV2 creates a new SNMPv2c trap PDU. sysUpTime and snmpTrapOID
// are prepended as the first two varbinds.
func NewTrapV2(requestID int32, sysUpTime uint32, trapOID OID, variables ...Variable) *PDU {
	allVars := make([]Variable, 0, len(variables)+2)
	allVars = append(allVars, Variable{
		OID:   OIDSysUpTime,
		Type:  TypeTimeTicks,
		Value: sysUpTime,
	})
	allVars = append(allVars, Variable{
		OID:   OIDSnmpTrapOID,
		Type:  TypeObjectIdentifier,
		Value: trapOID,
	})
	allVars = append(allVars, variables...)

	return &PDU{
		Type:      PDUTrapV2,
		RequestID: requestID,
		Variables: allVars,
	}
}

func nullVariables(oids []OID) []Variable {
	variables := make([]Variable, len(oids))
	for i, oid := range oids {
		variables[i] = Variable{
			OID:   oid,
			Type:  TypeNull,
			Value: nil,
		}
	}
	return variables
}
