package snmp

// SNMPv3 message header and USM security parameters (RFC 3412, RFC
// 3414). Only the header is decoded: the scoped PDU that follows the
// security parameters may be encrypted and is kept opaque.

// Security model numbers registered for msgSecurityModel.
const (
	SecurityModelUSM = 3
)

// Flag bits of msgFlags.
const (
	FlagAuth       = 0x01
	FlagPriv       = 0x02
	FlagReportable = 0x04
)

// V3Header carries the decoded v3 message header and, when the
// security model is USM, the user identity.
type V3Header struct {
	MsgID         int32
	MaxSize       int32
	Flags         byte
	SecurityModel int

	// USM security parameters. UserName is empty for non-USM models.
	UserName              string
	AuthoritativeEngineID []byte
	EngineBoots           int
	EngineTime            int

	// ScopedPDU is the undecoded remainder of the message, possibly
	// encrypted.
	ScopedPDU []byte
}

// Encrypted reports whether the scoped PDU is privacy-protected.
func (h *V3Header) Encrypted() bool {
	return h.Flags&FlagPriv != 0
}

// decodeV3Message decodes the header of a v3 frame. seq is positioned
// just past the version integer.
func decodeV3Message(seq *berReader) (*Message, error) {
	hdr := &V3Header{}

	// msgGlobalData ::= SEQUENCE { msgID, msgMaxSize, msgFlags, msgSecurityModel }
	globalData, globalAt, err := seq.expectTLV(TypeSequence)
	if err != nil {
		return nil, err
	}
	global := seq.sub(globalData, globalAt)

	msgID, err := global.readInteger()
	if err != nil {
		return nil, err
	}
	hdr.MsgID = int32(msgID)

	maxSize, err := global.readInteger()
	if err != nil {
		return nil, err
	}
	hdr.MaxSize = int32(maxSize)

	flagsData, flagsAt, err := global.expectTLV(TypeOctetString)
	if err != nil {
		return nil, err
	}
	if len(flagsData) != 1 {
		return nil, newDecodeError(DecodeMalformed, flagsAt, "msgFlags length %d", len(flagsData))
	}
	hdr.Flags = flagsData[0]

	model, err := global.readInteger()
	if err != nil {
		return nil, err
	}
	hdr.SecurityModel = int(model)

	// msgSecurityParameters is an OCTET STRING whose content depends on
	// the security model.
	secData, secAt, err := seq.expectTLV(TypeOctetString)
	if err != nil {
		return nil, err
	}
	if hdr.SecurityModel == SecurityModelUSM {
		if err := decodeUSMParameters(seq.sub(secData, secAt), hdr); err != nil {
			return nil, err
		}
	}

	// Everything after the security parameters is the scoped PDU,
	// recorded opaquely.
	hdr.ScopedPDU = seq.data[seq.off:]

	return &Message{Version: Version3, V3: hdr}, nil
}

// decodeUSMParameters fills the USM fields of hdr from the
// UsmSecurityParameters sequence.
func decodeUSMParameters(r *berReader, hdr *V3Header) error {
	usmData, usmAt, err := r.expectTLV(TypeSequence)
	if err != nil {
		return err
	}
	usm := r.sub(usmData, usmAt)

	engineID, _, err := usm.expectTLV(TypeOctetString)
	if err != nil {
		return err
	}
	hdr.AuthoritativeEngineID = engineID

	boots, err := usm.readInteger()
	if err != nil {
		return err
	}
	hdr.EngineBoots = int(boots)

	engineTime, err := usm.readInteger()
	if err != nil {
		return err
	}
	hdr.EngineTime = int(engineTime)

	userName, _, err := usm.expectTLV(TypeOctetString)
	if err != nil {
		return err
	}
	hdr.UserName = decodeText(userName)

	// msgAuthenticationParameters and msgPrivacyParameters follow; the
	// analyzer records only the user identity, so they are skipped.
	return nil
}
