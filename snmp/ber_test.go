package snmp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeLength(t *testing.T) {
	tests := []struct {
		length int
		want   []byte
	}{
		{0, []byte{0x00}},
		{127, []byte{0x7f}},
		{128, []byte{0x81, 0x80}},
		{300, []byte{0x82, 0x01, 0x2c}},
		{65535, []byte{0x82, 0xff, 0xff}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, encodeLength(tt.length), "length %d", tt.length)
	}
}

func TestLengthRoundTrip(t *testing.T) {
	for _, length := range []int{0, 1, 127, 128, 255, 256, 1000, 65535} {
		encoded := encodeLength(length)
		r := newBERReader(encoded)
		decoded, err := r.readLength()
		require.NoError(t, err)
		assert.Equal(t, length, decoded)
	}
}

func TestIntegerRoundTrip(t *testing.T) {
	for _, value := range []int64{0, 1, -1, 127, 128, -128, -129, 255, 32767, -32768, 1<<31 - 1, -(1 << 31)} {
		assert.Equal(t, value, decodeInteger(encodeInteger(value)), "value %d", value)
	}
}

func TestUnsignedIntegerRoundTrip(t *testing.T) {
	for _, value := range []uint64{0, 1, 127, 128, 255, 4294967295, 1<<63 - 1} {
		assert.Equal(t, value, decodeUnsignedInteger(encodeUnsignedInteger(value)), "value %d", value)
	}
}

func TestOIDRoundTrip(t *testing.T) {
	for _, s := range []string{
		"1.3.6.1.2.1.1.1.0",
		"1.3.6.1.4.1.8072.2.3.0.1",
		"1.3.6.1.2.1.25.3.3.1.2",
		"0.0",
	} {
		oid := MustParseOID(s)
		decoded, err := decodeOIDBytes(encodeOID(oid), 0)
		require.NoError(t, err)
		assert.True(t, oid.Equal(decoded), "OID %s decoded as %s", oid, decoded)
	}
}

func TestOIDLargeComponent(t *testing.T) {
	oid := MustParseOID("1.3.6.1.4.1.311.21.20")
	decoded, err := decodeOIDBytes(encodeOID(oid), 0)
	require.NoError(t, err)
	assert.Equal(t, "1.3.6.1.4.1.311.21.20", decoded.String())
}

func TestDecodeOIDEmpty(t *testing.T) {
	_, err := decodeOIDBytes(nil, 0)
	require.Error(t, err)
	kind, ok := DecodeKind(err)
	require.True(t, ok)
	assert.Equal(t, DecodeMalformed, kind)
}

func TestReadTLVTruncated(t *testing.T) {
	// SEQUENCE declaring 10 bytes with only 2 present
	r := newBERReader([]byte{0x30, 0x0a, 0x02, 0x01})
	_, _, _, err := r.readTLV()
	require.Error(t, err)
	kind, ok := DecodeKind(err)
	require.True(t, ok)
	assert.Equal(t, DecodeTruncated, kind)
}

func TestReadTLVEmpty(t *testing.T) {
	r := newBERReader(nil)
	_, _, _, err := r.readTLV()
	require.Error(t, err)
	kind, _ := DecodeKind(err)
	assert.Equal(t, DecodeTruncated, kind)
}

func TestVariableRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   Variable
	}{
		{"integer", Variable{OID: MustParseOID("1.3.6.1.2.1.1.7.0"), Type: TypeInteger, Value: 72}},
		{"negative integer", Variable{OID: MustParseOID("1.3.6.1.2.1.1.7.0"), Type: TypeInteger, Value: -42}},
		{"octet string", Variable{OID: OIDSysName, Type: TypeOctetString, Value: "router-01"}},
		{"null", Variable{OID: OIDSysDescr, Type: TypeNull, Value: nil}},
		{"counter32", Variable{OID: MustParseOID("1.3.6.1.2.1.2.2.1.10.1"), Type: TypeCounter32, Value: uint32(123456)}},
		{"counter64", Variable{OID: MustParseOID("1.3.6.1.2.1.31.1.1.1.6.1"), Type: TypeCounter64, Value: uint64(1 << 40)}},
		{"timeticks", Variable{OID: OIDSysUpTime, Type: TypeTimeTicks, Value: uint32(8675309)}},
		{"oid value", Variable{OID: OIDSnmpTrapOID, Type: TypeObjectIdentifier, Value: MustParseOID("1.3.6.1.4.1.8072.2.3.0.1")}},
		{"ip address", Variable{OID: MustParseOID("1.3.6.1.2.1.4.20.1.1.10.0.0.1"), Type: TypeIPAddress, Value: "10.0.0.1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := encodeVariable(&tt.in)
			require.NoError(t, err)

			r := newBERReader(encoded)
			decoded, err := r.readVariable()
			require.NoError(t, err)

			assert.True(t, decoded.OID.Equal(tt.in.OID))
			assert.Equal(t, tt.in.Type, decoded.Type)
			assert.Equal(t, tt.in.Render(), decoded.Render())
		})
	}
}
