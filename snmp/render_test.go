package snmp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		v    Variable
		want string
	}{
		{"integer", Variable{Type: TypeInteger, Value: -5}, "-5"},
		{"counter32", Variable{Type: TypeCounter32, Value: uint32(42)}, "42"},
		{"counter64", Variable{Type: TypeCounter64, Value: uint64(1 << 40)}, "1099511627776"},
		{"gauge32", Variable{Type: TypeGauge32, Value: uint32(100000000)}, "100000000"},
		{"timeticks", Variable{Type: TypeTimeTicks, Value: uint32(8675309)}, "8675309"},
		{"text", Variable{Type: TypeOctetString, Value: []byte("router-01")}, "router-01"},
		{"utf8", Variable{Type: TypeOctetString, Value: []byte("Béziers")}, "Béziers"},
		{"binary", Variable{Type: TypeOctetString, Value: []byte{0xff, 0xfe, 0x00}}, "0xfffe00"},
		{"oid", Variable{Type: TypeObjectIdentifier, Value: MustParseOID("1.3.6.1.2.1")}, "1.3.6.1.2.1"},
		{"ip", Variable{Type: TypeIPAddress, Value: []byte{10, 0, 0, 1}}, "10.0.0.1"},
		{"null", Variable{Type: TypeNull}, "null"},
		{"no such object", Variable{Type: TypeNoSuchObject}, "noSuchObject"},
		{"no such instance", Variable{Type: TypeNoSuchInstance}, "noSuchInstance"},
		{"end of mib view", Variable{Type: TypeEndOfMibView}, "endOfMibView"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.v.Render())
		})
	}
}

func TestNumericValue(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"42", 42, true},
		{"-3.5", -3.5, true},
		{"0", 0, true},
		{"1e3", 1000, true},
		{"router-01", 0, false},
		{"", 0, false},
		{"null", 0, false},
		{"1,000", 0, false}, // thousands separators are not recognized
		{"Inf", 0, false},
		{"NaN", 0, false},
	}

	for _, tt := range tests {
		got, ok := NumericValue(tt.in)
		assert.Equal(t, tt.ok, ok, "input %q", tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, got, "input %q", tt.in)
		}
	}
}

func TestDecodeTextLossy(t *testing.T) {
	assert.Equal(t, "public", decodeText([]byte("public")))
	// invalid UTF-8 is replaced, not rejected
	out := decodeText([]byte{'a', 0xff, 'b'})
	assert.Contains(t, out, "a")
	assert.Contains(t, out, "b")
}

func TestTimeTicksToString(t *testing.T) {
	assert.Equal(t, "00:00:01.00", TimeTicksToString(100))
	assert.Equal(t, "1 days, 00:00:00.00", TimeTicksToString(8640000))
}

func TestParseOID(t *testing.T) {
	oid, err := ParseOID(".1.3.6.1")
	assert.NoError(t, err)
	assert.Equal(t, "1.3.6.1", oid.String())

	_, err = ParseOID("")
	assert.Error(t, err)

	_, err = ParseOID("1.3.x.1")
	assert.Error(t, err)
}

func TestOIDHasPrefix(t *testing.T) {
	root := MustParseOID("1.3.6.1.2.1.2.2.1.2")
	assert.True(t, MustParseOID("1.3.6.1.2.1.2.2.1.2.1").HasPrefix(root))
	assert.False(t, MustParseOID("1.3.6.1.2.1.2.2.1.3.1").HasPrefix(root))
	assert.True(t, root.HasPrefix(root))
}
