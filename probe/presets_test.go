package probe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveOIDsPreset(t *testing.T) {
	resolved := ResolveOIDs(nil, "sysinfo")
	assert.Equal(t, []string{
		"1.3.6.1.2.1.1.1.0",
		"1.3.6.1.2.1.1.3.0",
		"1.3.6.1.2.1.1.4.0",
		"1.3.6.1.2.1.1.5.0",
		"1.3.6.1.2.1.1.6.0",
	}, resolved)
}

func TestResolveOIDsNamesAndNumbers(t *testing.T) {
	resolved := ResolveOIDs([]string{"sysDescr", "1.3.6.1.2.1.1.5.0"}, "")
	assert.Equal(t, []string{"1.3.6.1.2.1.1.1.0", "1.3.6.1.2.1.1.5.0"}, resolved)
}

func TestResolveOIDsDeduplicates(t *testing.T) {
	resolved := ResolveOIDs([]string{"sysDescr", "1.3.6.1.2.1.1.1.0"}, "sysinfo")
	count := 0
	for _, oid := range resolved {
		if oid == "1.3.6.1.2.1.1.1.0" {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Len(t, resolved, 5)
}

func TestResolveOIDsUnknownPreset(t *testing.T) {
	assert.Empty(t, ResolveOIDs(nil, "everything"))
}

func TestResolveOIDsCaseInsensitivePreset(t *testing.T) {
	assert.Len(t, ResolveOIDs(nil, "SysInfo"), 5)
}

func TestResolveOIDPassThrough(t *testing.T) {
	assert.Equal(t, "1.3.6.1.2.1.1.5.0", ResolveOID("sysName"))
	assert.Equal(t, "1.3.6.1.4.1.42", ResolveOID("1.3.6.1.4.1.42"))
}

func TestNameForOID(t *testing.T) {
	name, ok := NameForOID("1.3.6.1.2.1.1.1.0")
	assert.True(t, ok)
	assert.Equal(t, "sysDescr", name)

	_, ok = NameForOID("1.3.6.1.4.1.42")
	assert.False(t, ok)
}

func TestPresetsMatchSpec(t *testing.T) {
	assert.Equal(t, []string{
		CommonOIDs["ifNumber"],
		CommonOIDs["ifDescr"],
		CommonOIDs["ifSpeed"],
		CommonOIDs["ifOperStatus"],
	}, Presets["interfaces"])

	assert.Equal(t, []string{
		CommonOIDs["hrSystemUptime"],
		CommonOIDs["hrSystemDate"],
		CommonOIDs["hrProcessorLoad"],
	}, Presets["host_resources"])
}
