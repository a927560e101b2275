package probe

import "strings"

// CommonOIDs maps well-known symbolic names to their dotted OIDs.
// Names are accepted anywhere the probe takes an OID argument.
var CommonOIDs = map[string]string{
	"sysDescr":    "1.3.6.1.2.1.1.1.0",
	"sysObjectID": "1.3.6.1.2.1.1.2.0",
	"sysUpTime":   "1.3.6.1.2.1.1.3.0",
	"sysContact":  "1.3.6.1.2.1.1.4.0",
	"sysName":     "1.3.6.1.2.1.1.5.0",
	"sysLocation": "1.3.6.1.2.1.1.6.0",
	"sysServices": "1.3.6.1.2.1.1.7.0",

	// Interface MIB
	"ifNumber":      "1.3.6.1.2.1.2.1.0",
	"ifIndex":       "1.3.6.1.2.1.2.2.1.1",
	"ifDescr":       "1.3.6.1.2.1.2.2.1.2",
	"ifType":        "1.3.6.1.2.1.2.2.1.3",
	"ifMtu":         "1.3.6.1.2.1.2.2.1.4",
	"ifSpeed":       "1.3.6.1.2.1.2.2.1.5",
	"ifPhysAddress": "1.3.6.1.2.1.2.2.1.6",
	"ifAdminStatus": "1.3.6.1.2.1.2.2.1.7",
	"ifOperStatus":  "1.3.6.1.2.1.2.2.1.8",
	"ifInOctets":    "1.3.6.1.2.1.2.2.1.10",
	"ifInErrors":    "1.3.6.1.2.1.2.2.1.14",
	"ifOutOctets":   "1.3.6.1.2.1.2.2.1.16",
	"ifOutErrors":   "1.3.6.1.2.1.2.2.1.20",

	// IP MIB
	"ipForwarding": "1.3.6.1.2.1.4.1.0",
	"ipDefaultTTL": "1.3.6.1.2.1.4.2.0",
	"ipAddrTable":  "1.3.6.1.2.1.4.20",

	// Host Resources MIB
	"hrSystemUptime":   "1.3.6.1.2.1.25.1.1.0",
	"hrSystemDate":     "1.3.6.1.2.1.25.1.2.0",
	"hrSystemNumUsers": "1.3.6.1.2.1.25.1.5.0",
	"hrMemorySize":     "1.3.6.1.2.1.25.2.2.0",
	"hrStorageUsed":    "1.3.6.1.2.1.25.2.3.1.6",
	"hrStorageSize":    "1.3.6.1.2.1.25.2.3.1.5",
	"hrProcessorLoad":  "1.3.6.1.2.1.25.3.3.1.2",

	// UDP MIB
	"udpInDatagrams":  "1.3.6.1.2.1.7.1.0",
	"udpOutDatagrams": "1.3.6.1.2.1.7.4.0",
}

// Presets bundles commonly polled OID groups.
var Presets = map[string][]string{
	"sysinfo": {
		CommonOIDs["sysDescr"],
		CommonOIDs["sysUpTime"],
		CommonOIDs["sysContact"],
		CommonOIDs["sysName"],
		CommonOIDs["sysLocation"],
	},
	"interfaces": {
		CommonOIDs["ifNumber"],
		CommonOIDs["ifDescr"],
		CommonOIDs["ifSpeed"],
		CommonOIDs["ifOperStatus"],
	},
	"host_resources": {
		CommonOIDs["hrSystemUptime"],
		CommonOIDs["hrSystemDate"],
		CommonOIDs["hrProcessorLoad"],
	},
}

// ResolveOIDs expands a preset name and symbolic OID names into dotted
// OIDs, preserving order and dropping duplicates. Unknown preset names
// resolve to nothing; unknown OID names pass through unchanged so the
// parser reports them.
func ResolveOIDs(oids []string, preset string) []string {
	var resolved []string

	if preset != "" {
		resolved = append(resolved, Presets[strings.ToLower(preset)]...)
	}

	for _, oid := range oids {
		if dotted, ok := CommonOIDs[oid]; ok {
			resolved = append(resolved, dotted)
		} else {
			resolved = append(resolved, oid)
		}
	}

	seen := make(map[string]bool, len(resolved))
	out := resolved[:0]
	for _, oid := range resolved {
		if !seen[oid] {
			seen[oid] = true
			out = append(out, oid)
		}
	}
	return out
}

// ResolveOID maps a single symbolic name to its dotted OID; dotted
// numeric input passes through unchanged.
func ResolveOID(oid string) string {
	if dotted, ok := CommonOIDs[oid]; ok {
		return dotted
	}
	return oid
}

// NameForOID returns the symbolic name of a dotted OID, if known.
func NameForOID(dotted string) (string, bool) {
	for name, oid := range CommonOIDs {
		if oid == dotted {
			return name, true
		}
	}
	return "", false
}
