package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/neteye/snmpscope/probe"
	"github.com/neteye/snmpscope/snmp"
)

// printResult displays the outcome of a standard request.
func printResult(result *probe.Result) {
	fmt.Println("\n=== RÉSULTAT SNMP ===")
	fmt.Printf("Type      : %s\n", result.Type)
	fmt.Printf("Cible     : %s\n", result.Target)
	fmt.Printf("Succès    : %v\n", result.Success)
	if result.ResponseTime > 0 {
		fmt.Printf("Temps     : %.1f ms\n", result.ResponseTimeMS())
	}
	if result.Error != "" {
		fmt.Printf("Erreur    : %s\n", result.Error)
	}
	if len(result.Values) > 0 {
		fmt.Println("Valeurs   :")
		for _, oid := range sortedKeys(result.Values) {
			fmt.Printf("  %s = %s\n", oid, result.Values[oid])
		}
	}
}

// printSysinfo displays the sysinfo preset with symbolic names.
func printSysinfo(target string, result *probe.Result) {
	if len(result.Values) == 0 {
		fmt.Println("\nAucune donnée reçue pour sysinfo.")
		return
	}
	fmt.Printf("\nInformations système de %s :\n", target)
	for _, oid := range sortedKeys(result.Values) {
		label := oid
		if name, ok := probe.NameForOID(oid); ok {
			label = name
		}
		fmt.Printf("  %s: %s\n", label, formatSysinfoValue(label, result.Values[oid]))
	}
}

// formatSysinfoValue appends a human-readable uptime to TimeTicks
// values, which render as raw centiseconds.
func formatSysinfoValue(label, value string) string {
	switch label {
	case "sysUpTime", "hrSystemUptime":
		if ticks, err := strconv.ParseUint(value, 10, 32); err == nil {
			return fmt.Sprintf("%s (%s)", value, snmp.TimeTicksToString(uint32(ticks)))
		}
	}
	return value
}

// printHosts displays the discovery sweep outcome.
func printHosts(hosts []string) {
	fmt.Printf("\nHosts SNMP actifs trouvés (%d) :\n", len(hosts))
	for _, host := range hosts {
		fmt.Printf("  %s\n", host)
	}
}

// printStats displays the probe counters.
func printStats(s probe.StatsSnapshot) {
	fmt.Println("\n--- Statistiques ---")
	fmt.Printf("Envoyés: %d | Reçus: %d | Timeouts: %d | Erreurs: %d\n",
		s.Sent, s.Received, s.Timeouts, s.Errors)
	if s.Latency.Count > 0 {
		fmt.Printf("Latence: min %d ms, moy %.1f ms, max %d ms\n",
			s.Latency.Min, s.Latency.Avg, s.Latency.Max)
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
