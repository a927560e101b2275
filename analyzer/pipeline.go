package analyzer

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/neteye/snmpscope/snmp"
)

// Metric is one immutable observation row, produced from a response
// varbind carrying a concrete value.
type Metric struct {
	Timestamp time.Time
	SourceIP  string
	DeviceID  *int64
	OID       string
	ValueRaw  string
	ValueNum  *float64
	LatencyMS *int64
}

// Trap is one stored unsolicited notification.
type Trap struct {
	Timestamp       time.Time
	SourceIP        string
	DeviceID        *int64
	Version         string
	CommunityOrUser string
	EnterpriseOID   string
	Severity        string
	Varbinds        string
}

// Store is the observation-store contract the pipeline writes to. The
// device lookup is read-only; null device ids are the common case.
type Store interface {
	DeviceIDByIP(ip string) (*int64, error)
	InsertMetric(m Metric) error
	InsertTrap(t Trap) error
	InsertAnomaly(a Anomaly) error
}

// snapshotEvery is how many packets pass between live stats printouts.
const snapshotEvery = 10

// Pipeline wires decode → correlator → detector → store for each
// captured datagram and carries the live statistics.
type Pipeline struct {
	correlator *Correlator
	detector   *Detector
	store      Store // nil disables persistence
	stats      *Stats
	logger     *slog.Logger
	out        io.Writer // nil disables the live printout
}

// NewPipeline assembles the passive processing chain. store and out
// may be nil.
func NewPipeline(correlator *Correlator, detector *Detector, store Store, out io.Writer, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		correlator: correlator,
		detector:   detector,
		store:      store,
		stats:      NewStats(),
		logger:     logger,
		out:        out,
	}
}

// Stats exposes the live statistics block.
func (p *Pipeline) Stats() *Stats {
	return p.stats
}

// HandleRaw decodes one captured datagram and runs it through the
// pipeline. Undecodable frames are counted and dropped.
func (p *Pipeline) HandleRaw(payload []byte, meta Meta) {
	pkt, err := Decode(payload, meta)
	if err != nil {
		p.stats.DecodeErrors.Add(1)
		p.logger.Debug("dropped frame", "source", meta.SrcIP, "error", err)
		return
	}
	p.Handle(pkt)
}

// Handle processes one decoded packet: correlation, detection,
// persistence, statistics. Store failures are logged and the row
// dropped; the pipeline never stops for them.
func (p *Pipeline) Handle(pkt *Packet) {
	p.correlator.Observe(pkt)

	var anomaly *Anomaly
	if p.detector != nil {
		anomaly = p.detector.Analyze(pkt)
		if anomaly != nil {
			p.logger.Warn("anomalie détectée",
				"source", pkt.SrcIP,
				"type", anomaly.Type,
				"description", anomaly.Description)
		}
	}

	p.printPacket(pkt)

	if p.store != nil {
		p.persist(pkt, anomaly)
	}

	p.stats.Record(pkt)
	if p.stats.Total.Value()%snapshotEvery == 0 {
		p.printStats()
	}
}

func (p *Pipeline) persist(pkt *Packet, anomaly *Anomaly) {
	deviceID, err := p.store.DeviceIDByIP(pkt.SrcIP)
	if err != nil {
		p.logger.Error("device lookup failed", "source", pkt.SrcIP, "error", err)
	}

	switch {
	case pkt.Kind.IsTrap():
		trap := Trap{
			Timestamp:       pkt.Timestamp,
			SourceIP:        pkt.SrcIP,
			DeviceID:        deviceID,
			Version:         pkt.Version.String(),
			CommunityOrUser: pkt.CommunityOrUser,
			EnterpriseOID:   pkt.EnterpriseOID,
			Severity:        "info",
			Varbinds:        pkt.SerializeVarbinds(),
		}
		if err := p.store.InsertTrap(trap); err != nil {
			p.logger.Error("trap insert failed", "source", pkt.SrcIP, "error", err)
		}

	case pkt.Kind == KindResponse:
		// Only responses carry values worth storing; requests never
		// produce metric rows.
		if pkt.HasErrorStatus && pkt.ErrorStatus != 0 {
			break
		}
		p.persistMetrics(pkt, deviceID)
	}

	if anomaly != nil {
		if err := p.store.InsertAnomaly(*anomaly); err != nil {
			p.logger.Error("anomaly insert failed", "source", pkt.SrcIP, "error", err)
		}
	}
}

func (p *Pipeline) persistMetrics(pkt *Packet, deviceID *int64) {
	var latencyMS *int64
	if pkt.Correlated {
		ms := pkt.ResponseTime.Milliseconds()
		latencyMS = &ms
	}

	for i := range pkt.Variables {
		v := &pkt.Variables[i]
		switch v.Type {
		case snmp.TypeNull, snmp.TypeNoSuchObject, snmp.TypeNoSuchInstance, snmp.TypeEndOfMibView:
			// value-less varbinds never become metric rows
			continue
		}

		raw := v.Render()
		m := Metric{
			Timestamp: pkt.Timestamp,
			SourceIP:  pkt.SrcIP,
			DeviceID:  deviceID,
			OID:       v.OID.String(),
			ValueRaw:  raw,
			LatencyMS: latencyMS,
		}
		if num, ok := snmp.NumericValue(raw); ok {
			m.ValueNum = &num
		}

		if err := p.store.InsertMetric(m); err != nil {
			p.logger.Error("metric insert failed",
				"source", pkt.SrcIP, "oid", m.OID, "error", err)
		}
	}
}

func (p *Pipeline) printPacket(pkt *Packet) {
	if p.out == nil {
		return
	}
	fmt.Fprintf(p.out, "\n[%s] SNMP %s\n", pkt.Timestamp.Format("15:04:05.000"), pkt.Kind)
	fmt.Fprintf(p.out, "%s\n", pkt.Endpoints())
	fmt.Fprintf(p.out, "Version: %s | Community/User: %s\n", pkt.Version, pkt.CommunityOrUser)
	if pkt.Correlated {
		fmt.Fprintf(p.out, "Temps de réponse: %.1fms\n", float64(pkt.ResponseTime.Microseconds())/1000)
	}
	if pkt.HasErrorStatus && pkt.ErrorStatus != 0 {
		fmt.Fprintf(p.out, "Erreur: %s\n", pkt.ErrorStatus)
	}
	for i := range pkt.Variables {
		if i == 5 {
			break
		}
		fmt.Fprintf(p.out, "  %s = %s\n", pkt.Variables[i].OID, pkt.Variables[i].Render())
	}
	fmt.Fprintf(p.out, "Taille: %d bytes\n", pkt.PacketSize)
}

func (p *Pipeline) printStats() {
	if p.out == nil {
		return
	}
	s := p.stats.Snapshot()
	fmt.Fprintf(p.out, "\n--- Statistiques (%s) ---\n", s.Uptime.Round(time.Second))
	fmt.Fprintf(p.out, "Total: %d (%.1f pkt/s)\n", s.Total, s.Rate())
	fmt.Fprintf(p.out, "Requêtes: %d | SET: %d | Réponses: %d | TRAPs: %d | Erreurs: %d\n",
		s.GetRequests, s.SetRequests, s.Responses, s.Traps, s.Errors)
}

// PrintFinalStats writes the shutdown summary.
func (p *Pipeline) PrintFinalStats() {
	if p.out == nil {
		return
	}
	fmt.Fprintf(p.out, "\nSTATISTIQUES FINALES\n")
	p.printStats()
	s := p.stats.Snapshot()
	fmt.Fprintf(p.out, "Sources uniques: %d, Destinations uniques: %d\n",
		s.UniqueSources, s.UniqueDestinations)
}
