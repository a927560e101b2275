package analyzer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neteye/snmpscope/snmp"
)

// fakeStore records pipeline writes for inspection.
type fakeStore struct {
	devices   map[string]int64
	metrics   []Metric
	traps     []Trap
	anomalies []Anomaly
}

func newFakeStore() *fakeStore {
	return &fakeStore{devices: make(map[string]int64)}
}

func (f *fakeStore) DeviceIDByIP(ip string) (*int64, error) {
	if id, ok := f.devices[ip]; ok {
		return &id, nil
	}
	return nil, nil
}

func (f *fakeStore) InsertMetric(m Metric) error {
	f.metrics = append(f.metrics, m)
	return nil
}

func (f *fakeStore) InsertTrap(t Trap) error {
	f.traps = append(f.traps, t)
	return nil
}

func (f *fakeStore) InsertAnomaly(a Anomaly) error {
	f.anomalies = append(f.anomalies, a)
	return nil
}

func newTestPipeline(st Store) *Pipeline {
	return NewPipeline(NewCorrelator(nil), NewDetector(100), st, nil, nil)
}

func TestPipelineMatchedGetResponseLatency(t *testing.T) {
	st := newFakeStore()
	p := newTestPipeline(st)
	base := time.Now()

	get := encodeGet(t, "s3cret", snmp.OIDSysDescr)
	p.HandleRaw(get, Meta{Timestamp: base, SrcIP: "10.0.0.5", DstIP: "10.0.0.1", SrcPort: 50000, DstPort: 161})

	resp := encodeResponse(t, 100, snmp.NoError,
		snmp.Variable{OID: snmp.OIDSysDescr, Type: snmp.TypeOctetString, Value: "Linux 6.1"})
	p.HandleRaw(resp, Meta{Timestamp: base.Add(42 * time.Millisecond), SrcIP: "10.0.0.1", DstIP: "10.0.0.5", SrcPort: 161, DstPort: 50000})

	require.Len(t, st.metrics, 1)
	m := st.metrics[0]
	assert.Equal(t, "10.0.0.1", m.SourceIP)
	assert.Equal(t, "1.3.6.1.2.1.1.1.0", m.OID)
	assert.Equal(t, "Linux 6.1", m.ValueRaw)
	assert.Nil(t, m.ValueNum)
	require.NotNil(t, m.LatencyMS)
	assert.Equal(t, int64(42), *m.LatencyMS)
	assert.Nil(t, m.DeviceID)
}

func TestPipelineNumericExtraction(t *testing.T) {
	st := newFakeStore()
	p := newTestPipeline(st)

	resp := encodeResponse(t, 5, snmp.NoError,
		snmp.Variable{OID: snmp.OIDSysUpTime, Type: snmp.TypeTimeTicks, Value: uint32(4200)},
		snmp.Variable{OID: snmp.OIDSysName, Type: snmp.TypeOctetString, Value: "router-01"})
	p.HandleRaw(resp, Meta{Timestamp: time.Now(), SrcIP: "10.0.0.1", DstIP: "10.0.0.5"})

	require.Len(t, st.metrics, 2)
	require.NotNil(t, st.metrics[0].ValueNum)
	assert.Equal(t, float64(4200), *st.metrics[0].ValueNum)
	assert.Nil(t, st.metrics[1].ValueNum)
	assert.Equal(t, "router-01", st.metrics[1].ValueRaw)
	// Uncorrelated responses carry no latency.
	assert.Nil(t, st.metrics[0].LatencyMS)
}

func TestPipelineErrorResponseInsertsNothing(t *testing.T) {
	st := newFakeStore()
	p := newTestPipeline(st)

	resp := encodeResponse(t, 5, snmp.NoSuchName,
		snmp.Variable{OID: snmp.OIDSysDescr, Type: snmp.TypeNull})
	p.HandleRaw(resp, Meta{Timestamp: time.Now(), SrcIP: "10.0.0.1", DstIP: "10.0.0.5"})

	assert.Empty(t, st.metrics)
	assert.Equal(t, int64(1), p.Stats().Errors.Value())
}

func TestPipelineRequestsProduceNoMetrics(t *testing.T) {
	st := newFakeStore()
	p := newTestPipeline(st)

	get := encodeGet(t, "s3cret", snmp.OIDSysDescr)
	p.HandleRaw(get, Meta{Timestamp: time.Now(), SrcIP: "10.0.0.5", DstIP: "10.0.0.1"})

	assert.Empty(t, st.metrics)
	assert.Empty(t, st.traps)
	assert.Equal(t, int64(1), p.Stats().Total.Value())
}

func TestPipelineTrapPersisted(t *testing.T) {
	st := newFakeStore()
	p := newTestPipeline(st)

	msg := &snmp.Message{
		Version:   snmp.Version2c,
		Community: "s3cret",
		PDU: snmp.NewTrapV2(1, 100, snmp.MustParseOID("1.3.6.1.4.1.8072.2.3.0.1"),
			snmp.Variable{OID: snmp.OIDSysName, Type: snmp.TypeOctetString, Value: "router-01"}),
	}
	payload, err := msg.Encode()
	require.NoError(t, err)

	// Localhost trap: stored, but the external_trap rule stays quiet.
	p.HandleRaw(payload, Meta{Timestamp: time.Now(), SrcIP: "127.0.0.1", DstIP: "10.0.0.5", DstPort: 162})

	require.Len(t, st.traps, 1)
	assert.Equal(t, "info", st.traps[0].Severity)
	assert.Equal(t, "v2c", st.traps[0].Version)
	assert.Equal(t, "s3cret", st.traps[0].CommunityOrUser)
	assert.Empty(t, st.anomalies)
	assert.Empty(t, st.metrics)
}

func TestPipelineExternalTrapAnomaly(t *testing.T) {
	st := newFakeStore()
	p := newTestPipeline(st)

	msg := &snmp.Message{
		Version:   snmp.Version2c,
		Community: "s3cret",
		PDU:       snmp.NewTrapV2(1, 100, snmp.MustParseOID("1.3.6.1.4.1.8072.2.3.0.1")),
	}
	payload, err := msg.Encode()
	require.NoError(t, err)

	p.HandleRaw(payload, Meta{Timestamp: time.Now(), SrcIP: "192.168.1.50", DstIP: "10.0.0.5", DstPort: 162})

	require.Len(t, st.traps, 1)
	require.Len(t, st.anomalies, 1)
	assert.Equal(t, "external_trap", st.anomalies[0].Type)
}

func TestPipelineDecodeErrorCountedAndDropped(t *testing.T) {
	st := newFakeStore()
	p := newTestPipeline(st)

	p.HandleRaw([]byte{0xde, 0xad}, Meta{Timestamp: time.Now(), SrcIP: "10.0.0.5", DstIP: "10.0.0.1"})

	assert.Equal(t, int64(1), p.Stats().DecodeErrors.Value())
	assert.Equal(t, int64(0), p.Stats().Total.Value())
	assert.Empty(t, st.metrics)
	assert.Empty(t, st.anomalies)
}

func TestPipelineDeviceLookup(t *testing.T) {
	st := newFakeStore()
	st.devices["10.0.0.1"] = 7
	p := newTestPipeline(st)

	resp := encodeResponse(t, 5, snmp.NoError,
		snmp.Variable{OID: snmp.OIDSysUpTime, Type: snmp.TypeTimeTicks, Value: uint32(1)})
	p.HandleRaw(resp, Meta{Timestamp: time.Now(), SrcIP: "10.0.0.1", DstIP: "10.0.0.5"})

	require.Len(t, st.metrics, 1)
	require.NotNil(t, st.metrics[0].DeviceID)
	assert.Equal(t, int64(7), *st.metrics[0].DeviceID)
}

func TestPipelineStatsSnapshot(t *testing.T) {
	p := newTestPipeline(nil)

	get := encodeGet(t, "s3cret", snmp.OIDSysDescr)
	for i := 0; i < 3; i++ {
		p.HandleRaw(get, Meta{Timestamp: time.Now(), SrcIP: "10.0.0.5", DstIP: "10.0.0.1"})
	}

	s := p.Stats().Snapshot()
	assert.Equal(t, int64(3), s.Total)
	assert.Equal(t, int64(3), s.GetRequests)
	assert.Equal(t, 1, s.UniqueSources)
	assert.Equal(t, 1, s.UniqueDestinations)
}
