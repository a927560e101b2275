package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neteye/snmpscope/analyzer"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "observations.db")
	s, err := Open(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func metricAt(ts time.Time, oid, raw string) analyzer.Metric {
	return analyzer.Metric{
		Timestamp: ts,
		SourceIP:  "10.0.0.1",
		OID:       oid,
		ValueRaw:  raw,
	}
}

func TestOpenProvisionsSchemaAndRestrictsFile(t *testing.T) {
	s := openTestStore(t)

	info, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// Inserts work immediately on a fresh file.
	require.NoError(t, s.InsertMetric(metricAt(time.Now(), "1.3.6.1.2.1.1.3.0", "42")))
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "observations.db")

	s, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.InsertMetric(metricAt(time.Now(), "1.3.6.1.2.1.1.3.0", "42")))
	require.NoError(t, s.Close())

	s, err = Open(path, nil)
	require.NoError(t, err)
	defer s.Close()

	var count int
	require.NoError(t, s.db.Get(&count, `SELECT COUNT(*) FROM snmp_metrics`))
	assert.Equal(t, 1, count)
}

func TestDeviceLookup(t *testing.T) {
	s := openTestStore(t)

	id, err := s.DeviceIDByIP("10.0.0.1")
	require.NoError(t, err)
	assert.Nil(t, id, "missing device is not an error")

	created, err := s.CreateDevice("core-router", "10.0.0.1", nil, nil)
	require.NoError(t, err)

	id, err = s.DeviceIDByIP("10.0.0.1")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, created, *id)
}

func TestDeviceDeleteNullsReferences(t *testing.T) {
	s := openTestStore(t)

	id, err := s.CreateDevice("core-router", "10.0.0.1", nil, nil)
	require.NoError(t, err)

	m := metricAt(time.Now(), "1.3.6.1.2.1.1.3.0", "42")
	m.DeviceID = &id
	require.NoError(t, s.InsertMetric(m))

	require.NoError(t, s.DeleteDevice(id))

	var deviceID *int64
	require.NoError(t, s.db.Get(&deviceID, `SELECT device_id FROM snmp_metrics LIMIT 1`))
	assert.Nil(t, deviceID)
}

func TestInsertTrapAndAnomaly(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.InsertTrap(analyzer.Trap{
		Timestamp:       time.Now(),
		SourceIP:        "192.168.1.50",
		Version:         "v2c",
		CommunityOrUser: "public",
		EnterpriseOID:   "1.3.6.1.4.1.8072.2.3.0.1",
		Severity:        "info",
		Varbinds:        "1.3.6.1.2.1.1.5.0:router-01",
	}))

	require.NoError(t, s.InsertAnomaly(analyzer.Anomaly{
		Timestamp:   time.Now(),
		SourceIP:    "192.168.1.50",
		Description: "Trap depuis source externe",
		Severity:    analyzer.SeverityWarn,
		Type:        "external_trap",
	}))

	var severity string
	require.NoError(t, s.db.Get(&severity, `SELECT severity FROM snmp_traps LIMIT 1`))
	assert.Equal(t, "info", severity)

	var kind string
	require.NoError(t, s.db.Get(&kind, `SELECT type FROM snmp_anomalies LIMIT 1`))
	assert.Equal(t, "external_trap", kind)
}

func TestSweepRetention(t *testing.T) {
	s := openTestStore(t)
	now := time.Now().UTC()

	require.NoError(t, s.InsertMetric(metricAt(now.AddDate(0, 0, -31), "1.3.6.1.2.1.1.3.0", "old")))
	require.NoError(t, s.InsertMetric(metricAt(now.AddDate(0, 0, -29), "1.3.6.1.2.1.1.3.0", "fresh")))

	deleted, err := s.SweepRetention(30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	var raws []string
	require.NoError(t, s.db.Select(&raws, `SELECT value_raw FROM snmp_metrics`))
	assert.Equal(t, []string{"fresh"}, raws)

	// A second sweep is a no-op.
	deleted, err = s.SweepRetention(30)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestSweepRetentionCoversAllTables(t *testing.T) {
	s := openTestStore(t)
	old := time.Now().UTC().AddDate(0, 0, -31)

	require.NoError(t, s.InsertMetric(metricAt(old, "1.3.6.1.2.1.1.3.0", "old")))
	require.NoError(t, s.InsertTrap(analyzer.Trap{Timestamp: old, SourceIP: "10.0.0.1", Version: "v1", Severity: "info"}))
	require.NoError(t, s.InsertAnomaly(analyzer.Anomaly{Timestamp: old, SourceIP: "10.0.0.1", Type: "flood", Severity: analyzer.SeverityWarn}))

	deleted, err := s.SweepRetention(30)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
}

func TestOpenSweepsAtStartup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "observations.db")

	s, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.InsertMetric(metricAt(time.Now().UTC().AddDate(0, 0, -31), "1.3.6.1.2.1.1.3.0", "old")))
	require.NoError(t, s.Close())

	s, err = Open(path, nil)
	require.NoError(t, err)
	defer s.Close()

	var count int
	require.NoError(t, s.db.Get(&count, `SELECT COUNT(*) FROM snmp_metrics`))
	assert.Zero(t, count)
}

func TestInsertMetricNumericAndLatency(t *testing.T) {
	s := openTestStore(t)

	num := 42.5
	latency := int64(12)
	m := metricAt(time.Now(), "1.3.6.1.2.1.25.3.3.1.2", "42.5")
	m.ValueNum = &num
	m.LatencyMS = &latency
	require.NoError(t, s.InsertMetric(m))

	var row struct {
		ValueNum  *float64 `db:"value_num"`
		LatencyMS *int64   `db:"latency_ms"`
	}
	require.NoError(t, s.db.Get(&row, `SELECT value_num, latency_ms FROM snmp_metrics LIMIT 1`))
	require.NotNil(t, row.ValueNum)
	assert.Equal(t, 42.5, *row.ValueNum)
	require.NotNil(t, row.LatencyMS)
	assert.Equal(t, int64(12), *row.LatencyMS)
}
