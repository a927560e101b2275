// Copyright 2025 Neteye
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package store persists observations (devices, metrics, traps,
// anomalies) in a process-private SQLite file with WAL journaling.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/neteye/snmpscope/analyzer"
)

// RetentionDays is the default observation retention horizon.
const RetentionDays = 30

// Store is the SQLite-backed observation store. Writes are serialized
// through a single connection; WAL mode keeps readers concurrent.
type Store struct {
	db     *sqlx.DB
	path   string
	logger *slog.Logger
}

// Device is one row of the devices table.
type Device struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	IPAddress string    `db:"ip_address"`
	Location  *string   `db:"location"`
	Tags      *string   `db:"tags"`
	Enabled   bool      `db:"enabled"`
	CreatedAt time.Time `db:"created_at"`
}

// Open connects to the SQLite file at path, provisions the schema when
// missing, restricts the file to the owning process, and sweeps
// retention. Existing data is never dropped.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}

	// One writer connection; the WAL lets external readers in.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path, logger: logger}

	for _, pragma := range []string{
		"PRAGMA foreign_keys=ON;",
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: provision schema: %w", err)
	}

	if err := os.Chmod(path, 0o600); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: restrict %s: %w", path, err)
	}

	deleted, err := s.SweepRetention(RetentionDays)
	if err != nil {
		logger.Error("retention sweep failed", "error", err)
	} else if deleted > 0 {
		logger.Info("retention sweep", "deleted", deleted, "horizon_days", RetentionDays)
	}

	logger.Info("observation store ready", "path", path)
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// CreateDevice inserts a device row and returns its id. Devices are
// normally created through the external API; this is its entry point.
func (s *Store) CreateDevice(name, ip string, location, tags *string) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO devices (name, ip_address, location, tags) VALUES (?, ?, ?, ?)`,
		name, ip, location, tags)
	if err != nil {
		return 0, fmt.Errorf("store: create device %s: %w", ip, err)
	}
	return res.LastInsertId()
}

// DeleteDevice removes a device; referencing metrics and traps keep
// their rows with a null device id.
func (s *Store) DeleteDevice(id int64) error {
	_, err := s.db.Exec(`DELETE FROM devices WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete device %d: %w", id, err)
	}
	return nil
}

// DeviceIDByIP looks up the device registered at the given address.
// Nil without error when no device matches; null foreign keys are the
// expected common case.
func (s *Store) DeviceIDByIP(ip string) (*int64, error) {
	var id int64
	err := s.db.Get(&id, `SELECT id FROM devices WHERE ip_address = ?`, ip)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: device lookup %s: %w", ip, err)
	}
	return &id, nil
}

// InsertMetric stores one observation row. Durable on return.
func (s *Store) InsertMetric(m analyzer.Metric) error {
	_, err := s.db.Exec(
		`INSERT INTO snmp_metrics (ts, source_ip, device_id, oid, value_raw, value_num, latency_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.Timestamp.UTC(), m.SourceIP, m.DeviceID, m.OID, m.ValueRaw, m.ValueNum, m.LatencyMS)
	if err != nil {
		return fmt.Errorf("store: insert metric %s: %w", m.OID, err)
	}
	return nil
}

// InsertTrap stores one notification row.
func (s *Store) InsertTrap(t analyzer.Trap) error {
	var enterprise *string
	if t.EnterpriseOID != "" {
		enterprise = &t.EnterpriseOID
	}
	_, err := s.db.Exec(
		`INSERT INTO snmp_traps (ts, source_ip, device_id, version, community_or_user, enterprise_oid, severity, varbinds)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Timestamp.UTC(), t.SourceIP, t.DeviceID, t.Version, t.CommunityOrUser, enterprise, t.Severity, t.Varbinds)
	if err != nil {
		return fmt.Errorf("store: insert trap from %s: %w", t.SourceIP, err)
	}
	return nil
}

// InsertAnomaly stores one anomaly row.
func (s *Store) InsertAnomaly(a analyzer.Anomaly) error {
	_, err := s.db.Exec(
		`INSERT INTO snmp_anomalies (ts, source_ip, description, severity, type)
		 VALUES (?, ?, ?, ?, ?)`,
		a.Timestamp.UTC(), a.SourceIP, a.Description, string(a.Severity), a.Type)
	if err != nil {
		return fmt.Errorf("store: insert anomaly %s: %w", a.Type, err)
	}
	return nil
}

// SweepRetention deletes metric, trap and anomaly rows older than the
// horizon and returns the number of deleted rows. Re-invoking on an
// already-swept store is a no-op.
func (s *Store) SweepRetention(horizonDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -horizonDays)

	var total int64
	for _, table := range []string{"snmp_metrics", "snmp_traps", "snmp_anomalies"} {
		res, err := s.db.Exec(fmt.Sprintf(`DELETE FROM %s WHERE ts < ?`, table), cutoff)
		if err != nil {
			return total, fmt.Errorf("store: sweep %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
