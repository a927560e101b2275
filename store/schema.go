package store

// Table layout of the observation store. Schema provisioning is
// idempotent: startup is safe on an empty file and on an existing one.
const schema = `
CREATE TABLE IF NOT EXISTS devices (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    ip_address TEXT NOT NULL UNIQUE,
    location TEXT,
    tags TEXT,
    enabled INTEGER DEFAULT 1,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS snmp_metrics (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    ts TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    source_ip TEXT NOT NULL,
    device_id INTEGER,
    oid TEXT NOT NULL,
    value_raw TEXT,
    value_num REAL,
    latency_ms INTEGER,
    FOREIGN KEY(device_id) REFERENCES devices(id) ON DELETE SET NULL
);

CREATE TABLE IF NOT EXISTS snmp_traps (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    ts TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    source_ip TEXT,
    device_id INTEGER,
    version TEXT,
    community_or_user TEXT,
    enterprise_oid TEXT,
    severity TEXT,
    varbinds TEXT,
    FOREIGN KEY(device_id) REFERENCES devices(id) ON DELETE SET NULL
);

CREATE TABLE IF NOT EXISTS snmp_anomalies (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    ts TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    source_ip TEXT,
    description TEXT,
    severity TEXT,
    type TEXT
);

CREATE INDEX IF NOT EXISTS idx_metrics_ts ON snmp_metrics(ts);
CREATE INDEX IF NOT EXISTS idx_traps_ts ON snmp_traps(ts);
CREATE INDEX IF NOT EXISTS idx_anomalies_ts ON snmp_anomalies(ts);
`
