package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema creates the run ledger tables. JSON-valued columns hold encoded
// maps and lists; durations are stored in milliseconds.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    request_id TEXT NOT NULL DEFAULT '',
    token TEXT NOT NULL DEFAULT '',

    status TEXT NOT NULL,
    error TEXT,

    started_at TIMESTAMP NOT NULL,
    recorded_at TIMESTAMP NOT NULL,

    duration_ms INTEGER NOT NULL,
    gate_wait_ms INTEGER NOT NULL,

    attempts INTEGER NOT NULL,
    stale_reads INTEGER NOT NULL,

    input_hash TEXT,
    inputs TEXT,
    defaulted TEXT,
    invalid_fields TEXT,
    contact_email TEXT,

    decision TEXT,
    risk_class TEXT,
    actual_margin REAL,
    locked BOOLEAN,
    hours_defaulted BOOLEAN,

    last_snapshot TEXT
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_token ON runs(token);
CREATE INDEX IF NOT EXISTS idx_runs_request_id ON runs(request_id);
`

// InsertSchemaVersion records SchemaVersion once.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion returns the newest applied schema version.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

const runColumns = `id, request_id, token, status, error, started_at, recorded_at,
	duration_ms, gate_wait_ms, attempts, stale_reads,
	input_hash, inputs, defaulted, invalid_fields, contact_email,
	decision, risk_class, actual_margin, locked, hours_defaulted, last_snapshot`
