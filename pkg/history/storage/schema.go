package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema creates the runs table. Times are stored as Unix nanoseconds so
// both drivers read them back identically.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    operation TEXT NOT NULL,
    trigger_source TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    started_at INTEGER NOT NULL,
    finished_at INTEGER NOT NULL,
    duration_ms INTEGER NOT NULL,
    result TEXT,
    error TEXT,
    error_kind TEXT
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
CREATE INDEX IF NOT EXISTS idx_runs_operation ON runs(operation, started_at);
`

// InsertSchemaVersion records the schema version once.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

const upsertRun = `
INSERT INTO runs (
    id, operation, trigger_source, status,
    started_at, finished_at, duration_ms,
    result, error, error_kind
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    operation = excluded.operation,
    trigger_source = excluded.trigger_source,
    status = excluded.status,
    started_at = excluded.started_at,
    finished_at = excluded.finished_at,
    duration_ms = excluded.duration_ms,
    result = excluded.result,
    error = excluded.error,
    error_kind = excluded.error_kind;
`

const selectRuns = `
SELECT id, operation, trigger_source, status,
       started_at, finished_at, duration_ms,
       result, error, error_kind
FROM runs`
