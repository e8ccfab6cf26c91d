package jobs

// Schema for the SQLite job store. The database is transient storage for
// in-flight and recently finished jobs, not a long-term archive; schema
// changes bump schemaVersion and users clear the database to adopt them.
const schemaVersion = 1

const schemaSQL = `
CREATE TABLE IF NOT EXISTS workflow_jobs (
    id TEXT PRIMARY KEY,
    status TEXT NOT NULL,
    request_json TEXT NOT NULL,
    steps_json TEXT,
    current_step TEXT,
    progress INTEGER NOT NULL DEFAULT 0,
    result_json TEXT,
    error_message TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    completed_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_workflow_jobs_status ON workflow_jobs(status);
CREATE INDEX IF NOT EXISTS idx_workflow_jobs_updated_at ON workflow_jobs(updated_at);

CREATE TABLE IF NOT EXISTS schema_info (
    version INTEGER NOT NULL
);
`
