package storage

const schema = `
-- The 'kv' table holds every persisted value as opaque JSON keyed by
-- a stable string, mirroring the browser storage the app grew up on.
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`
