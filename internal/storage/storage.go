// Package storage provides the persisted key-value store the deck
// collection is saved into: opaque JSON values keyed by stable
// strings, backed by a single sqlite table.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// DB wraps the sqlite connection behind a load/save key-value API.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up
// to date. Use ":memory:" as the dsn for an ephemeral store.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Save serializes the value to JSON and upserts it under the key.
func (db *DB) Save(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to serialize value for key %s: %w", key, err)
	}

	_, err = db.conn.Exec(`
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, string(raw))
	if err != nil {
		return fmt.Errorf("failed to save key %s: %w", key, err)
	}
	return nil
}

// Load reads the value stored under the key into out. It returns
// false without touching out when the key does not exist, so callers
// can fall back to a default.
func (db *DB) Load(key string, out any) (bool, error) {
	var raw string
	row := db.conn.QueryRow(`SELECT value FROM kv WHERE key = ?`, key)
	if err := row.Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to load key %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("failed to decode value for key %s: %w", key, err)
	}
	return true, nil
}

// Delete removes the key. Deleting a missing key is not an error.
func (db *DB) Delete(key string) error {
	if _, err := db.conn.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}
