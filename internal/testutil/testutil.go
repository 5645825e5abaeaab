// Package testutil provides shared helpers for package tests.
package testutil

import (
	"encoding/json"
	"sync"
)

// MemKV is an in-memory key-value store that serializes through JSON
// like the sqlite-backed store, so tests exercise the same encode and
// decode paths without touching disk.
type MemKV struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemKV returns an empty in-memory store.
func NewMemKV() *MemKV {
	return &MemKV{values: map[string]string{}}
}

func (m *MemKV) Save(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = string(raw)
	return nil
}

func (m *MemKV) Load(key string, out any) (bool, error) {
	m.mu.Lock()
	raw, ok := m.values[key]
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal([]byte(raw), out)
}
