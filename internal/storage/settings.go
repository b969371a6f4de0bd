package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"datafill/internal/etl"
)

// ─────────────────────────────────────────────────────────────
// Settings Persistence
// ─────────────────────────────────────────────────────────────
//
// Key-value rows in app_settings. The field schema (suffix / mark per
// field) lives here between sessions under a single well-known key.

// SettingsStore reads and writes app_settings rows.
type SettingsStore struct {
	db *DB
}

// NewSettingsStore creates a SettingsStore.
func NewSettingsStore(db *DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// Get returns the raw value for key, or ErrNotFound.
func (s *SettingsStore) Get(key string) (string, error) {
	var v string
	err := s.db.conn.QueryRow(`SELECT value FROM app_settings WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("setting %q: %w", key, ErrNotFound)
	}
	return v, err
}

// Set upserts a raw value.
func (s *SettingsStore) Set(key, value string) error {
	_, err := s.db.conn.Exec(
		`INSERT INTO app_settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now(),
	)
	return err
}

// LoadSchema returns the schema saved under key, or nil when none exists.
func (s *SettingsStore) LoadSchema(key string) (*etl.Schema, error) {
	raw, err := s.Get(key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var schema etl.Schema
	if err := json.Unmarshal([]byte(raw), &schema); err != nil {
		return nil, fmt.Errorf("decode schema %q: %w", key, err)
	}
	return &schema, nil
}

// SaveSchema stores the schema under key, replacing any previous value.
func (s *SettingsStore) SaveSchema(key string, schema *etl.Schema) error {
	raw, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("encode schema: %w", err)
	}
	return s.Set(key, string(raw))
}
