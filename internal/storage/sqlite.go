package storage

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteSettings is a Settings backend over a single key-value table.
// Useful when several host processes share one data directory; SQLite
// serializes concurrent writers where the JSON document cannot.
type SQLiteSettings struct {
	db *sql.DB
}

// OpenSQLiteSettings opens (creating if needed) the settings database at
// path and runs the schema migration.
func OpenSQLiteSettings(path string) (*SQLiteSettings, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings db: %w", err)
	}

	// Single writer; the host serializes settings mutations per key anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate settings db: %w", err)
	}

	return &SQLiteSettings{db: db}, nil
}

// Get returns the stored value or def if the key is absent.
func (s *SQLiteSettings) Get(key, def string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return def, nil
	}
	if err != nil {
		return "", fmt.Errorf("settings get %q: %w", key, err)
	}
	return value, nil
}

// Set stores a value, replacing any previous one.
func (s *SQLiteSettings) Set(key, value string) error {
	if _, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value,
	); err != nil {
		return fmt.Errorf("settings set %q: %w", key, err)
	}
	return nil
}

// Remove deletes a key. Removing an absent key is a no-op.
func (s *SQLiteSettings) Remove(key string) error {
	if _, err := s.db.Exec(`DELETE FROM settings WHERE key = ?`, key); err != nil {
		return fmt.Errorf("settings remove %q: %w", key, err)
	}
	return nil
}

// Contains reports whether the key has a stored value.
func (s *SQLiteSettings) Contains(key string) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM settings WHERE key = ?`, key).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("settings contains %q: %w", key, err)
	}
	return true, nil
}

// Close releases the database handle.
func (s *SQLiteSettings) Close() error {
	return s.db.Close()
}
