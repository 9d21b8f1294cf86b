package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Settings is the flat string-keyed settings store consumed by the
// registry (widget identities, pin flags) and the permission store.
// Implementations must distinguish "key absent" (default returned, no
// error) from "store unreadable" (error returned).
type Settings interface {
	Get(key, def string) (string, error)
	Set(key, value string) error
	Remove(key string) error
	Contains(key string) (bool, error)
	Close() error
}

// FileSettings persists settings as a single JSON document. Writes go
// through a temp file and rename so a crash never leaves a torn document.
type FileSettings struct {
	mu     sync.RWMutex
	path   string
	values map[string]string
}

// OpenFileSettings loads (or initializes) a settings document at path.
func OpenFileSettings(path string) (*FileSettings, error) {
	s := &FileSettings{
		path:   path,
		values: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read settings: %w", err)
		}
		return s, nil
	}

	if err := json.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}
	return s, nil
}

// Get returns the stored value or def if the key is absent.
func (s *FileSettings) Get(key, def string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if v, ok := s.values[key]; ok {
		return v, nil
	}
	return def, nil
}

// Set stores a value and flushes the document.
func (s *FileSettings) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return s.flush()
}

// Remove deletes a key and flushes the document. Removing an absent key
// is a no-op.
func (s *FileSettings) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	return s.flush()
}

// Contains reports whether the key has a stored value.
func (s *FileSettings) Contains(key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.values[key]
	return ok, nil
}

// Close flushes any pending state. FileSettings writes through, so this
// is a no-op kept for interface symmetry.
func (s *FileSettings) Close() error {
	return nil
}

// flush writes the document atomically. Must hold mu.
func (s *FileSettings) flush() error {
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create settings dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace settings: %w", err)
	}
	return nil
}
