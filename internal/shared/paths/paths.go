// Package paths centralizes the host's on-disk layout. Every file the
// host persists lives under one data directory, so backup and reset are
// a single directory operation.
package paths

import "path/filepath"

// Layout resolves the host's files relative to its data directory.
type Layout struct {
	root string
}

// NewLayout creates a layout rooted at dataDir.
func NewLayout(dataDir string) Layout {
	return Layout{root: dataDir}
}

// Root returns the data directory.
func (l Layout) Root() string {
	return l.root
}

// SettingsFile returns the JSON settings document path.
func (l Layout) SettingsFile() string {
	return filepath.Join(l.root, "settings.json")
}

// SettingsDB returns the SQLite settings database path.
func (l Layout) SettingsDB() string {
	return filepath.Join(l.root, "settings.db")
}

// CacheDir returns the blob cache directory.
func (l Layout) CacheDir() string {
	return filepath.Join(l.root, "cache")
}
