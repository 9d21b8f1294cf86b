package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// BlobStore persists named binary blobs, the larger-payload counterpart
// of the Settings contract. A missing blob is (nil, false, nil), not an
// error; callers must be able to tell "no data" from "couldn't read".
type BlobStore interface {
	GetFile(name string) ([]byte, bool, error)
	SetFile(name string, data []byte) error
	DeleteFile(name string) error
}

// FileBlobs stores one file per blob under a directory.
type FileBlobs struct {
	dir string
}

// NewFileBlobs creates a blob store rooted at dir.
func NewFileBlobs(dir string) (*FileBlobs, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob dir: %w", err)
	}
	return &FileBlobs{dir: dir}, nil
}

// GetFile reads a blob. Absent blobs return ok=false with no error.
func (b *FileBlobs) GetFile(name string) ([]byte, bool, error) {
	data, err := os.ReadFile(b.blobPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read blob %q: %w", name, err)
	}
	return data, true, nil
}

// SetFile writes a blob atomically (temp file plus rename).
func (b *FileBlobs) SetFile(name string, data []byte) error {
	path := b.blobPath(name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write blob %q: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace blob %q: %w", name, err)
	}
	return nil
}

// DeleteFile removes a blob. Deleting an absent blob is a no-op.
func (b *FileBlobs) DeleteFile(name string) error {
	err := os.Remove(b.blobPath(name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob %q: %w", name, err)
	}
	return nil
}

// blobPath maps a blob name to a filesystem path, flattening characters
// that would escape the blob directory.
func (b *FileBlobs) blobPath(name string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
	return filepath.Join(b.dir, safe+".blob")
}
