package cache

import (
	"context"
	"sync"

	"github.com/perchdesk/perch/internal/storage"
)

// Store is the durable layer under the cache-through accessor. A miss is
// (nil, false, nil); an error means the store itself was unreadable, which
// callers must treat differently from a miss.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// FileStore implements Store over the blob persistence contract with
// per-key serialization, so concurrent accessors on the same key cannot
// interleave a read with a partial write.
type FileStore struct {
	blobs storage.BlobStore
	locks sync.Map // key -> *sync.Mutex
}

// NewFileStore creates a file-backed cache store.
func NewFileStore(blobs storage.BlobStore) *FileStore {
	return &FileStore{blobs: blobs}
}

func (s *FileStore) keyLock(key string) *sync.Mutex {
	lock, _ := s.locks.LoadOrStore(key, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// Get reads the record for key.
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	lock := s.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	return s.blobs.GetFile(key)
}

// Set overwrites the record for key.
func (s *FileStore) Set(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	lock := s.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	return s.blobs.SetFile(key, data)
}

// Delete removes the record for key. Absent records are a no-op.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	lock := s.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	return s.blobs.DeleteFile(key)
}
