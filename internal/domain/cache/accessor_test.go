package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/perchdesk/perch/internal/logging"
)

// memStore is an in-memory Store with fault injection.
type memStore struct {
	records map[string][]byte
	getErr  error
	setErr  error
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string][]byte)}
}

func (s *memStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.getErr != nil {
		return nil, false, s.getErr
	}
	data, ok := s.records[key]
	return data, ok, nil
}

func (s *memStore) Set(ctx context.Context, key string, data []byte) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.records[key] = data
	return nil
}

func (s *memStore) Delete(ctx context.Context, key string) error {
	delete(s.records, key)
	return nil
}

func TestCacheHitSkipsFetch(t *testing.T) {
	store := newMemStore()
	store.records["k"] = []byte(`"cached"`)
	acc := NewAccessor(store, logging.NewNop())

	calls := 0
	got, err := Get(context.Background(), acc, "k", func(context.Context) (string, error) {
		calls++
		return "fetched", nil
	}, Options{})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != "cached" {
		t.Errorf("expected cached value, got %q", got)
	}
	if calls != 0 {
		t.Errorf("fetch must not run on a cache hit, ran %d times", calls)
	}
}

func TestForceRefreshAlwaysFetches(t *testing.T) {
	store := newMemStore()
	store.records["k"] = []byte(`"stale"`)
	acc := NewAccessor(store, logging.NewNop())

	calls := 0
	got, err := Get(context.Background(), acc, "k", func(context.Context) (string, error) {
		calls++
		return "fresh", nil
	}, Options{ForceRefresh: true})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != "fresh" {
		t.Errorf("expected fresh value, got %q", got)
	}
	if calls != 1 {
		t.Errorf("expected exactly one fetch, got %d", calls)
	}
	if string(store.records["k"]) != `"fresh"` {
		t.Errorf("record not overwritten: %s", store.records["k"])
	}
}

func TestMissFetchesAndPersists(t *testing.T) {
	store := newMemStore()
	acc := NewAccessor(store, logging.NewNop())

	got, err := Get(context.Background(), acc, "k", func(context.Context) ([]int, error) {
		return []int{1, 2, 3}, nil
	}, Options{})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("expected 3 elements, got %v", got)
	}
	if _, ok := store.records["k"]; !ok {
		t.Error("fetched value was not persisted")
	}
}

func TestFailedFetchPreservesCache(t *testing.T) {
	store := newMemStore()
	acc := NewAccessor(store, logging.NewNop())

	fetchErr := errors.New("provider down")
	_, err := Get(context.Background(), acc, "k", func(context.Context) (string, error) {
		return "", fetchErr
	}, Options{})
	if !errors.Is(err, fetchErr) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if _, ok := store.records["k"]; ok {
		t.Error("failed fetch must not write to the cache")
	}

	// With a previously cached record, a forced refresh that fails must
	// not be able to corrupt it after the delete, so seed post-delete
	// state and verify the plain-miss path too.
	store.records["k2"] = []byte(`"good"`)
	got, err := Get(context.Background(), acc, "k2", func(context.Context) (string, error) {
		return "", fetchErr
	}, Options{})
	if err != nil {
		t.Fatalf("cache hit should not error: %v", err)
	}
	if got != "good" {
		t.Errorf("expected cached value, got %q", got)
	}
	if string(store.records["k2"]) != `"good"` {
		t.Error("cached record changed")
	}
}

func TestStorageErrorShortCircuits(t *testing.T) {
	store := newMemStore()
	store.getErr = errors.New("disk unreadable")
	acc := NewAccessor(store, logging.NewNop())

	calls := 0
	_, err := Get(context.Background(), acc, "k", func(context.Context) (string, error) {
		calls++
		return "fetched", nil
	}, Options{})
	if !errors.Is(err, store.getErr) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if calls != 0 {
		t.Error("storage errors must not trigger a fallback fetch")
	}
}

func TestNoFetchOnMiss(t *testing.T) {
	store := newMemStore()
	acc := NewAccessor(store, logging.NewNop())

	got, err := Get(context.Background(), acc, "k", func(context.Context) (string, error) {
		t.Fatal("fetch must not run in NoFetch mode")
		return "", nil
	}, Options{NoFetch: true})
	if err != nil {
		t.Fatalf("NoFetch miss must not error: %v", err)
	}
	if got != "" {
		t.Errorf("expected zero value, got %q", got)
	}
	if len(store.records) != 0 {
		t.Error("cache must remain empty")
	}
}

func TestNoFetchServesHit(t *testing.T) {
	store := newMemStore()
	store.records["k"] = []byte(`42`)
	acc := NewAccessor(store, logging.NewNop())

	got, err := Get(context.Background(), acc, "k", func(context.Context) (int, error) {
		return 0, errors.New("unused")
	}, Options{NoFetch: true})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != 42 {
		t.Errorf("expected 42, got %d", got)
	}
}

func TestWriteBackErrorSurfaces(t *testing.T) {
	store := newMemStore()
	store.setErr = errors.New("disk full")
	acc := NewAccessor(store, logging.NewNop())

	_, err := Get(context.Background(), acc, "k", func(context.Context) (string, error) {
		return "fetched", nil
	}, Options{})
	if !errors.Is(err, store.setErr) {
		t.Fatalf("expected write-back error, got %v", err)
	}
}

func TestReset(t *testing.T) {
	store := newMemStore()
	store.records["k"] = []byte(`"cached"`)
	acc := NewAccessor(store, logging.NewNop())

	if err := acc.Reset(context.Background(), "k"); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if _, ok := store.records["k"]; ok {
		t.Error("record should be gone after reset")
	}
}
