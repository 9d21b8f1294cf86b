package todo

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/perchdesk/perch/internal/domain/cache"
	"github.com/perchdesk/perch/internal/providers"
	"github.com/perchdesk/perch/internal/shared/types"
)

type staticPerms struct {
	mu    sync.Mutex
	state types.PermissionState
	subs  []func(types.PermissionChange)
}

func (p *staticPerms) Check(string, types.Permission) types.PermissionState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *staticPerms) Subscribe(fn func(types.PermissionChange)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subs = append(p.subs, fn)
}

func (p *staticPerms) fire(change types.PermissionChange) {
	p.mu.Lock()
	p.state = change.State
	subs := make([]func(types.PermissionChange), len(p.subs))
	copy(subs, p.subs)
	p.mu.Unlock()
	for _, fn := range subs {
		fn(change)
	}
}

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStore() *memStore { return &memStore{data: make(map[string][]byte)} }

func (s *memStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.data[key]
	return data, ok, nil
}

func (s *memStore) Set(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = data
	return nil
}

func (s *memStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

type countingSource struct {
	mu    sync.Mutex
	calls int
}

func (s *countingSource) Tasks(context.Context) ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return []Task{{ID: "tsk_1", Title: "Water plants"}}, nil
}

func (s *countingSource) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestTasksGatedAndCached(t *testing.T) {
	perms := &staticPerms{state: types.PermissionUndefined}
	source := &countingSource{}
	p := NewProvider("wdg_1", perms, cache.NewAccessor(newMemStore(), nil), source, nil)
	ctx := context.Background()

	if _, err := p.Tasks(ctx, false); !errors.Is(err, providers.ErrNotPermitted) {
		t.Fatalf("expected ErrNotPermitted, got %v", err)
	}

	perms.state = types.PermissionAllowed
	if _, err := p.Tasks(ctx, false); err != nil {
		t.Fatalf("Tasks failed: %v", err)
	}
	if _, err := p.Tasks(ctx, false); err != nil {
		t.Fatalf("Tasks failed: %v", err)
	}
	if source.count() != 1 {
		t.Errorf("cached read must not hit the source, got %d calls", source.count())
	}
}

func TestTasksRevokeDropsCache(t *testing.T) {
	perms := &staticPerms{state: types.PermissionAllowed}
	store := newMemStore()
	p := NewProvider("wdg_1", perms, cache.NewAccessor(store, nil), &countingSource{}, nil)
	ctx := context.Background()

	if _, err := p.Tasks(ctx, false); err != nil {
		t.Fatalf("Tasks failed: %v", err)
	}

	perms.fire(types.PermissionChange{
		WidgetID:   "wdg_1",
		Permission: required,
		State:      types.PermissionDenied,
	})

	if _, ok, _ := store.Get(ctx, cacheKey); ok {
		t.Error("revoke must drop the cached record")
	}
	if _, err := p.Tasks(ctx, false); !errors.Is(err, providers.ErrNotPermitted) {
		t.Errorf("revoked widget must degrade to ErrNotPermitted, got %v", err)
	}
}
