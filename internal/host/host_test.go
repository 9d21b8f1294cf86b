package host

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/perchdesk/perch/internal/infrastructure/config"
	"github.com/perchdesk/perch/internal/shared/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSurface struct {
	state types.ExecutionState
}

func (s *stubSurface) Show() {}
func (s *stubSurface) Hide() {}
func (s *stubSurface) Focus() {}

func (s *stubSurface) ID() string { return "surface" }

func (s *stubSurface) ExecutionState() types.ExecutionState { return s.state }
func (s *stubSurface) SetExecutionState(state types.ExecutionState) error {
	s.state = state
	return nil
}

type approvingPrompter struct{}

func (approvingPrompter) PromptConsent(context.Context, string, string) (bool, error) {
	return true, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Storage:   config.StorageConfig{DataDir: dir, Backend: "file"},
		Cache:     config.CacheConfig{Backend: "file"},
		Telemetry: config.TelemetryConfig{Interval: time.Second, HistorySize: 8},
		Catalog:   config.CatalogConfig{Dir: filepath.Join(dir, "catalog")},
		Logging:   config.LogConfig{Level: "info"},
	}
}

func clockType() *types.TypeDescriptor {
	return &types.TypeDescriptor{
		Type: "clock",
		Name: "Clock",
		Permissions: []types.Permission{
			{Scope: types.ScopeLocation, Level: types.LevelCoarse},
		},
		Factory: func() (types.Surface, error) { return &stubSurface{}, nil },
	}
}

func TestHostLifecycle(t *testing.T) {
	cfg := testConfig(t)
	catalog := []byte("type: clock\npinned: true\n")
	require.NoError(t, os.MkdirAll(cfg.Catalog.Dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Catalog.Dir, "clock.widget.yaml"), catalog, 0o644))

	h, err := New(cfg, Options{Prompter: approvingPrompter{}}, nil)
	require.NoError(t, err)
	require.NoError(t, h.RegisterType(clockType()))
	require.NoError(t, h.Start(context.Background()))

	list := h.Registry.List()
	require.Len(t, list, 1)
	widgetID := list[0].ID

	// Catalog pinned the clock, so discovery auto-activated it.
	instance, ok := h.Runtime.Get(widgetID)
	require.True(t, ok)
	assert.Equal(t, types.StateActivated, instance.State)

	perm := types.Permission{Scope: types.ScopeLocation, Level: types.LevelCoarse}
	state := h.Permissions.Request(context.Background(), widgetID, perm)
	assert.Equal(t, types.PermissionAllowed, state)

	require.NoError(t, h.Close())

	// A second host over the same data dir restores identity, the grant,
	// and the pinned auto-activation.
	h2, err := New(cfg, Options{}, nil)
	require.NoError(t, err)
	require.NoError(t, h2.RegisterType(clockType()))
	require.NoError(t, h2.Start(context.Background()))

	list2 := h2.Registry.List()
	require.Len(t, list2, 1)
	assert.Equal(t, widgetID, list2[0].ID)
	assert.Equal(t, types.PermissionAllowed, h2.Permissions.Check(widgetID, perm))
	_, ok = h2.Runtime.Get(widgetID)
	assert.True(t, ok)

	require.NoError(t, h2.Close())
}

func TestHostUnpinSurvivesRestart(t *testing.T) {
	cfg := testConfig(t)

	h, err := New(cfg, Options{}, nil)
	require.NoError(t, err)
	require.NoError(t, h.RegisterType(clockType()))
	require.NoError(t, h.Start(context.Background()))

	list := h.Registry.List()
	require.Len(t, list, 1)
	meta := list[0]

	_, err = h.Runtime.PinToDesktop(context.Background(), meta)
	require.NoError(t, err)
	require.NoError(t, h.Runtime.UnpinFromDesktop(meta.ID))
	require.NoError(t, h.Close())

	h2, err := New(cfg, Options{}, nil)
	require.NoError(t, err)
	require.NoError(t, h2.RegisterType(clockType()))
	require.NoError(t, h2.Start(context.Background()))

	list2 := h2.Registry.List()
	require.Len(t, list2, 1)
	assert.False(t, list2[0].Pinned)
	_, ok := h2.Runtime.Get(list2[0].ID)
	assert.False(t, ok, "unpinned widget must not auto-activate")

	require.NoError(t, h2.Close())
}

func TestHostRejectsUnknownBackends(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Backend = "etcd"
	_, err := New(cfg, Options{}, nil)
	require.Error(t, err)

	cfg = testConfig(t)
	cfg.Cache.Backend = "memcached"
	_, err = New(cfg, Options{}, nil)
	require.Error(t, err)
}
