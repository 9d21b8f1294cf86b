package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openBackends(t *testing.T) map[string]Settings {
	t.Helper()
	dir := t.TempDir()

	file, err := OpenFileSettings(filepath.Join(dir, "settings.json"))
	require.NoError(t, err)

	sqlite, err := OpenSQLiteSettings(filepath.Join(dir, "settings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Settings{"file": file, "sqlite": sqlite}
}

func TestSettingsContract(t *testing.T) {
	for name, s := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			v, err := s.Get("missing", "fallback")
			require.NoError(t, err)
			assert.Equal(t, "fallback", v)

			require.NoError(t, s.Set("widget.id.clock", "wdg_01"))

			v, err = s.Get("widget.id.clock", "")
			require.NoError(t, err)
			assert.Equal(t, "wdg_01", v)

			ok, err := s.Contains("widget.id.clock")
			require.NoError(t, err)
			assert.True(t, ok)

			// Overwrite
			require.NoError(t, s.Set("widget.id.clock", "wdg_02"))
			v, _ = s.Get("widget.id.clock", "")
			assert.Equal(t, "wdg_02", v)

			require.NoError(t, s.Remove("widget.id.clock"))
			ok, err = s.Contains("widget.id.clock")
			require.NoError(t, err)
			assert.False(t, ok)

			// Removing an absent key is a no-op
			require.NoError(t, s.Remove("widget.id.clock"))
		})
	}
}

func TestFileSettingsReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	s, err := OpenFileSettings(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("widget.pinned.wdg_01", "true"))

	reloaded, err := OpenFileSettings(path)
	require.NoError(t, err)

	v, err := reloaded.Get("widget.pinned.wdg_01", "false")
	require.NoError(t, err)
	assert.Equal(t, "true", v)
}

func TestFileBlobs(t *testing.T) {
	blobs, err := NewFileBlobs(t.TempDir())
	require.NoError(t, err)

	_, ok, err := blobs.GetFile("calendar.events")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, blobs.SetFile("calendar.events", []byte(`[{"id":"e1"}]`)))

	data, ok, err := blobs.GetFile("calendar.events")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[{"id":"e1"}]`, string(data))

	require.NoError(t, blobs.DeleteFile("calendar.events"))
	_, ok, err = blobs.GetFile("calendar.events")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting an absent blob is a no-op
	require.NoError(t, blobs.DeleteFile("calendar.events"))
}
