package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/perchdesk/perch/internal/logging"
	"github.com/perchdesk/perch/internal/shared/validate"
	"go.uber.org/zap"
)

// Seeder loads widget catalog files from disk before discovery runs.
// Catalog files supply display names and default pin state for known
// types; persisted user decisions always win over catalog defaults.
type Seeder struct {
	registry   *Manager
	catalogDir string
	log        *logging.Logger
}

// catalogEntry is one *.widget.yaml document.
type catalogEntry struct {
	Type   string `yaml:"type"`
	Name   string `yaml:"name"`
	Pinned bool   `yaml:"pinned"`
}

// NewSeeder creates a catalog seeder for the registry.
func NewSeeder(registry *Manager, catalogDir string, log *logging.Logger) *Seeder {
	if log == nil {
		log = logging.NewNop()
	}
	return &Seeder{
		registry:   registry,
		catalogDir: catalogDir,
		log:        log,
	}
}

// SeedCatalog loads all *.widget.yaml files from the catalog directory.
// A missing directory is not an error; per-file failures are logged and
// counted, never fatal.
func (s *Seeder) SeedCatalog() error {
	if _, err := os.Stat(s.catalogDir); os.IsNotExist(err) {
		s.log.Info("no widget catalog directory", zap.String("dir", s.catalogDir))
		return nil
	}

	entries, err := os.ReadDir(s.catalogDir)
	if err != nil {
		return fmt.Errorf("failed to read catalog dir: %w", err)
	}

	var loaded, failed int
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".widget.yaml") {
			continue
		}
		if err := s.loadEntry(filepath.Join(s.catalogDir, entry.Name())); err != nil {
			s.log.Warn("failed to load catalog entry",
				zap.String("file", entry.Name()),
				zap.Error(err))
			failed++
			continue
		}
		loaded++
	}

	s.log.Info("widget catalog seeded",
		zap.Int("loaded", loaded),
		zap.Int("failed", failed))
	return nil
}

func (s *Seeder) loadEntry(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var entry catalogEntry
	if err := yaml.Unmarshal(data, &entry); err != nil {
		return fmt.Errorf("invalid catalog yaml: %w", err)
	}
	if err := validate.WidgetType(entry.Type); err != nil {
		return err
	}
	if err := validate.DisplayName(entry.Name); err != nil {
		return err
	}

	return s.registry.applyCatalogEntry(entry)
}

// applyCatalogEntry records catalog defaults for one type. Unknown types
// are tolerated: the catalog may describe widgets this build does not
// ship.
func (m *Manager) applyCatalogEntry(entry catalogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.discovered {
		return fmt.Errorf("cannot seed %s: discovery already ran", entry.Type)
	}

	if desc, ok := m.descriptors[entry.Type]; ok && entry.Name != "" {
		desc.Name = entry.Name
	}
	m.pinDefaults[entry.Type] = entry.Pinned
	return nil
}
