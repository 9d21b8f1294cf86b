package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/perchdesk/perch/internal/domain/runtime"
	"github.com/perchdesk/perch/internal/logging"
	"github.com/perchdesk/perch/internal/shared/id"
	"github.com/perchdesk/perch/internal/shared/types"
	"github.com/perchdesk/perch/internal/shared/validate"
	"github.com/perchdesk/perch/internal/storage"
	"go.uber.org/zap"
)

// Activator is the slice of the runtime the registry needs for
// auto-activating pinned widgets.
type Activator interface {
	Activate(ctx context.Context, meta *types.WidgetMetadata, activateView bool) (*runtime.Instance, error)
}

// Manager discovers widget types, assigns each a stable identity, tracks
// pinned state, and exposes lookup by id and type.
type Manager struct {
	mu          sync.RWMutex
	descriptors map[string]*types.TypeDescriptor // by type, protected by mu
	order       []string                         // registration order, for deterministic discovery
	metadata    map[string]*types.WidgetMetadata // by widget id
	byType      map[string]*types.WidgetMetadata
	pinDefaults map[string]bool // catalog defaults, applied when no pin was ever persisted
	discovered  bool

	settings  storage.Settings
	activator Activator
	log       *logging.Logger

	subsMu sync.RWMutex
	subs   []func([]*types.WidgetMetadata)
}

// NewManager creates a widget registry over the settings store.
func NewManager(settings storage.Settings, activator Activator, log *logging.Logger) *Manager {
	if log == nil {
		log = logging.NewNop()
	}
	return &Manager{
		descriptors: make(map[string]*types.TypeDescriptor),
		metadata:    make(map[string]*types.WidgetMetadata),
		byType:      make(map[string]*types.WidgetMetadata),
		pinDefaults: make(map[string]bool),
		settings:    settings,
		activator:   activator,
		log:         log,
	}
}

// Register adds a widget type descriptor to the discovery list. Types
// are registered explicitly at startup; registration after discovery has
// run is rejected.
func (m *Manager) Register(desc *types.TypeDescriptor) error {
	if desc == nil {
		return fmt.Errorf("descriptor is required")
	}
	if err := validate.WidgetType(desc.Type); err != nil {
		return err
	}
	if err := validate.DisplayName(desc.Name); err != nil {
		return err
	}
	if err := validate.Group(desc.Group); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.discovered {
		return fmt.Errorf("cannot register %s: discovery already ran", desc.Type)
	}
	if _, ok := m.descriptors[desc.Type]; ok {
		return fmt.Errorf("widget type already registered: %s", desc.Type)
	}

	m.descriptors[desc.Type] = desc
	m.order = append(m.order, desc.Type)
	return nil
}

// OnDiscovered registers a listener for the discovery-complete
// notification. The tray/shell layer uses it to build menus.
func (m *Manager) OnDiscovered(fn func([]*types.WidgetMetadata)) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	m.subs = append(m.subs, fn)
}

// Discover enumerates all registered widget types exactly once per
// process lifetime, assigning each a metadata record with a stable
// identity. Pinned widgets are auto-activated through the runtime;
// their activation failures are logged, never returned. A failure to
// materialize a single type is isolated: discovery continues for the
// remaining types.
func (m *Manager) Discover(ctx context.Context) []*types.WidgetMetadata {
	m.mu.Lock()
	if m.discovered {
		list := m.listLocked()
		m.mu.Unlock()
		return list
	}

	for _, widgetType := range m.order {
		desc := m.descriptors[widgetType]
		meta, err := m.materializeLocked(desc)
		if err != nil {
			m.log.Error("widget type skipped during discovery",
				zap.String("type", widgetType),
				zap.Error(err))
			continue
		}
		m.metadata[meta.ID] = meta
		m.byType[meta.Type] = meta
	}
	m.discovered = true
	list := m.listLocked()
	m.mu.Unlock()

	// Activations and notifications run outside the lock: the runtime
	// calls back into SetPinned.
	for _, meta := range list {
		if !meta.Pinned || m.activator == nil {
			continue
		}
		if _, err := m.activator.Activate(ctx, meta, true); err != nil {
			m.log.Error("failed to auto-activate pinned widget",
				zap.String("widget_id", meta.ID),
				zap.String("type", meta.Type),
				zap.Error(err))
		}
	}

	m.notifyDiscovered(list)
	return list
}

// materializeLocked builds (or restores) the metadata slot for one
// descriptor. Must hold mu.
func (m *Manager) materializeLocked(desc *types.TypeDescriptor) (*types.WidgetMetadata, error) {
	idKey := fmt.Sprintf("widget.id.%s", desc.Type)
	widgetID, err := m.settings.Get(idKey, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load identity: %w", err)
	}
	if widgetID == "" {
		widgetID = id.NewWidgetID().String()
		if err := m.settings.Set(idKey, widgetID); err != nil {
			return nil, fmt.Errorf("failed to persist identity: %w", err)
		}
	}

	pinned, err := m.loadPinLocked(desc.Type, widgetID)
	if err != nil {
		return nil, err
	}

	return &types.WidgetMetadata{
		ID:         widgetID,
		Type:       desc.Type,
		Descriptor: desc,
		Pinned:     pinned,
		CreatedAt:  time.Now(),
	}, nil
}

// loadPinLocked resolves the pin flag: a persisted decision wins, then
// the catalog default, then false. Must hold mu.
func (m *Manager) loadPinLocked(widgetType, widgetID string) (bool, error) {
	pinKey := fmt.Sprintf("widget.pinned.%s", widgetID)
	stored, err := m.settings.Contains(pinKey)
	if err != nil {
		return false, fmt.Errorf("failed to read pin flag: %w", err)
	}
	if stored {
		raw, err := m.settings.Get(pinKey, "false")
		if err != nil {
			return false, fmt.Errorf("failed to read pin flag: %w", err)
		}
		return raw == "true", nil
	}
	return m.pinDefaults[widgetType], nil
}

// SetPinned persists the pin flag for a widget. Implements the runtime's
// pin store.
func (m *Manager) SetPinned(widgetID string, pinned bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	meta, ok := m.metadata[widgetID]
	if !ok {
		return fmt.Errorf("unknown widget id: %s", widgetID)
	}

	value := "false"
	if pinned {
		value = "true"
	}
	if err := m.settings.Set(fmt.Sprintf("widget.pinned.%s", widgetID), value); err != nil {
		return fmt.Errorf("failed to persist pin flag for %s: %w", widgetID, err)
	}
	meta.Pinned = pinned
	return nil
}

// DeclaredPermissions returns the permission set declared by the
// widget's type. Implements the permission manager's declaration source.
func (m *Manager) DeclaredPermissions(widgetID string) []types.Permission {
	m.mu.RLock()
	defer m.mu.RUnlock()

	meta, ok := m.metadata[widgetID]
	if !ok {
		return nil
	}
	return meta.DeclaredPermissions()
}

// Metadata retrieves a metadata slot by widget id.
func (m *Manager) Metadata(widgetID string) (*types.WidgetMetadata, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	meta, ok := m.metadata[widgetID]
	return meta, ok
}

// MetadataByType retrieves a metadata slot by widget type.
func (m *Manager) MetadataByType(widgetType string) (*types.WidgetMetadata, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	meta, ok := m.byType[widgetType]
	return meta, ok
}

// List returns all discovered metadata in registration order.
func (m *Manager) List() []*types.WidgetMetadata {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listLocked()
}

// listLocked builds the ordered metadata list. Must hold mu (read or write).
func (m *Manager) listLocked() []*types.WidgetMetadata {
	out := make([]*types.WidgetMetadata, 0, len(m.byType))
	for _, widgetType := range m.order {
		if meta, ok := m.byType[widgetType]; ok {
			out = append(out, meta)
		}
	}
	return out
}

func (m *Manager) notifyDiscovered(list []*types.WidgetMetadata) {
	m.subsMu.RLock()
	subs := make([]func([]*types.WidgetMetadata), len(m.subs))
	copy(subs, m.subs)
	m.subsMu.RUnlock()

	for _, fn := range subs {
		fn(list)
	}
}
