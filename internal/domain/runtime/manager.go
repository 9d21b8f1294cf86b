package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/perchdesk/perch/internal/infrastructure/monitoring"
	"github.com/perchdesk/perch/internal/logging"
	"github.com/perchdesk/perch/internal/shared/id"
	"github.com/perchdesk/perch/internal/shared/types"
	"go.uber.org/zap"
)

// Instance is the live runtime object for one activated widget.
type Instance struct {
	ID        string               `json:"id"`
	Type      string               `json:"type"`
	State     types.ExecutionState `json:"state"`
	Group     string               `json:"group,omitempty"`
	Surface   types.Surface        `json:"-"`
	CreatedAt time.Time            `json:"created_at"`
}

// PinStore persists the pinned flag on widget metadata. Implemented by
// the registry.
type PinStore interface {
	SetPinned(widgetID string, pinned bool) error
}

// Manager owns the live instance table and drives the
// activation/deactivation/pin/unpin state machine.
type Manager struct {
	mu        sync.Mutex
	instances map[string]*Instance // Protected by mu
	views     map[string]*Instance // Secondary views, protected by mu

	preview     *Instance // At most one, protected by mu
	previewType string

	pins    PinStore
	log     *logging.Logger
	metrics *monitoring.Metrics
}

// NewManager creates a widget runtime. pins may be nil when pin
// persistence is handled elsewhere (tests, previews-only hosts).
func NewManager(pins PinStore, log *logging.Logger) *Manager {
	if log == nil {
		log = logging.NewNop()
	}
	return &Manager{
		instances: make(map[string]*Instance),
		views:     make(map[string]*Instance),
		pins:      pins,
		log:       log,
	}
}

// WithMetrics adds metrics tracking to the manager.
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// WithPinStore binds the pin persistence layer. Called once at startup,
// after the registry (which implements PinStore but also needs the
// runtime) has been constructed.
func (m *Manager) WithPinStore(pins PinStore) *Manager {
	m.pins = pins
	return m
}

// Activate creates (or returns) the live instance for a metadata slot.
// Idempotent: a second call for the same identity returns the existing
// instance, never a duplicate. The check-and-insert is atomic, so two
// racing calls also converge on one instance.
func (m *Manager) Activate(ctx context.Context, meta *types.WidgetMetadata, activateView bool) (*Instance, error) {
	if meta == nil || meta.ID == "" || meta.Descriptor == nil || meta.Descriptor.Factory == nil {
		return nil, fmt.Errorf("%w: id and type descriptor are required", ErrInvalidMetadata)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The factory runs under the table lock: duplicate concurrent
	// activation must not build a second surface for the same identity.
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.instances[meta.ID]; ok {
		if activateView {
			existing.Surface.Show()
			existing.Surface.Focus()
		}
		return existing, nil
	}

	surface, err := buildSurface(meta.Descriptor.Factory)
	if err != nil {
		return nil, fmt.Errorf("failed to activate widget %s: %w", meta.ID, err)
	}

	instance := &Instance{
		ID:        meta.ID,
		Type:      meta.Type,
		State:     types.StateActivated,
		Group:     meta.Descriptor.Group,
		Surface:   surface,
		CreatedAt: time.Now(),
	}
	if err := surface.SetExecutionState(types.StateActivated); err != nil {
		m.log.Warn("surface rejected initial state",
			zap.String("widget_id", meta.ID), zap.Error(err))
	}

	m.instances[meta.ID] = instance
	if activateView {
		surface.Show()
		surface.Focus()
	}

	if m.metrics != nil {
		m.metrics.WidgetsActive.Inc()
		m.metrics.WidgetsActivated.Inc()
	}
	m.log.Info("widget activated",
		zap.String("widget_id", meta.ID),
		zap.String("type", meta.Type))

	return instance, nil
}

// Deactivate tears down the live instance for id and removes it from the
// table.
func (m *Manager) Deactivate(widgetID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	instance, ok := m.instances[widgetID]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownWidget, widgetID)
	}

	instance.State = types.StateStopped
	if err := instance.Surface.SetExecutionState(types.StateStopped); err != nil {
		m.log.Warn("surface rejected stop",
			zap.String("widget_id", widgetID), zap.Error(err))
	}
	instance.Surface.Hide()
	delete(m.instances, widgetID)

	if m.metrics != nil {
		m.metrics.WidgetsActive.Dec()
	}
	m.log.Info("widget deactivated", zap.String("widget_id", widgetID))

	return true, nil
}

// PinToDesktop activates the widget, shows its surface, and persists the
// pinned flag so it auto-activates on the next start.
func (m *Manager) PinToDesktop(ctx context.Context, meta *types.WidgetMetadata) (*Instance, error) {
	instance, err := m.Activate(ctx, meta, true)
	if err != nil {
		return nil, err
	}

	if m.pins != nil {
		if err := m.pins.SetPinned(meta.ID, true); err != nil {
			return instance, fmt.Errorf("failed to persist pin for %s: %w", meta.ID, err)
		}
	}
	meta.Pinned = true
	return instance, nil
}

// UnpinFromDesktop hides and deactivates the widget and clears the
// pinned flag. Calling it for an id that was never activated is a no-op,
// not an error, and performs no state change.
func (m *Manager) UnpinFromDesktop(widgetID string) error {
	if _, err := m.Deactivate(widgetID); err != nil {
		// Already gone, whether never activated or deactivated by a
		// concurrent caller. Nothing to tear down.
		if errors.Is(err, ErrUnknownWidget) {
			return nil
		}
		return err
	}
	if m.pins != nil {
		if err := m.pins.SetPinned(widgetID, false); err != nil {
			return fmt.Errorf("failed to clear pin for %s: %w", widgetID, err)
		}
	}
	return nil
}

// SetExecutionState transitions a live instance. Transitioning into the
// unknown state (or any unrecognized value) is rejected with
// ErrInvalidState: it indicates a caller bug, not a legitimate target.
func (m *Manager) SetExecutionState(widgetID string, state types.ExecutionState) error {
	if !state.Valid() {
		return fmt.Errorf("%w: %q is not a legal target", ErrInvalidState, state)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	instance, ok := m.instances[widgetID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownWidget, widgetID)
	}

	instance.State = state
	return instance.Surface.SetExecutionState(state)
}

// Suspend parks an activated instance (window minimized / host hid it).
func (m *Manager) Suspend(widgetID string) error {
	return m.SetExecutionState(widgetID, types.StateSuspended)
}

// Resume reactivates a suspended instance (window restored).
func (m *Manager) Resume(widgetID string) error {
	return m.SetExecutionState(widgetID, types.StateActivated)
}

// Get retrieves a live instance by widget id.
func (m *Manager) Get(widgetID string) (*Instance, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	instance, ok := m.instances[widgetID]
	return instance, ok
}

// ByType returns all live instances of one widget type.
func (m *Manager) ByType(widgetType string) []*Instance {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*Instance
	for _, instance := range m.instances {
		if instance.Type == widgetType {
			out = append(out, instance)
		}
	}
	return out
}

// Activated returns all instances currently in the activated state.
func (m *Manager) Activated() []*Instance {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*Instance
	for _, instance := range m.instances {
		if instance.State == types.StateActivated {
			out = append(out, instance)
		}
	}
	return out
}

// ActivatedOfType returns activated instances of one widget type.
func (m *Manager) ActivatedOfType(widgetType string) []*Instance {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*Instance
	for _, instance := range m.instances {
		if instance.Type == widgetType && instance.State == types.StateActivated {
			out = append(out, instance)
		}
	}
	return out
}

// CreatePreview produces the detached, non-interactive instance used for
// live settings previews. At most one preview exists at a time:
// re-requesting the same type returns the existing preview; a different
// type replaces it.
func (m *Manager) CreatePreview(ctx context.Context, desc *types.TypeDescriptor) (*Instance, error) {
	if desc == nil || desc.Factory == nil {
		return nil, fmt.Errorf("%w: type descriptor with factory required", ErrInvalidMetadata)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.preview != nil {
		if m.previewType == desc.Type {
			return m.preview, nil
		}
		m.preview.Surface.Hide()
		m.preview = nil
	}

	surface, err := buildSurface(desc.Factory)
	if err != nil {
		return nil, fmt.Errorf("failed to create preview of %s: %w", desc.Type, err)
	}

	m.preview = &Instance{
		ID:        id.NewPreviewID().String(),
		Type:      desc.Type,
		State:     types.StateActivated,
		Surface:   surface,
		CreatedAt: time.Now(),
	}
	m.previewType = desc.Type
	return m.preview, nil
}

// ClosePreview tears down the current preview, if any.
func (m *Manager) ClosePreview() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closePreview()
}

// Shutdown deactivates every live instance and view. Used on host exit.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for widgetID, instance := range m.instances {
		instance.State = types.StateStopped
		instance.Surface.Hide()
		delete(m.instances, widgetID)
		if m.metrics != nil {
			m.metrics.WidgetsActive.Dec()
		}
	}
	for viewID, view := range m.views {
		view.State = types.StateStopped
		view.Surface.Hide()
		delete(m.views, viewID)
		if m.metrics != nil {
			m.metrics.ViewsActive.Dec()
		}
	}
	m.closePreview()
}

// closePreview tears down the preview. Must hold mu.
func (m *Manager) closePreview() {
	if m.preview != nil {
		m.preview.Surface.Hide()
		m.preview = nil
		m.previewType = ""
	}
}

// Stats returns live-table statistics.
func (m *Manager) Stats() types.RuntimeStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := types.RuntimeStats{
		TotalInstances: len(m.instances),
		SecondaryViews: len(m.views),
	}
	for _, instance := range m.instances {
		switch instance.State {
		case types.StateActivated:
			stats.Activated++
		case types.StateSuspended:
			stats.Suspended++
		}
	}
	return stats
}

// buildSurface invokes a widget factory, converting a panic into an
// error so one broken widget cannot take down the host.
func buildSurface(factory types.Factory) (surface types.Surface, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("widget factory panicked: %v", r)
		}
	}()
	return factory()
}
