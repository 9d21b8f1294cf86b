package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/perchdesk/perch/internal/shared/types"
	"go.uber.org/zap"
)

// Secondary views let conceptually one widget run many simultaneous
// instances (several sticky notes). They live in their own sub-registry,
// keyed by a freshly generated id per call rather than the metadata id,
// and share a group name.

// CreateView opens a new group-scoped view of a secondary-capable
// descriptor. Each call yields a distinct instance.
func (m *Manager) CreateView(ctx context.Context, desc *types.TypeDescriptor) (*Instance, error) {
	return m.CreateViewWithID(ctx, desc, uuid.New().String())
}

// CreateViewWithID opens a view under a caller-supplied id. Unlike
// Activate, this path is not idempotent: an id that already exists in the
// sub-registry is an identity conflict.
func (m *Manager) CreateViewWithID(ctx context.Context, desc *types.TypeDescriptor, viewID string) (*Instance, error) {
	if desc == nil || desc.Factory == nil {
		return nil, fmt.Errorf("%w: type descriptor with factory required", ErrInvalidMetadata)
	}
	if !desc.Secondary {
		return nil, fmt.Errorf("%w: type %s does not support secondary views", ErrInvalidMetadata, desc.Type)
	}
	if viewID == "" {
		return nil, fmt.Errorf("%w: view id required", ErrInvalidMetadata)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.views[viewID]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateView, viewID)
	}

	surface, err := buildSurface(desc.Factory)
	if err != nil {
		return nil, fmt.Errorf("failed to create view of %s: %w", desc.Type, err)
	}

	group := desc.Group
	if group == "" {
		group = desc.Type
	}

	view := &Instance{
		ID:        viewID,
		Type:      desc.Type,
		State:     types.StateActivated,
		Group:     group,
		Surface:   surface,
		CreatedAt: time.Now(),
	}
	m.views[viewID] = view
	surface.Show()

	if m.metrics != nil {
		m.metrics.ViewsActive.Inc()
	}
	m.log.Info("secondary view created",
		zap.String("view_id", viewID),
		zap.String("group", group))

	return view, nil
}

// CloseView tears down one secondary view.
func (m *Manager) CloseView(viewID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	view, ok := m.views[viewID]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownWidget, viewID)
	}

	view.State = types.StateStopped
	view.Surface.Hide()
	delete(m.views, viewID)

	if m.metrics != nil {
		m.metrics.ViewsActive.Dec()
	}
	return true, nil
}

// ViewsInGroup returns all live views sharing a group name.
func (m *Manager) ViewsInGroup(group string) []*Instance {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*Instance
	for _, view := range m.views {
		if view.Group == group {
			out = append(out, view)
		}
	}
	return out
}

// GetView retrieves one secondary view by id.
func (m *Manager) GetView(viewID string) (*Instance, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	view, ok := m.views[viewID]
	return view, ok
}
