package types

import "time"

// ExecutionState represents widget instance lifecycle states
type ExecutionState string

const (
	// StateUnknown is never a legal target state; it marks caller bugs.
	StateUnknown   ExecutionState = "unknown"
	StateSuspended ExecutionState = "suspended"
	StateActivated ExecutionState = "activated"
	StateStopped   ExecutionState = "stopped"
)

// Valid reports whether the state may be assigned to an instance.
func (s ExecutionState) Valid() bool {
	switch s {
	case StateSuspended, StateActivated, StateStopped:
		return true
	}
	return false
}

// Surface is the rendering surface contract implemented by the UI layer.
// The runtime never touches pixels; it only drives this interface.
type Surface interface {
	Show()
	Hide()
	Focus()
	ID() string
	ExecutionState() ExecutionState
	SetExecutionState(state ExecutionState) error
}

// Factory produces the rendering surface for one widget instance.
type Factory func() (Surface, error)

// TypeDescriptor describes one widget class discoverable at startup.
// Immutable once registered.
type TypeDescriptor struct {
	Type        string       `json:"type"`
	Name        string       `json:"name"`
	Permissions []Permission `json:"permissions,omitempty"`
	Secondary   bool         `json:"secondary,omitempty"` // supports many group-scoped instances
	Group       string       `json:"group,omitempty"`
	Factory     Factory      `json:"-"`
}

// Declares reports whether the descriptor declares the given permission.
func (d *TypeDescriptor) Declares(p Permission) bool {
	for _, dp := range d.Permissions {
		if dp == p {
			return true
		}
	}
	return false
}

// WidgetMetadata is the named slot for a widget type: a stable identity,
// pin state, and the permission set the widget may request. Created on
// first discovery, never destroyed while the process runs.
type WidgetMetadata struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Descriptor *TypeDescriptor `json:"-"`
	Pinned     bool            `json:"pinned"`
	CreatedAt  time.Time       `json:"created_at"`
}

// DeclaredPermissions returns the permission set the widget may request.
func (m *WidgetMetadata) DeclaredPermissions() []Permission {
	if m.Descriptor == nil {
		return nil
	}
	return m.Descriptor.Permissions
}

// RuntimeStats contains live-table statistics
type RuntimeStats struct {
	TotalInstances int `json:"total_instances"`
	Activated      int `json:"activated"`
	Suspended      int `json:"suspended"`
	SecondaryViews int `json:"secondary_views"`
}
