package types

import "fmt"

// Scope names a sensitive-capability category. The set is open; widgets
// may declare scopes beyond the built-in ones.
type Scope string

const (
	ScopeLocation  Scope = "location"
	ScopeCalendar  Scope = "calendar"
	ScopeTasks     Scope = "tasks"
	ScopeNotes     Scope = "notes"
	ScopeTelemetry Scope = "telemetry"
)

// Level distinguishes coarse from fine-grained access within a scope.
type Level string

const (
	LevelCoarse Level = "coarse"
	LevelFine   Level = "fine"
)

// Permission is a (scope, level) pair declared statically by a
// TypeDescriptor and evaluated dynamically per widget id.
type Permission struct {
	Scope Scope `json:"scope"`
	Level Level `json:"level"`
}

// String renders the pair in scope@level form.
func (p Permission) String() string {
	return fmt.Sprintf("%s@%s", p.Scope, p.Level)
}

// PermissionState represents a persisted permission decision
type PermissionState string

const (
	PermissionUndefined PermissionState = "undefined"
	PermissionAllowed   PermissionState = "allowed"
	PermissionDenied    PermissionState = "denied"
)

// ParsePermissionState maps a stored value back to a state, defaulting
// to undefined for anything unrecognized.
func ParsePermissionState(s string) PermissionState {
	switch PermissionState(s) {
	case PermissionAllowed:
		return PermissionAllowed
	case PermissionDenied:
		return PermissionDenied
	}
	return PermissionUndefined
}

// PermissionChange is delivered to subscribers after a decision is
// persisted, never before.
type PermissionChange struct {
	WidgetID   string          `json:"widget_id"`
	Permission Permission      `json:"permission"`
	State      PermissionState `json:"state"`
}
