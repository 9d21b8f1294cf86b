package permission

import (
	"fmt"

	"github.com/perchdesk/perch/internal/shared/types"
	"github.com/perchdesk/perch/internal/storage"
)

// Store persists permission decisions as (widget id, scope, level) ->
// state over the flat settings contract.
type Store struct {
	settings storage.Settings
}

// NewStore creates a permission store over settings.
func NewStore(settings storage.Settings) *Store {
	return &Store{settings: settings}
}

// Get reads the persisted state, defaulting to undefined when no decision
// was ever recorded. A read error is returned as-is; callers must not
// confuse it with an undefined decision.
func (s *Store) Get(widgetID string, p types.Permission) (types.PermissionState, error) {
	raw, err := s.settings.Get(s.decisionKey(widgetID, p), "")
	if err != nil {
		return types.PermissionUndefined, fmt.Errorf("failed to read permission %s for %s: %w", p, widgetID, err)
	}
	return types.ParsePermissionState(raw), nil
}

// Set persists a decision, overwriting any previous one.
func (s *Store) Set(widgetID string, p types.Permission, state types.PermissionState) error {
	if err := s.settings.Set(s.decisionKey(widgetID, p), string(state)); err != nil {
		return fmt.Errorf("failed to persist permission %s for %s: %w", p, widgetID, err)
	}
	return nil
}

// Remove clears a persisted decision, returning the widget to undefined.
func (s *Store) Remove(widgetID string, p types.Permission) error {
	if err := s.settings.Remove(s.decisionKey(widgetID, p)); err != nil {
		return fmt.Errorf("failed to clear permission %s for %s: %w", p, widgetID, err)
	}
	return nil
}

func (s *Store) decisionKey(widgetID string, p types.Permission) string {
	return fmt.Sprintf("perm.%s.%s.%s", widgetID, p.Scope, p.Level)
}
