// Package types provides shared data structures for the widget host core.
//
// This package defines core types used across all host components,
// ensuring type safety and consistent data structures.
//
// Widget Types:
//   - TypeDescriptor: Immutable widget class with declared permissions and a factory
//   - WidgetMetadata: Stable per-type identity slot with pin state
//   - ExecutionState: Instance lifecycle enum (suspended, activated, stopped)
//   - Surface: Rendering surface contract implemented by the UI shell
//
// Permission Types:
//   - Permission: (scope, level) pair
//   - PermissionState: Decision enum (undefined, allowed, denied)
//   - PermissionChange: Post-persist change notification payload
//
// Example Usage:
//
//	desc := &types.TypeDescriptor{
//	    Type:        "calendar",
//	    Name:        "Calendar",
//	    Permissions: []types.Permission{{Scope: types.ScopeCalendar, Level: types.LevelFine}},
//	    Factory:     newCalendarSurface,
//	}
package types
