// Package registry implements widget type discovery and identity.
//
// Widget types are registered explicitly at startup, then Discover runs
// exactly once per process lifetime, assigning each type a persisted
// identity and resolving its pinned flag. Persisted decisions win over
// catalog defaults; catalog defaults win over the zero value.
//
// The registry is also the persistence edge for pin state (the
// runtime's pin store) and the source of declared permissions (the
// permission manager's declaration source).
package registry
