// Package runtime provides the widget runtime: the live instance table
// and its lifecycle state machine.
//
// State machine per instance:
//
//	stopped -> activated   (Activate / PinToDesktop)
//	activated -> suspended (window minimized / host hides it)
//	suspended -> activated (window restored)
//	activated -> stopped   (UnpinFromDesktop / Deactivate)
//
// The unknown state is a forbidden target: transitioning into it is
// rejected with ErrInvalidState because it indicates a caller bug.
//
// Invariants:
//   - At most one live instance per widget identity; Activate is
//     idempotent and its check-and-insert is atomic under the table lock
//   - At most one preview instance process-wide
//   - Secondary views are a separate sub-registry with per-call ids; a
//     duplicate caller-supplied id there is an error, not an idempotent hit
//
// The runtime never touches pixels; it drives the types.Surface contract
// implemented by the shell.
package runtime
