// Package permission implements the per-widget permission subsystem.
//
// Components:
//   - Manager: evaluates, requests, and revokes permission decisions;
//     raises change notifications after every persisted write
//   - Store: maps (widget id, scope, level) onto the flat settings store
//   - Gate: optional device-level consent verification (biometric/PIN)
//
// The consent flow is two-stage: a UI prompt (Prompter, implemented by
// the shell) followed, when a gate is configured, by device verification.
// The dialog alone can be clicked through; the gate proves presence of
// the authenticated user. A permission is persisted as allowed only if
// both stages pass.
//
// Failure policy: an undeclared permission is always denied regardless of
// stored state; faults in the store, prompter, or gate are logged and
// surface as undefined/denied, never as a crash; cancellation aborts the
// flow before anything is persisted.
package permission
