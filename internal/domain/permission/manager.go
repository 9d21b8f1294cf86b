package permission

import (
	"context"
	"fmt"
	"sync"

	"github.com/perchdesk/perch/internal/infrastructure/monitoring"
	"github.com/perchdesk/perch/internal/logging"
	"github.com/perchdesk/perch/internal/shared/types"
	"go.uber.org/zap"
)

// DeclarationSource resolves the permission set a widget declared.
// Implemented by the widget registry.
type DeclarationSource interface {
	DeclaredPermissions(widgetID string) []types.Permission
}

// Manager evaluates, requests, and revokes permission decisions per
// widget. All mutations for one widget id are serialized; independent
// widgets proceed concurrently.
type Manager struct {
	store    *Store
	decls    DeclarationSource
	prompter Prompter
	gate     Gate
	log      *logging.Logger
	metrics  *monitoring.Metrics

	subsMu sync.RWMutex
	subs   []func(types.PermissionChange)

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex // per widget id
}

// NewManager creates a permission manager. prompter and gate may be nil:
// without a prompter every request degrades to denied (nothing persisted),
// without a gate the UI prompt is the only consent stage.
func NewManager(store *Store, decls DeclarationSource, prompter Prompter, gate Gate, log *logging.Logger) *Manager {
	if log == nil {
		log = logging.NewNop()
	}
	return &Manager{
		store:    store,
		decls:    decls,
		prompter: prompter,
		gate:     gate,
		log:      log,
		locks:    make(map[string]*sync.Mutex),
	}
}

// WithMetrics adds metrics tracking to the manager.
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// Subscribe registers a change listener. Listeners run synchronously
// after a decision is persisted, never before, and outside the
// per-widget lock, so a listener may call back into the manager.
func (m *Manager) Subscribe(fn func(types.PermissionChange)) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	m.subs = append(m.subs, fn)
}

// Check returns the effective state for one permission. Undeclared
// permissions are denied regardless of stored state; a store read fault
// is logged and surfaces as undefined.
func (m *Manager) Check(widgetID string, p types.Permission) types.PermissionState {
	state := m.check(widgetID, p)
	if m.metrics != nil {
		m.metrics.PermissionChecks.WithLabelValues(string(state)).Inc()
	}
	return state
}

func (m *Manager) check(widgetID string, p types.Permission) types.PermissionState {
	if !m.declared(widgetID, p) {
		return types.PermissionDenied
	}

	state, err := m.store.Get(widgetID, p)
	if err != nil {
		m.log.Warn("permission read failed",
			zap.String("widget_id", widgetID),
			zap.String("permission", p.String()),
			zap.Error(err))
		return types.PermissionUndefined
	}
	return state
}

// Request drives the consent flow for one permission: UI prompt, then
// device gate when one is configured and available. The decision is
// persisted as allowed only if the user approved and the gate (if any)
// verified; any rejection persists denied. Cancellation aborts the flow
// with nothing persisted.
func (m *Manager) Request(ctx context.Context, widgetID string, p types.Permission) types.PermissionState {
	state, change := m.request(ctx, widgetID, p)
	if change != nil {
		m.notify(*change)
	}
	return state
}

// request runs the consent flow under the widget lock and hands any
// persisted change back for delivery after the lock is released.
func (m *Manager) request(ctx context.Context, widgetID string, p types.Permission) (types.PermissionState, *types.PermissionChange) {
	if !m.declared(widgetID, p) {
		return types.PermissionDenied, nil
	}

	lock := m.widgetLock(widgetID)
	lock.Lock()
	defer lock.Unlock()

	// A prior grant needs no new consent ceremony.
	if current, err := m.store.Get(widgetID, p); err == nil && current == types.PermissionAllowed {
		return types.PermissionAllowed, nil
	}

	if ctx.Err() != nil {
		return types.PermissionDenied, nil
	}

	if m.prompter == nil {
		m.log.Warn("permission requested without a prompter",
			zap.String("widget_id", widgetID),
			zap.String("permission", p.String()))
		return types.PermissionDenied, nil
	}

	message := fmt.Sprintf("Allow access to %s?", p)
	approved, err := m.prompter.PromptConsent(ctx, widgetID, message)
	if err != nil {
		m.log.Warn("consent prompt failed",
			zap.String("widget_id", widgetID),
			zap.String("permission", p.String()),
			zap.Error(err))
		return types.PermissionDenied, nil
	}

	if !approved {
		return m.persist(ctx, widgetID, p, types.PermissionDenied)
	}

	if m.gate != nil && m.gate.Available() {
		verdict, err := m.gate.RequestConsent(ctx, message)
		if err != nil {
			m.log.Warn("consent gate failed",
				zap.String("widget_id", widgetID),
				zap.String("permission", p.String()),
				zap.Error(err))
			return types.PermissionDenied, nil
		}
		switch verdict {
		case VerdictVerified:
			// fall through to the grant
		case VerdictCanceled:
			// Aborted flows leave no durable trace.
			return types.PermissionDenied, nil
		default:
			return m.persist(ctx, widgetID, p, types.PermissionDenied)
		}
	}

	return m.persist(ctx, widgetID, p, types.PermissionAllowed)
}

// Revoke unconditionally persists denied and notifies, independent of the
// previous state.
func (m *Manager) Revoke(widgetID string, p types.Permission) types.PermissionState {
	lock := m.widgetLock(widgetID)
	lock.Lock()
	state, change := m.persist(context.Background(), widgetID, p, types.PermissionDenied)
	lock.Unlock()

	if change != nil {
		m.notify(*change)
	}
	return state
}

// ChangeState routes toward the target: raising toward allowed goes
// through the consent flow, lowering to denied through revoke; anything
// else returns the current state unchanged.
func (m *Manager) ChangeState(ctx context.Context, widgetID string, p types.Permission, target types.PermissionState) types.PermissionState {
	switch target {
	case types.PermissionAllowed:
		if m.Check(widgetID, p) == types.PermissionAllowed {
			return types.PermissionAllowed
		}
		return m.Request(ctx, widgetID, p)
	case types.PermissionDenied:
		return m.Revoke(widgetID, p)
	default:
		return m.Check(widgetID, p)
	}
}

// persist writes a decision and hands the resulting change back to the
// caller, which announces it once the widget lock is released.
// Cancellation is checked immediately before the write so a cancelled
// flow is a durable no-op. Must hold the widget lock.
func (m *Manager) persist(ctx context.Context, widgetID string, p types.Permission, state types.PermissionState) (types.PermissionState, *types.PermissionChange) {
	if ctx.Err() != nil {
		return types.PermissionDenied, nil
	}

	if err := m.store.Set(widgetID, p, state); err != nil {
		m.log.Error("failed to persist permission decision",
			zap.String("widget_id", widgetID),
			zap.String("permission", p.String()),
			zap.String("state", string(state)),
			zap.Error(err))
		return types.PermissionDenied, nil
	}

	if m.metrics != nil {
		m.metrics.PermissionDecisions.WithLabelValues(string(p.Scope), string(state)).Inc()
	}

	return state, &types.PermissionChange{WidgetID: widgetID, Permission: p, State: state}
}

func (m *Manager) notify(change types.PermissionChange) {
	m.subsMu.RLock()
	subs := make([]func(types.PermissionChange), len(m.subs))
	copy(subs, m.subs)
	m.subsMu.RUnlock()

	for _, fn := range subs {
		fn(change)
	}
}

func (m *Manager) declared(widgetID string, p types.Permission) bool {
	if m.decls == nil {
		return false
	}
	for _, dp := range m.decls.DeclaredPermissions(widgetID) {
		if dp == p {
			return true
		}
	}
	return false
}

func (m *Manager) widgetLock(widgetID string) *sync.Mutex {
	m.locksMu.Lock()
	defer m.locksMu.Unlock()

	lock, ok := m.locks[widgetID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[widgetID] = lock
	}
	return lock
}
