// Package calendar serves calendar events to widgets holding the
// calendar grant.
package calendar

import (
	"context"
	"time"

	"github.com/perchdesk/perch/internal/domain/cache"
	"github.com/perchdesk/perch/internal/logging"
	"github.com/perchdesk/perch/internal/providers"
	"github.com/perchdesk/perch/internal/shared/types"
	"go.uber.org/zap"
)

const cacheKey = "calendar.events"

var required = types.Permission{Scope: types.ScopeCalendar, Level: types.LevelCoarse}

// Event is one calendar entry.
type Event struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Location string    `json:"location,omitempty"`
	AllDay   bool      `json:"all_day,omitempty"`
}

// Source is the platform calendar backend. Implementations live in the
// shell layer.
type Source interface {
	Events(ctx context.Context) ([]Event, error)
}

// Provider gates calendar access for one widget and reads through the
// cache accessor.
type Provider struct {
	widgetID string
	perms    providers.Permissions
	accessor *cache.Accessor
	source   Source
	log      *logging.Logger
}

// NewProvider creates a calendar provider bound to the consuming widget.
// It subscribes to permission changes so a revoke drops the cached
// record immediately.
func NewProvider(widgetID string, perms providers.Permissions, accessor *cache.Accessor, source Source, log *logging.Logger) *Provider {
	if log == nil {
		log = logging.NewNop()
	}
	p := &Provider{
		widgetID: widgetID,
		perms:    perms,
		accessor: accessor,
		source:   source,
		log:      log,
	}
	perms.Subscribe(p.onPermissionChange)
	return p
}

// Events returns the calendar events, from cache unless forceRefresh is
// set. Without an allowed grant it returns ErrNotPermitted and never
// touches the source.
func (p *Provider) Events(ctx context.Context, forceRefresh bool) ([]Event, error) {
	if p.perms.Check(p.widgetID, required) != types.PermissionAllowed {
		return nil, providers.ErrNotPermitted
	}
	return cache.Get(ctx, p.accessor, cacheKey, p.source.Events, cache.Options{ForceRefresh: forceRefresh})
}

func (p *Provider) onPermissionChange(change types.PermissionChange) {
	if change.WidgetID != p.widgetID || change.Permission.Scope != types.ScopeCalendar {
		return
	}
	if change.State != types.PermissionDenied {
		return
	}
	if err := p.accessor.Reset(context.Background(), cacheKey); err != nil {
		p.log.Warn("failed to drop calendar cache on revoke",
			zap.String("widget_id", p.widgetID),
			zap.Error(err))
	}
}
