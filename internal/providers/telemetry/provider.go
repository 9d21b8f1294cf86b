// Package telemetry samples system utilization into a bounded history
// and serves it to widgets holding the telemetry grant.
package telemetry

import (
	"context"

	"github.com/perchdesk/perch/internal/domain/cache"
	"github.com/perchdesk/perch/internal/logging"
	"github.com/perchdesk/perch/internal/providers"
	"github.com/perchdesk/perch/internal/shared/types"
	"go.uber.org/zap"
)

const cacheKey = "telemetry.history"

var required = types.Permission{Scope: types.ScopeTelemetry, Level: types.LevelCoarse}

// Provider gates telemetry history for one widget and persists the
// watcher's ring through the cache accessor.
type Provider struct {
	widgetID string
	perms    providers.Permissions
	accessor *cache.Accessor
	watcher  *Watcher
	log      *logging.Logger
}

// NewProvider creates a telemetry provider bound to the consuming widget.
func NewProvider(widgetID string, perms providers.Permissions, accessor *cache.Accessor, watcher *Watcher, log *logging.Logger) *Provider {
	if log == nil {
		log = logging.NewNop()
	}
	p := &Provider{
		widgetID: widgetID,
		perms:    perms,
		accessor: accessor,
		watcher:  watcher,
		log:      log,
	}
	perms.Subscribe(p.onPermissionChange)
	return p
}

// History returns the sample history, from cache unless forceRefresh is
// set; a refresh snapshots the live ring and persists it.
func (p *Provider) History(ctx context.Context, forceRefresh bool) ([]Sample, error) {
	if p.perms.Check(p.widgetID, required) != types.PermissionAllowed {
		return nil, providers.ErrNotPermitted
	}
	fetch := func(context.Context) ([]Sample, error) {
		return p.watcher.Snapshot(), nil
	}
	return cache.Get(ctx, p.accessor, cacheKey, fetch, cache.Options{ForceRefresh: forceRefresh})
}

func (p *Provider) onPermissionChange(change types.PermissionChange) {
	if change.WidgetID != p.widgetID || change.Permission.Scope != types.ScopeTelemetry {
		return
	}
	if change.State != types.PermissionDenied {
		return
	}
	if err := p.accessor.Reset(context.Background(), cacheKey); err != nil {
		p.log.Warn("failed to drop telemetry cache on revoke",
			zap.String("widget_id", p.widgetID),
			zap.Error(err))
	}
}
