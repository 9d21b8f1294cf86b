// Package todo serves task lists to widgets holding the tasks grant.
package todo

import (
	"context"
	"time"

	"github.com/perchdesk/perch/internal/domain/cache"
	"github.com/perchdesk/perch/internal/logging"
	"github.com/perchdesk/perch/internal/providers"
	"github.com/perchdesk/perch/internal/shared/types"
	"go.uber.org/zap"
)

const cacheKey = "todo.tasks"

var required = types.Permission{Scope: types.ScopeTasks, Level: types.LevelCoarse}

// Task is one to-do entry.
type Task struct {
	ID    string     `json:"id"`
	Title string     `json:"title"`
	Done  bool       `json:"done"`
	Due   *time.Time `json:"due,omitempty"`
}

// Source is the platform task backend.
type Source interface {
	Tasks(ctx context.Context) ([]Task, error)
}

// Provider gates task access for one widget and reads through the cache
// accessor.
type Provider struct {
	widgetID string
	perms    providers.Permissions
	accessor *cache.Accessor
	source   Source
	log      *logging.Logger
}

// NewProvider creates a task provider bound to the consuming widget.
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

// Tasks returns the task list, from cache unless forceRefresh is set.
func (p *Provider) Tasks(ctx context.Context, forceRefresh bool) ([]Task, error) {
	if p.perms.Check(p.widgetID, required) != types.PermissionAllowed {
		return nil, providers.ErrNotPermitted
	}
	return cache.Get(ctx, p.accessor, cacheKey, p.source.Tasks, cache.Options{ForceRefresh: forceRefresh})
}

func (p *Provider) onPermissionChange(change types.PermissionChange) {
	if change.WidgetID != p.widgetID || change.Permission.Scope != types.ScopeTasks {
		return
	}
	if change.State != types.PermissionDenied {
		return
	}
	if err := p.accessor.Reset(context.Background(), cacheKey); err != nil {
		p.log.Warn("failed to drop task cache on revoke",
			zap.String("widget_id", p.widgetID),
			zap.Error(err))
	}
}
