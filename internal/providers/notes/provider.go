// Package notes serves sticky notes to widgets holding the notes grant.
package notes

import (
	"context"
	"time"

	"github.com/perchdesk/perch/internal/domain/cache"
	"github.com/perchdesk/perch/internal/logging"
	"github.com/perchdesk/perch/internal/providers"
	"github.com/perchdesk/perch/internal/shared/types"
	"go.uber.org/zap"
)

const cacheKey = "notes.records"

var required = types.Permission{Scope: types.ScopeNotes, Level: types.LevelCoarse}

// Note is one stored note.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Source is the platform notes backend.
type Source interface {
	Notes(ctx context.Context) ([]Note, error)
}

// Provider gates notes access for one widget and reads through the
// cache accessor.
type Provider struct {
	widgetID string
	perms    providers.Permissions
	accessor *cache.Accessor
	source   Source
	log      *logging.Logger
}

// NewProvider creates a notes provider bound to the consuming widget.
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

// Notes returns the stored notes, from cache unless forceRefresh is set.
func (p *Provider) Notes(ctx context.Context, forceRefresh bool) ([]Note, error) {
	if p.perms.Check(p.widgetID, required) != types.PermissionAllowed {
		return nil, providers.ErrNotPermitted
	}
	return cache.Get(ctx, p.accessor, cacheKey, p.source.Notes, cache.Options{ForceRefresh: forceRefresh})
}

func (p *Provider) onPermissionChange(change types.PermissionChange) {
	if change.WidgetID != p.widgetID || change.Permission.Scope != types.ScopeNotes {
		return
	}
	if change.State != types.PermissionDenied {
		return
	}
	if err := p.accessor.Reset(context.Background(), cacheKey); err != nil {
		p.log.Warn("failed to drop notes cache on revoke",
			zap.String("widget_id", p.widgetID),
			zap.Error(err))
	}
}
