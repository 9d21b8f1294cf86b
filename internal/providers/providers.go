// Package providers holds the shared contract of the data-backed
// services: every provider checks the consuming widget's permission
// before serving, reads through the cache accessor, and drops its
// cached record when the grant is revoked so a revoked widget degrades
// to ErrNotPermitted instead of stale sensitive data.
package providers

import (
	"errors"

	"github.com/perchdesk/perch/internal/shared/types"
)

// ErrNotPermitted indicates the widget lacks an allowed grant for the
// scope backing the requested data.
var ErrNotPermitted = errors.New("widget lacks the required permission")

// Permissions is the slice of the permission manager providers consume.
type Permissions interface {
	Check(widgetID string, p types.Permission) types.PermissionState
	Subscribe(fn func(types.PermissionChange))
}
