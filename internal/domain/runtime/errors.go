package runtime

import "errors"

var (
	// ErrInvalidMetadata marks activation with a malformed metadata slot
	// (missing id, descriptor, or factory).
	ErrInvalidMetadata = errors.New("invalid widget metadata")

	// ErrUnknownWidget marks an operation referencing an id with no live
	// instance.
	ErrUnknownWidget = errors.New("unknown widget instance")

	// ErrInvalidState marks an attempted transition into a forbidden
	// execution state. This is a caller bug, not a legitimate outcome.
	ErrInvalidState = errors.New("invalid execution state")

	// ErrDuplicateView marks a caller-supplied view id that already
	// exists. View creation is deliberately not idempotent.
	ErrDuplicateView = errors.New("duplicate view id")
)
