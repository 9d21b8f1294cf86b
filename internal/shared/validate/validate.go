// Package validate checks identifier and display fields before they
// reach the registry or persistence.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Length limits for registry fields.
const (
	MaxTypeLength  = 64
	MaxNameLength  = 128
	MaxGroupLength = 64
)

// identPattern allows lowercase alphanumeric identifiers with hyphens,
// starting with a letter. Widget types and groups become settings keys
// and file names, so the character set stays narrow.
var identPattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// WidgetType validates a widget type identifier.
func WidgetType(widgetType string) error {
	if widgetType == "" {
		return fmt.Errorf("widget type is required")
	}
	if utf8.RuneCountInString(widgetType) > MaxTypeLength {
		return fmt.Errorf("widget type must not exceed %d characters", MaxTypeLength)
	}
	if !identPattern.MatchString(widgetType) {
		return fmt.Errorf("widget type %q must be lowercase alphanumeric with hyphens", widgetType)
	}
	return nil
}

// Group validates a view group identifier. Empty is allowed; the
// runtime then falls back to the widget type.
func Group(group string) error {
	if group == "" {
		return nil
	}
	if utf8.RuneCountInString(group) > MaxGroupLength {
		return fmt.Errorf("group must not exceed %d characters", MaxGroupLength)
	}
	if !identPattern.MatchString(group) {
		return fmt.Errorf("group %q must be lowercase alphanumeric with hyphens", group)
	}
	return nil
}

// DisplayName validates a human-readable widget name. Empty is allowed;
// callers fall back to the type identifier.
func DisplayName(name string) error {
	if name == "" {
		return nil
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return fmt.Errorf("name must not exceed %d characters", MaxNameLength)
	}
	if strings.ContainsRune(name, '\x00') {
		return fmt.Errorf("name contains invalid characters")
	}
	return nil
}
