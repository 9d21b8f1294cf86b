package validate

import (
	"strings"
	"testing"
)

func TestWidgetType(t *testing.T) {
	valid := []string{"clock", "sticky-notes", "cpu2"}
	for _, v := range valid {
		if err := WidgetType(v); err != nil {
			t.Errorf("WidgetType(%q) = %v, want nil", v, err)
		}
	}

	invalid := []string{"", "Clock", "2fast", "notes_v2", "a b", "-dash", strings.Repeat("x", MaxTypeLength+1)}
	for _, v := range invalid {
		if err := WidgetType(v); err == nil {
			t.Errorf("WidgetType(%q) = nil, want error", v)
		}
	}
}

func TestGroup(t *testing.T) {
	if err := Group(""); err != nil {
		t.Errorf("empty group must be allowed, got %v", err)
	}
	if err := Group("sticky-notes"); err != nil {
		t.Errorf("Group = %v, want nil", err)
	}
	if err := Group("Sticky Notes"); err == nil {
		t.Error("expected error for uppercase group")
	}
}

func TestDisplayName(t *testing.T) {
	if err := DisplayName(""); err != nil {
		t.Errorf("empty name must be allowed, got %v", err)
	}
	if err := DisplayName("Desk Clock"); err != nil {
		t.Errorf("DisplayName = %v, want nil", err)
	}
	if err := DisplayName("bad\x00name"); err == nil {
		t.Error("expected error for null byte")
	}
	if err := DisplayName(strings.Repeat("n", MaxNameLength+1)); err == nil {
		t.Error("expected error for overlong name")
	}
}
