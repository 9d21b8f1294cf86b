package runtime

import (
	"context"
	"errors"
	"testing"

	"github.com/perchdesk/perch/internal/shared/types"
)

func notesDescriptor() *types.TypeDescriptor {
	return &types.TypeDescriptor{
		Type:      "notes",
		Name:      "Sticky Notes",
		Secondary: true,
		Group:     "sticky-notes",
		Factory:   func() (types.Surface, error) { return &fakeSurface{}, nil },
	}
}

func TestCreateViewDistinctInstances(t *testing.T) {
	m := NewManager(nil, nil)
	ctx := context.Background()
	desc := notesDescriptor()

	first, err := m.CreateView(ctx, desc)
	if err != nil {
		t.Fatalf("CreateView failed: %v", err)
	}
	second, err := m.CreateView(ctx, desc)
	if err != nil {
		t.Fatalf("CreateView failed: %v", err)
	}

	if first.ID == second.ID {
		t.Error("each view must get a distinct identity")
	}
	if first.Group != "sticky-notes" || second.Group != "sticky-notes" {
		t.Error("views must share the group name")
	}

	if got := len(m.ViewsInGroup("sticky-notes")); got != 2 {
		t.Errorf("expected 2 views in group, got %d", got)
	}
}

func TestCreateViewDuplicateID(t *testing.T) {
	m := NewManager(nil, nil)
	ctx := context.Background()
	desc := notesDescriptor()

	if _, err := m.CreateViewWithID(ctx, desc, "view_1"); err != nil {
		t.Fatalf("CreateViewWithID failed: %v", err)
	}
	if _, err := m.CreateViewWithID(ctx, desc, "view_1"); !errors.Is(err, ErrDuplicateView) {
		t.Errorf("expected ErrDuplicateView, got %v", err)
	}
}

func TestCreateViewRequiresSecondary(t *testing.T) {
	m := NewManager(nil, nil)
	desc := &types.TypeDescriptor{
		Type:    "clock",
		Factory: func() (types.Surface, error) { return &fakeSurface{}, nil },
	}

	if _, err := m.CreateView(context.Background(), desc); !errors.Is(err, ErrInvalidMetadata) {
		t.Errorf("expected ErrInvalidMetadata for non-secondary type, got %v", err)
	}
}

func TestCloseView(t *testing.T) {
	m := NewManager(nil, nil)
	ctx := context.Background()

	view, err := m.CreateView(ctx, notesDescriptor())
	if err != nil {
		t.Fatalf("CreateView failed: %v", err)
	}

	ok, err := m.CloseView(view.ID)
	if err != nil || !ok {
		t.Fatalf("CloseView failed: ok=%v err=%v", ok, err)
	}
	if _, found := m.GetView(view.ID); found {
		t.Error("view should be gone after close")
	}

	if _, err := m.CloseView(view.ID); !errors.Is(err, ErrUnknownWidget) {
		t.Errorf("expected ErrUnknownWidget, got %v", err)
	}
}

func TestViewsIndependentOfLiveTable(t *testing.T) {
	f := &countingFactory{}
	m := NewManager(nil, nil)
	ctx := context.Background()

	m.Activate(ctx, clockMeta(f), false)
	m.CreateView(ctx, notesDescriptor())

	stats := m.Stats()
	if stats.TotalInstances != 1 {
		t.Errorf("views must not count as primary instances, got %d", stats.TotalInstances)
	}
	if stats.SecondaryViews != 1 {
		t.Errorf("expected 1 secondary view, got %d", stats.SecondaryViews)
	}
}
