package store

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"storefront-analytics-tracker/internal/event"
)

func newTestEvent(t *testing.T) event.Event {
	t.Helper()
	ev, err := event.Build(event.TypeSearch, event.RawContext{
		Payload: map[string]any{
			"search_query":  "lamp",
			"results_count": 3,
		},
	})
	if err != nil {
		t.Fatalf("build event: %v", err)
	}
	return ev
}

func TestMemoryStoreAppendAndListPending(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	first := newTestEvent(t)
	second := newTestEvent(t)
	if _, err := s.Append(ctx, first); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := s.Append(ctx, second); err != nil {
		t.Fatalf("append: %v", err)
	}

	pending, err := s.ListPending(ctx, 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending, got %d", len(pending))
	}
	if pending[0].ID != first.ID {
		t.Fatalf("expected oldest first")
	}

	// Listing must not consume.
	again, err := s.ListPending(ctx, 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(again) != 2 {
		t.Fatalf("listing consumed events: got %d", len(again))
	}
}

func TestMemoryStoreRejectsDuplicateID(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	ev := newTestEvent(t)
	if _, err := s.Append(ctx, ev); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := s.Append(ctx, ev); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}

func TestMemoryStoreMarkSyncedIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	ev := newTestEvent(t)
	if _, err := s.Append(ctx, ev); err != nil {
		t.Fatalf("append: %v", err)
	}

	updated, err := s.MarkSynced(ctx, ev.ID)
	if err != nil || !updated {
		t.Fatalf("first mark: updated=%v err=%v", updated, err)
	}
	updated, err = s.MarkSynced(ctx, ev.ID)
	if err != nil || updated {
		t.Fatalf("second mark must be a no-op: updated=%v err=%v", updated, err)
	}
	updated, err = s.MarkSynced(ctx, uuid.New())
	if err != nil || updated {
		t.Fatalf("unknown id must be a no-op: updated=%v err=%v", updated, err)
	}

	pending, err := s.ListPending(ctx, 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("synced events must not be pending, got %d", len(pending))
	}
	n, err := s.CountPending(ctx)
	if err != nil || n != 0 {
		t.Fatalf("count pending: n=%d err=%v", n, err)
	}
}
