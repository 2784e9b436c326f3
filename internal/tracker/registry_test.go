package tracker

import (
	"context"
	"errors"
	"testing"
)

func TestRegistryDispatchOrder(t *testing.T) {
	r := NewRegistry()
	var seen []string
	r.Register("order_note_added", func(ctx context.Context, args HookArgs) error {
		seen = append(seen, "first")
		return nil
	})
	r.Register("order_note_added", func(ctx context.Context, args HookArgs) error {
		seen = append(seen, "second")
		return nil
	})

	if err := r.Dispatch(context.Background(), "order_note_added", HookArgs{}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(seen) != 2 || seen[0] != "first" || seen[1] != "second" {
		t.Fatalf("listeners ran out of order: %v", seen)
	}
}

func TestRegistryDispatchContinuesPastFailure(t *testing.T) {
	r := NewRegistry()
	ran := false
	r.Register("order_note_added", func(ctx context.Context, args HookArgs) error {
		return errors.New("listener failed")
	})
	r.Register("order_note_added", func(ctx context.Context, args HookArgs) error {
		ran = true
		return nil
	})

	err := r.Dispatch(context.Background(), "order_note_added", HookArgs{})
	if err == nil {
		t.Fatalf("expected first listener's error")
	}
	if !ran {
		t.Fatalf("later listeners must still run")
	}
}

func TestRegistryUnknownHook(t *testing.T) {
	r := NewRegistry()
	if err := r.Dispatch(context.Background(), "no_such_hook", HookArgs{}); err == nil {
		t.Fatalf("expected unknown hook error")
	}
	if r.Known("no_such_hook") {
		t.Fatalf("unregistered hook must not be known")
	}
}

func TestBindInstallsLifecycleHooks(t *testing.T) {
	f := newFixture(t, testConfig())
	r := NewRegistry()
	Bind(r, f.pipeline)

	for _, name := range []string{
		HookProductViewed,
		HookCartItemAdded,
		HookCartItemRemoved,
		HookCheckoutStarted,
		HookOrderCompleted,
		HookOrderStatusChanged,
		HookSearchPerformed,
	} {
		if !r.Known(name) {
			t.Fatalf("hook %q not bound", name)
		}
	}

	err := r.Dispatch(context.Background(), HookSearchPerformed, HookArgs{
		Visitor: Visitor{Key: "v1"},
		Fields:  map[string]any{"search_query": "lamp", "results_count": float64(4)},
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	f.pipeline.Wait()

	calls := f.sink.calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 capture via hook, got %d", len(calls))
	}
	payload := calls[0].record["event_data"].(map[string]any)
	if payload["results_count"] != 4 {
		t.Fatalf("results_count = %v, want coerced 4", payload["results_count"])
	}
}
