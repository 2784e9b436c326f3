package session

import (
	"context"
	"testing"
	"time"
)

func TestMemoryResolverStableWithinWindow(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryResolver(time.Hour)

	first, err := r.Resolve(ctx, "visitor-a")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	second, err := r.Resolve(ctx, "visitor-a")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if first != second {
		t.Fatalf("same visitor got different sessions: %q vs %q", first, second)
	}

	other, err := r.Resolve(ctx, "visitor-b")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if other == first {
		t.Fatalf("distinct visitors must not share a session")
	}
}

func TestMemoryResolverExpiry(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryResolver(time.Hour)

	first, err := r.Resolve(ctx, "visitor-a")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	// Jump past the TTL.
	base := time.Now()
	r.now = func() time.Time { return base.Add(2 * time.Hour) }

	second, err := r.Resolve(ctx, "visitor-a")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if first == second {
		t.Fatalf("expected a fresh session after expiry")
	}
}

func TestMemoryResolverSlidingWindow(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryResolver(time.Hour)

	first, err := r.Resolve(ctx, "visitor-a")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	base := time.Now()
	// Each resolve inside the window extends it.
	r.now = func() time.Time { return base.Add(50 * time.Minute) }
	if _, err := r.Resolve(ctx, "visitor-a"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	r.now = func() time.Time { return base.Add(100 * time.Minute) }
	second, err := r.Resolve(ctx, "visitor-a")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if first != second {
		t.Fatalf("activity within the window must keep the session alive")
	}
}
