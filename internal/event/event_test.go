package event

import "testing"

func TestBuildRequiresPayloadFields(t *testing.T) {
	_, err := Build(TypeAddToCart, RawContext{
		Payload: map[string]any{
			"product_id": int64(42),
			"quantity":   3,
			"price":      10.0,
		},
	})
	if err == nil {
		t.Fatalf("expected validation error for missing total")
	}
	if _, ok := err.(*ValidationError); !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}

	ev, err := Build(TypeAddToCart, RawContext{
		Payload: map[string]any{
			"product_id": int64(42),
			"quantity":   3,
			"price":      10.0,
			"total":      30.0,
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.ID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Fatalf("expected generated event id")
	}
	if ev.Synced {
		t.Fatalf("new events must start unsynced")
	}
}

func TestBuildRejectsUnknownType(t *testing.T) {
	_, err := Build(Type("mystery"), RawContext{Payload: map[string]any{}})
	if err == nil {
		t.Fatalf("expected error for unknown event type")
	}
}

func TestBuildWebhookAcceptsAnyPayload(t *testing.T) {
	ev, err := Build(TypeWebhookOrder, RawContext{Payload: map[string]any{"id": 7}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.SessionID != "" {
		t.Fatalf("webhook events carry no session, got %q", ev.SessionID)
	}
}

func TestFloatDefaultsOnBadInput(t *testing.T) {
	cases := []struct {
		in   any
		want float64
	}{
		{"12.5", 12.5},
		{42, 42},
		{int64(7), 7},
		{"not-a-price", 0},
		{nil, 0},
		{[]string{"x"}, 0},
	}
	for _, c := range cases {
		if got := Float(c.in); got != c.want {
			t.Fatalf("Float(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestIntDefaultsOnBadInput(t *testing.T) {
	if got := Int("123"); got != 123 {
		t.Fatalf("Int(\"123\") = %d, want 123", got)
	}
	if got := Int(12.9); got != 12 {
		t.Fatalf("Int(12.9) = %d, want 12", got)
	}
	if got := Int("abc"); got != 0 {
		t.Fatalf("Int(\"abc\") = %d, want 0", got)
	}
}

func TestStringsNeverNil(t *testing.T) {
	got := Strings(nil)
	if got == nil || len(got) != 0 {
		t.Fatalf("Strings(nil) = %#v, want empty slice", got)
	}
}
