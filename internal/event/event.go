// Package event defines the captured event shapes and their validation.
package event

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeView              Type = "view"
	TypeAddToCart         Type = "add_to_cart"
	TypeRemoveFromCart    Type = "remove_from_cart"
	TypeBeginCheckout     Type = "begin_checkout"
	TypePurchase          Type = "purchase"
	TypeOrderStatusChange Type = "order_status_change"
	TypeSearch            Type = "search"
	TypeWebhookOrder      Type = "webhook_order"

	// Client-side behavioral signals ingested over HTTP.
	TypePageView        Type = "page_view"
	TypeScrollDepth     Type = "scroll_depth"
	TypeTimeOnPage      Type = "time_on_page"
	TypeFormInteraction Type = "form_interaction"
)

// requiredPayloadKeys lists the fields each event type must carry. Types not
// present here accept any payload (webhook pass-through, client signals).
var requiredPayloadKeys = map[Type][]string{
	TypeView:              {"product_id", "product_data"},
	TypeAddToCart:         {"product_id", "quantity", "price", "total"},
	TypeRemoveFromCart:    {"product_id", "quantity"},
	TypeBeginCheckout:     {"order_id", "total_value"},
	TypePurchase:          {"order_id", "total_value", "items"},
	TypeOrderStatusChange: {"order_id", "from_status", "to_status"},
	TypeSearch:            {"search_query", "results_count"},
}

type Event struct {
	ID        uuid.UUID      `json:"id"`
	Type      Type           `json:"event_type"`
	UserID    *int64         `json:"user_id,omitempty"`
	SessionID string         `json:"session_id"`
	ProductID *int64         `json:"product_id,omitempty"`
	OrderID   *int64         `json:"order_id,omitempty"`
	Payload   map[string]any `json:"event_data"`
	Synced    bool           `json:"synced"`
	CreatedAt time.Time      `json:"created_at"`
}

// RawContext carries everything a trigger knows about the lifecycle moment.
type RawContext struct {
	UserID    *int64
	SessionID string
	ProductID *int64
	OrderID   *int64
	Payload   map[string]any
}

type ValidationError struct {
	Type   Type
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid event %q: %s", e.Type, e.Reason)
}

// Build constructs a validated event. It is pure: no I/O, no side effects.
// Callers drop the event on a ValidationError rather than surfacing it to
// the storefront render path.
func Build(t Type, raw RawContext) (Event, error) {
	if !knownType(t) {
		return Event{}, &ValidationError{Type: t, Reason: "unrecognized event type"}
	}
	payload := raw.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	for _, key := range requiredPayloadKeys[t] {
		if _, ok := payload[key]; !ok {
			return Event{}, &ValidationError{Type: t, Reason: "missing payload field " + key}
		}
	}
	return Event{
		ID:        uuid.New(),
		Type:      t,
		UserID:    raw.UserID,
		SessionID: raw.SessionID,
		ProductID: raw.ProductID,
		OrderID:   raw.OrderID,
		Payload:   payload,
		Synced:    false,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func knownType(t Type) bool {
	switch t {
	case TypeView, TypeAddToCart, TypeRemoveFromCart, TypeBeginCheckout,
		TypePurchase, TypeOrderStatusChange, TypeSearch, TypeWebhookOrder,
		TypePageView, TypeScrollDepth, TypeTimeOnPage, TypeFormInteraction:
		return true
	}
	return false
}

// Float coerces untrusted numeric input. Malformed values become 0 rather
// than failing the event; this default-on-parse-failure policy is deliberate
// for price and total fields coming from the host platform.
func Float(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// Int coerces untrusted integer input, defaulting to 0 like Float.
func Int(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// Strings normalizes a category-style list; lookup errors or absent values
// yield an empty slice, never nil surfacing to the payload.
func Strings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
