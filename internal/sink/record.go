package sink

import (
	"time"

	"storefront-analytics-tracker/internal/catalog"
	"storefront-analytics-tracker/internal/event"
)

// EventRecord flattens a stored event into the row shape the remote events
// table expects. The event id doubles as the idempotency key.
func EventRecord(ev event.Event) map[string]any {
	record := map[string]any{
		"event_id":   ev.ID.String(),
		"event_type": string(ev.Type),
		"session_id": ev.SessionID,
		"event_data": ev.Payload,
		"created_at": ev.CreatedAt.UTC().Format(time.RFC3339),
	}
	if ev.UserID != nil {
		record["user_id"] = *ev.UserID
	}
	if ev.ProductID != nil {
		record["product_id"] = *ev.ProductID
	}
	if ev.OrderID != nil {
		record["order_id"] = *ev.OrderID
	}
	return record
}

// ProductRecord maps a catalog snapshot onto the remote products table.
func ProductRecord(p catalog.ProductSnapshot) map[string]any {
	return map[string]any{
		"product_id":   p.ID,
		"name":         p.Name,
		"price":        p.Price,
		"categories":   event.Strings(p.Categories),
		"stock_status": p.StockStatus,
		"sku":          p.SKU,
		"description":  p.Description,
		"image_url":    p.ImageURL,
		"updated_at":   time.Now().UTC().Format(time.RFC3339),
	}
}
