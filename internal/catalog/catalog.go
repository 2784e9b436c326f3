// Package catalog exposes read-only projections of the storefront's product
// and order domain. Snapshots are denormalized into event payloads at capture
// time so later schema changes to the source domain do not corrupt history.
package catalog

import "context"

type ProductSnapshot struct {
	ID          int64    `json:"product_id"`
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	Categories  []string `json:"categories"`
	StockStatus string   `json:"stock_status"`
	SKU         string   `json:"sku"`
	Description string   `json:"description,omitempty"`
	ImageURL    string   `json:"image_url,omitempty"`
}

type OrderItem struct {
	ProductID   int64   `json:"product_id"`
	VariationID int64   `json:"variation_id"`
	Name        string  `json:"name"`
	Quantity    int     `json:"quantity"`
	Total       float64 `json:"total"`
}

type OrderSnapshot struct {
	ID            int64
	Total         float64
	Currency      string
	PaymentMethod string
	ItemCount     int
	CouponCodes   []string
	CustomerID    int64
	BillingEmail  string
	Items         []OrderItem
}

// ProductSource is the host-domain boundary for product lookups.
type ProductSource interface {
	GetProduct(ctx context.Context, productID int64) (ProductSnapshot, error)
	ListPublished(ctx context.Context, limit int) ([]ProductSnapshot, error)
}

// OrderSource is the host-domain boundary for order lookups.
type OrderSource interface {
	GetOrder(ctx context.Context, orderID int64) (OrderSnapshot, error)
}
