package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoDatabase is returned when the source has no database pool. Triggers
// treat it like any other lookup failure and drop the event.
var ErrNoDatabase = errors.New("catalog database not available")

// PostgresSource reads product and order projections from the storefront
// database. Queries are read-only; the tracker never writes domain tables.
type PostgresSource struct {
	pool *pgxpool.Pool
}

func NewPostgresSource(pool *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

func (s *PostgresSource) GetProduct(ctx context.Context, productID int64) (ProductSnapshot, error) {
	if s.pool == nil {
		return ProductSnapshot{}, ErrNoDatabase
	}
	var p ProductSnapshot
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, price, COALESCE(categories, '{}'), stock_status, COALESCE(sku, ''), COALESCE(short_description, ''), COALESCE(image_url, '')
		FROM products
		WHERE id = $1
	`, productID).Scan(&p.ID, &p.Name, &p.Price, &p.Categories, &p.StockStatus, &p.SKU, &p.Description, &p.ImageURL)
	return p, err
}

func (s *PostgresSource) ListPublished(ctx context.Context, limit int) ([]ProductSnapshot, error) {
	if s.pool == nil {
		return nil, ErrNoDatabase
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, price, COALESCE(categories, '{}'), stock_status, COALESCE(sku, ''), COALESCE(short_description, ''), COALESCE(image_url, '')
		FROM products
		WHERE status = 'publish'
		ORDER BY id ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]ProductSnapshot, 0, limit)
	for rows.Next() {
		var p ProductSnapshot
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Categories, &p.StockStatus, &p.SKU, &p.Description, &p.ImageURL); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *PostgresSource) GetOrder(ctx context.Context, orderID int64) (OrderSnapshot, error) {
	if s.pool == nil {
		return OrderSnapshot{}, ErrNoDatabase
	}
	var o OrderSnapshot
	err := s.pool.QueryRow(ctx, `
		SELECT id, total, currency, COALESCE(payment_method, ''), item_count, COALESCE(coupon_codes, '{}'), COALESCE(customer_id, 0), COALESCE(billing_email, '')
		FROM orders
		WHERE id = $1
	`, orderID).Scan(&o.ID, &o.Total, &o.Currency, &o.PaymentMethod, &o.ItemCount, &o.CouponCodes, &o.CustomerID, &o.BillingEmail)
	if err != nil {
		return OrderSnapshot{}, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT product_id, COALESCE(variation_id, 0), name, quantity, total
		FROM order_items
		WHERE order_id = $1
		ORDER BY id ASC
	`, orderID)
	if err != nil {
		return OrderSnapshot{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(&item.ProductID, &item.VariationID, &item.Name, &item.Quantity, &item.Total); err != nil {
			return OrderSnapshot{}, err
		}
		o.Items = append(o.Items, item)
	}
	return o, rows.Err()
}
