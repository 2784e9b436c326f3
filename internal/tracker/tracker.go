// Package tracker is the capture pipeline: lifecycle triggers build events,
// persist them locally, then hand them to the remote sink off the request
// path. Local persistence is the source of truth; delivery may lag or fail
// without losing anything.
package tracker

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"storefront-analytics-tracker/internal/catalog"
	"storefront-analytics-tracker/internal/event"
	"storefront-analytics-tracker/internal/session"
	"storefront-analytics-tracker/internal/sink"
	"storefront-analytics-tracker/internal/store"
	"storefront-analytics-tracker/shared/config"
	"storefront-analytics-tracker/shared/logx"
	"storefront-analytics-tracker/shared/metricsx"
	"storefront-analytics-tracker/shared/mqx"
)

// Visitor identifies who triggered an event. Key is a stable correlation
// token (cookie value or client-provided id) used for session resolution; it
// is empty for server-originated events such as webhooks.
type Visitor struct {
	UserID *int64
	Key    string
}

// Sink is the remote delivery surface the pipeline depends on.
type Sink interface {
	Push(ctx context.Context, table string, record map[string]any) sink.DeliveryResult
	TestConnection(ctx context.Context) sink.ConnectionResult
	SyncBatch(ctx context.Context, table string, records []map[string]any) int
}

type Deps struct {
	Store    store.EventStore
	Sink     Sink
	Sessions session.Resolver
	Products catalog.ProductSource
	Orders   catalog.OrderSource
	Mirror   *mqx.Producer
	Logger   logx.Logger
}

type Pipeline struct {
	cfg         config.Config
	store       store.EventStore
	sink        Sink
	sessions    session.Resolver
	products    catalog.ProductSource
	orders      catalog.OrderSource
	mirror      *mqx.Producer
	log         logx.Logger
	pushTimeout time.Duration

	wg sync.WaitGroup
}

func New(cfg config.Config, deps Deps) *Pipeline {
	return &Pipeline{
		cfg:         cfg,
		store:       deps.Store,
		sink:        deps.Sink,
		sessions:    deps.Sessions,
		products:    deps.Products,
		orders:      deps.Orders,
		mirror:      deps.Mirror,
		log:         deps.Logger.With(slog.String("component", "tracker")),
		pushTimeout: time.Duration(cfg.SinkPushTimeoutMS) * time.Millisecond,
	}
}

// Wait blocks until in-flight deliveries finish. Called on shutdown.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

func (p *Pipeline) OnProductView(ctx context.Context, v Visitor, productID int64) {
	product, err := p.products.GetProduct(ctx, productID)
	if err != nil {
		p.log.Warn(ctx, "product_lookup_failed", "product lookup failed, dropping view",
			slog.Int64("product_id", productID), slog.String("error", err.Error()))
		metricsx.IncEventDropped("product_lookup")
		return
	}
	p.capture(ctx, event.TypeView, v, event.RawContext{
		ProductID: &productID,
		Payload: map[string]any{
			"product_id":   productID,
			"product_data": product,
		},
	})
}

// CartLine describes one cart mutation as reported by the host. Price may be
// zero, in which case the catalog price is used.
type CartLine struct {
	ProductID   int64
	VariationID int64
	Quantity    int
	Price       float64
	CartItemKey string
}

func (p *Pipeline) OnAddToCart(ctx context.Context, v Visitor, line CartLine) {
	product, err := p.products.GetProduct(ctx, line.ProductID)
	if err != nil {
		p.log.Warn(ctx, "product_lookup_failed", "product lookup failed, dropping add_to_cart",
			slog.Int64("product_id", line.ProductID), slog.String("error", err.Error()))
		metricsx.IncEventDropped("product_lookup")
		return
	}
	price := line.Price
	if price == 0 {
		price = product.Price
	}
	p.capture(ctx, event.TypeAddToCart, v, event.RawContext{
		ProductID: &line.ProductID,
		Payload: map[string]any{
			"product_id":    line.ProductID,
			"variation_id":  line.VariationID,
			"product_name":  product.Name,
			"quantity":      line.Quantity,
			"price":         price,
			"total":         price * float64(line.Quantity),
			"categories":    event.Strings(product.Categories),
			"cart_item_key": line.CartItemKey,
		},
	})
}

func (p *Pipeline) OnRemoveFromCart(ctx context.Context, v Visitor, line CartLine) {
	p.capture(ctx, event.TypeRemoveFromCart, v, event.RawContext{
		ProductID: &line.ProductID,
		Payload: map[string]any{
			"product_id":    line.ProductID,
			"variation_id":  line.VariationID,
			"quantity":      line.Quantity,
			"price":         line.Price,
			"cart_item_key": line.CartItemKey,
		},
	})
}

func (p *Pipeline) OnBeginCheckout(ctx context.Context, v Visitor, orderID int64) {
	order, err := p.orders.GetOrder(ctx, orderID)
	if err != nil {
		p.log.Warn(ctx, "order_lookup_failed", "order lookup failed, dropping begin_checkout",
			slog.Int64("order_id", orderID), slog.String("error", err.Error()))
		metricsx.IncEventDropped("order_lookup")
		return
	}
	p.capture(ctx, event.TypeBeginCheckout, v, event.RawContext{
		OrderID: &orderID,
		Payload: map[string]any{
			"order_id":       orderID,
			"total_value":    order.Total,
			"currency":       order.Currency,
			"payment_method": order.PaymentMethod,
			"item_count":     order.ItemCount,
		},
	})
}

func (p *Pipeline) OnPurchase(ctx context.Context, v Visitor, orderID int64) {
	order, err := p.orders.GetOrder(ctx, orderID)
	if err != nil {
		p.log.Warn(ctx, "order_lookup_failed", "order lookup failed, dropping purchase",
			slog.Int64("order_id", orderID), slog.String("error", err.Error()))
		metricsx.IncEventDropped("order_lookup")
		return
	}
	if v.UserID == nil && order.CustomerID > 0 {
		customerID := order.CustomerID
		v.UserID = &customerID
	}

	items := make([]map[string]any, 0, len(order.Items))
	for _, item := range order.Items {
		unitPrice := 0.0
		if item.Quantity > 0 {
			unitPrice = item.Total / float64(item.Quantity)
		}
		categories := []string{}
		if product, err := p.products.GetProduct(ctx, item.ProductID); err == nil {
			categories = event.Strings(product.Categories)
		}
		items = append(items, map[string]any{
			"product_id":   item.ProductID,
			"variation_id": item.VariationID,
			"name":         item.Name,
			"quantity":     item.Quantity,
			"unit_price":   unitPrice,
			"total":        item.Total,
			"categories":   categories,
		})
	}

	p.capture(ctx, event.TypePurchase, v, event.RawContext{
		OrderID: &orderID,
		Payload: map[string]any{
			"order_id":       orderID,
			"total_value":    order.Total,
			"currency":       order.Currency,
			"payment_method": order.PaymentMethod,
			"item_count":     order.ItemCount,
			"coupon_codes":   strings.Join(event.Strings(order.CouponCodes), ", "),
			"customer_id":    order.CustomerID,
			"billing_email":  order.BillingEmail,
			"items":          items,
		},
	})
}

func (p *Pipeline) OnOrderStatusChange(ctx context.Context, v Visitor, orderID int64, fromStatus, toStatus string) {
	payload := map[string]any{
		"order_id":    orderID,
		"from_status": fromStatus,
		"to_status":   toStatus,
	}
	if order, err := p.orders.GetOrder(ctx, orderID); err == nil {
		payload["total_value"] = order.Total
		if v.UserID == nil && order.CustomerID > 0 {
			customerID := order.CustomerID
			v.UserID = &customerID
		}
	}
	p.capture(ctx, event.TypeOrderStatusChange, v, event.RawContext{
		OrderID: &orderID,
		Payload: payload,
	})
}

// OnSearch records a storefront search. Empty queries and admin-context
// searches are not behavioral signal and are skipped.
func (p *Pipeline) OnSearch(ctx context.Context, v Visitor, query string, resultsCount int, isAdmin bool) {
	if isAdmin {
		metricsx.IncEventDropped("admin_context")
		return
	}
	if strings.TrimSpace(query) == "" {
		metricsx.IncEventDropped("empty_query")
		return
	}
	p.capture(ctx, event.TypeSearch, v, event.RawContext{
		Payload: map[string]any{
			"search_query":  query,
			"results_count": resultsCount,
		},
	})
}

// OnWebhookOrder records an order payload delivered by the host platform's
// webhook. There is no browsing session to correlate, so the session id
// stays empty.
func (p *Pipeline) OnWebhookOrder(ctx context.Context, payload map[string]any) {
	raw := event.RawContext{Payload: payload}
	if id := event.Int(payload["id"]); id > 0 {
		raw.OrderID = &id
	}
	p.capture(ctx, event.TypeWebhookOrder, Visitor{}, raw)
}

// OnClientSignal ingests a browser-side behavioral signal. Signal families
// can be switched off individually.
func (p *Pipeline) OnClientSignal(ctx context.Context, v Visitor, t event.Type, payload map[string]any) {
	switch t {
	case event.TypePageView:
	case event.TypeScrollDepth:
		if !p.cfg.TrackScrollDepth {
			metricsx.IncEventDropped("signal_disabled")
			return
		}
	case event.TypeTimeOnPage:
		if !p.cfg.TrackTimeOnPage {
			metricsx.IncEventDropped("signal_disabled")
			return
		}
	case event.TypeFormInteraction:
		if !p.cfg.TrackFormInteractions {
			metricsx.IncEventDropped("signal_disabled")
			return
		}
	default:
		metricsx.IncEventDropped("unknown_signal")
		return
	}
	p.capture(ctx, t, v, event.RawContext{Payload: payload})
}

func (p *Pipeline) capture(ctx context.Context, t event.Type, v Visitor, raw event.RawContext) {
	if !p.cfg.SinkConfigured() {
		metricsx.IncEventDropped("tracking_disabled")
		return
	}
	if v.UserID == nil && !p.cfg.TrackAnonymousUsers && t != event.TypeWebhookOrder {
		metricsx.IncEventDropped("anonymous")
		return
	}

	raw.UserID = v.UserID
	if v.Key != "" {
		sessionID, err := p.sessions.Resolve(ctx, v.Key)
		if err != nil {
			p.log.Warn(ctx, "session_resolve_failed", "session resolution failed, capturing without session",
				slog.String("error", err.Error()))
		} else {
			raw.SessionID = sessionID
		}
	}

	ev, err := event.Build(t, raw)
	if err != nil {
		metricsx.IncEventDropped("validation")
		if p.cfg.EnableDebug {
			p.log.Debug(ctx, "event_invalid", "event rejected by validation",
				slog.String("event_type", string(t)), slog.String("error", err.Error()))
		}
		return
	}

	if _, err := p.store.Append(ctx, ev); err != nil {
		metricsx.IncStoreAppendFailure()
		p.log.Error(ctx, "store_append_failed", "local event store append failed",
			slog.String("event_type", string(t)), slog.String("error", err.Error()))
		return
	}
	metricsx.IncEventCaptured(string(t))

	p.wg.Add(1)
	go p.deliver(ev)
}

// deliver runs off the request path under its own deadline. A failed push is
// left pending for the relay worker to retry.
func (p *Pipeline) deliver(ev event.Event) {
	defer p.wg.Done()
	ctx, cancel := context.WithTimeout(context.Background(), p.pushTimeout)
	defer cancel()

	res := p.sink.Push(ctx, sink.TableEvents, sink.EventRecord(ev))
	if res.Success {
		updated, err := p.store.MarkSynced(ctx, ev.ID)
		if err != nil {
			p.log.Warn(ctx, "mark_synced_failed", "delivered event could not be flagged synced",
				slog.String("event_id", ev.ID.String()), slog.String("error", err.Error()))
		} else if !updated {
			p.log.Debug(ctx, "mark_synced_noop", "event already synced or unknown",
				slog.String("event_id", ev.ID.String()))
		}
	} else {
		p.log.Warn(ctx, "sink_push_failed", "event delivery failed, left pending for relay",
			slog.String("event_id", ev.ID.String()),
			slog.Int("status", res.StatusCode),
			slog.String("error", res.ErrorMessage))
	}

	p.mirrorEvent(ctx, ev)
}

func (p *Pipeline) mirrorEvent(ctx context.Context, ev event.Event) {
	if p.mirror == nil {
		return
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return
	}
	key := []byte(ev.SessionID)
	if len(key) == 0 {
		key = []byte(ev.ID.String())
	}
	if err := p.mirror.Publish(ctx, p.cfg.KafkaEventTopic, key, body, map[string]string{
		"event_type": string(ev.Type),
	}); err != nil {
		p.log.Warn(ctx, "mirror_publish_failed", "kafka mirror publish failed",
			slog.String("event_id", ev.ID.String()), slog.String("error", err.Error()))
	}
}

// SyncPending redelivers stored events the sink has not acknowledged yet.
// It returns how many were delivered this pass and how many remain.
func (p *Pipeline) SyncPending(ctx context.Context, limit int) (delivered int, remaining int, err error) {
	pending, err := p.store.ListPending(ctx, limit)
	if err != nil {
		return 0, 0, err
	}
	for _, ev := range pending {
		res := p.sink.Push(ctx, sink.TableEvents, sink.EventRecord(ev))
		if !res.Success {
			p.log.Warn(ctx, "sink_push_failed", "pending event redelivery failed",
				slog.String("event_id", ev.ID.String()),
				slog.Int("status", res.StatusCode),
				slog.String("error", res.ErrorMessage))
			continue
		}
		updated, err := p.store.MarkSynced(ctx, ev.ID)
		if err != nil {
			p.log.Warn(ctx, "mark_synced_failed", "delivered event could not be flagged synced",
				slog.String("event_id", ev.ID.String()), slog.String("error", err.Error()))
			continue
		}
		if !updated {
			p.log.Debug(ctx, "mark_synced_noop", "event already synced or unknown",
				slog.String("event_id", ev.ID.String()))
		}
		delivered++
	}

	remaining, err = p.store.CountPending(ctx)
	if err != nil {
		return delivered, 0, err
	}
	metricsx.SetPendingEvents(remaining)
	return delivered, remaining, nil
}

// SyncProducts mirrors the published catalog into the sink's products table
// with upsert semantics. Returns how many snapshots the sink accepted.
func (p *Pipeline) SyncProducts(ctx context.Context) (int, int, error) {
	products, err := p.products.ListPublished(ctx, p.cfg.SyncBatchLimit)
	if err != nil {
		return 0, 0, err
	}
	records := make([]map[string]any, 0, len(products))
	for _, product := range products {
		records = append(records, sink.ProductRecord(product))
	}
	return p.sink.SyncBatch(ctx, sink.TableProducts, records), len(products), nil
}

func (p *Pipeline) TestConnection(ctx context.Context) sink.ConnectionResult {
	return p.sink.TestConnection(ctx)
}
