package tracker

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"storefront-analytics-tracker/internal/event"
)

// Storefront lifecycle hooks the host platform can fire over HTTP. The
// bindings installed by Bind map each hook onto a pipeline trigger, and
// additional listeners can be registered next to them.
const (
	HookProductViewed      = "product_viewed"
	HookCartItemAdded      = "cart_item_added"
	HookCartItemRemoved    = "cart_item_removed"
	HookCheckoutStarted    = "checkout_started"
	HookOrderCompleted     = "order_completed"
	HookOrderStatusChanged = "order_status_changed"
	HookSearchPerformed    = "search_performed"
)

// HookArgs carries the visitor identity plus the hook's named fields as sent
// by the caller.
type HookArgs struct {
	Visitor Visitor
	Fields  map[string]any
}

type HookFunc func(ctx context.Context, args HookArgs) error

// Registry holds named hook listener lists. Dispatch runs listeners in
// registration order and keeps going past failures.
type Registry struct {
	mu    sync.RWMutex
	hooks map[string][]HookFunc
}

func NewRegistry() *Registry {
	return &Registry{hooks: make(map[string][]HookFunc)}
}

func (r *Registry) Register(name string, fn HookFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks[name] = append(r.hooks[name], fn)
}

// Known reports whether any listener is registered under the name.
func (r *Registry) Known(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.hooks[name]
	return ok
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.hooks))
	for name := range r.hooks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Dispatch(ctx context.Context, name string, args HookArgs) error {
	r.mu.RLock()
	listeners, ok := r.hooks[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown hook %q", name)
	}

	var firstErr error
	for _, fn := range listeners {
		if err := fn(ctx, args); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Bind installs the standard bindings from lifecycle hooks to the capture
// pipeline. Field values arrive as untyped JSON and go through the same
// default-to-zero coercion as every other untrusted input.
func Bind(r *Registry, p *Pipeline) {
	r.Register(HookProductViewed, func(ctx context.Context, args HookArgs) error {
		p.OnProductView(ctx, args.Visitor, event.Int(args.Fields["product_id"]))
		return nil
	})
	r.Register(HookCartItemAdded, func(ctx context.Context, args HookArgs) error {
		p.OnAddToCart(ctx, args.Visitor, cartLineFromFields(args.Fields))
		return nil
	})
	r.Register(HookCartItemRemoved, func(ctx context.Context, args HookArgs) error {
		p.OnRemoveFromCart(ctx, args.Visitor, cartLineFromFields(args.Fields))
		return nil
	})
	r.Register(HookCheckoutStarted, func(ctx context.Context, args HookArgs) error {
		p.OnBeginCheckout(ctx, args.Visitor, event.Int(args.Fields["order_id"]))
		return nil
	})
	r.Register(HookOrderCompleted, func(ctx context.Context, args HookArgs) error {
		p.OnPurchase(ctx, args.Visitor, event.Int(args.Fields["order_id"]))
		return nil
	})
	r.Register(HookOrderStatusChanged, func(ctx context.Context, args HookArgs) error {
		from, _ := args.Fields["from_status"].(string)
		to, _ := args.Fields["to_status"].(string)
		p.OnOrderStatusChange(ctx, args.Visitor, event.Int(args.Fields["order_id"]), from, to)
		return nil
	})
	r.Register(HookSearchPerformed, func(ctx context.Context, args HookArgs) error {
		query, _ := args.Fields["search_query"].(string)
		isAdmin, _ := args.Fields["is_admin"].(bool)
		p.OnSearch(ctx, args.Visitor, query, int(event.Int(args.Fields["results_count"])), isAdmin)
		return nil
	})
}

func cartLineFromFields(fields map[string]any) CartLine {
	key, _ := fields["cart_item_key"].(string)
	return CartLine{
		ProductID:   event.Int(fields["product_id"]),
		VariationID: event.Int(fields["variation_id"]),
		Quantity:    int(event.Int(fields["quantity"])),
		Price:       event.Float(fields["price"]),
		CartItemKey: key,
	}
}
