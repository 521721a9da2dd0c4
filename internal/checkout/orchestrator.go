// Package checkout converts a validated session cart into a persisted
// order. A checkout either fully succeeds (order created, cart
// cleared) or leaves the persisted cart exactly as it was, so the user
// can retry.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/example/retailhub/internal/cartstore"
	"github.com/example/retailhub/internal/domain/catalog"
	"github.com/example/retailhub/internal/domain/order"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrCatalogUnavailable = errors.New("catalog unavailable")
)

// CatalogAccessor fetches the full current product list. No caching:
// checkout must price against what the catalog says right now.
type CatalogAccessor interface {
	FetchAll(ctx context.Context) ([]catalog.Product, error)
}

// OrderPlacer submits an order to the backend store.
type OrderPlacer interface {
	Place(ctx context.Context, sub order.Submission) (*order.Order, error)
}

// Publisher emits domain events; nil disables publishing.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

type Orchestrator struct {
	carts   cartstore.Store
	catalog CatalogAccessor
	orders  OrderPlacer
	events  Publisher
}

func NewOrchestrator(carts cartstore.Store, cat CatalogAccessor, placer OrderPlacer, events Publisher) *Orchestrator {
	return &Orchestrator{carts: carts, catalog: cat, orders: placer, events: events}
}

// Checkout runs one checkout attempt for the session's cart.
//
// An empty or missing cart is rejected before the backend is
// contacted. The cart is reconciled against a fresh catalog snapshot
// so submitted prices are the prices in force at submission time; the
// reconciled cart is never written back, only submitted. The caller
// may supply the attempt's idempotency key; a resubmit carrying the
// same key maps to the order the first attempt created instead of a
// second order. When no key is supplied a fresh one is minted.
func (o *Orchestrator) Checkout(ctx context.Context, sessionKey, userID, idempotencyKey string) (*order.Order, error) {
	if userID == "" {
		return nil, order.ErrMissingUser
	}

	c, err := o.carts.Get(ctx, sessionKey)
	if errors.Is(err, cartstore.ErrNotFound) {
		return nil, ErrEmptyCart
	}
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}

	products, err := o.catalog.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	reconciled, _ := c.Reconcile(catalog.NewSnapshot(products))
	if reconciled.IsEmpty() {
		// Everything in the cart was retired since it was added.
		return nil, ErrEmptyCart
	}

	items := make([]order.Item, len(reconciled.Items))
	for i, line := range reconciled.Items {
		items[i] = order.Item{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     line.UnitPrice,
		}
	}

	if idempotencyKey == "" {
		idempotencyKey = uuid.New().String()
	}

	placed, err := o.orders.Place(ctx, order.Submission{
		UserID:         userID,
		IdempotencyKey: idempotencyKey,
		Items:          items,
	})
	if err != nil {
		// Cart untouched; when the user resubmits with the same key the
		// backend dedupes the case where the first attempt actually
		// landed.
		return nil, err
	}

	if err := o.carts.Delete(ctx, sessionKey); err != nil {
		log.Printf("[Checkout] Order %s placed but cart %s not cleared: %v", placed.ID, sessionKey, err)
	}

	o.publishPlaced(ctx, placed)
	return placed, nil
}

// publishPlaced emits OrderPlaced, best-effort. The order is already
// committed; a bus outage must not turn a successful checkout into an
// error the user would retry.
func (o *Orchestrator) publishPlaced(ctx context.Context, placed *order.Order) {
	if o.events == nil {
		return
	}
	data, err := json.Marshal(order.OrderPlaced{
		OrderID:  placed.ID,
		UserID:   placed.UserID,
		Items:    placed.Items,
		Total:    placed.Total,
		PlacedAt: time.Now().UTC(),
	})
	if err != nil {
		log.Printf("[Checkout] Failed to marshal OrderPlaced for order %s: %v", placed.ID, err)
		return
	}
	env := order.Envelope{EventType: order.EventOrderPlaced, Data: data}
	if err := o.events.Publish(ctx, placed.ID, env); err != nil {
		log.Printf("[Checkout] Failed to publish OrderPlaced for order %s: %v", placed.ID, err)
	}
}
