package cart

import (
	"errors"

	"github.com/example/retailhub/internal/domain/catalog"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidProduct  = errors.New("product_id is required")
)

// Item is one candidate purchase line. Name and price are copies taken
// from the catalog when the line was added or last reconciled.
type Item struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int    `json:"unit_price"` // cents
}

func (i Item) LineTotal() int {
	return i.Quantity * i.UnitPrice
}

// Cart is an ordered list of lines, at most one per product. Insertion
// order is display order. The aggregate is pure state; persistence is
// the cartstore's job.
type Cart struct {
	Items []Item `json:"items"`
}

// AddItem merges the quantity into an existing line for the product, or
// appends a new line. The new line copies the catalog name and price.
func (c *Cart) AddItem(p catalog.Product, quantity int) error {
	if p.ID == "" {
		return ErrInvalidProduct
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	for i := range c.Items {
		if c.Items[i].ProductID == p.ID {
			c.Items[i].Quantity += quantity
			return nil
		}
	}

	c.Items = append(c.Items, Item{
		ProductID:   p.ID,
		ProductName: p.Name,
		Quantity:    quantity,
		UnitPrice:   p.Price,
	})
	return nil
}

// RemoveItem drops every line for the product. Removing an absent
// product is a no-op, not an error.
func (c *Cart) RemoveItem(productID string) {
	kept := c.Items[:0]
	for _, item := range c.Items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	c.Items = kept
}

// Clear empties the line list.
func (c *Cart) Clear() {
	c.Items = nil
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Total returns the sum of line totals in cents, 0 for an empty cart.
func (c *Cart) Total() int {
	total := 0
	for _, item := range c.Items {
		total += item.LineTotal()
	}
	return total
}

// Reconcile returns a copy of the cart refreshed against the catalog
// snapshot: lines for retired products are dropped, surviving lines get
// the current name and price. The receiver is not modified; the caller
// decides whether the result is saved, so read-only views never mutate
// persisted state. The second return reports whether anything changed.
func (c Cart) Reconcile(snapshot catalog.Snapshot) (Cart, bool) {
	reconciled := Cart{Items: make([]Item, 0, len(c.Items))}
	changed := false

	for _, item := range c.Items {
		p, ok := snapshot[item.ProductID]
		if !ok {
			changed = true
			continue
		}
		if item.ProductName != p.Name || item.UnitPrice != p.Price {
			item.ProductName = p.Name
			item.UnitPrice = p.Price
			changed = true
		}
		reconciled.Items = append(reconciled.Items, item)
	}

	return reconciled, changed
}
