// Package cartstore persists session carts as opaque blobs behind a
// small key-value capability: get, set, and delete by session key. Cart
// logic never sees the storage mechanism.
package cartstore

import (
	"context"
	"errors"

	"github.com/example/retailhub/internal/domain/cart"
)

// ErrNotFound is returned when no cart exists for a session key.
// Callers treat it as an empty cart, not a failure.
var ErrNotFound = errors.New("cart not found")

type Store interface {
	Get(ctx context.Context, sessionKey string) (*cart.Cart, error)
	Set(ctx context.Context, sessionKey string, c *cart.Cart) error
	Delete(ctx context.Context, sessionKey string) error
}
