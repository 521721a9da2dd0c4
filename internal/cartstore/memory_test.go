package cartstore

import (
	"context"
	"testing"

	"github.com/example/retailhub/internal/domain/cart"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_GetMissing(t *testing.T) {
	store := NewMemoryStore()

	c, err := store.Get(context.Background(), "session-1")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, c)
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	saved := &cart.Cart{Items: []cart.Item{
		{ProductID: "p1", ProductName: "Widget", Quantity: 2, UnitPrice: 1000},
		{ProductID: "p2", ProductName: "Gadget", Quantity: 1, UnitPrice: 500},
	}}
	require.NoError(t, store.Set(ctx, "session-1", saved))

	loaded, err := store.Get(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, saved.Items, loaded.Items)
	assert.Equal(t, 2500, loaded.Total())
}

func TestMemoryStore_SessionsAreIsolated(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "session-1", &cart.Cart{Items: []cart.Item{
		{ProductID: "p1", Quantity: 1, UnitPrice: 100},
	}}))

	_, err := store.Get(ctx, "session-2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "session-1", &cart.Cart{Items: []cart.Item{
		{ProductID: "p1", Quantity: 1, UnitPrice: 100},
	}}))
	require.NoError(t, store.Delete(ctx, "session-1"))

	_, err := store.Get(ctx, "session-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_DeleteMissingIsNoOp(t *testing.T) {
	store := NewMemoryStore()

	assert.NoError(t, store.Delete(context.Background(), "never-seen"))
}

func TestMemoryStore_SetOverwrites(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "session-1", &cart.Cart{Items: []cart.Item{
		{ProductID: "p1", Quantity: 1, UnitPrice: 100},
	}}))
	require.NoError(t, store.Set(ctx, "session-1", &cart.Cart{}))

	loaded, err := store.Get(ctx, "session-1")
	require.NoError(t, err)
	assert.True(t, loaded.IsEmpty())
}
