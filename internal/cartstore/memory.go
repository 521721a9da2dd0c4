package cartstore

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/example/retailhub/internal/domain/cart"
)

// MemoryStore is an in-process Store for tests and local development.
// Carts are stored as serialized blobs so it exercises the same
// round-trip as the real backends.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string][]byte)}
}

func (s *MemoryStore) Get(ctx context.Context, sessionKey string) (*cart.Cart, error) {
	s.mu.RLock()
	data, ok := s.carts[sessionKey]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	var c cart.Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *MemoryStore) Set(ctx context.Context, sessionKey string, c *cart.Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.carts[sessionKey] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, sessionKey string) error {
	s.mu.Lock()
	delete(s.carts, sessionKey)
	s.mu.Unlock()
	return nil
}
