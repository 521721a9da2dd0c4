// Package orders is the order query and lifecycle service: it creates
// orders from checkout submissions, lists them for users and admins,
// and applies validated status transitions.
package orders

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/example/retailhub/internal/domain/order"
)

// Repository is the persistence capability the service needs. Create
// must be atomic (order plus lines in one transaction) and must
// deduplicate on the idempotency key: a replayed key returns the
// originally created order instead of inserting a second one.
type Repository interface {
	Create(ctx context.Context, o *order.Order, idempotencyKey string) (*order.Order, error)
	Get(ctx context.Context, id string) (*View, error)
	ListByUser(ctx context.Context, userID string) ([]View, error)
	ListAll(ctx context.Context) ([]View, error)
	Status(ctx context.Context, id string) (order.Status, error)
	SetStatus(ctx context.Context, id string, status order.Status) error
}

// Publisher emits domain events; nil disables publishing.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

type Service struct {
	repo   Repository
	events Publisher
}

func NewService(repo Repository, events Publisher) *Service {
	return &Service{repo: repo, events: events}
}

// Place persists a new order built from the submission. Validation
// failures (no items, no user) are rejected before the repository is
// touched.
func (s *Service) Place(ctx context.Context, sub order.Submission) (*order.Order, error) {
	o, err := order.New(sub)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, o, sub.IdempotencyKey)
}

func (s *Service) Get(ctx context.Context, id string) (*View, error) {
	return s.repo.Get(ctx, id)
}

// ListForUser returns the user's orders, newest first.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]View, error) {
	return s.repo.ListByUser(ctx, userID)
}

// ListAll returns every order, newest first. Callers gate this behind
// the admin role.
func (s *Service) ListAll(ctx context.Context) ([]View, error) {
	return s.repo.ListAll(ctx)
}

// UpdateStatus moves an order to the target status, rejecting
// transitions the state machine does not allow.
func (s *Service) UpdateStatus(ctx context.Context, id string, target order.Status) (*View, error) {
	current, err := s.repo.Status(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := current.TransitionTo(target)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SetStatus(ctx, id, next); err != nil {
		return nil, err
	}

	s.publish(ctx, id, order.EventOrderStatusChanged, order.OrderStatusChanged{
		OrderID:   id,
		OldStatus: current,
		NewStatus: next,
		ChangedAt: time.Now().UTC(),
	})

	return s.repo.Get(ctx, id)
}

// publish sends an event envelope, best-effort. Order state is already
// committed; a bus outage must not fail the request.
func (s *Service) publish(ctx context.Context, key, eventType string, event any) {
	if s.events == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[Orders] Failed to marshal %s event: %v", eventType, err)
		return
	}
	env := order.Envelope{EventType: eventType, Data: data}
	if err := s.events.Publish(ctx, key, env); err != nil {
		log.Printf("[Orders] Failed to publish %s event for order %s: %v", eventType, key, err)
	}
}
