package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusNew        Status = "New"
	StatusProcessing Status = "Processing"
	StatusShipped    Status = "Shipped"
	StatusDelivered  Status = "Delivered"
	StatusCancelled  Status = "Cancelled"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrEmptyOrder        = errors.New("order must have at least one item")
	ErrMissingUser       = errors.New("user_id is required")
	ErrUnknownStatus     = errors.New("unknown order status")
	ErrInvalidTransition = errors.New("invalid order status transition")
)

// validTransitions defines the allowed state transitions. Shipped
// orders can only be delivered; Delivered and Cancelled are terminal.
var validTransitions = map[Status][]Status{
	StatusNew:        {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  {},
	StatusCancelled:  {},
}

// ParseStatus validates a free-form status string from the wire.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusNew, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return Status(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// CanTransitionTo checks if the status may move to the target status.
func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// TransitionTo returns the target status or an error describing the
// rejected transition.
func (s Status) TransitionTo(target Status) (Status, error) {
	if !s.CanTransitionTo(target) {
		return s, fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidTransition, s, target)
	}
	return target, nil
}

// Item is one purchased line with the price captured at submission
// time. Product names are joined from the catalog at query time.
type Item struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Price     int    `json:"price"` // cents, at time of purchase
}

// Order is the immutable record of a completed purchase intent. Items
// never change after creation; only Status and UpdatedAt move.
type Order struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Items     []Item    `json:"items"`
	Total     int       `json:"total"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Submission is the payload a checkout attempt sends to the order
// backend. The idempotency key is generated per attempt so a resubmit
// after a lost acknowledgment does not create a duplicate order.
type Submission struct {
	UserID         string `json:"user_id"`
	IdempotencyKey string `json:"idempotency_key"`
	Items          []Item `json:"items"`
}

// New builds an order from a submission. Orders enter the pipeline in
// Processing: submission is the act of purchase, not a draft.
func New(sub Submission) (*Order, error) {
	if sub.UserID == "" {
		return nil, ErrMissingUser
	}
	if len(sub.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	total := 0
	for _, item := range sub.Items {
		total += item.Price * item.Quantity
	}

	now := time.Now().UTC()
	return &Order{
		ID:        uuid.New().String(),
		UserID:    sub.UserID,
		Items:     sub.Items,
		Total:     total,
		Status:    StatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
