package notification

import (
	"context"
	"encoding/json"
	"log"

	"github.com/example/retailhub/internal/domain/catalog"
	"github.com/example/retailhub/internal/domain/order"
	"github.com/example/retailhub/internal/domain/user"
	"github.com/example/retailhub/internal/email"
)

// UserDirectory resolves a user ID to the account on file.
type UserDirectory interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
}

// ProductDirectory resolves a product ID to its catalog entry.
type ProductDirectory interface {
	Get(ctx context.Context, id string) (*catalog.Product, error)
}

// Handler consumes order events and sends confirmation mail. Events it
// cannot act on are logged and skipped so the consumer keeps moving.
type Handler struct {
	emailService *email.Service
	users        UserDirectory
	products     ProductDirectory
}

func NewHandler(emailSvc *email.Service, users UserDirectory, products ProductDirectory) *Handler {
	return &Handler{
		emailService: emailSvc,
		users:        users,
		products:     products,
	}
}

// HandleEvent processes one message from the order topic.
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	var env order.Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		log.Printf("[Notifier] Failed to unmarshal event envelope: %v", err)
		return err
	}

	switch env.EventType {
	case order.EventOrderPlaced:
		return h.handleOrderPlaced(ctx, env)
	case order.EventOrderStatusChanged:
		// Status changes are not mailed yet.
		return nil
	default:
		log.Printf("[Notifier] Skipping unknown event type %q", env.EventType)
		return nil
	}
}

func (h *Handler) handleOrderPlaced(ctx context.Context, env order.Envelope) error {
	var e order.OrderPlaced
	if err := json.Unmarshal(env.Data, &e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal OrderPlaced event: %v", err)
		return err
	}

	log.Printf("[Notifier] Processing OrderPlaced event for order %s, user %s", e.OrderID, e.UserID)

	u, err := h.users.GetByID(ctx, e.UserID)
	if err != nil {
		// Without an address there is nothing to retry.
		log.Printf("[Notifier] Cannot resolve user %s: %v", e.UserID, err)
		return nil
	}

	emailItems := make([]email.OrderItem, len(e.Items))
	for i, item := range e.Items {
		name := item.ProductID
		if p, err := h.products.Get(ctx, item.ProductID); err == nil {
			name = p.Name
		}

		emailItems[i] = email.OrderItem{
			ProductID: item.ProductID,
			Name:      name,
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
	}

	if err := h.emailService.SendOrderConfirmation(u.Email, e.OrderID, e.Total, emailItems); err != nil {
		log.Printf("[Notifier] Failed to send email to %s: %v", u.Email, err)
		return err
	}

	log.Printf("[Notifier] Order confirmation email sent to %s for order %s", u.Email, e.OrderID)
	return nil
}
