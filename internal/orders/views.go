package orders

import (
	"time"

	"github.com/example/retailhub/internal/domain/order"
)

// UserSummary is the slice of account data embedded in order listings.
type UserSummary struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// ProductSummary identifies a purchased product by its current catalog
// name; the charged price lives on the line, not here.
type ProductSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type LineView struct {
	ProductID string         `json:"product_id"`
	Quantity  int            `json:"quantity"`
	Price     int            `json:"price"`
	Product   ProductSummary `json:"product"`
}

// View is an order joined with its user and product summaries, the
// shape returned by history and detail endpoints.
type View struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	Status    order.Status `json:"status"`
	Total     int          `json:"total"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	User      UserSummary  `json:"user"`
	Items     []LineView   `json:"items"`
}
