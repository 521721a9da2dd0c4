package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/example/retailhub/internal/domain/catalog"
	"github.com/example/retailhub/internal/domain/order"
	"github.com/example/retailhub/internal/domain/user"
	"github.com/example/retailhub/internal/orders"
)

// idempotencyWindow is how long a checkout attempt's key dedupes a
// resubmission. Outside the window a reused key is treated as a bug,
// not a retry.
const idempotencyWindow = 24 * time.Hour

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// OrderRepository persists orders in PostgreSQL. An order and its
// lines are written in one transaction; atomicity is delegated to the
// database.
type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts the order graph. A replayed idempotency key returns
// the order created by the first submission, so a user resubmitting
// after a lost acknowledgment does not purchase twice.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order, idempotencyKey string) (*order.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (id, user_id, status, total, idempotency_key, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		o.ID, o.UserID, o.Status, o.Total, idempotencyKey, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		if isPQError(err, pqUniqueViolation) {
			return r.findByIdempotencyKey(ctx, idempotencyKey)
		}
		if isPQError(err, pqForeignKeyViolation) {
			return nil, fmt.Errorf("order rejected: %w", user.ErrUserNotFound)
		}
		return nil, err
	}

	for _, item := range o.Items {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO order_items (order_id, product_id, quantity, price)
			 VALUES ($1, $2, $3, $4)`,
			o.ID, item.ProductID, item.Quantity, item.Price)
		if err != nil {
			if isPQError(err, pqForeignKeyViolation) {
				return nil, fmt.Errorf("order line rejected: %w", catalog.ErrProductNotFound)
			}
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return o, nil
}

// findByIdempotencyKey resolves the replay case after a unique
// violation on the key.
func (r *OrderRepository) findByIdempotencyKey(ctx context.Context, key string) (*order.Order, error) {
	var o order.Order
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, status, total, created_at, updated_at
		 FROM orders
		 WHERE idempotency_key = $1`, key).
		Scan(&o.ID, &o.UserID, &o.Status, &o.Total, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if time.Since(o.CreatedAt) > idempotencyWindow {
		return nil, fmt.Errorf("idempotency key reused outside dedup window")
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT product_id, quantity, price
		 FROM order_items
		 WHERE order_id = $1
		 ORDER BY id`, o.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item order.Item
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.Price); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, item)
	}
	return &o, rows.Err()
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*orders.View, error) {
	views, err := r.queryViews(ctx,
		`SELECT o.id, o.user_id, o.status, o.total, o.created_at, o.updated_at,
		        u.id, u.email, u.full_name
		 FROM orders o
		 JOIN users u ON u.id = o.user_id
		 WHERE o.id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, order.ErrOrderNotFound
	}
	return &views[0], nil
}

// ListByUser returns the user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]orders.View, error) {
	return r.queryViews(ctx,
		`SELECT o.id, o.user_id, o.status, o.total, o.created_at, o.updated_at,
		        u.id, u.email, u.full_name
		 FROM orders o
		 JOIN users u ON u.id = o.user_id
		 WHERE o.user_id = $1
		 ORDER BY o.created_at DESC`, userID)
}

// ListAll returns every order, newest first.
func (r *OrderRepository) ListAll(ctx context.Context) ([]orders.View, error) {
	return r.queryViews(ctx,
		`SELECT o.id, o.user_id, o.status, o.total, o.created_at, o.updated_at,
		        u.id, u.email, u.full_name
		 FROM orders o
		 JOIN users u ON u.id = o.user_id
		 ORDER BY o.created_at DESC`)
}

func (r *OrderRepository) Status(ctx context.Context, id string) (order.Status, error) {
	var status order.Status
	err := r.db.QueryRowContext(ctx,
		`SELECT status FROM orders WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", order.ErrOrderNotFound
	}
	if err != nil {
		return "", err
	}
	return status, nil
}

func (r *OrderRepository) SetStatus(ctx context.Context, id string, status order.Status) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, time.Now().UTC())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return order.ErrOrderNotFound
	}
	return nil
}

// queryViews runs an order+user query and attaches line items with
// current product names in a second query.
func (r *OrderRepository) queryViews(ctx context.Context, query string, args ...any) ([]orders.View, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []orders.View
	var ids []string
	byID := make(map[string]*orders.View)
	for rows.Next() {
		var v orders.View
		if err := rows.Scan(&v.ID, &v.UserID, &v.Status, &v.Total, &v.CreatedAt, &v.UpdatedAt,
			&v.User.ID, &v.User.Email, &v.User.FullName); err != nil {
			return nil, err
		}
		v.Items = []orders.LineView{}
		views = append(views, v)
		ids = append(ids, v.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return views, nil
	}
	for i := range views {
		byID[views[i].ID] = &views[i]
	}

	itemRows, err := r.db.QueryContext(ctx,
		`SELECT i.order_id, i.product_id, i.quantity, i.price, COALESCE(p.name, '')
		 FROM order_items i
		 LEFT JOIN products p ON p.id = i.product_id
		 WHERE i.order_id = ANY($1)
		 ORDER BY i.id`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var orderID string
		var line orders.LineView
		if err := itemRows.Scan(&orderID, &line.ProductID, &line.Quantity, &line.Price, &line.Product.Name); err != nil {
			return nil, err
		}
		line.Product.ID = line.ProductID
		if v, ok := byID[orderID]; ok {
			v.Items = append(v.Items, line)
		}
	}
	return views, itemRows.Err()
}

func isPQError(err error, code string) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == code
}
