package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/example/retailhub/internal/api/middleware"
	"github.com/example/retailhub/internal/cartstore"
	"github.com/example/retailhub/internal/checkout"
	"github.com/example/retailhub/internal/domain/cart"
	"github.com/example/retailhub/internal/domain/catalog"
	"github.com/example/retailhub/internal/domain/order"
	"github.com/example/retailhub/internal/orders"
)

// cartSessionCookie identifies the anonymous shopping session. The
// cart follows this cookie, not the login.
const cartSessionCookie = "cart_session"

// CatalogService is the product store as the handlers see it.
type CatalogService interface {
	FetchAll(ctx context.Context) ([]catalog.Product, error)
	Get(ctx context.Context, id string) (*catalog.Product, error)
	Create(ctx context.Context, name, description string, price int, imageURL string) (*catalog.Product, error)
	Update(ctx context.Context, id, name, description string, price int, imageURL string) (*catalog.Product, error)
	Delete(ctx context.Context, id string) error
}

// CheckoutService runs one checkout attempt for a session.
type CheckoutService interface {
	Checkout(ctx context.Context, sessionKey, userID, idempotencyKey string) (*order.Order, error)
}

// OrderService queries orders and applies status transitions.
type OrderService interface {
	Get(ctx context.Context, id string) (*orders.View, error)
	ListForUser(ctx context.Context, userID string) ([]orders.View, error)
	ListAll(ctx context.Context) ([]orders.View, error)
	UpdateStatus(ctx context.Context, id string, target order.Status) (*orders.View, error)
}

type Handlers struct {
	catalog  CatalogService
	carts    cartstore.Store
	checkout CheckoutService
	orders   OrderService
}

func NewHandlers(cat CatalogService, carts cartstore.Store, co CheckoutService, ord OrderService) *Handlers {
	return &Handlers{
		catalog:  cat,
		carts:    carts,
		checkout: co,
		orders:   ord,
	}
}

// Product Handlers

type productRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int    `json:"price"`
	ImageURL    string `json:"image_url"`
}

func (p productRequest) validate() string {
	if strings.TrimSpace(p.Name) == "" {
		return "name is required"
	}
	if p.Price < 0 {
		return "price must not be negative"
	}
	return ""
}

func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.FetchAll(r.Context())
	if err != nil {
		log.Printf("[API] Failed to list products: %v", err)
		respondJSONError(w, "catalog unavailable", http.StatusServiceUnavailable)
		return
	}
	if products == nil {
		products = []catalog.Product{}
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/products/")
	product, err := h.catalog.Get(r.Context(), id)
	if errors.Is(err, catalog.ErrProductNotFound) {
		respondJSONError(w, "product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("[API] Failed to get product %s: %v", id, err)
		respondJSONError(w, "catalog unavailable", http.StatusServiceUnavailable)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if msg := req.validate(); msg != "" {
		respondJSONError(w, msg, http.StatusBadRequest)
		return
	}

	product, err := h.catalog.Create(r.Context(), req.Name, req.Description, req.Price, req.ImageURL)
	if err != nil {
		log.Printf("[API] Failed to create product: %v", err)
		respondJSONError(w, "could not create product", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusCreated, product)
}

func (h *Handlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/products/")

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if msg := req.validate(); msg != "" {
		respondJSONError(w, msg, http.StatusBadRequest)
		return
	}

	product, err := h.catalog.Update(r.Context(), id, req.Name, req.Description, req.Price, req.ImageURL)
	if errors.Is(err, catalog.ErrProductNotFound) {
		respondJSONError(w, "product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("[API] Failed to update product %s: %v", id, err)
		respondJSONError(w, "could not update product", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/products/")

	err := h.catalog.Delete(r.Context(), id)
	if errors.Is(err, catalog.ErrProductNotFound) {
		respondJSONError(w, "product not found", http.StatusNotFound)
		return
	}
	if errors.Is(err, catalog.ErrProductInUse) {
		respondJSONError(w, "product is referenced by existing orders", http.StatusConflict)
		return
	}
	if err != nil {
		log.Printf("[API] Failed to delete product %s: %v", id, err)
		respondJSONError(w, "could not delete product", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Cart Handlers

type cartView struct {
	Items []cart.Item `json:"items"`
	Total int         `json:"total"`
}

func newCartView(c *cart.Cart) cartView {
	v := cartView{Items: c.Items, Total: c.Total()}
	if v.Items == nil {
		v.Items = []cart.Item{}
	}
	return v
}

// GetCart returns the session cart refreshed against the current
// catalog. The refreshed cart is display-only and never written back;
// prices are fixed at checkout, not here. If the catalog is down the
// stored cart is shown as-is.
func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	sessionKey := h.sessionKey(w, r)

	c, err := h.loadCart(r.Context(), sessionKey)
	if err != nil {
		log.Printf("[API] Failed to load cart %s: %v", sessionKey, err)
		respondJSONError(w, "cart store unavailable", http.StatusServiceUnavailable)
		return
	}

	products, err := h.catalog.FetchAll(r.Context())
	if err != nil {
		log.Printf("[API] Catalog unavailable for cart view, showing stored cart: %v", err)
		respondJSON(w, http.StatusOK, newCartView(c))
		return
	}

	reconciled, _ := c.Reconcile(catalog.NewSnapshot(products))
	respondJSON(w, http.StatusOK, newCartView(&reconciled))
}

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	sessionKey := h.sessionKey(w, r)

	var req struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	product, err := h.catalog.Get(r.Context(), req.ProductID)
	if errors.Is(err, catalog.ErrProductNotFound) {
		respondJSONError(w, "product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("[API] Failed to get product %s: %v", req.ProductID, err)
		respondJSONError(w, "catalog unavailable", http.StatusServiceUnavailable)
		return
	}

	c, err := h.loadCart(r.Context(), sessionKey)
	if err != nil {
		log.Printf("[API] Failed to load cart %s: %v", sessionKey, err)
		respondJSONError(w, "cart store unavailable", http.StatusServiceUnavailable)
		return
	}

	if err := c.AddItem(*product, req.Quantity); err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.carts.Set(r.Context(), sessionKey, c); err != nil {
		log.Printf("[API] Failed to save cart %s: %v", sessionKey, err)
		respondJSONError(w, "cart store unavailable", http.StatusServiceUnavailable)
		return
	}

	respondJSON(w, http.StatusOK, newCartView(c))
}

func (h *Handlers) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	sessionKey := h.sessionKey(w, r)
	productID := extractPathParam(r.URL.Path, "/cart/items/")

	c, err := h.loadCart(r.Context(), sessionKey)
	if err != nil {
		log.Printf("[API] Failed to load cart %s: %v", sessionKey, err)
		respondJSONError(w, "cart store unavailable", http.StatusServiceUnavailable)
		return
	}

	c.RemoveItem(productID)

	if c.IsEmpty() {
		err = h.carts.Delete(r.Context(), sessionKey)
	} else {
		err = h.carts.Set(r.Context(), sessionKey, c)
	}
	if err != nil && !errors.Is(err, cartstore.ErrNotFound) {
		log.Printf("[API] Failed to save cart %s: %v", sessionKey, err)
		respondJSONError(w, "cart store unavailable", http.StatusServiceUnavailable)
		return
	}

	respondJSON(w, http.StatusOK, newCartView(c))
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	sessionKey := h.sessionKey(w, r)

	if err := h.carts.Delete(r.Context(), sessionKey); err != nil && !errors.Is(err, cartstore.ErrNotFound) {
		log.Printf("[API] Failed to clear cart %s: %v", sessionKey, err)
		respondJSONError(w, "cart store unavailable", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Checkout Handler

// Checkout places the session's cart as an order. Clients retrying
// after a lost response should resend the same Idempotency-Key header
// so the attempt dedupes to the order it already created.
func (h *Handlers) Checkout(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	sessionKey := h.sessionKey(w, r)
	idempotencyKey := r.Header.Get("Idempotency-Key")

	placed, err := h.checkout.Checkout(r.Context(), sessionKey, userID, idempotencyKey)
	switch {
	case err == nil:
		respondJSON(w, http.StatusCreated, placed)
	case errors.Is(err, checkout.ErrEmptyCart):
		respondJSONError(w, "cart is empty", http.StatusBadRequest)
	case errors.Is(err, order.ErrMissingUser):
		respondJSONError(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, checkout.ErrCatalogUnavailable):
		respondJSONError(w, "catalog unavailable, please retry", http.StatusServiceUnavailable)
	default:
		log.Printf("[API] Checkout failed for session %s: %v", sessionKey, err)
		respondJSONError(w, "could not place order, please retry", http.StatusBadGateway)
	}
}

// Order Handlers

func (h *Handlers) GetOrders(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	views, err := h.orders.ListForUser(r.Context(), userID)
	if err != nil {
		log.Printf("[API] Failed to list orders for user %s: %v", userID, err)
		respondJSONError(w, "order store unavailable", http.StatusServiceUnavailable)
		return
	}
	if views == nil {
		views = []orders.View{}
	}
	respondJSON(w, http.StatusOK, views)
}

func (h *Handlers) GetAllOrders(w http.ResponseWriter, r *http.Request) {
	views, err := h.orders.ListAll(r.Context())
	if err != nil {
		log.Printf("[API] Failed to list all orders: %v", err)
		respondJSONError(w, "order store unavailable", http.StatusServiceUnavailable)
		return
	}
	if views == nil {
		views = []orders.View{}
	}
	respondJSON(w, http.StatusOK, views)
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/orders/")

	view, err := h.orders.Get(r.Context(), id)
	if errors.Is(err, order.ErrOrderNotFound) {
		respondJSONError(w, "order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("[API] Failed to get order %s: %v", id, err)
		respondJSONError(w, "order store unavailable", http.StatusServiceUnavailable)
		return
	}

	// Users see only their own orders; admins see all.
	if view.UserID != middleware.GetUserID(r.Context()) && !isAdmin(r) {
		respondJSONError(w, "forbidden", http.StatusForbidden)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

func (h *Handlers) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/orders/")
	id = strings.TrimSuffix(id, "/status")

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	target, err := order.ParseStatus(req.Status)
	if err != nil {
		respondJSONError(w, "unknown status", http.StatusBadRequest)
		return
	}

	view, err := h.orders.UpdateStatus(r.Context(), id, target)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, view)
	case errors.Is(err, order.ErrOrderNotFound):
		respondJSONError(w, "order not found", http.StatusNotFound)
	case errors.Is(err, order.ErrInvalidTransition):
		respondJSONError(w, err.Error(), http.StatusConflict)
	default:
		log.Printf("[API] Failed to update status of order %s: %v", id, err)
		respondJSONError(w, "order store unavailable", http.StatusServiceUnavailable)
	}
}

// Helper functions

// sessionKey returns the cart session key, minting a cookie on first
// contact so the cart survives across requests.
func (h *Handlers) sessionKey(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(cartSessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	key := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     cartSessionCookie,
		Value:    key,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return key
}

// loadCart returns the stored cart, or a fresh empty one when the
// session has no cart yet.
func (h *Handlers) loadCart(ctx context.Context, sessionKey string) (*cart.Cart, error) {
	c, err := h.carts.Get(ctx, sessionKey)
	if errors.Is(err, cartstore.ErrNotFound) {
		return &cart.Cart{}, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func extractPathParam(path, prefix string) string {
	return strings.TrimPrefix(path, prefix)
}

func isAdmin(r *http.Request) bool {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		return false
	}
	return claims.Role == "admin"
}
