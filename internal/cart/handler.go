package cart

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

// Store is the cart persistence the handler depends on.
type Store interface {
	Create(ctx context.Context) (*domain.Cart, error)
	Get(ctx context.Context, id string) (*domain.Cart, error)
	Delete(ctx context.Context, id string) error
	ListItems(ctx context.Context, cartID string) ([]domain.CartItem, error)
	AddItem(ctx context.Context, cartID string, productID int64, quantity int) (*domain.CartItem, error)
	GetItem(ctx context.Context, cartID string, itemID int64) (*domain.CartItem, error)
	UpdateItem(ctx context.Context, cartID string, itemID int64, quantity int) (*domain.CartItem, error)
	RemoveItem(ctx context.Context, cartID string, itemID int64) error
}

type Handler struct {
	store  Store
	logger *slog.Logger
}

func NewHandler(store Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /carts", telemetry.WithHTTPRoute(h.HandleCreate))
	mux.HandleFunc("GET /carts/{cartID}", telemetry.WithHTTPRoute(h.HandleGet))
	mux.HandleFunc("DELETE /carts/{cartID}", telemetry.WithHTTPRoute(h.HandleDelete))
	mux.HandleFunc("GET /carts/{cartID}/items", telemetry.WithHTTPRoute(h.HandleListItems))
	mux.HandleFunc("POST /carts/{cartID}/items", telemetry.WithHTTPRoute(h.HandleAddItem))
	mux.HandleFunc("GET /carts/{cartID}/items/{itemID}", telemetry.WithHTTPRoute(h.HandleGetItem))
	mux.HandleFunc("PATCH /carts/{cartID}/items/{itemID}", telemetry.WithHTTPRoute(h.HandleUpdateItem))
	mux.HandleFunc("DELETE /carts/{cartID}/items/{itemID}", telemetry.WithHTTPRoute(h.HandleRemoveItem))
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	c, err := h.store.Create(r.Context())
	if err != nil {
		h.logger.Error("failed to create cart", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("cart created", "cart_id", c.ID)
	h.writeJSON(w, http.StatusCreated, NewView(*c, nil))
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	cartID, ok := h.cartID(w, r)
	if !ok {
		return
	}

	c, err := h.store.Get(r.Context(), cartID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	items, err := h.store.ListItems(r.Context(), cartID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, NewView(*c, items))
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	cartID, ok := h.cartID(w, r)
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), cartID); err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.logger.Info("cart deleted", "cart_id", cartID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleListItems(w http.ResponseWriter, r *http.Request) {
	cartID, ok := h.cartID(w, r)
	if !ok {
		return
	}

	items, err := h.store.ListItems(r.Context(), cartID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, NewItemViews(items))
}

type addItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

func (h *Handler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	cartID, ok := h.cartID(w, r)
	if !ok {
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.store.AddItem(r.Context(), cartID, req.ProductID, req.Quantity)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.logger.Info("cart item merged", "cart_id", cartID, "product_id", req.ProductID, "quantity", item.Quantity)
	h.writeJSON(w, http.StatusCreated, NewItemView(*item))
}

func (h *Handler) HandleGetItem(w http.ResponseWriter, r *http.Request) {
	cartID, itemID, ok := h.itemPath(w, r)
	if !ok {
		return
	}

	item, err := h.store.GetItem(r.Context(), cartID, itemID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, NewItemView(*item))
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) HandleUpdateItem(w http.ResponseWriter, r *http.Request) {
	cartID, itemID, ok := h.itemPath(w, r)
	if !ok {
		return
	}

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.store.UpdateItem(r.Context(), cartID, itemID, req.Quantity)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.logger.Info("cart item updated", "cart_id", cartID, "item_id", itemID, "quantity", item.Quantity)
	h.writeJSON(w, http.StatusOK, NewItemView(*item))
}

func (h *Handler) HandleRemoveItem(w http.ResponseWriter, r *http.Request) {
	cartID, itemID, ok := h.itemPath(w, r)
	if !ok {
		return
	}

	if err := h.store.RemoveItem(r.Context(), cartID, itemID); err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.logger.Info("cart item removed", "cart_id", cartID, "item_id", itemID)
	w.WriteHeader(http.StatusNoContent)
}

// cartID validates the path segment as a uuid so malformed ids read as
// missing carts instead of surfacing driver errors.
func (h *Handler) cartID(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := r.PathValue("cartID")
	id, err := uuid.Parse(raw)
	if err != nil {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "cart not found", "entity": "cart"})
		return "", false
	}
	return id.String(), true
}

func (h *Handler) itemPath(w http.ResponseWriter, r *http.Request) (string, int64, bool) {
	cartID, ok := h.cartID(w, r)
	if !ok {
		return "", 0, false
	}
	itemID, err := strconv.ParseInt(r.PathValue("itemID"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid item id")
		return "", 0, false
	}
	return cartID, itemID, true
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	var nf *domain.NotFoundError

	switch {
	case errors.As(err, &ve):
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": ve.Message, "field": ve.Field})
	case errors.As(err, &nf):
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": nf.Error(), "entity": nf.Entity})
	default:
		h.logger.Error("cart store error", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
