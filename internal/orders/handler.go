package orders

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

// Store is the order persistence the handler depends on.
type Store interface {
	Place(ctx context.Context, userID int64, cartID string) (*domain.Order, error)
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	List(ctx context.Context, customerID *int64) ([]domain.Order, error)
	ListForUser(ctx context.Context, userID int64) ([]domain.Order, error)
	UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) (*domain.Order, error)
}

// Publisher emits events after an order is placed.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

type Handler struct {
	store    Store
	producer Publisher
	logger   *slog.Logger
}

func NewHandler(store Store, producer Publisher, logger *slog.Logger) *Handler {
	return &Handler{store: store, producer: producer, logger: logger}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /orders", telemetry.WithHTTPRoute(h.HandleList))
	mux.HandleFunc("POST /orders", telemetry.WithHTTPRoute(h.HandleCreate))
	mux.HandleFunc("GET /orders/{id}", telemetry.WithHTTPRoute(h.HandleGet))
	mux.HandleFunc("PATCH /orders/{id}/payment-status", telemetry.WithHTTPRoute(h.HandleUpdatePaymentStatus))
}

// identity reads the authenticated user id injected by the auth layer
// in front of this service.
func identity(r *http.Request) (int64, bool) {
	userID, err := strconv.ParseInt(r.Header.Get("X-User-ID"), 10, 64)
	return userID, err == nil && userID > 0
}

func isStaff(r *http.Request) bool {
	return r.Header.Get("X-Staff") == "true"
}

type createOrderRequest struct {
	CartID string `json:"cart_id"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity(r)
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CartID == "" {
		h.writeDomainError(w, domain.Validationf("cart_id", "is required"))
		return
	}
	// Malformed ids read as missing carts instead of surfacing driver
	// errors from the uuid column.
	if _, err := uuid.Parse(req.CartID); err != nil {
		h.writeDomainError(w, domain.NotFound("cart", req.CartID))
		return
	}

	order, err := h.store.Place(r.Context(), userID, req.CartID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	if h.producer != nil {
		event := domain.OrderPlacedEvent{
			OrderID:    order.ID,
			CustomerID: order.CustomerID,
			Items:      order.Items,
			Total:      order.Total(),
			PlacedAt:   order.PlacedAt,
		}
		key := strconv.FormatInt(order.ID, 10)
		if err := h.producer.Publish(r.Context(), key, event); err != nil {
			h.logger.Error("failed to publish order placed event", "error", err, "order_id", order.ID)
		}
	}

	h.logger.Info("order placed", "order_id", order.ID, "customer_id", order.CustomerID, "items", len(order.Items))
	h.writeJSON(w, http.StatusCreated, NewView(*order))
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	order, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, NewView(*order))
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	var (
		orders []domain.Order
		err    error
	)

	if isStaff(r) {
		orders, err = h.store.List(r.Context(), nil)
	} else {
		userID, ok := identity(r)
		if !ok {
			h.writeError(w, http.StatusUnauthorized, "missing user identity")
			return
		}
		orders, err = h.store.ListForUser(r.Context(), userID)
	}
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, NewViews(orders))
}

type updatePaymentStatusRequest struct {
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
}

func (h *Handler) HandleUpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req updatePaymentStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.PaymentStatus.Valid() {
		h.writeDomainError(w, domain.Validationf("payment_status", "must be one of pending, complete, failed"))
		return
	}

	order, err := h.store.UpdatePaymentStatus(r.Context(), id, req.PaymentStatus)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.logger.Info("payment status updated", "order_id", order.ID, "payment_status", order.PaymentStatus)
	h.writeJSON(w, http.StatusOK, NewView(*order))
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid order id")
		return 0, false
	}
	return id, true
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	var nf *domain.NotFoundError
	var cf *domain.ConflictError

	switch {
	case errors.As(err, &ve):
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": ve.Message, "field": ve.Field})
	case errors.As(err, &nf):
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": nf.Error(), "entity": nf.Entity})
	case errors.As(err, &cf):
		h.writeJSON(w, http.StatusConflict, map[string]string{"error": cf.Message, "entity": cf.Entity})
	default:
		h.logger.Error("order store error", "error", err)
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
