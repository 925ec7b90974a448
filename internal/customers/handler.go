package customers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

// Store is the customer persistence the handler depends on.
type Store interface {
	Create(ctx context.Context, c *domain.Customer) error
	GetByID(ctx context.Context, id int64) (*domain.Customer, error)
	Update(ctx context.Context, c *domain.Customer) error
	List(ctx context.Context) ([]domain.Customer, error)
	Delete(ctx context.Context, id int64) error
	ListAddresses(ctx context.Context, customerID int64) ([]domain.Address, error)
	AddAddress(ctx context.Context, a *domain.Address) error
	RemoveAddress(ctx context.Context, customerID, addressID int64) error
}

type Handler struct {
	store  Store
	logger *slog.Logger
}

func NewHandler(store Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /customers", telemetry.WithHTTPRoute(h.HandleList))
	mux.HandleFunc("POST /customers", telemetry.WithHTTPRoute(h.HandleCreate))
	mux.HandleFunc("GET /customers/{id}", telemetry.WithHTTPRoute(h.HandleGet))
	mux.HandleFunc("PATCH /customers/{id}", telemetry.WithHTTPRoute(h.HandleUpdate))
	mux.HandleFunc("DELETE /customers/{id}", telemetry.WithHTTPRoute(h.HandleDelete))
	mux.HandleFunc("GET /customers/{id}/addresses", telemetry.WithHTTPRoute(h.HandleListAddresses))
	mux.HandleFunc("POST /customers/{id}/addresses", telemetry.WithHTTPRoute(h.HandleAddAddress))
	mux.HandleFunc("DELETE /customers/{id}/addresses/{addressID}", telemetry.WithHTTPRoute(h.HandleRemoveAddress))
}

type customerRequest struct {
	UserID     int64             `json:"user_id"`
	Phone      string            `json:"phone"`
	BirthDate  *string           `json:"birth_date"`
	Membership domain.Membership `json:"membership"`
}

func (req customerRequest) customer() (domain.Customer, error) {
	c := domain.Customer{
		UserID:     req.UserID,
		Phone:      req.Phone,
		Membership: req.Membership,
	}
	if c.Membership == "" {
		c.Membership = domain.MembershipBronze
	}
	if req.BirthDate != nil {
		parsed, err := time.Parse("2006-01-02", *req.BirthDate)
		if err != nil {
			return c, domain.Validationf("birth_date", "must be formatted as YYYY-MM-DD")
		}
		c.BirthDate = &parsed
	}
	return c, nil
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	customer, err := req.customer()
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if err := customer.Validate(); err != nil {
		h.writeDomainError(w, err)
		return
	}

	if err := h.store.Create(r.Context(), &customer); err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.logger.Info("customer created", "customer_id", customer.ID, "user_id", customer.UserID)
	h.writeJSON(w, http.StatusCreated, customer)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	customer, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, customer)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	existing, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	var req customerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := req.customer()
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	updated.ID = existing.ID
	updated.UserID = existing.UserID // identity link is immutable
	if updated.Phone == "" {
		updated.Phone = existing.Phone
	}
	if req.Membership == "" {
		updated.Membership = existing.Membership
	}
	if updated.BirthDate == nil {
		updated.BirthDate = existing.BirthDate
	}
	if err := updated.Validate(); err != nil {
		h.writeDomainError(w, err)
		return
	}

	if err := h.store.Update(r.Context(), &updated); err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.logger.Info("customer updated", "customer_id", updated.ID)
	h.writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	customers, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list customers", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, customers)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.logger.Info("customer deleted", "customer_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleListAddresses(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	addresses, err := h.store.ListAddresses(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, addresses)
}

type addressRequest struct {
	Street string `json:"street"`
	City   string `json:"city"`
}

func (h *Handler) HandleAddAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}

	var req addressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Street == "" || req.City == "" {
		h.writeDomainError(w, domain.Validationf("address", "street and city are required"))
		return
	}

	address := domain.Address{CustomerID: id, Street: req.Street, City: req.City}
	if err := h.store.AddAddress(r.Context(), &address); err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.logger.Info("address added", "customer_id", id, "address_id", address.ID)
	h.writeJSON(w, http.StatusCreated, address)
}

func (h *Handler) HandleRemoveAddress(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "id")
	if !ok {
		return
	}
	addressID, ok := h.pathID(w, r, "addressID")
	if !ok {
		return
	}

	if err := h.store.RemoveAddress(r.Context(), id, addressID); err != nil {
		h.writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid "+name)
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
		h.logger.Error("customer store error", "error", err)
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
