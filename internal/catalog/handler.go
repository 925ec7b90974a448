package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

// Store is the catalog persistence the handler depends on.
type Store interface {
	ListProducts(ctx context.Context, filter ProductFilter) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	CreateProduct(ctx context.Context, p *domain.Product) error
	UpdateProduct(ctx context.Context, p *domain.Product) error
	DeleteProduct(ctx context.Context, id int64) error
	ListCollections(ctx context.Context) ([]CollectionWithCount, error)
	GetCollection(ctx context.Context, id int64) (*CollectionWithCount, error)
	CreateCollection(ctx context.Context, c *domain.Collection) error
	UpdateCollection(ctx context.Context, c *domain.Collection) error
	DeleteCollection(ctx context.Context, id int64) error
	ListPromotions(ctx context.Context) ([]domain.Promotion, error)
	CreatePromotion(ctx context.Context, p *domain.Promotion) error
}

type Handler struct {
	store  Store
	logger *slog.Logger
}

func NewHandler(store Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /products", telemetry.WithHTTPRoute(h.HandleListProducts))
	mux.HandleFunc("POST /products", telemetry.WithHTTPRoute(h.HandleCreateProduct))
	mux.HandleFunc("GET /products/{id}", telemetry.WithHTTPRoute(h.HandleGetProduct))
	mux.HandleFunc("PUT /products/{id}", telemetry.WithHTTPRoute(h.HandleUpdateProduct))
	mux.HandleFunc("DELETE /products/{id}", telemetry.WithHTTPRoute(h.HandleDeleteProduct))
	mux.HandleFunc("GET /collections", telemetry.WithHTTPRoute(h.HandleListCollections))
	mux.HandleFunc("POST /collections", telemetry.WithHTTPRoute(h.HandleCreateCollection))
	mux.HandleFunc("GET /collections/{id}", telemetry.WithHTTPRoute(h.HandleGetCollection))
	mux.HandleFunc("PUT /collections/{id}", telemetry.WithHTTPRoute(h.HandleUpdateCollection))
	mux.HandleFunc("DELETE /collections/{id}", telemetry.WithHTTPRoute(h.HandleDeleteCollection))
	mux.HandleFunc("GET /promotions", telemetry.WithHTTPRoute(h.HandleListPromotions))
	mux.HandleFunc("POST /promotions", telemetry.WithHTTPRoute(h.HandleCreatePromotion))
}

func parseFilter(r *http.Request) (ProductFilter, error) {
	q := r.URL.Query()
	var filter ProductFilter

	if v := q.Get("collection_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return filter, domain.Validationf("collection_id", "must be an integer")
		}
		filter.CollectionID = &id
	}
	if v := q.Get("min_price"); v != "" {
		price, err := decimal.NewFromString(v)
		if err != nil {
			return filter, domain.Validationf("min_price", "must be a decimal")
		}
		filter.MinPrice = &price
	}
	if v := q.Get("max_price"); v != "" {
		price, err := decimal.NewFromString(v)
		if err != nil {
			return filter, domain.Validationf("max_price", "must be a decimal")
		}
		filter.MaxPrice = &price
	}
	filter.Search = q.Get("search")

	switch ordering := q.Get("ordering"); ordering {
	case "", "unit_price", "-unit_price", "last_update", "-last_update":
		filter.Ordering = ordering
	default:
		return filter, domain.Validationf("ordering", "unsupported ordering %q", ordering)
	}

	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return filter, domain.Validationf("page", "must be a positive integer")
		}
		filter.Page = page
	}
	if v := q.Get("page_size"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size < 1 {
			return filter, domain.Validationf("page_size", "must be a positive integer")
		}
		filter.PageSize = size
	}

	return filter, nil
}

func (h *Handler) HandleListProducts(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	products, err := h.store.ListProducts(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list products", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, NewProductViews(products))
}

func (h *Handler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	product, err := h.store.GetProduct(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, NewProductView(*product))
}

type productRequest struct {
	Title        string          `json:"title"`
	Slug         string          `json:"slug"`
	Description  string          `json:"description"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Inventory    int             `json:"inventory"`
	CollectionID int64           `json:"collection_id"`
	PromotionIDs []int64         `json:"promotion_ids"`
}

func (req productRequest) product() domain.Product {
	return domain.Product{
		Title:        req.Title,
		Slug:         req.Slug,
		Description:  req.Description,
		UnitPrice:    req.UnitPrice,
		Inventory:    req.Inventory,
		CollectionID: req.CollectionID,
		PromotionIDs: req.PromotionIDs,
	}
}

func (h *Handler) HandleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product := req.product()
	if err := product.Validate(); err != nil {
		h.writeDomainError(w, err)
		return
	}

	if err := h.store.CreateProduct(r.Context(), &product); err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.logger.Info("product created", "product_id", product.ID, "title", product.Title)
	h.writeJSON(w, http.StatusCreated, NewProductView(product))
}

func (h *Handler) HandleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product := req.product()
	product.ID = id
	if err := product.Validate(); err != nil {
		h.writeDomainError(w, err)
		return
	}

	if err := h.store.UpdateProduct(r.Context(), &product); err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.logger.Info("product updated", "product_id", product.ID)
	h.writeJSON(w, http.StatusOK, NewProductView(product))
}

func (h *Handler) HandleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteProduct(r.Context(), id); err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.logger.Info("product deleted", "product_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleListCollections(w http.ResponseWriter, r *http.Request) {
	collections, err := h.store.ListCollections(r.Context())
	if err != nil {
		h.logger.Error("failed to list collections", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, NewCollectionViews(collections))
}

func (h *Handler) HandleGetCollection(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	collection, err := h.store.GetCollection(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, NewCollectionView(*collection))
}

type collectionRequest struct {
	Title             string `json:"title"`
	FeaturedProductID *int64 `json:"featured_product_id"`
}

func (h *Handler) HandleCreateCollection(w http.ResponseWriter, r *http.Request) {
	var req collectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		h.writeDomainError(w, domain.Validationf("title", "must not be empty"))
		return
	}

	collection := domain.Collection{Title: req.Title, FeaturedProductID: req.FeaturedProductID}
	if err := h.store.CreateCollection(r.Context(), &collection); err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.logger.Info("collection created", "collection_id", collection.ID, "title", collection.Title)
	h.writeJSON(w, http.StatusCreated, collection)
}

func (h *Handler) HandleUpdateCollection(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var req collectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		h.writeDomainError(w, domain.Validationf("title", "must not be empty"))
		return
	}

	collection := domain.Collection{ID: id, Title: req.Title, FeaturedProductID: req.FeaturedProductID}
	if err := h.store.UpdateCollection(r.Context(), &collection); err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.logger.Info("collection updated", "collection_id", collection.ID)
	h.writeJSON(w, http.StatusOK, collection)
}

func (h *Handler) HandleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteCollection(r.Context(), id); err != nil {
		h.writeDomainError(w, err)
		return
	}

	h.logger.Info("collection deleted", "collection_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleListPromotions(w http.ResponseWriter, r *http.Request) {
	promotions, err := h.store.ListPromotions(r.Context())
	if err != nil {
		h.logger.Error("failed to list promotions", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, promotions)
}

func (h *Handler) HandleCreatePromotion(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description string  `json:"description"`
		Discount    float64 `json:"discount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Description == "" {
		h.writeDomainError(w, domain.Validationf("description", "must not be empty"))
		return
	}

	promotion := domain.Promotion{Description: req.Description, Discount: req.Discount}
	if err := h.store.CreatePromotion(r.Context(), &promotion); err != nil {
		h.logger.Error("failed to create promotion", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusCreated, promotion)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid id")
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
		h.logger.Error("catalog store error", "error", err)
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
