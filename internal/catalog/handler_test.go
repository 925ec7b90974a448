package catalog

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type fakeStore struct {
	listProducts     func(ctx context.Context, filter ProductFilter) ([]domain.Product, error)
	getProduct       func(ctx context.Context, id int64) (*domain.Product, error)
	createProduct    func(ctx context.Context, p *domain.Product) error
	updateProduct    func(ctx context.Context, p *domain.Product) error
	deleteProduct    func(ctx context.Context, id int64) error
	listCollections  func(ctx context.Context) ([]CollectionWithCount, error)
	getCollection    func(ctx context.Context, id int64) (*CollectionWithCount, error)
	createCollection func(ctx context.Context, c *domain.Collection) error
	updateCollection func(ctx context.Context, c *domain.Collection) error
	deleteCollection func(ctx context.Context, id int64) error
	listPromotions   func(ctx context.Context) ([]domain.Promotion, error)
	createPromotion  func(ctx context.Context, p *domain.Promotion) error
}

func (f *fakeStore) ListProducts(ctx context.Context, filter ProductFilter) ([]domain.Product, error) {
	return f.listProducts(ctx, filter)
}

func (f *fakeStore) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	return f.getProduct(ctx, id)
}

func (f *fakeStore) CreateProduct(ctx context.Context, p *domain.Product) error {
	return f.createProduct(ctx, p)
}

func (f *fakeStore) UpdateProduct(ctx context.Context, p *domain.Product) error {
	return f.updateProduct(ctx, p)
}

func (f *fakeStore) DeleteProduct(ctx context.Context, id int64) error {
	return f.deleteProduct(ctx, id)
}

func (f *fakeStore) ListCollections(ctx context.Context) ([]CollectionWithCount, error) {
	return f.listCollections(ctx)
}

func (f *fakeStore) GetCollection(ctx context.Context, id int64) (*CollectionWithCount, error) {
	return f.getCollection(ctx, id)
}

func (f *fakeStore) CreateCollection(ctx context.Context, c *domain.Collection) error {
	return f.createCollection(ctx, c)
}

func (f *fakeStore) UpdateCollection(ctx context.Context, c *domain.Collection) error {
	return f.updateCollection(ctx, c)
}

func (f *fakeStore) DeleteCollection(ctx context.Context, id int64) error {
	return f.deleteCollection(ctx, id)
}

func (f *fakeStore) ListPromotions(ctx context.Context) ([]domain.Promotion, error) {
	return f.listPromotions(ctx)
}

func (f *fakeStore) CreatePromotion(ctx context.Context, p *domain.Promotion) error {
	return f.createPromotion(ctx, p)
}

func newTestHandler(store Store) *Handler {
	return NewHandler(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHandler_HandleListProducts(t *testing.T) {
	t.Run("applies price filters and returns views with tax", func(t *testing.T) {
		var captured ProductFilter
		store := &fakeStore{
			listProducts: func(_ context.Context, filter ProductFilter) ([]domain.Product, error) {
				captured = filter
				return []domain.Product{{
					ID:           1,
					Title:        "widget",
					UnitPrice:    decimal.RequireFromString("10.00"),
					CollectionID: 1,
				}}, nil
			},
		}
		handler := newTestHandler(store)

		req := httptest.NewRequest(http.MethodGet, "/products?min_price=5&max_price=20&ordering=-unit_price", nil)
		rec := httptest.NewRecorder()

		handler.HandleListProducts(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if captured.MinPrice == nil || !captured.MinPrice.Equal(decimal.NewFromInt(5)) {
			t.Errorf("expected min price 5, got %v", captured.MinPrice)
		}
		if captured.Ordering != "-unit_price" {
			t.Errorf("expected ordering -unit_price, got %q", captured.Ordering)
		}

		var views []ProductView
		if err := json.Unmarshal(rec.Body.Bytes(), &views); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(views) != 1 {
			t.Fatalf("expected 1 product, got %d", len(views))
		}
		if !views[0].PriceWithTax.Equal(decimal.RequireFromString("11.00")) {
			t.Errorf("expected price with tax 11.00, got %s", views[0].PriceWithTax)
		}
	})

	t.Run("rejects unsupported ordering", func(t *testing.T) {
		handler := newTestHandler(&fakeStore{})

		req := httptest.NewRequest(http.MethodGet, "/products?ordering=title", nil)
		rec := httptest.NewRecorder()

		handler.HandleListProducts(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
	})

	t.Run("rejects non-numeric collection filter", func(t *testing.T) {
		handler := newTestHandler(&fakeStore{})

		req := httptest.NewRequest(http.MethodGet, "/products?collection_id=shoes", nil)
		rec := httptest.NewRecorder()

		handler.HandleListProducts(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
	})
}

func TestHandler_HandleCreateProduct(t *testing.T) {
	t.Run("creates a valid product", func(t *testing.T) {
		store := &fakeStore{
			createProduct: func(_ context.Context, p *domain.Product) error {
				p.ID = 42
				return nil
			},
		}
		handler := newTestHandler(store)

		body := `{"title":"widget","slug":"widget","unit_price":"12.50","inventory":3,"collection_id":1}`
		req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler.HandleCreateProduct(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
		}

		var view ProductView
		if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if view.ID != 42 {
			t.Errorf("expected id 42, got %d", view.ID)
		}
	})

	t.Run("rejects a non-positive price", func(t *testing.T) {
		handler := newTestHandler(&fakeStore{})

		body := `{"title":"widget","slug":"widget","unit_price":"0","inventory":3,"collection_id":1}`
		req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler.HandleCreateProduct(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}

		var resp map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp["field"] != "unit_price" {
			t.Errorf("expected field unit_price, got %q", resp["field"])
		}
	})

	t.Run("allows zero inventory", func(t *testing.T) {
		store := &fakeStore{
			createProduct: func(_ context.Context, p *domain.Product) error { return nil },
		}
		handler := newTestHandler(store)

		body := `{"title":"widget","slug":"widget","unit_price":"5.00","inventory":0,"collection_id":1}`
		req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler.HandleCreateProduct(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("maps unknown collection to 400", func(t *testing.T) {
		store := &fakeStore{
			createProduct: func(_ context.Context, p *domain.Product) error {
				return domain.Validationf("collection_id", "collection %d does not exist", p.CollectionID)
			},
		}
		handler := newTestHandler(store)

		body := `{"title":"widget","slug":"widget","unit_price":"5.00","inventory":1,"collection_id":99}`
		req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler.HandleCreateProduct(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
	})
}

func TestHandler_HandleGetProduct(t *testing.T) {
	t.Run("returns 404 for a missing product", func(t *testing.T) {
		store := &fakeStore{
			getProduct: func(_ context.Context, id int64) (*domain.Product, error) {
				return nil, domain.NotFound("product", id)
			},
		}
		handler := newTestHandler(store)

		mux := http.NewServeMux()
		handler.Register(mux)

		req := httptest.NewRequest(http.MethodGet, "/products/7", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rec.Code)
		}
	})

	t.Run("returns 400 for a non-numeric id", func(t *testing.T) {
		handler := newTestHandler(&fakeStore{})

		mux := http.NewServeMux()
		handler.Register(mux)

		req := httptest.NewRequest(http.MethodGet, "/products/widget", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
	})
}

func TestHandler_HandleDeleteProduct(t *testing.T) {
	t.Run("maps referenced product to 409", func(t *testing.T) {
		store := &fakeStore{
			deleteProduct: func(_ context.Context, id int64) error {
				return domain.Conflictf("product", "product %d is referenced by order items", id)
			},
		}
		handler := newTestHandler(store)

		mux := http.NewServeMux()
		handler.Register(mux)

		req := httptest.NewRequest(http.MethodDelete, "/products/7", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected status 409, got %d", rec.Code)
		}
	})

	t.Run("returns 204 on success", func(t *testing.T) {
		store := &fakeStore{
			deleteProduct: func(_ context.Context, id int64) error { return nil },
		}
		handler := newTestHandler(store)

		mux := http.NewServeMux()
		handler.Register(mux)

		req := httptest.NewRequest(http.MethodDelete, "/products/7", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected status 204, got %d", rec.Code)
		}
	})
}

func TestHandler_HandleCreateCollection(t *testing.T) {
	t.Run("rejects an empty title", func(t *testing.T) {
		handler := newTestHandler(&fakeStore{})

		req := httptest.NewRequest(http.MethodPost, "/collections", strings.NewReader(`{"title":""}`))
		rec := httptest.NewRecorder()

		handler.HandleCreateCollection(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
	})
}

func TestHandler_HandleListCollections(t *testing.T) {
	store := &fakeStore{
		listCollections: func(_ context.Context) ([]CollectionWithCount, error) {
			return []CollectionWithCount{
				{Collection: domain.Collection{ID: 1, Title: "shoes"}, ProductsCount: 3},
			}, nil
		},
	}
	handler := newTestHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/collections", nil)
	rec := httptest.NewRecorder()

	handler.HandleListCollections(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var views []CollectionView
	if err := json.Unmarshal(rec.Body.Bytes(), &views); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(views) != 1 || views[0].ProductsCount != 3 {
		t.Fatalf("unexpected collections: %+v", views)
	}
}
