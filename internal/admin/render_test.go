package admin

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/catalog"
	"github.com/joao-fontenele/storefront/internal/domain"
)

type fakeCatalog struct {
	products []domain.Product
	cleared  []int64
	filter   catalog.ProductFilter
}

func (f *fakeCatalog) ListProducts(_ context.Context, filter catalog.ProductFilter) ([]domain.Product, error) {
	f.filter = filter
	return f.products, nil
}

func (f *fakeCatalog) ListCollections(_ context.Context) ([]catalog.CollectionWithCount, error) {
	return []catalog.CollectionWithCount{
		{Collection: domain.Collection{ID: 1, Title: "gadgets"}, ProductsCount: len(f.products)},
	}, nil
}

func (f *fakeCatalog) ClearInventory(_ context.Context, ids []int64) (int64, error) {
	f.cleared = ids
	return int64(len(ids)), nil
}

type fakeCustomers struct{}

func (fakeCustomers) List(_ context.Context) ([]domain.Customer, error) {
	return []domain.Customer{
		{ID: 1, UserID: 42, Phone: "555-0100", Membership: domain.MembershipGold},
		{ID: 2, UserID: 43, Phone: "555-0101", Membership: domain.MembershipBronze},
	}, nil
}

type fakeOrders struct{}

func (fakeOrders) List(_ context.Context, _ *int64) ([]domain.Order, error) {
	return []domain.Order{
		{ID: 7, CustomerID: 1, PaymentStatus: domain.PaymentStatusPending},
	}, nil
}

func (fakeOrders) CountByCustomer(_ context.Context) (map[int64]int, error) {
	return map[int64]int{1: 3}, nil
}

func newTestServer(catalogStore CatalogStore) (*Server, *http.ServeMux) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := NewServer(logger, Screens(catalogStore, fakeCustomers{}, fakeOrders{})...)
	mux := http.NewServeMux()
	server.Register(mux)
	return server, mux
}

func testProducts() []domain.Product {
	return []domain.Product{
		{ID: 1, Title: "widget", UnitPrice: decimal.RequireFromString("9.99"), Inventory: 3, CollectionID: 1},
		{ID: 2, Title: "gadget", UnitPrice: decimal.RequireFromString("25.00"), Inventory: 80, CollectionID: 1},
	}
}

func TestServer_HandleIndex(t *testing.T) {
	_, mux := newTestServer(&fakeCatalog{})

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	for _, slug := range []string{"products", "collections", "customers", "orders"} {
		if !strings.Contains(rec.Body.String(), "/admin/"+slug) {
			t.Errorf("expected index to link /admin/%s", slug)
		}
	}
}

func TestServer_HandleScreen(t *testing.T) {
	t.Run("renders product rows with inventory status", func(t *testing.T) {
		_, mux := newTestServer(&fakeCatalog{products: testProducts()})

		req := httptest.NewRequest(http.MethodGet, "/admin/products", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}

		body := rec.Body.String()
		if !strings.Contains(body, "widget") || !strings.Contains(body, "gadget") {
			t.Errorf("expected product titles in body")
		}
		if !strings.Contains(body, "Low") {
			t.Errorf("expected low inventory status for widget")
		}
		if !strings.Contains(body, "gadgets") {
			t.Errorf("expected collection title in body")
		}
	})

	t.Run("translates the inventory filter", func(t *testing.T) {
		store := &fakeCatalog{products: testProducts()}
		_, mux := newTestServer(store)

		req := httptest.NewRequest(http.MethodGet, "/admin/products?inventory=low", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if store.filter.InventoryBelow == nil || *store.filter.InventoryBelow != 10 {
			t.Errorf("expected inventory below 10 filter, got %v", store.filter.InventoryBelow)
		}
	})

	t.Run("passes the search term through", func(t *testing.T) {
		store := &fakeCatalog{}
		_, mux := newTestServer(store)

		req := httptest.NewRequest(http.MethodGet, "/admin/products?search=wid", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if store.filter.Search != "wid" {
			t.Errorf("expected search wid, got %q", store.filter.Search)
		}
	})

	t.Run("filters customers by membership", func(t *testing.T) {
		_, mux := newTestServer(&fakeCatalog{})

		req := httptest.NewRequest(http.MethodGet, "/admin/customers?membership=gold", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}

		body := rec.Body.String()
		if !strings.Contains(body, "555-0100") {
			t.Errorf("expected the gold customer in body")
		}
		if strings.Contains(body, "555-0101") {
			t.Errorf("did not expect the bronze customer in body")
		}
	})

	t.Run("returns 404 for an unknown screen", func(t *testing.T) {
		_, mux := newTestServer(&fakeCatalog{})

		req := httptest.NewRequest(http.MethodGet, "/admin/warehouses", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rec.Code)
		}
	})
}

func TestServer_HandleAction(t *testing.T) {
	t.Run("runs the action on the selected ids and redirects", func(t *testing.T) {
		store := &fakeCatalog{products: testProducts()}
		_, mux := newTestServer(store)

		form := url.Values{"id": {"1", "2"}}
		req := httptest.NewRequest(http.MethodPost, "/admin/products/actions/clear-inventory", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusSeeOther {
			t.Fatalf("expected status 303, got %d", rec.Code)
		}
		if len(store.cleared) != 2 || store.cleared[0] != 1 || store.cleared[1] != 2 {
			t.Errorf("expected ids 1 and 2 cleared, got %v", store.cleared)
		}
		if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/admin/products") {
			t.Errorf("expected redirect back to the screen, got %s", loc)
		}
	})

	t.Run("returns 404 for an unknown action", func(t *testing.T) {
		_, mux := newTestServer(&fakeCatalog{})

		req := httptest.NewRequest(http.MethodPost, "/admin/products/actions/destroy-all", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rec.Code)
		}
	})

	t.Run("rejects a non-numeric id", func(t *testing.T) {
		_, mux := newTestServer(&fakeCatalog{})

		form := url.Values{"id": {"widget"}}
		req := httptest.NewRequest(http.MethodPost, "/admin/products/actions/clear-inventory", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
	})
}
