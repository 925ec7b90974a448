package cart

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context) (*domain.Cart, error) {
	cart := &domain.Cart{ID: uuid.New().String()}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO carts (id) VALUES ($1) RETURNING created_at
	`, cart.ID).Scan(&cart.CreatedAt)
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (r *Repository) Get(ctx context.Context, id string) (*domain.Cart, error) {
	cart := &domain.Cart{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, created_at FROM carts WHERE id = $1
	`, id).Scan(&cart.ID, &cart.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("cart", id)
		}
		return nil, err
	}
	return cart, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM carts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.NotFound("cart", id)
	}
	return nil
}

func (r *Repository) ListItems(ctx context.Context, cartID string) ([]domain.CartItem, error) {
	if _, err := r.Get(ctx, cartID); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, p.title, p.unit_price
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.id
	`, cartID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []domain.CartItem{}
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ID, &item.CartID, &item.ProductID, &item.Quantity, &item.ProductTitle, &item.UnitPrice); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

// AddItem merges quantity into the cart's row for the product. A single
// on-conflict upsert keeps at most one row per (cart, product) and rules
// out lost updates between concurrent merges of the same pair.
func (r *Repository) AddItem(ctx context.Context, cartID string, productID int64, quantity int) (*domain.CartItem, error) {
	if quantity < 1 {
		return nil, domain.Validationf("quantity", "must be at least 1")
	}
	if _, err := r.Get(ctx, cartID); err != nil {
		return nil, err
	}

	item := &domain.CartItem{CartID: cartID, ProductID: productID, Quantity: quantity}
	err := r.db.QueryRowContext(ctx, `
		WITH merged AS (
			INSERT INTO cart_items (cart_id, product_id, quantity)
			VALUES ($1, $2, $3)
			ON CONFLICT (cart_id, product_id)
			DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
			RETURNING id, quantity
		)
		SELECT m.id, m.quantity, p.title, p.unit_price
		FROM merged m
		JOIN products p ON p.id = $2
	`, cartID, productID, quantity).Scan(&item.ID, &item.Quantity, &item.ProductTitle, &item.UnitPrice)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return nil, domain.Validationf("product_id", "product %d does not exist", productID)
		}
		return nil, err
	}

	return item, nil
}

func (r *Repository) GetItem(ctx context.Context, cartID string, itemID int64) (*domain.CartItem, error) {
	item := &domain.CartItem{}
	err := r.db.QueryRowContext(ctx, `
		SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, p.title, p.unit_price
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1 AND ci.id = $2
	`, cartID, itemID).Scan(&item.ID, &item.CartID, &item.ProductID, &item.Quantity, &item.ProductTitle, &item.UnitPrice)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("cart item", itemID)
		}
		return nil, err
	}
	return item, nil
}

// UpdateItem replaces the item's quantity, unlike AddItem which merges.
func (r *Repository) UpdateItem(ctx context.Context, cartID string, itemID int64, quantity int) (*domain.CartItem, error) {
	if quantity < 1 {
		return nil, domain.Validationf("quantity", "must be at least 1")
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE cart_items SET quantity = $1 WHERE cart_id = $2 AND id = $3
	`, quantity, cartID, itemID)
	if err != nil {
		return nil, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, domain.NotFound("cart item", itemID)
	}

	return r.GetItem(ctx, cartID, itemID)
}

func (r *Repository) RemoveItem(ctx context.Context, cartID string, itemID int64) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM cart_items WHERE cart_id = $1 AND id = $2
	`, cartID, itemID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.NotFound("cart item", itemID)
	}
	return nil
}
