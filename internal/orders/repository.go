package orders

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Place converts the cart's contents into a new order owned by the
// customer linked to userID. The whole conversion runs in one
// transaction: order row, line items with prices snapshotted from the
// product rows, and emptying the cart so the same cart cannot be
// converted twice. Any failure leaves no partial rows behind.
func (r *Repository) Place(ctx context.Context, userID int64, cartID string) (*domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	order := &domain.Order{}
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM customers WHERE user_id = $1
	`, userID).Scan(&order.CustomerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("customer", userID)
		}
		return nil, err
	}

	var cartExists bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM carts WHERE id = $1)
	`, cartID).Scan(&cartExists)
	if err != nil {
		return nil, err
	}
	if !cartExists {
		return nil, domain.NotFound("cart", cartID)
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT ci.product_id, ci.quantity, p.unit_price, p.title
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.id
	`, cartID)
	if err != nil {
		return nil, err
	}

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ProductID, &item.Quantity, &item.UnitPrice, &item.ProductTitle); err != nil {
			_ = rows.Close()
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	if len(items) == 0 {
		return nil, domain.Validationf("cart_id", "cart %s is empty", cartID)
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (customer_id) VALUES ($1)
		RETURNING id, placed_at, payment_status
	`, order.CustomerID).Scan(&order.ID, &order.PlacedAt, &order.PaymentStatus)
	if err != nil {
		return nil, err
	}

	for i := range items {
		items[i].OrderID = order.ID
		err = tx.QueryRowContext(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, order.ID, items[i].ProductID, items[i].Quantity, items[i].UnitPrice).Scan(&items[i].ID)
		if err != nil {
			if isForeignKeyViolation(err) {
				return nil, domain.Conflictf("order", "product %d was removed while placing the order", items[i].ProductID)
			}
			return nil, err
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	order.Items = items
	return order, nil
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	order := &domain.Order{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, customer_id, placed_at, payment_status
		FROM orders
		WHERE id = $1
	`, id).Scan(&order.ID, &order.CustomerID, &order.PlacedAt, &order.PaymentStatus)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("order", id)
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.unit_price, p.title
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY oi.id
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.ProductTitle); err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return order, nil
}

// List returns all orders, or only the given customer's when customerID
// is non-nil, newest first. Items are loaded in one batched query.
func (r *Repository) List(ctx context.Context, customerID *int64) ([]domain.Order, error) {
	query := `
		SELECT id, customer_id, placed_at, payment_status
		FROM orders
	`
	var args []any
	if customerID != nil {
		query += ` WHERE customer_id = $1`
		args = append(args, *customerID)
	}
	query += ` ORDER BY placed_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orderMap := make(map[int64]*domain.Order)
	var orderIDs []int64

	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(&order.ID, &order.CustomerID, &order.PlacedAt, &order.PaymentStatus); err != nil {
			return nil, err
		}
		order.Items = []domain.OrderItem{}
		orderMap[order.ID] = &order
		orderIDs = append(orderIDs, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orderIDs) == 0 {
		return []domain.Order{}, nil
	}

	itemRows, err := r.db.QueryContext(ctx, `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.unit_price, p.title
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.id
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer func() { _ = itemRows.Close() }()

	for itemRows.Next() {
		var item domain.OrderItem
		if err := itemRows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.ProductTitle); err != nil {
			return nil, err
		}
		order := orderMap[item.OrderID]
		order.Items = append(order.Items, item)
	}
	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *orderMap[id])
	}

	return orders, nil
}

// ListForUser resolves the customer owning the identity and returns
// that customer's orders.
func (r *Repository) ListForUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	var customerID int64
	err := r.db.QueryRowContext(ctx, `
		SELECT id FROM customers WHERE user_id = $1
	`, userID).Scan(&customerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("customer", userID)
		}
		return nil, err
	}
	return r.List(ctx, &customerID)
}

// CountByCustomer returns the number of orders placed per customer.
func (r *Repository) CountByCustomer(ctx context.Context) (map[int64]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT customer_id, COUNT(*) FROM orders GROUP BY customer_id
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[int64]int)
	for rows.Next() {
		var customerID int64
		var count int
		if err := rows.Scan(&customerID, &count); err != nil {
			return nil, err
		}
		counts[customerID] = count
	}
	return counts, rows.Err()
}

func (r *Repository) UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) (*domain.Order, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders SET payment_status = $1 WHERE id = $2
	`, status, id)
	if err != nil {
		return nil, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, domain.NotFound("order", id)
	}

	return r.GetByID(ctx, id)
}
