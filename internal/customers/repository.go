package customers

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

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (r *Repository) Create(ctx context.Context, c *domain.Customer) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO customers (user_id, phone, birth_date, membership)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, c.UserID, c.Phone, c.BirthDate, c.Membership).Scan(&c.ID)
	if err != nil && isUniqueViolation(err) {
		return domain.Conflictf("customer", "a customer already exists for user %d", c.UserID)
	}
	return err
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	return r.get(ctx, `
		SELECT id, user_id, phone, birth_date, membership FROM customers WHERE id = $1
	`, id)
}

func (r *Repository) GetByUserID(ctx context.Context, userID int64) (*domain.Customer, error) {
	return r.get(ctx, `
		SELECT id, user_id, phone, birth_date, membership FROM customers WHERE user_id = $1
	`, userID)
}

func (r *Repository) get(ctx context.Context, query string, key int64) (*domain.Customer, error) {
	c := &domain.Customer{}
	err := r.db.QueryRowContext(ctx, query, key).Scan(&c.ID, &c.UserID, &c.Phone, &c.BirthDate, &c.Membership)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("customer", key)
		}
		return nil, err
	}
	return c, nil
}

func (r *Repository) Update(ctx context.Context, c *domain.Customer) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE customers SET phone = $1, birth_date = $2, membership = $3 WHERE id = $4
	`, c.Phone, c.BirthDate, c.Membership, c.ID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.NotFound("customer", c.ID)
	}
	return nil
}

func (r *Repository) List(ctx context.Context) ([]domain.Customer, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, phone, birth_date, membership FROM customers ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	customers := []domain.Customer{}
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.UserID, &c.Phone, &c.BirthDate, &c.Membership); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return customers, nil
}

// Delete refuses to remove a customer that still owns orders. Addresses
// go with the customer via the cascade.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var hasOrders bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM orders WHERE customer_id = $1)
	`, id).Scan(&hasOrders)
	if err != nil {
		return err
	}
	if hasOrders {
		return domain.Conflictf("customer", "customer %d has orders and cannot be deleted", id)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return domain.Conflictf("customer", "customer %d has orders and cannot be deleted", id)
		}
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.NotFound("customer", id)
	}

	return tx.Commit()
}

func (r *Repository) ListAddresses(ctx context.Context, customerID int64) ([]domain.Address, error) {
	if _, err := r.GetByID(ctx, customerID); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, customer_id, street, city FROM addresses WHERE customer_id = $1 ORDER BY id
	`, customerID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	addresses := []domain.Address{}
	for rows.Next() {
		var a domain.Address
		if err := rows.Scan(&a.ID, &a.CustomerID, &a.Street, &a.City); err != nil {
			return nil, err
		}
		addresses = append(addresses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return addresses, nil
}

func (r *Repository) AddAddress(ctx context.Context, a *domain.Address) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO addresses (customer_id, street, city) VALUES ($1, $2, $3) RETURNING id
	`, a.CustomerID, a.Street, a.City).Scan(&a.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return domain.NotFound("customer", a.CustomerID)
		}
		return err
	}
	return nil
}

func (r *Repository) RemoveAddress(ctx context.Context, customerID, addressID int64) error {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM addresses WHERE customer_id = $1 AND id = $2
	`, customerID, addressID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.NotFound("address", addressID)
	}
	return nil
}
