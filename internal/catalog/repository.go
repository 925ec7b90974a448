package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CollectionWithCount carries the number of products referencing the
// collection, used by the list view and the admin screen.
type CollectionWithCount struct {
	domain.Collection
	ProductsCount int
}

const foreignKeyViolation = "23503"

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation
}

// ProductFilter narrows and orders product listings.
type ProductFilter struct {
	CollectionID   *int64
	MinPrice       *decimal.Decimal
	MaxPrice       *decimal.Decimal
	InventoryBelow *int
	InventoryAbove *int
	Search         string
	Ordering       string // unit_price, -unit_price, last_update, -last_update
	Page           int
	PageSize       int
}

const defaultPageSize = 10

func (f ProductFilter) limitOffset() (int, int) {
	size := f.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	return size, (page - 1) * size
}

func (f ProductFilter) orderClause() string {
	switch f.Ordering {
	case "unit_price":
		return "unit_price ASC"
	case "-unit_price":
		return "unit_price DESC"
	case "last_update":
		return "last_update ASC"
	case "-last_update":
		return "last_update DESC"
	default:
		return "id ASC"
	}
}

func (r *Repository) ListProducts(ctx context.Context, filter ProductFilter) ([]domain.Product, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.CollectionID != nil {
		conds = append(conds, "collection_id = "+arg(*filter.CollectionID))
	}
	if filter.MinPrice != nil {
		conds = append(conds, "unit_price >= "+arg(*filter.MinPrice))
	}
	if filter.MaxPrice != nil {
		conds = append(conds, "unit_price <= "+arg(*filter.MaxPrice))
	}
	if filter.InventoryBelow != nil {
		conds = append(conds, "inventory < "+arg(*filter.InventoryBelow))
	}
	if filter.InventoryAbove != nil {
		conds = append(conds, "inventory > "+arg(*filter.InventoryAbove))
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		conds = append(conds, "(title ILIKE "+arg(pattern)+" OR description ILIKE "+arg(pattern)+")")
	}

	query := "SELECT id, title, slug, description, unit_price, inventory, last_update, collection_id FROM products"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	limit, offset := filter.limitOffset()
	query += " ORDER BY " + filter.orderClause()
	query += " LIMIT " + arg(limit) + " OFFSET " + arg(offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	products := []domain.Product{}
	var ids []int64
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Title, &p.Slug, &p.Description, &p.UnitPrice, &p.Inventory, &p.LastUpdate, &p.CollectionID); err != nil {
			return nil, err
		}
		products = append(products, p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return products, nil
	}

	promoRows, err := r.db.QueryContext(ctx, `
		SELECT product_id, promotion_id
		FROM product_promotions
		WHERE product_id = ANY($1)
		ORDER BY promotion_id
	`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer func() { _ = promoRows.Close() }()

	byID := make(map[int64]*domain.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	for promoRows.Next() {
		var productID, promotionID int64
		if err := promoRows.Scan(&productID, &promotionID); err != nil {
			return nil, err
		}
		p := byID[productID]
		p.PromotionIDs = append(p.PromotionIDs, promotionID)
	}
	if err := promoRows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (r *Repository) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	p := &domain.Product{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, title, slug, description, unit_price, inventory, last_update, collection_id
		FROM products
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Title, &p.Slug, &p.Description, &p.UnitPrice, &p.Inventory, &p.LastUpdate, &p.CollectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("product", id)
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT promotion_id FROM product_promotions WHERE product_id = $1 ORDER BY promotion_id
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var promotionID int64
		if err := rows.Scan(&promotionID); err != nil {
			return nil, err
		}
		p.PromotionIDs = append(p.PromotionIDs, promotionID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return p, nil
}

func (r *Repository) CreateProduct(ctx context.Context, p *domain.Product) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO products (title, slug, description, unit_price, inventory, collection_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, last_update
	`, p.Title, p.Slug, p.Description, p.UnitPrice, p.Inventory, p.CollectionID).Scan(&p.ID, &p.LastUpdate)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Validationf("collection_id", "collection %d does not exist", p.CollectionID)
		}
		return err
	}

	if err := replacePromotions(ctx, tx, p.ID, p.PromotionIDs); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *Repository) UpdateProduct(ctx context.Context, p *domain.Product) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	err = tx.QueryRowContext(ctx, `
		UPDATE products
		SET title = $1, slug = $2, description = $3, unit_price = $4, inventory = $5,
		    collection_id = $6, last_update = NOW()
		WHERE id = $7
		RETURNING last_update
	`, p.Title, p.Slug, p.Description, p.UnitPrice, p.Inventory, p.CollectionID, p.ID).Scan(&p.LastUpdate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound("product", p.ID)
		}
		if isForeignKeyViolation(err) {
			return domain.Validationf("collection_id", "collection %d does not exist", p.CollectionID)
		}
		return err
	}

	if err := replacePromotions(ctx, tx, p.ID, p.PromotionIDs); err != nil {
		return err
	}

	return tx.Commit()
}

func replacePromotions(ctx context.Context, tx *sql.Tx, productID int64, promotionIDs []int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM product_promotions WHERE product_id = $1`, productID); err != nil {
		return err
	}
	for _, promotionID := range promotionIDs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO product_promotions (product_id, promotion_id) VALUES ($1, $2)
		`, productID, promotionID)
		if err != nil {
			if isForeignKeyViolation(err) {
				return domain.Validationf("promotion_ids", "promotion %d does not exist", promotionID)
			}
			return err
		}
	}
	return nil
}

// DeleteProduct refuses to delete a product that order lines still
// reference. The check and the delete share a transaction, and the
// RESTRICT constraint closes the remaining insert-between race.
func (r *Repository) DeleteProduct(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var referenced bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM order_items WHERE product_id = $1)
	`, id).Scan(&referenced)
	if err != nil {
		return err
	}
	if referenced {
		return domain.Conflictf("product", "product %d is referenced by order items and cannot be deleted", id)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Conflictf("product", "product %d is referenced by order items and cannot be deleted", id)
		}
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.NotFound("product", id)
	}

	return tx.Commit()
}

// ClearInventory zeroes the stock of the given products. Used by the
// admin bulk action.
func (r *Repository) ClearInventory(ctx context.Context, ids []int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE products SET inventory = 0, last_update = NOW() WHERE id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *Repository) ListCollections(ctx context.Context) ([]CollectionWithCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.title, c.featured_product_id, COUNT(p.id)
		FROM collections c
		LEFT JOIN products p ON p.collection_id = c.id
		GROUP BY c.id
		ORDER BY c.id
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	collections := []CollectionWithCount{}
	for rows.Next() {
		var c CollectionWithCount
		if err := rows.Scan(&c.ID, &c.Title, &c.FeaturedProductID, &c.ProductsCount); err != nil {
			return nil, err
		}
		collections = append(collections, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return collections, nil
}

func (r *Repository) GetCollection(ctx context.Context, id int64) (*CollectionWithCount, error) {
	c := &CollectionWithCount{}
	err := r.db.QueryRowContext(ctx, `
		SELECT c.id, c.title, c.featured_product_id, COUNT(p.id)
		FROM collections c
		LEFT JOIN products p ON p.collection_id = c.id
		WHERE c.id = $1
		GROUP BY c.id
	`, id).Scan(&c.ID, &c.Title, &c.FeaturedProductID, &c.ProductsCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("collection", id)
		}
		return nil, err
	}
	return c, nil
}

func (r *Repository) CreateCollection(ctx context.Context, c *domain.Collection) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO collections (title, featured_product_id) VALUES ($1, $2) RETURNING id
	`, c.Title, c.FeaturedProductID).Scan(&c.ID)
	if err != nil && isForeignKeyViolation(err) {
		return domain.Validationf("featured_product_id", "product does not exist")
	}
	return err
}

func (r *Repository) UpdateCollection(ctx context.Context, c *domain.Collection) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE collections SET title = $1, featured_product_id = $2 WHERE id = $3
	`, c.Title, c.FeaturedProductID, c.ID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Validationf("featured_product_id", "product does not exist")
		}
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.NotFound("collection", c.ID)
	}
	return nil
}

// DeleteCollection refuses to delete a collection that still owns
// products, mirroring the product delete guard.
func (r *Repository) DeleteCollection(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var referenced bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM products WHERE collection_id = $1)
	`, id).Scan(&referenced)
	if err != nil {
		return err
	}
	if referenced {
		return domain.Conflictf("collection", "collection %d still contains products and cannot be deleted", id)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.Conflictf("collection", "collection %d still contains products and cannot be deleted", id)
		}
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.NotFound("collection", id)
	}

	return tx.Commit()
}

func (r *Repository) ListPromotions(ctx context.Context) ([]domain.Promotion, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, description, discount FROM promotions ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	promotions := []domain.Promotion{}
	for rows.Next() {
		var p domain.Promotion
		if err := rows.Scan(&p.ID, &p.Description, &p.Discount); err != nil {
			return nil, err
		}
		promotions = append(promotions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return promotions, nil
}

func (r *Repository) CreatePromotion(ctx context.Context, p *domain.Promotion) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO promotions (description, discount) VALUES ($1, $2) RETURNING id
	`, p.Description, p.Discount).Scan(&p.ID)
}
