package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const productColumns = `id, name, description, category, image_url, price, unit,
	variants, spending, spending_variants, is_hidden, is_available, created_at, updated_at`

func scanProduct(row interface{ Scan(dest ...interface{}) error }) (Product, error) {
	var p Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Category, &p.ImageUrl, &p.Price, &p.Unit,
		&p.Variants, &p.Spending, &p.SpendingVariants, &p.IsHidden, &p.IsAvailable,
		&p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

const listVisibleProducts = `
SELECT ` + productColumns + `
FROM products
WHERE is_hidden = FALSE AND is_available = TRUE
ORDER BY category NULLS LAST, name
`

// ListVisibleProducts returns the customer-facing menu: products that are
// neither hidden nor marked unavailable.
func (q *Queries) ListVisibleProducts(ctx context.Context) ([]Product, error) {
	rows, err := q.db.Query(ctx, listVisibleProducts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

const listProducts = `
SELECT ` + productColumns + `
FROM products
ORDER BY category NULLS LAST, name
`

// ListProducts returns every product including hidden ones (admin catalog).
func (q *Queries) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := q.db.Query(ctx, listProducts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

const getProduct = `
SELECT ` + productColumns + `
FROM products
WHERE id = $1
`

func (q *Queries) GetProduct(ctx context.Context, id uuid.UUID) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, getProduct, id))
}

const createProduct = `
INSERT INTO products (name, description, category, image_url, price, unit,
	variants, spending, spending_variants, is_hidden, is_available)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING ` + productColumns

type CreateProductParams struct {
	Name             string
	Description      pgtype.Text
	Category         pgtype.Text
	ImageUrl         pgtype.Text
	Price            pgtype.Numeric
	Unit             string
	Variants         []byte
	Spending         pgtype.Numeric
	SpendingVariants []byte
	IsHidden         bool
	IsAvailable      bool
}

func (q *Queries) CreateProduct(ctx context.Context, arg CreateProductParams) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, createProduct,
		arg.Name, arg.Description, arg.Category, arg.ImageUrl, arg.Price, arg.Unit,
		arg.Variants, arg.Spending, arg.SpendingVariants, arg.IsHidden, arg.IsAvailable,
	))
}

const updateProduct = `
UPDATE products
SET name = $2,
    description = $3,
    category = $4,
    image_url = $5,
    price = $6,
    unit = $7,
    variants = $8,
    spending = $9,
    spending_variants = $10,
    is_hidden = $11,
    is_available = $12,
    updated_at = now()
WHERE id = $1
RETURNING ` + productColumns

type UpdateProductParams struct {
	ID               uuid.UUID
	Name             string
	Description      pgtype.Text
	Category         pgtype.Text
	ImageUrl         pgtype.Text
	Price            pgtype.Numeric
	Unit             string
	Variants         []byte
	Spending         pgtype.Numeric
	SpendingVariants []byte
	IsHidden         bool
	IsAvailable      bool
}

func (q *Queries) UpdateProduct(ctx context.Context, arg UpdateProductParams) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, updateProduct,
		arg.ID, arg.Name, arg.Description, arg.Category, arg.ImageUrl, arg.Price, arg.Unit,
		arg.Variants, arg.Spending, arg.SpendingVariants, arg.IsHidden, arg.IsAvailable,
	))
}

const countOrderItemsByProduct = `
SELECT COUNT(*) FROM order_items WHERE product_id = $1
`

// CountOrderItemsByProduct reports how many historical order items reference
// the product. Drives the hard-vs-soft delete policy.
func (q *Queries) CountOrderItemsByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countOrderItemsByProduct, productID).Scan(&count)
	return count, err
}

const hardDeleteProduct = `
DELETE FROM products WHERE id = $1
`

func (q *Queries) HardDeleteProduct(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, hardDeleteProduct, id)
	return err
}

const softDeleteProduct = `
UPDATE products
SET is_hidden = TRUE, is_available = FALSE, updated_at = now()
WHERE id = $1
RETURNING ` + productColumns

// SoftDeleteProduct hides the product from the menu while keeping the row so
// historical order items and earnings stay intact.
func (q *Queries) SoftDeleteProduct(ctx context.Context, id uuid.UUID) (Product, error) {
	return scanProduct(q.db.QueryRow(ctx, softDeleteProduct, id))
}
