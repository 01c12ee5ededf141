package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// ── Categories ──

const createInvestedCategory = `
INSERT INTO invested_categories (name, parent_id)
VALUES ($1, $2)
RETURNING id, name, parent_id, created_at
`

type CreateInvestedCategoryParams struct {
	Name     string
	ParentID pgtype.UUID
}

func (q *Queries) CreateInvestedCategory(ctx context.Context, arg CreateInvestedCategoryParams) (InvestedCategory, error) {
	row := q.db.QueryRow(ctx, createInvestedCategory, arg.Name, arg.ParentID)
	var c InvestedCategory
	err := row.Scan(&c.ID, &c.Name, &c.ParentID, &c.CreatedAt)
	return c, err
}

const getInvestedCategory = `
SELECT id, name, parent_id, created_at
FROM invested_categories
WHERE id = $1
`

func (q *Queries) GetInvestedCategory(ctx context.Context, id uuid.UUID) (InvestedCategory, error) {
	row := q.db.QueryRow(ctx, getInvestedCategory, id)
	var c InvestedCategory
	err := row.Scan(&c.ID, &c.Name, &c.ParentID, &c.CreatedAt)
	return c, err
}

const listInvestedCategories = `
SELECT id, name, parent_id, created_at
FROM invested_categories
ORDER BY name
`

func (q *Queries) ListInvestedCategories(ctx context.Context) ([]InvestedCategory, error) {
	rows, err := q.db.Query(ctx, listInvestedCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []InvestedCategory
	for rows.Next() {
		var c InvestedCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.ParentID, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

const updateInvestedCategory = `
UPDATE invested_categories
SET name = $2
WHERE id = $1
RETURNING id, name, parent_id, created_at
`

type UpdateInvestedCategoryParams struct {
	ID   uuid.UUID
	Name string
}

func (q *Queries) UpdateInvestedCategory(ctx context.Context, arg UpdateInvestedCategoryParams) (InvestedCategory, error) {
	row := q.db.QueryRow(ctx, updateInvestedCategory, arg.ID, arg.Name)
	var c InvestedCategory
	err := row.Scan(&c.ID, &c.Name, &c.ParentID, &c.CreatedAt)
	return c, err
}

const countInvestedCategoryChildren = `
SELECT (SELECT COUNT(*) FROM invested_categories WHERE parent_id = $1)
     + (SELECT COUNT(*) FROM invested_items WHERE category_id = $1)
`

// CountInvestedCategoryChildren counts subcategories plus items under the
// category. Deletion is blocked while this is non-zero.
func (q *Queries) CountInvestedCategoryChildren(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countInvestedCategoryChildren, id).Scan(&count)
	return count, err
}

const deleteInvestedCategory = `
DELETE FROM invested_categories WHERE id = $1
`

func (q *Queries) DeleteInvestedCategory(ctx context.Context, id uuid.UUID) error {
	tag, err := q.db.Exec(ctx, deleteInvestedCategory, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ── Items ──

const createInvestedItem = `
INSERT INTO invested_items (category_id, name, notes)
VALUES ($1, $2, $3)
RETURNING id, category_id, name, notes, created_at
`

type CreateInvestedItemParams struct {
	CategoryID uuid.UUID
	Name       string
	Notes      string
}

func (q *Queries) CreateInvestedItem(ctx context.Context, arg CreateInvestedItemParams) (InvestedItem, error) {
	row := q.db.QueryRow(ctx, createInvestedItem, arg.CategoryID, arg.Name, arg.Notes)
	var i InvestedItem
	err := row.Scan(&i.ID, &i.CategoryID, &i.Name, &i.Notes, &i.CreatedAt)
	return i, err
}

const getInvestedItem = `
SELECT id, category_id, name, notes, created_at
FROM invested_items
WHERE id = $1
`

func (q *Queries) GetInvestedItem(ctx context.Context, id uuid.UUID) (InvestedItem, error) {
	row := q.db.QueryRow(ctx, getInvestedItem, id)
	var i InvestedItem
	err := row.Scan(&i.ID, &i.CategoryID, &i.Name, &i.Notes, &i.CreatedAt)
	return i, err
}

const listInvestedItemsByCategory = `
SELECT id, category_id, name, notes, created_at
FROM invested_items
WHERE category_id = $1
ORDER BY name
`

func (q *Queries) ListInvestedItemsByCategory(ctx context.Context, categoryID uuid.UUID) ([]InvestedItem, error) {
	rows, err := q.db.Query(ctx, listInvestedItemsByCategory, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []InvestedItem
	for rows.Next() {
		var i InvestedItem
		if err := rows.Scan(&i.ID, &i.CategoryID, &i.Name, &i.Notes, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const updateInvestedItem = `
UPDATE invested_items
SET name = $2, notes = $3
WHERE id = $1
RETURNING id, category_id, name, notes, created_at
`

type UpdateInvestedItemParams struct {
	ID    uuid.UUID
	Name  string
	Notes string
}

func (q *Queries) UpdateInvestedItem(ctx context.Context, arg UpdateInvestedItemParams) (InvestedItem, error) {
	row := q.db.QueryRow(ctx, updateInvestedItem, arg.ID, arg.Name, arg.Notes)
	var i InvestedItem
	err := row.Scan(&i.ID, &i.CategoryID, &i.Name, &i.Notes, &i.CreatedAt)
	return i, err
}

const deleteInvestedItem = `
DELETE FROM invested_items WHERE id = $1
`

// DeleteInvestedItem removes an item; its purchase history goes with it via
// ON DELETE CASCADE.
func (q *Queries) DeleteInvestedItem(ctx context.Context, id uuid.UUID) error {
	tag, err := q.db.Exec(ctx, deleteInvestedItem, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ── Purchases ──

const purchaseColumns = `id, item_id, purchase_date, price, quantity, weight, vendor, expiry_date, created_at`

const createInvestedPurchase = `
INSERT INTO invested_purchases (item_id, purchase_date, price, quantity, weight, vendor, expiry_date)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + purchaseColumns

type CreateInvestedPurchaseParams struct {
	ItemID       uuid.UUID
	PurchaseDate pgtype.Date
	Price        pgtype.Numeric
	Quantity     pgtype.Numeric
	Weight       pgtype.Text
	Vendor       pgtype.Text
	ExpiryDate   pgtype.Date
}

func (q *Queries) CreateInvestedPurchase(ctx context.Context, arg CreateInvestedPurchaseParams) (InvestedPurchase, error) {
	row := q.db.QueryRow(ctx, createInvestedPurchase,
		arg.ItemID, arg.PurchaseDate, arg.Price, arg.Quantity, arg.Weight, arg.Vendor, arg.ExpiryDate,
	)
	var p InvestedPurchase
	err := row.Scan(&p.ID, &p.ItemID, &p.PurchaseDate, &p.Price, &p.Quantity,
		&p.Weight, &p.Vendor, &p.ExpiryDate, &p.CreatedAt)
	return p, err
}

const listInvestedPurchasesByItem = `
SELECT ` + purchaseColumns + `
FROM invested_purchases
WHERE item_id = $1
ORDER BY purchase_date DESC, created_at DESC
`

// ListInvestedPurchasesByItem returns purchase history newest-first.
func (q *Queries) ListInvestedPurchasesByItem(ctx context.Context, itemID uuid.UUID) ([]InvestedPurchase, error) {
	rows, err := q.db.Query(ctx, listInvestedPurchasesByItem, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var purchases []InvestedPurchase
	for rows.Next() {
		var p InvestedPurchase
		if err := rows.Scan(&p.ID, &p.ItemID, &p.PurchaseDate, &p.Price, &p.Quantity,
			&p.Weight, &p.Vendor, &p.ExpiryDate, &p.CreatedAt); err != nil {
			return nil, err
		}
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}

const deleteInvestedPurchase = `
DELETE FROM invested_purchases
WHERE id = $1 AND item_id = $2
`

type DeleteInvestedPurchaseParams struct {
	ID     uuid.UUID
	ItemID uuid.UUID
}

// DeleteInvestedPurchase removes one purchase record by its stable ID.
// Records are never matched by (date, price, qty) value equality, which is
// ambiguous when duplicates exist.
func (q *Queries) DeleteInvestedPurchase(ctx context.Context, arg DeleteInvestedPurchaseParams) error {
	tag, err := q.db.Exec(ctx, deleteInvestedPurchase, arg.ID, arg.ItemID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
