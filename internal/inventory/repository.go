package inventory

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx, so ledger statements
// can run standalone or inside another module's unit of work.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Adjust applies current_stock += delta, conditioned on the row existing and
// the result staying non-negative. Check and mutation are one statement, so
// concurrent postings against the same product cannot race stock below zero.
// Zero rows affected means the guard failed: the two causes are not
// distinguishable here, so the error follows the sign of delta.
func Adjust(ctx context.Context, db DBTX, productCode string, delta int64) error {
	tag, err := db.Exec(ctx, `
		UPDATE inventory
		SET current_stock = current_stock + $2, last_updated = NOW()
		WHERE product_code = $1 AND current_stock + $2 >= 0`,
		productCode, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if delta < 0 {
			return ErrInsufficientStock
		}
		return ErrNotFound
	}
	return nil
}

// StockLevel reads the current stock for one product.
func StockLevel(ctx context.Context, db DBTX, productCode string) (int64, error) {
	var stock int64
	err := db.QueryRow(ctx, `SELECT current_stock FROM inventory WHERE product_code = $1`, productCode).Scan(&stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return stock, nil
}

// CreateRecord provisions the 1:1 inventory row for a new product. Called
// inside the product-creation transaction so product and record share a
// lifecycle.
func CreateRecord(ctx context.Context, db DBTX, productCode string, openingStock int64) error {
	if openingStock < 0 {
		return ErrInsufficientStock
	}
	_, err := db.Exec(ctx, `
		INSERT INTO inventory (product_code, current_stock, last_updated)
		VALUES ($1, $2, NOW())`, productCode, openingStock)
	return err
}

// DeleteRecord removes the record together with its product.
func DeleteRecord(ctx context.Context, db DBTX, productCode string) error {
	_, err := db.Exec(ctx, `DELETE FROM inventory WHERE product_code = $1`, productCode)
	return err
}

// Repository provides PostgreSQL-backed inventory reads and standalone
// adjustments.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const itemColumns = `
	i.product_code, i.current_stock, i.last_updated,
	p.name, p.brand, p.min_stock_level, p.cost_price, p.retail_price`

// Get returns one item with its product details.
func (r *Repository) Get(ctx context.Context, productCode string) (Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM inventory i
		JOIN products p ON p.code = i.product_code
		WHERE i.product_code = $1`
	var it Item
	err := r.pool.QueryRow(ctx, query, productCode).Scan(
		&it.ProductCode, &it.CurrentStock, &it.LastUpdated,
		&it.ProductName, &it.Brand, &it.MinStockLevel, &it.CostPrice, &it.RetailPrice,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrNotFound
		}
		return Item{}, err
	}
	return it, nil
}

// List returns items matching the filter plus the unpaged total.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Item, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if filter.Search != "" {
		argCount++
		where += ` AND (p.name ILIKE $` + strconv.Itoa(argCount) + ` OR i.product_code ILIKE $` + strconv.Itoa(argCount) + `)`
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.LowOnly {
		where += ` AND i.current_stock <= p.min_stock_level`
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM inventory i JOIN products p ON p.code = i.product_code` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + itemColumns + ` FROM inventory i JOIN products p ON p.code = i.product_code` + where + ` ORDER BY p.name`
	if filter.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filter.Limit)

		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		offset := (filter.Page - 1) * filter.Limit
		if offset < 0 {
			offset = 0
		}
		args = append(args, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		err := rows.Scan(
			&it.ProductCode, &it.CurrentStock, &it.LastUpdated,
			&it.ProductName, &it.Brand, &it.MinStockLevel, &it.CostPrice, &it.RetailPrice,
		)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, it)
	}
	return items, total, rows.Err()
}

// Summary aggregates the whole inventory.
func (r *Repository) Summary(ctx context.Context) (Summary, error) {
	query := `
		SELECT COUNT(*),
		       COALESCE(SUM(i.current_stock), 0),
		       COALESCE(SUM(i.current_stock * p.cost_price), 0),
		       COALESCE(SUM(i.current_stock * p.retail_price), 0),
		       COUNT(*) FILTER (WHERE i.current_stock <= p.min_stock_level)
		FROM inventory i
		JOIN products p ON p.code = i.product_code`
	var s Summary
	err := r.pool.QueryRow(ctx, query).Scan(&s.Products, &s.UnitsOnHand, &s.StockValue, &s.RetailValue, &s.LowStock)
	if err != nil {
		return Summary{}, err
	}
	return s, nil
}

// AdjustStock applies a standalone adjustment outside any caller transaction.
func (r *Repository) AdjustStock(ctx context.Context, productCode string, delta int64) error {
	return Adjust(ctx, r.pool, productCode, delta)
}
