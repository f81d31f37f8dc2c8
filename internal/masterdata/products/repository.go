package products

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlaspos/atlaspos/internal/inventory"
	"github.com/atlaspos/atlaspos/internal/masterdata/shared"
	"github.com/atlaspos/atlaspos/internal/platform/db"
)

type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error)
	Get(ctx context.Context, code string) (Product, error)
	Exists(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, input CreateInput) (Product, error)
	Update(ctx context.Context, code string, product Product) error
	Delete(ctx context.Context, code string) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const columns = `code, name, brand, COALESCE(subcategory_id, ''), cost_price, retail_price, min_stock_level, created_at, updated_at`

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error) {
	query := `SELECT ` + columns + ` FROM products WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM products WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		cond := ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR code ILIKE $` + strconv.Itoa(argCount) + ` OR brand ILIKE $` + strconv.Itoa(argCount) + `)`
		query += cond
		countQuery += cond
		args = append(args, "%"+filters.Search+"%")
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY ` + sortOrder(filters.SortBy, filters.SortDir)

	limit := filters.Limit
	if limit <= 0 {
		limit = shared.DefaultLimit
	}
	argCount++
	query += ` LIMIT $` + strconv.Itoa(argCount)
	args = append(args, limit)
	argCount++
	query += ` OFFSET $` + strconv.Itoa(argCount)
	args = append(args, filters.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		err := rows.Scan(&p.Code, &p.Name, &p.Brand, &p.SubcategoryID, &p.CostPrice, &p.RetailPrice, &p.MinStockLevel, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, code string) (Product, error) {
	var p Product
	err := r.db.QueryRow(ctx, `SELECT `+columns+` FROM products WHERE code = $1`, code).Scan(
		&p.Code, &p.Name, &p.Brand, &p.SubcategoryID, &p.CostPrice, &p.RetailPrice, &p.MinStockLevel, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, shared.ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}

func (r *repository) Exists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE code = $1)`, code).Scan(&exists)
	return exists, err
}

// Create inserts the product and its 1:1 inventory record in one
// transaction; a product never exists without a ledger row.
func (r *repository) Create(ctx context.Context, input CreateInput) (Product, error) {
	p := input.Product
	now := time.Now().UTC()
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO products (code, name, brand, subcategory_id, cost_price, retail_price, min_stock_level, created_at, updated_at)
			VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $8)`,
			p.Code, p.Name, p.Brand, p.SubcategoryID, p.CostPrice, p.RetailPrice, p.MinStockLevel, now)
		if err != nil {
			return mapPgError(err)
		}
		return inventory.CreateRecord(ctx, tx, p.Code, input.OpeningStock)
	})
	if err != nil {
		return Product{}, err
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	return p, nil
}

func (r *repository) Update(ctx context.Context, code string, p Product) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE products
		SET name = $2, brand = $3, subcategory_id = NULLIF($4, ''), cost_price = $5,
		    retail_price = $6, min_stock_level = $7, updated_at = $8
		WHERE code = $1`,
		code, p.Name, p.Brand, p.SubcategoryID, p.CostPrice, p.RetailPrice, p.MinStockLevel, time.Now().UTC())
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes the product and its inventory record together.
func (r *repository) Delete(ctx context.Context, code string) error {
	return db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := inventory.DeleteRecord(ctx, tx, code); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM products WHERE code = $1`, code)
		if err != nil {
			return mapPgError(err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return shared.ErrDuplicate
		case "23503":
			return shared.ErrInUse
		}
	}
	return err
}

func sortOrder(sortBy, sortDir string) string {
	dir := "ASC"
	if sortDir == shared.SortDesc {
		dir = "DESC"
	}
	switch sortBy {
	case "code":
		return "code " + dir
	case "brand":
		return "brand " + dir
	case "created_at":
		return "created_at " + dir
	default:
		return "name " + dir
	}
}
