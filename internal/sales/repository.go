package sales

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlaspos/atlaspos/internal/inventory"
	"github.com/atlaspos/atlaspos/internal/platform/db"
)

// Repository persists sales. Inside WithTx every method, including the stock
// adjustment, runs on the same transaction.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	CreateSale(ctx context.Context, sale Sale) error
	InsertLine(ctx context.Context, line SaleLine) error
	AdjustStock(ctx context.Context, productCode string, delta int64) error
	StockLevels(ctx context.Context, productCodes []string) (map[string]int64, error)
	Get(ctx context.Context, invoiceNo string) (*Sale, error)
	List(ctx context.Context, filter ListFilter) ([]Sale, int, error)
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

func (r *repository) CreateSale(ctx context.Context, sale Sale) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO sales (invoice_no, customer_id, employee_id, sold_at, total_amount, discount, net_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sale.InvoiceNo, sale.CustomerID, sale.EmployeeID, sale.SoldAt,
		sale.TotalAmount, sale.Discount, sale.NetAmount,
	)
	return err
}

func (r *repository) InsertLine(ctx context.Context, line SaleLine) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO sale_lines (invoice_no, product_code, quantity, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5)`,
		line.InvoiceNo, line.ProductCode, line.Quantity, line.UnitPrice, line.LineTotal,
	)
	return err
}

func (r *repository) AdjustStock(ctx context.Context, productCode string, delta int64) error {
	return inventory.Adjust(ctx, r.db, productCode, delta)
}

func (r *repository) StockLevels(ctx context.Context, productCodes []string) (map[string]int64, error) {
	rows, err := r.db.Query(ctx, `
		SELECT product_code, current_stock FROM inventory WHERE product_code = ANY($1)`,
		productCodes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	levels := make(map[string]int64, len(productCodes))
	for rows.Next() {
		var code string
		var stock int64
		if err := rows.Scan(&code, &stock); err != nil {
			return nil, err
		}
		levels[code] = stock
	}
	return levels, rows.Err()
}

func (r *repository) Get(ctx context.Context, invoiceNo string) (*Sale, error) {
	var s Sale
	err := r.db.QueryRow(ctx, `
		SELECT s.invoice_no, s.customer_id, s.employee_id, s.sold_at,
		       s.total_amount, s.discount, s.net_amount,
		       c.name, e.name
		FROM sales s
		JOIN customers c ON c.id = s.customer_id
		JOIN employees e ON e.id = s.employee_id
		WHERE s.invoice_no = $1`, invoiceNo).Scan(
		&s.InvoiceNo, &s.CustomerID, &s.EmployeeID, &s.SoldAt,
		&s.TotalAmount, &s.Discount, &s.NetAmount,
		&s.CustomerName, &s.EmployeeName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT l.invoice_no, l.product_code, l.quantity, l.unit_price, l.line_total, p.name
		FROM sale_lines l
		JOIN products p ON p.code = l.product_code
		WHERE l.invoice_no = $1
		ORDER BY l.product_code`, invoiceNo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var line SaleLine
		if err := rows.Scan(&line.InvoiceNo, &line.ProductCode, &line.Quantity, &line.UnitPrice, &line.LineTotal, &line.ProductName); err != nil {
			return nil, err
		}
		s.Lines = append(s.Lines, line)
	}
	return &s, rows.Err()
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Sale, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if filter.CustomerID != "" {
		argCount++
		where += ` AND s.customer_id = $` + strconv.Itoa(argCount)
		args = append(args, filter.CustomerID)
	}
	if filter.EmployeeID != "" {
		argCount++
		where += ` AND s.employee_id = $` + strconv.Itoa(argCount)
		args = append(args, filter.EmployeeID)
	}
	if !filter.From.IsZero() {
		argCount++
		where += ` AND s.sold_at >= $` + strconv.Itoa(argCount)
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		argCount++
		where += ` AND s.sold_at <= $` + strconv.Itoa(argCount)
		args = append(args, filter.To)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM sales s`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT s.invoice_no, s.customer_id, s.employee_id, s.sold_at,
		       s.total_amount, s.discount, s.net_amount,
		       c.name, e.name
		FROM sales s
		JOIN customers c ON c.id = s.customer_id
		JOIN employees e ON e.id = s.employee_id` + where + `
		ORDER BY s.sold_at DESC, s.invoice_no DESC`

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

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var sales []Sale
	for rows.Next() {
		var s Sale
		err := rows.Scan(
			&s.InvoiceNo, &s.CustomerID, &s.EmployeeID, &s.SoldAt,
			&s.TotalAmount, &s.Discount, &s.NetAmount,
			&s.CustomerName, &s.EmployeeName,
		)
		if err != nil {
			return nil, 0, err
		}
		sales = append(sales, s)
	}
	return sales, total, rows.Err()
}
