package purchasing

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlaspos/atlaspos/internal/inventory"
	"github.com/atlaspos/atlaspos/internal/platform/db"
)

// Repository persists purchase orders. Inside WithTx every method, including
// the stock adjustment, runs on the same transaction.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	CreatePurchase(ctx context.Context, purchase Purchase) error
	InsertLine(ctx context.Context, line PurchaseLine) error
	UpdateStatus(ctx context.Context, purchaseNo string, status Status, receivedAt *time.Time) error
	DeleteLines(ctx context.Context, purchaseNo string) error
	DeletePurchase(ctx context.Context, purchaseNo string) error
	AdjustStock(ctx context.Context, productCode string, delta int64) error
	Get(ctx context.Context, purchaseNo string) (*Purchase, error)
	List(ctx context.Context, filter ListFilter) ([]Purchase, int, error)
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

func (r *repository) CreatePurchase(ctx context.Context, p Purchase) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO purchases (purchase_no, supplier_id, ordered_at, total_amount, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		p.PurchaseNo, p.SupplierID, p.OrderedAt, p.TotalAmount, p.Status, p.Notes,
	)
	return err
}

func (r *repository) InsertLine(ctx context.Context, line PurchaseLine) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO purchase_lines (purchase_no, product_code, quantity, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5)`,
		line.PurchaseNo, line.ProductCode, line.Quantity, line.UnitPrice, line.LineTotal,
	)
	return err
}

func (r *repository) UpdateStatus(ctx context.Context, purchaseNo string, status Status, receivedAt *time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE purchases SET status = $2, received_at = $3 WHERE purchase_no = $1`,
		purchaseNo, status, receivedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) DeleteLines(ctx context.Context, purchaseNo string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM purchase_lines WHERE purchase_no = $1`, purchaseNo)
	return err
}

func (r *repository) DeletePurchase(ctx context.Context, purchaseNo string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM purchases WHERE purchase_no = $1`, purchaseNo)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) AdjustStock(ctx context.Context, productCode string, delta int64) error {
	return inventory.Adjust(ctx, r.db, productCode, delta)
}

func (r *repository) Get(ctx context.Context, purchaseNo string) (*Purchase, error) {
	var p Purchase
	err := r.db.QueryRow(ctx, `
		SELECT pu.purchase_no, pu.supplier_id, pu.ordered_at, pu.total_amount,
		       pu.status, COALESCE(pu.notes, ''), pu.received_at, s.name
		FROM purchases pu
		JOIN suppliers s ON s.id = pu.supplier_id
		WHERE pu.purchase_no = $1`, purchaseNo).Scan(
		&p.PurchaseNo, &p.SupplierID, &p.OrderedAt, &p.TotalAmount,
		&p.Status, &p.Notes, &p.ReceivedAt, &p.SupplierName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT l.purchase_no, l.product_code, l.quantity, l.unit_price, l.line_total, pr.name
		FROM purchase_lines l
		JOIN products pr ON pr.code = l.product_code
		WHERE l.purchase_no = $1
		ORDER BY l.product_code`, purchaseNo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var line PurchaseLine
		if err := rows.Scan(&line.PurchaseNo, &line.ProductCode, &line.Quantity, &line.UnitPrice, &line.LineTotal, &line.ProductName); err != nil {
			return nil, err
		}
		p.Lines = append(p.Lines, line)
	}
	return &p, rows.Err()
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Purchase, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if filter.SupplierID != "" {
		argCount++
		where += ` AND pu.supplier_id = $` + strconv.Itoa(argCount)
		args = append(args, filter.SupplierID)
	}
	if filter.Status != "" {
		argCount++
		where += ` AND pu.status = $` + strconv.Itoa(argCount)
		args = append(args, filter.Status)
	}
	if !filter.From.IsZero() {
		argCount++
		where += ` AND pu.ordered_at >= $` + strconv.Itoa(argCount)
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		argCount++
		where += ` AND pu.ordered_at <= $` + strconv.Itoa(argCount)
		args = append(args, filter.To)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM purchases pu`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT pu.purchase_no, pu.supplier_id, pu.ordered_at, pu.total_amount,
		       pu.status, COALESCE(pu.notes, ''), pu.received_at, s.name
		FROM purchases pu
		JOIN suppliers s ON s.id = pu.supplier_id` + where + `
		ORDER BY pu.ordered_at DESC, pu.purchase_no DESC`

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

	var purchases []Purchase
	for rows.Next() {
		var p Purchase
		err := rows.Scan(
			&p.PurchaseNo, &p.SupplierID, &p.OrderedAt, &p.TotalAmount,
			&p.Status, &p.Notes, &p.ReceivedAt, &p.SupplierName,
		)
		if err != nil {
			return nil, 0, err
		}
		purchases = append(purchases, p)
	}
	return purchases, total, rows.Err()
}
