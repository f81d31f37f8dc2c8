package purchasing

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/atlaspos/atlaspos/internal/inventory"
	"github.com/atlaspos/atlaspos/internal/shared"
)

type memoryPurchaseRepo struct {
	stock     map[string]int64
	purchases map[string]Purchase
	lines     map[string][]PurchaseLine
	inTx      bool
}

func newMemoryPurchaseRepo(stock map[string]int64) *memoryPurchaseRepo {
	return &memoryPurchaseRepo{
		stock:     stock,
		purchases: make(map[string]Purchase),
		lines:     make(map[string][]PurchaseLine),
	}
}

// WithTx restores state when fn fails, matching the rollback the real
// repository gets from PostgreSQL.
func (r *memoryPurchaseRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	stockCopy := make(map[string]int64, len(r.stock))
	for k, v := range r.stock {
		stockCopy[k] = v
	}
	purchasesCopy := make(map[string]Purchase, len(r.purchases))
	for k, v := range r.purchases {
		purchasesCopy[k] = v
	}
	linesCopy := make(map[string][]PurchaseLine, len(r.lines))
	for k, v := range r.lines {
		linesCopy[k] = append([]PurchaseLine(nil), v...)
	}

	tx := &memoryPurchaseRepo{stock: r.stock, purchases: r.purchases, lines: r.lines, inTx: true}
	if err := fn(ctx, tx); err != nil {
		r.stock = stockCopy
		r.purchases = purchasesCopy
		r.lines = linesCopy
		return err
	}
	return nil
}

func (r *memoryPurchaseRepo) CreatePurchase(ctx context.Context, p Purchase) error {
	r.purchases[p.PurchaseNo] = p
	return nil
}

func (r *memoryPurchaseRepo) InsertLine(ctx context.Context, line PurchaseLine) error {
	r.lines[line.PurchaseNo] = append(r.lines[line.PurchaseNo], line)
	return nil
}

func (r *memoryPurchaseRepo) UpdateStatus(ctx context.Context, purchaseNo string, status Status, receivedAt *time.Time) error {
	p, ok := r.purchases[purchaseNo]
	if !ok {
		return ErrNotFound
	}
	p.Status = status
	p.ReceivedAt = receivedAt
	r.purchases[purchaseNo] = p
	return nil
}

func (r *memoryPurchaseRepo) DeleteLines(ctx context.Context, purchaseNo string) error {
	delete(r.lines, purchaseNo)
	return nil
}

func (r *memoryPurchaseRepo) DeletePurchase(ctx context.Context, purchaseNo string) error {
	if _, ok := r.purchases[purchaseNo]; !ok {
		return ErrNotFound
	}
	delete(r.purchases, purchaseNo)
	return nil
}

func (r *memoryPurchaseRepo) AdjustStock(ctx context.Context, productCode string, delta int64) error {
	current, ok := r.stock[productCode]
	if !ok {
		return inventory.ErrNotFound
	}
	if current+delta < 0 {
		return inventory.ErrInsufficientStock
	}
	r.stock[productCode] = current + delta
	return nil
}

func (r *memoryPurchaseRepo) Get(ctx context.Context, purchaseNo string) (*Purchase, error) {
	p, ok := r.purchases[purchaseNo]
	if !ok {
		return nil, ErrNotFound
	}
	p.Lines = append([]PurchaseLine(nil), r.lines[purchaseNo]...)
	return &p, nil
}

func (r *memoryPurchaseRepo) List(ctx context.Context, filter ListFilter) ([]Purchase, int, error) {
	out := make([]Purchase, 0, len(r.purchases))
	for _, p := range r.purchases {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

type staticDirectory map[string]bool

func (d staticDirectory) Exists(ctx context.Context, id string) (bool, error) {
	return d[id], nil
}

type seqNumbers struct {
	mu sync.Mutex
	n  int
}

func (s *seqNumbers) Next(ctx context.Context, scope string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s%03d", scope, s.n), nil
}

type memoryAudit struct {
	logs []shared.AuditLog
}

func (a *memoryAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func newTestService(stock map[string]int64) (*Service, *memoryPurchaseRepo, *memoryAudit) {
	repo := newMemoryPurchaseRepo(stock)
	audit := &memoryAudit{}
	svc := NewService(repo, staticDirectory{"SUP-1": true}, &seqNumbers{}, audit)
	return svc, repo, audit
}

func price(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestCreatePurchaseValidation(t *testing.T) {
	svc, _, _ := newTestService(map[string]int64{"P-1": 0})

	_, err := svc.CreatePurchase(context.Background(), CreatePurchaseInput{SupplierID: "SUP-1"})
	require.ErrorIs(t, err, ErrEmptyOrder)

	_, err = svc.CreatePurchase(context.Background(), CreatePurchaseInput{
		SupplierID: "SUP-1",
		Lines:      []PurchaseLineInput{{ProductCode: "P-1", Quantity: -1, UnitPrice: price("3")}},
	})
	require.ErrorIs(t, err, ErrInvalidLine)

	_, err = svc.CreatePurchase(context.Background(), CreatePurchaseInput{
		SupplierID: "SUP-1",
		Lines: []PurchaseLineInput{
			{ProductCode: "P-1", Quantity: 1, UnitPrice: price("3")},
			{ProductCode: "P-1", Quantity: 2, UnitPrice: price("3")},
		},
	})
	require.ErrorIs(t, err, ErrDuplicateLine)

	_, err = svc.CreatePurchase(context.Background(), CreatePurchaseInput{
		SupplierID: "SUP-404",
		Lines:      []PurchaseLineInput{{ProductCode: "P-1", Quantity: 1, UnitPrice: price("3")}},
	})
	require.ErrorIs(t, err, ErrSupplierNotFound)
}

func TestCreatePurchaseDoesNotTouchStock(t *testing.T) {
	svc, repo, audit := newTestService(map[string]int64{"P-1": 10, "P-2": 0})

	p, err := svc.CreatePurchase(context.Background(), CreatePurchaseInput{
		SupplierID: "SUP-1",
		ActorID:    "EMP-1",
		Notes:      "restock",
		Lines: []PurchaseLineInput{
			{ProductCode: "P-1", Quantity: 5, UnitPrice: price("2.40")},
			{ProductCode: "P-2", Quantity: 3, UnitPrice: price("10")},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "PUR001", p.PurchaseNo)
	require.Equal(t, StatusPending, p.Status)
	require.True(t, p.TotalAmount.Equal(price("42.00")), "total %s", p.TotalAmount)
	require.Len(t, p.Lines, 2)
	require.Nil(t, p.ReceivedAt)

	// Ordering is not receiving.
	require.Equal(t, int64(10), repo.stock["P-1"])
	require.Equal(t, int64(0), repo.stock["P-2"])

	require.Len(t, audit.logs, 1)
	require.Equal(t, "purchasing:create", audit.logs[0].Action)
}

func TestMarkReceivedAddsStockOnce(t *testing.T) {
	svc, repo, _ := newTestService(map[string]int64{"P-1": 2, "P-2": 0})

	p, err := svc.CreatePurchase(context.Background(), CreatePurchaseInput{
		SupplierID: "SUP-1",
		Lines: []PurchaseLineInput{
			{ProductCode: "P-1", Quantity: 5, UnitPrice: price("1")},
			{ProductCode: "P-2", Quantity: 3, UnitPrice: price("1")},
		},
	})
	require.NoError(t, err)

	require.NoError(t, svc.MarkReceived(context.Background(), p.PurchaseNo, "EMP-1"))
	require.Equal(t, int64(7), repo.stock["P-1"])
	require.Equal(t, int64(3), repo.stock["P-2"])

	received, err := svc.Get(context.Background(), p.PurchaseNo)
	require.NoError(t, err)
	require.Equal(t, StatusReceived, received.Status)
	require.NotNil(t, received.ReceivedAt)

	// A second receive is rejected and leaves stock untouched.
	err = svc.MarkReceived(context.Background(), p.PurchaseNo, "EMP-1")
	require.ErrorIs(t, err, ErrAlreadyReceived)
	require.Equal(t, int64(7), repo.stock["P-1"])
	require.Equal(t, int64(3), repo.stock["P-2"])
}

func TestMarkReceivedSkipsZeroQuantityLines(t *testing.T) {
	svc, repo, _ := newTestService(map[string]int64{"P-1": 1, "P-2": 1})

	p, err := svc.CreatePurchase(context.Background(), CreatePurchaseInput{
		SupplierID: "SUP-1",
		Lines: []PurchaseLineInput{
			{ProductCode: "P-1", Quantity: 0, UnitPrice: price("9")},
			{ProductCode: "P-2", Quantity: 2, UnitPrice: price("1")},
		},
	})
	require.NoError(t, err)

	require.NoError(t, svc.MarkReceived(context.Background(), p.PurchaseNo, ""))
	require.Equal(t, int64(1), repo.stock["P-1"])
	require.Equal(t, int64(3), repo.stock["P-2"])
}

func TestMarkReceivedRollsBackOnLedgerFailure(t *testing.T) {
	// P-2 has no inventory record, so the second adjustment fails and the
	// first must be rolled back with the status unchanged.
	svc, repo, _ := newTestService(map[string]int64{"P-1": 2})

	repo.purchases["PUR900"] = Purchase{PurchaseNo: "PUR900", SupplierID: "SUP-1", Status: StatusPending}
	repo.lines["PUR900"] = []PurchaseLine{
		{PurchaseNo: "PUR900", ProductCode: "P-1", Quantity: 4, UnitPrice: price("1")},
		{PurchaseNo: "PUR900", ProductCode: "P-2", Quantity: 1, UnitPrice: price("1")},
	}

	err := svc.MarkReceived(context.Background(), "PUR900", "")
	require.ErrorIs(t, err, inventory.ErrNotFound)
	require.Equal(t, int64(2), repo.stock["P-1"])

	p, err := svc.Get(context.Background(), "PUR900")
	require.NoError(t, err)
	require.Equal(t, StatusPending, p.Status)
}

func TestCancelPendingRemovesOrder(t *testing.T) {
	svc, repo, audit := newTestService(map[string]int64{"P-1": 2})

	p, err := svc.CreatePurchase(context.Background(), CreatePurchaseInput{
		SupplierID: "SUP-1",
		Lines:      []PurchaseLineInput{{ProductCode: "P-1", Quantity: 4, UnitPrice: price("1")}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(context.Background(), p.PurchaseNo, "EMP-1"))
	_, err = svc.Get(context.Background(), p.PurchaseNo)
	require.ErrorIs(t, err, ErrNotFound)
	require.Empty(t, repo.lines[p.PurchaseNo])
	require.Equal(t, int64(2), repo.stock["P-1"])

	require.Equal(t, "purchasing:cancel", audit.logs[len(audit.logs)-1].Action)
}

func TestCancelReceivedFails(t *testing.T) {
	svc, repo, _ := newTestService(map[string]int64{"P-1": 0})

	p, err := svc.CreatePurchase(context.Background(), CreatePurchaseInput{
		SupplierID: "SUP-1",
		Lines:      []PurchaseLineInput{{ProductCode: "P-1", Quantity: 2, UnitPrice: price("1")}},
	})
	require.NoError(t, err)
	require.NoError(t, svc.MarkReceived(context.Background(), p.PurchaseNo, ""))

	err = svc.Cancel(context.Background(), p.PurchaseNo, "")
	require.ErrorIs(t, err, ErrCannotCancelReceived)

	// Order and stock stay as received.
	got, err := svc.Get(context.Background(), p.PurchaseNo)
	require.NoError(t, err)
	require.Equal(t, StatusReceived, got.Status)
	require.Equal(t, int64(2), repo.stock["P-1"])
}

func TestGetMissingPurchase(t *testing.T) {
	svc, _, _ := newTestService(map[string]int64{})

	_, err := svc.Get(context.Background(), "PUR999")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Get(context.Background(), "")
	require.ErrorIs(t, err, ErrNotFound)
}
