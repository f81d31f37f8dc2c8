package sales

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/atlaspos/atlaspos/internal/inventory"
	"github.com/atlaspos/atlaspos/internal/shared"
)

type memorySalesRepo struct {
	mu    sync.Mutex
	stock map[string]int64
	sales map[string]Sale
	lines map[string][]SaleLine
	inTx  bool
}

func newMemorySalesRepo(stock map[string]int64) *memorySalesRepo {
	return &memorySalesRepo{
		stock: stock,
		sales: make(map[string]Sale),
		lines: make(map[string][]SaleLine),
	}
}

// WithTx serialises transactions and restores state when fn fails, matching
// the rollback the real repository gets from PostgreSQL.
func (r *memorySalesRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stockCopy := make(map[string]int64, len(r.stock))
	for k, v := range r.stock {
		stockCopy[k] = v
	}
	salesCopy := make(map[string]Sale, len(r.sales))
	for k, v := range r.sales {
		salesCopy[k] = v
	}
	linesCopy := make(map[string][]SaleLine, len(r.lines))
	for k, v := range r.lines {
		linesCopy[k] = append([]SaleLine(nil), v...)
	}

	tx := &memorySalesRepo{stock: r.stock, sales: r.sales, lines: r.lines, inTx: true}
	if err := fn(ctx, tx); err != nil {
		r.stock = stockCopy
		r.sales = salesCopy
		r.lines = linesCopy
		return err
	}
	return nil
}

func (r *memorySalesRepo) lock() func() {
	if r.inTx {
		return func() {}
	}
	r.mu.Lock()
	return r.mu.Unlock
}

func (r *memorySalesRepo) CreateSale(ctx context.Context, sale Sale) error {
	defer r.lock()()
	if _, ok := r.sales[sale.InvoiceNo]; ok {
		return errors.New("duplicate invoice")
	}
	r.sales[sale.InvoiceNo] = sale
	return nil
}

func (r *memorySalesRepo) InsertLine(ctx context.Context, line SaleLine) error {
	defer r.lock()()
	r.lines[line.InvoiceNo] = append(r.lines[line.InvoiceNo], line)
	return nil
}

func (r *memorySalesRepo) AdjustStock(ctx context.Context, productCode string, delta int64) error {
	defer r.lock()()
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

func (r *memorySalesRepo) StockLevels(ctx context.Context, productCodes []string) (map[string]int64, error) {
	defer r.lock()()
	levels := make(map[string]int64, len(productCodes))
	for _, code := range productCodes {
		if stock, ok := r.stock[code]; ok {
			levels[code] = stock
		}
	}
	return levels, nil
}

func (r *memorySalesRepo) Get(ctx context.Context, invoiceNo string) (*Sale, error) {
	defer r.lock()()
	sale, ok := r.sales[invoiceNo]
	if !ok {
		return nil, ErrNotFound
	}
	sale.Lines = append([]SaleLine(nil), r.lines[invoiceNo]...)
	return &sale, nil
}

func (r *memorySalesRepo) List(ctx context.Context, filter ListFilter) ([]Sale, int, error) {
	defer r.lock()()
	out := make([]Sale, 0, len(r.sales))
	for _, s := range r.sales {
		out = append(out, s)
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
	mu   sync.Mutex
	logs []shared.AuditLog
}

func (a *memoryAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logs = append(a.logs, log)
	return nil
}

func newTestService(stock map[string]int64) (*Service, *memorySalesRepo, *memoryAudit) {
	repo := newMemorySalesRepo(stock)
	audit := &memoryAudit{}
	svc := NewService(
		repo,
		staticDirectory{"CUST-1": true},
		staticDirectory{"EMP-1": true},
		&seqNumbers{},
		audit,
	)
	return svc, repo, audit
}

func price(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestCreateSaleEmptyCart(t *testing.T) {
	svc, _, _ := newTestService(map[string]int64{})

	_, err := svc.CreateSale(context.Background(), CreateSaleInput{
		CustomerID: "CUST-1",
		EmployeeID: "EMP-1",
	})
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestCreateSaleLineValidation(t *testing.T) {
	svc, _, _ := newTestService(map[string]int64{"P-1": 10})

	_, err := svc.CreateSale(context.Background(), CreateSaleInput{
		CustomerID: "CUST-1",
		EmployeeID: "EMP-1",
		Lines:      []SaleLineInput{{ProductCode: "P-1", Quantity: 0, UnitPrice: price("5")}},
	})
	require.ErrorIs(t, err, ErrInvalidLine)

	_, err = svc.CreateSale(context.Background(), CreateSaleInput{
		CustomerID: "CUST-1",
		EmployeeID: "EMP-1",
		Lines: []SaleLineInput{
			{ProductCode: "P-1", Quantity: 1, UnitPrice: price("5")},
			{ProductCode: "P-1", Quantity: 2, UnitPrice: price("5")},
		},
	})
	require.ErrorIs(t, err, ErrDuplicateLine)

	_, err = svc.CreateSale(context.Background(), CreateSaleInput{
		CustomerID: "CUST-1",
		EmployeeID: "EMP-1",
		Discount:   price("-1"),
		Lines:      []SaleLineInput{{ProductCode: "P-1", Quantity: 1, UnitPrice: price("5")}},
	})
	require.ErrorIs(t, err, ErrNegativeDiscount)
}

func TestCreateSaleUnknownReferences(t *testing.T) {
	svc, _, _ := newTestService(map[string]int64{"P-1": 10})
	lines := []SaleLineInput{{ProductCode: "P-1", Quantity: 1, UnitPrice: price("5")}}

	_, err := svc.CreateSale(context.Background(), CreateSaleInput{
		CustomerID: "CUST-404",
		EmployeeID: "EMP-1",
		Lines:      lines,
	})
	require.ErrorIs(t, err, ErrCustomerNotFound)

	_, err = svc.CreateSale(context.Background(), CreateSaleInput{
		CustomerID: "CUST-1",
		EmployeeID: "EMP-404",
		Lines:      lines,
	})
	require.ErrorIs(t, err, ErrEmployeeNotFound)
}

func TestCreateSaleAggregatesShortages(t *testing.T) {
	svc, repo, _ := newTestService(map[string]int64{"P-1": 2, "P-2": 0, "P-3": 50})

	_, err := svc.CreateSale(context.Background(), CreateSaleInput{
		CustomerID: "CUST-1",
		EmployeeID: "EMP-1",
		Lines: []SaleLineInput{
			{ProductCode: "P-1", Quantity: 5, UnitPrice: price("10")},
			{ProductCode: "P-2", Quantity: 1, UnitPrice: price("4")},
			{ProductCode: "P-3", Quantity: 3, UnitPrice: price("1")},
		},
	})

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.Len(t, stockErr.Shortages, 2)
	require.Equal(t, Shortage{ProductCode: "P-1", Requested: 5, Available: 2}, stockErr.Shortages[0])
	require.Equal(t, Shortage{ProductCode: "P-2", Requested: 1, Available: 0}, stockErr.Shortages[1])

	// Nothing may be written on rejection.
	require.Empty(t, repo.sales)
	require.Equal(t, int64(2), repo.stock["P-1"])
	require.Equal(t, int64(50), repo.stock["P-3"])
}

func TestCreateSaleUnknownProductReportsZeroAvailable(t *testing.T) {
	svc, _, _ := newTestService(map[string]int64{})

	_, err := svc.CreateSale(context.Background(), CreateSaleInput{
		CustomerID: "CUST-1",
		EmployeeID: "EMP-1",
		Lines:      []SaleLineInput{{ProductCode: "GHOST", Quantity: 1, UnitPrice: price("2")}},
	})

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	require.Equal(t, Shortage{ProductCode: "GHOST", Requested: 1, Available: 0}, stockErr.Shortages[0])
}

func TestCreateSalePostsAtomically(t *testing.T) {
	svc, repo, audit := newTestService(map[string]int64{"P-1": 10, "P-2": 4})

	sale, err := svc.CreateSale(context.Background(), CreateSaleInput{
		CustomerID: "CUST-1",
		EmployeeID: "EMP-1",
		Discount:   price("5"),
		ActorID:    "EMP-1",
		Lines: []SaleLineInput{
			{ProductCode: "P-1", Quantity: 3, UnitPrice: price("12.50")},
			{ProductCode: "P-2", Quantity: 2, UnitPrice: price("3.25")},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "INV001", sale.InvoiceNo)
	require.True(t, sale.TotalAmount.Equal(price("44.00")), "total %s", sale.TotalAmount)
	require.True(t, sale.NetAmount.Equal(price("39.00")), "net %s", sale.NetAmount)
	require.Len(t, sale.Lines, 2)

	require.Equal(t, int64(7), repo.stock["P-1"])
	require.Equal(t, int64(2), repo.stock["P-2"])

	require.Len(t, audit.logs, 1)
	require.Equal(t, "sales:create", audit.logs[0].Action)
	require.Equal(t, "INV001", audit.logs[0].EntityID)
}

func TestCreateSaleDiscountClampsToZero(t *testing.T) {
	svc, _, _ := newTestService(map[string]int64{"P-1": 10})

	sale, err := svc.CreateSale(context.Background(), CreateSaleInput{
		CustomerID: "CUST-1",
		EmployeeID: "EMP-1",
		Discount:   price("100"),
		Lines:      []SaleLineInput{{ProductCode: "P-1", Quantity: 2, UnitPrice: price("7")}},
	})
	require.NoError(t, err)
	require.True(t, sale.TotalAmount.Equal(price("14")))
	require.True(t, sale.Discount.Equal(price("100")))
	require.True(t, sale.NetAmount.IsZero(), "net %s", sale.NetAmount)
}

func TestCreateSaleConcurrentNeverOversells(t *testing.T) {
	const initial = 5
	svc, repo, _ := newTestService(map[string]int64{"P-1": initial})

	var wg sync.WaitGroup
	results := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateSale(context.Background(), CreateSaleInput{
				CustomerID: "CUST-1",
				EmployeeID: "EMP-1",
				Lines:      []SaleLineInput{{ProductCode: "P-1", Quantity: 1, UnitPrice: price("9.99")}},
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok, rejected int
	for err := range results {
		if err == nil {
			ok++
			continue
		}
		var stockErr *InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		rejected++
	}
	require.Equal(t, initial, ok)
	require.Equal(t, 10-initial, rejected)
	require.Equal(t, int64(0), repo.stock["P-1"])
	require.Len(t, repo.sales, initial)
}

func TestCreateSaleRoundTrip(t *testing.T) {
	svc, _, _ := newTestService(map[string]int64{"P-1": 20, "P-2": 20})

	created, err := svc.CreateSale(context.Background(), CreateSaleInput{
		CustomerID: "CUST-1",
		EmployeeID: "EMP-1",
		Discount:   price("30"),
		Lines: []SaleLineInput{
			{ProductCode: "P-1", Quantity: 4, UnitPrice: price("20")},
			{ProductCode: "P-2", Quantity: 2, UnitPrice: price("10")},
		},
	})
	require.NoError(t, err)
	require.True(t, created.NetAmount.Equal(price("70")))

	got, err := svc.Get(context.Background(), created.InvoiceNo)
	require.NoError(t, err)
	require.True(t, got.TotalAmount.Equal(created.TotalAmount))
	require.True(t, got.Discount.Equal(created.Discount))
	require.True(t, got.NetAmount.Equal(created.NetAmount))
	require.Equal(t, created.Lines, got.Lines)
}

func TestGetMissingSale(t *testing.T) {
	svc, _, _ := newTestService(map[string]int64{})

	_, err := svc.Get(context.Background(), "INV999")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Get(context.Background(), "")
	require.ErrorIs(t, err, ErrNotFound)
}
