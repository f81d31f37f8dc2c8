package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/atlaspos/atlaspos/internal/shared"
)

type memoryInventoryRepo struct {
	items        map[string]Item
	summaryCalls int
}

func newMemoryInventoryRepo(items ...Item) *memoryInventoryRepo {
	repo := &memoryInventoryRepo{items: make(map[string]Item, len(items))}
	for _, it := range items {
		repo.items[it.ProductCode] = it
	}
	return repo
}

func (r *memoryInventoryRepo) Get(ctx context.Context, productCode string) (Item, error) {
	it, ok := r.items[productCode]
	if !ok {
		return Item{}, ErrNotFound
	}
	return it, nil
}

func (r *memoryInventoryRepo) List(ctx context.Context, filter ListFilter) ([]Item, int, error) {
	var out []Item
	for _, it := range r.items {
		if filter.LowOnly && !it.LowStock() {
			continue
		}
		out = append(out, it)
	}
	return out, len(out), nil
}

func (r *memoryInventoryRepo) Summary(ctx context.Context) (Summary, error) {
	r.summaryCalls++
	s := Summary{Products: int64(len(r.items))}
	for _, it := range r.items {
		s.UnitsOnHand += it.CurrentStock
		s.StockValue = s.StockValue.Add(it.StockValue())
		s.RetailValue = s.RetailValue.Add(it.RetailPrice.Mul(decimal.NewFromInt(it.CurrentStock)))
		if it.LowStock() {
			s.LowStock++
		}
	}
	return s, nil
}

func (r *memoryInventoryRepo) AdjustStock(ctx context.Context, productCode string, delta int64) error {
	it, ok := r.items[productCode]
	if !ok {
		return ErrNotFound
	}
	if it.CurrentStock+delta < 0 {
		return ErrInsufficientStock
	}
	it.CurrentStock += delta
	it.LastUpdated = time.Now().UTC()
	r.items[productCode] = it
	return nil
}

type memoryAudit struct {
	logs []shared.AuditLog
}

func (a *memoryAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func item(code string, stock, min int64) Item {
	return Item{
		ProductCode:   code,
		CurrentStock:  stock,
		MinStockLevel: min,
		CostPrice:     decimal.RequireFromString("2"),
		RetailPrice:   decimal.RequireFromString("5"),
	}
}

func TestAdjustAppliesDelta(t *testing.T) {
	repo := newMemoryInventoryRepo(item("P-1", 10, 3))
	audit := &memoryAudit{}
	svc := NewService(repo, audit, nil)

	got, err := svc.Adjust(context.Background(), AdjustmentInput{
		ProductCode: "P-1",
		Delta:       -4,
		Reason:      "damaged in storage",
		ActorID:     "EMP-1",
	})
	require.NoError(t, err)
	require.Equal(t, int64(6), got.CurrentStock)

	require.Len(t, audit.logs, 1)
	require.Equal(t, "inventory:adjust", audit.logs[0].Action)
	require.Equal(t, "P-1", audit.logs[0].EntityID)
}

func TestAdjustRejectsOverdraw(t *testing.T) {
	repo := newMemoryInventoryRepo(item("P-1", 3, 0))
	svc := NewService(repo, nil, nil)

	_, err := svc.Adjust(context.Background(), AdjustmentInput{ProductCode: "P-1", Delta: -4})
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.Equal(t, int64(3), repo.items["P-1"].CurrentStock)
}

func TestAdjustRejectsZeroDelta(t *testing.T) {
	repo := newMemoryInventoryRepo(item("P-1", 3, 0))
	svc := NewService(repo, nil, nil)

	_, err := svc.Adjust(context.Background(), AdjustmentInput{ProductCode: "P-1", Delta: 0})
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestAdjustUnknownProduct(t *testing.T) {
	repo := newMemoryInventoryRepo()
	svc := NewService(repo, nil, nil)

	_, err := svc.Adjust(context.Background(), AdjustmentInput{ProductCode: "GHOST", Delta: 1})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLowStockUsesMinLevelInclusive(t *testing.T) {
	repo := newMemoryInventoryRepo(
		item("P-1", 2, 5),  // below
		item("P-2", 5, 5),  // at minimum counts as low
		item("P-3", 10, 5), // healthy
	)
	svc := NewService(repo, nil, nil)

	items, err := svc.LowStock(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, it := range items {
		require.True(t, it.LowStock())
	}
}

func TestGetSummaryAggregates(t *testing.T) {
	repo := newMemoryInventoryRepo(
		item("P-1", 4, 1),
		item("P-2", 0, 2),
	)
	svc := NewService(repo, nil, nil)

	s, err := svc.GetSummary(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(2), s.Products)
	require.Equal(t, int64(4), s.UnitsOnHand)
	require.True(t, s.StockValue.Equal(decimal.RequireFromString("8")))
	require.True(t, s.RetailValue.Equal(decimal.RequireFromString("20")))
	require.Equal(t, int64(1), s.LowStock)
}
