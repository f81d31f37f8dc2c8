package products

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/atlaspos/atlaspos/internal/masterdata/shared"
)

type memoryProductRepo struct {
	products map[string]Product
	stock    map[string]int64
}

func newMemoryProductRepo() *memoryProductRepo {
	return &memoryProductRepo{products: make(map[string]Product), stock: make(map[string]int64)}
}

func (r *memoryProductRepo) List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error) {
	out := make([]Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (r *memoryProductRepo) Get(ctx context.Context, code string) (Product, error) {
	p, ok := r.products[code]
	if !ok {
		return Product{}, shared.ErrNotFound
	}
	return p, nil
}

func (r *memoryProductRepo) Exists(ctx context.Context, code string) (bool, error) {
	_, ok := r.products[code]
	return ok, nil
}

func (r *memoryProductRepo) Create(ctx context.Context, input CreateInput) (Product, error) {
	if _, ok := r.products[input.Product.Code]; ok {
		return Product{}, shared.ErrDuplicate
	}
	r.products[input.Product.Code] = input.Product
	r.stock[input.Product.Code] = input.OpeningStock
	return input.Product, nil
}

func (r *memoryProductRepo) Update(ctx context.Context, code string, p Product) error {
	if _, ok := r.products[code]; !ok {
		return shared.ErrNotFound
	}
	p.Code = code
	r.products[code] = p
	return nil
}

func (r *memoryProductRepo) Delete(ctx context.Context, code string) error {
	if _, ok := r.products[code]; !ok {
		return shared.ErrNotFound
	}
	delete(r.products, code)
	delete(r.stock, code)
	return nil
}

type seqNumbers struct {
	n int
}

func (s *seqNumbers) Next(ctx context.Context, scope string) (string, error) {
	s.n++
	return fmt.Sprintf("%s%03d", scope, s.n), nil
}

func validProduct() Product {
	return Product{
		Code:        "SKU-1",
		Name:        "Espresso Beans 1kg",
		Brand:       "Roastery",
		CostPrice:   decimal.RequireFromString("8.40"),
		RetailPrice: decimal.RequireFromString("14.90"),
	}
}

func TestCreateProvisionsInventoryRecord(t *testing.T) {
	repo := newMemoryProductRepo()
	svc := NewService(repo, &seqNumbers{})

	p, err := svc.Create(context.Background(), CreateInput{Product: validProduct(), OpeningStock: 25})
	require.NoError(t, err)
	require.Equal(t, "SKU-1", p.Code)

	stock, ok := repo.stock["SKU-1"]
	require.True(t, ok, "inventory record must exist for a new product")
	require.Equal(t, int64(25), stock)
}

func TestCreateGeneratesCodeWhenMissing(t *testing.T) {
	repo := newMemoryProductRepo()
	svc := NewService(repo, &seqNumbers{})

	product := validProduct()
	product.Code = ""
	p, err := svc.Create(context.Background(), CreateInput{Product: product})
	require.NoError(t, err)
	require.Equal(t, "PRD001", p.Code)
}

func TestCreateValidation(t *testing.T) {
	repo := newMemoryProductRepo()
	svc := NewService(repo, &seqNumbers{})

	product := validProduct()
	product.Name = ""
	_, err := svc.Create(context.Background(), CreateInput{Product: product})
	require.ErrorIs(t, err, shared.ErrRequiredField)

	product = validProduct()
	product.CostPrice = decimal.RequireFromString("-1")
	_, err = svc.Create(context.Background(), CreateInput{Product: product})
	require.ErrorIs(t, err, shared.ErrValidation)

	product = validProduct()
	product.MinStockLevel = -1
	_, err = svc.Create(context.Background(), CreateInput{Product: product})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(context.Background(), CreateInput{Product: validProduct(), OpeningStock: -5})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateDuplicateCode(t *testing.T) {
	repo := newMemoryProductRepo()
	svc := NewService(repo, &seqNumbers{})

	_, err := svc.Create(context.Background(), CreateInput{Product: validProduct()})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), CreateInput{Product: validProduct()})
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestDeleteRemovesInventoryRecord(t *testing.T) {
	repo := newMemoryProductRepo()
	svc := NewService(repo, &seqNumbers{})

	_, err := svc.Create(context.Background(), CreateInput{Product: validProduct(), OpeningStock: 3})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), "SKU-1"))
	_, ok := repo.stock["SKU-1"]
	require.False(t, ok)

	require.ErrorIs(t, svc.Delete(context.Background(), "SKU-1"), shared.ErrNotFound)
}
