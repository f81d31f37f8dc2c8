package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atlaspos/atlaspos/internal/inventory"
	"github.com/atlaspos/atlaspos/internal/shared"
)

// Directory answers existence checks against reference data. Implemented by
// the masterdata repositories.
type Directory interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service is the sale posting engine.
type Service struct {
	repo      Repository
	customers Directory
	employees Directory
	numbers   shared.NumberSource
	audit     AuditPort
}

// NewService constructs the engine.
func NewService(repo Repository, customers, employees Directory, numbers shared.NumberSource, audit AuditPort) *Service {
	return &Service{repo: repo, customers: customers, employees: employees, numbers: numbers, audit: audit}
}

// invoiceScope is the number-generator scope for invoice numbers.
const invoiceScope = "INV"

// CreateSale validates the cart, computes totals and posts the sale as one
// unit of work: header, lines and the per-line stock decrements are durably
// visible together or not at all.
//
// Validation order is fixed: empty cart, line shape, customer, employee,
// then the stock snapshot. The snapshot aggregates every offending line for
// a fast user-visible error; the correctness guard is the ledger's
// conditional update inside the transaction.
func (s *Service) CreateSale(ctx context.Context, input CreateSaleInput) (*Sale, error) {
	if len(input.Lines) == 0 {
		return nil, ErrEmptyCart
	}
	requested := make(map[string]int64, len(input.Lines))
	codes := make([]string, 0, len(input.Lines))
	for _, line := range input.Lines {
		if line.ProductCode == "" || line.Quantity <= 0 || line.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidLine, line.ProductCode)
		}
		if _, dup := requested[line.ProductCode]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateLine, line.ProductCode)
		}
		requested[line.ProductCode] = line.Quantity
		codes = append(codes, line.ProductCode)
	}
	if input.Discount.IsNegative() {
		return nil, ErrNegativeDiscount
	}

	if ok, err := s.customers.Exists(ctx, input.CustomerID); err != nil {
		return nil, fmt.Errorf("verify customer: %w", err)
	} else if !ok {
		return nil, ErrCustomerNotFound
	}
	if ok, err := s.employees.Exists(ctx, input.EmployeeID); err != nil {
		return nil, fmt.Errorf("verify employee: %w", err)
	} else if !ok {
		return nil, ErrEmployeeNotFound
	}

	levels, err := s.repo.StockLevels(ctx, codes)
	if err != nil {
		return nil, fmt.Errorf("stock snapshot: %w", err)
	}
	var shortages []Shortage
	for _, code := range codes {
		available, ok := levels[code]
		if !ok {
			available = 0
		}
		if requested[code] > available {
			shortages = append(shortages, Shortage{ProductCode: code, Requested: requested[code], Available: available})
		}
	}
	if len(shortages) > 0 {
		return nil, &InsufficientStockError{Shortages: shortages}
	}

	invoiceNo, err := s.numbers.Next(ctx, invoiceScope)
	if err != nil {
		return nil, fmt.Errorf("generate invoice number: %w", err)
	}

	total := decimal.Zero
	lines := make([]SaleLine, 0, len(input.Lines))
	for _, line := range input.Lines {
		lineTotal := line.UnitPrice.Mul(decimal.NewFromInt(line.Quantity))
		total = total.Add(lineTotal)
		lines = append(lines, SaleLine{
			InvoiceNo:   invoiceNo,
			ProductCode: line.ProductCode,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			LineTotal:   lineTotal,
		})
	}
	net := total.Sub(input.Discount)
	if net.IsNegative() {
		// Oversized discounts clamp to zero rather than failing the sale.
		net = decimal.Zero
	}

	sale := Sale{
		InvoiceNo:   invoiceNo,
		CustomerID:  input.CustomerID,
		EmployeeID:  input.EmployeeID,
		SoldAt:      time.Now().UTC(),
		TotalAmount: total,
		Discount:    input.Discount,
		NetAmount:   net,
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.CreateSale(ctx, sale); err != nil {
			return fmt.Errorf("create sale: %w", err)
		}
		for _, line := range lines {
			if err := repo.InsertLine(ctx, line); err != nil {
				return fmt.Errorf("insert sale line: %w", err)
			}
			if err := repo.AdjustStock(ctx, line.ProductCode, -line.Quantity); err != nil {
				if errors.Is(err, inventory.ErrInsufficientStock) {
					// A concurrent sale consumed stock between the snapshot
					// and here; re-read for the error payload and abort.
					available := int64(0)
					if current, lvlErr := repo.StockLevels(ctx, []string{line.ProductCode}); lvlErr == nil {
						available = current[line.ProductCode]
					}
					return &InsufficientStockError{Shortages: []Shortage{{
						ProductCode: line.ProductCode,
						Requested:   line.Quantity,
						Available:   available,
					}}}
				}
				return fmt.Errorf("adjust stock for %s: %w", line.ProductCode, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  input.ActorID,
			Action:   "sales:create",
			Entity:   "sale",
			EntityID: invoiceNo,
			Meta: map[string]any{
				"customer_id": input.CustomerID,
				"employee_id": input.EmployeeID,
				"net_amount":  net.String(),
				"lines":       len(lines),
			},
		})
	}

	return s.repo.Get(ctx, invoiceNo)
}

// Get returns a sale with its lines.
func (s *Service) Get(ctx context.Context, invoiceNo string) (*Sale, error) {
	if invoiceNo == "" {
		return nil, ErrNotFound
	}
	return s.repo.Get(ctx, invoiceNo)
}

// List returns sales matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Sale, int, error) {
	return s.repo.List(ctx, filter)
}
