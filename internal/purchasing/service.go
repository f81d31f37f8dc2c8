package purchasing

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atlaspos/atlaspos/internal/shared"
)

// Directory answers existence checks against reference data.
type Directory interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service is the purchase posting engine.
type Service struct {
	repo      Repository
	suppliers Directory
	numbers   shared.NumberSource
	audit     AuditPort
}

// NewService constructs the engine.
func NewService(repo Repository, suppliers Directory, numbers shared.NumberSource, audit AuditPort) *Service {
	return &Service{repo: repo, suppliers: suppliers, numbers: numbers, audit: audit}
}

// purchaseScope is the number-generator scope for purchase numbers.
const purchaseScope = "PUR"

// CreatePurchase validates the order, computes the total from its lines and
// atomically inserts the header (status Pending) with all line items. Stock
// is not touched until receipt.
func (s *Service) CreatePurchase(ctx context.Context, input CreatePurchaseInput) (*Purchase, error) {
	if len(input.Lines) == 0 {
		return nil, ErrEmptyOrder
	}
	seen := make(map[string]struct{}, len(input.Lines))
	for _, line := range input.Lines {
		if line.ProductCode == "" || line.Quantity < 0 || line.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidLine, line.ProductCode)
		}
		if _, dup := seen[line.ProductCode]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateLine, line.ProductCode)
		}
		seen[line.ProductCode] = struct{}{}
	}

	if ok, err := s.suppliers.Exists(ctx, input.SupplierID); err != nil {
		return nil, fmt.Errorf("verify supplier: %w", err)
	} else if !ok {
		return nil, ErrSupplierNotFound
	}

	purchaseNo, err := s.numbers.Next(ctx, purchaseScope)
	if err != nil {
		return nil, fmt.Errorf("generate purchase number: %w", err)
	}

	total := decimal.Zero
	lines := make([]PurchaseLine, 0, len(input.Lines))
	for _, line := range input.Lines {
		lineTotal := line.UnitPrice.Mul(decimal.NewFromInt(line.Quantity))
		total = total.Add(lineTotal)
		lines = append(lines, PurchaseLine{
			PurchaseNo:  purchaseNo,
			ProductCode: line.ProductCode,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			LineTotal:   lineTotal,
		})
	}

	purchase := Purchase{
		PurchaseNo:  purchaseNo,
		SupplierID:  input.SupplierID,
		OrderedAt:   time.Now().UTC(),
		TotalAmount: total,
		Status:      StatusPending,
		Notes:       input.Notes,
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.CreatePurchase(ctx, purchase); err != nil {
			return fmt.Errorf("create purchase: %w", err)
		}
		for _, line := range lines {
			if err := repo.InsertLine(ctx, line); err != nil {
				return fmt.Errorf("insert purchase line: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, input.ActorID, "purchasing:create", purchaseNo, map[string]any{
		"supplier_id": input.SupplierID,
		"total":       total.String(),
		"lines":       len(lines),
	})

	return s.repo.Get(ctx, purchaseNo)
}

// MarkReceived commits the ordered stock: every line quantity is added to
// the ledger and the status flips to Received, all in one unit of work.
// Repeating the call fails with ErrAlreadyReceived and changes nothing.
func (s *Service) MarkReceived(ctx context.Context, purchaseNo, actorID string) error {
	purchase, err := s.repo.Get(ctx, purchaseNo)
	if err != nil {
		return err
	}
	if purchase.Status == StatusReceived {
		return ErrAlreadyReceived
	}

	now := time.Now().UTC()
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		for _, line := range purchase.Lines {
			if line.Quantity == 0 {
				continue
			}
			if err := repo.AdjustStock(ctx, line.ProductCode, line.Quantity); err != nil {
				return fmt.Errorf("receive stock for %s: %w", line.ProductCode, err)
			}
		}
		return repo.UpdateStatus(ctx, purchaseNo, StatusReceived, &now)
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, actorID, "purchasing:receive", purchaseNo, map[string]any{
		"lines": len(purchase.Lines),
	})
	return nil
}

// Cancel removes a not-yet-received purchase outright: lines first, then the
// header, atomically. Receipt makes the order permanent.
func (s *Service) Cancel(ctx context.Context, purchaseNo, actorID string) error {
	purchase, err := s.repo.Get(ctx, purchaseNo)
	if err != nil {
		return err
	}
	if purchase.Status == StatusReceived {
		return ErrCannotCancelReceived
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.DeleteLines(ctx, purchaseNo); err != nil {
			return fmt.Errorf("delete purchase lines: %w", err)
		}
		return repo.DeletePurchase(ctx, purchaseNo)
	})
	if err != nil {
		return err
	}

	s.recordAudit(ctx, actorID, "purchasing:cancel", purchaseNo, map[string]any{
		"supplier_id": purchase.SupplierID,
	})
	return nil
}

// Get returns a purchase with its lines.
func (s *Service) Get(ctx context.Context, purchaseNo string) (*Purchase, error) {
	if purchaseNo == "" {
		return nil, ErrNotFound
	}
	return s.repo.Get(ctx, purchaseNo)
}

// List returns purchases matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Purchase, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) recordAudit(ctx context.Context, actorID, action, purchaseNo string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "purchase",
		EntityID: purchaseNo,
		Meta:     meta,
	})
}
