package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/atlaspos/atlaspos/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	Get(ctx context.Context, productCode string) (Item, error)
	List(ctx context.Context, filter ListFilter) ([]Item, int, error)
	Summary(ctx context.Context) (Summary, error)
	AdjustStock(ctx context.Context, productCode string, delta int64) error
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates inventory reads and manual adjustments. Sale and
// purchase postings bypass it and call Adjust inside their own units of
// work.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	cache *Cache
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort, cache *Cache) *Service {
	return &Service{repo: repo, audit: audit, cache: cache}
}

// Get returns one inventory item.
func (s *Service) Get(ctx context.Context, productCode string) (Item, error) {
	if productCode == "" {
		return Item{}, errors.New("inventory: product code required")
	}
	return s.repo.Get(ctx, productCode)
}

// List returns inventory items matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Item, int, error) {
	return s.repo.List(ctx, filter)
}

// LowStock returns items at or below their minimum stock level.
func (s *Service) LowStock(ctx context.Context) ([]Item, error) {
	items, _, err := s.repo.List(ctx, ListFilter{LowOnly: true})
	return items, err
}

// GetSummary returns the inventory summary, cache-aside.
func (s *Service) GetSummary(ctx context.Context) (Summary, error) {
	if cached, err := s.cache.GetSummary(ctx); err == nil {
		return cached, nil
	}
	summary, err := s.repo.Summary(ctx)
	if err != nil {
		return Summary{}, err
	}
	_ = s.cache.SetSummary(ctx, summary)
	return summary, nil
}

// Adjust applies a manual stock correction through the ledger guard.
func (s *Service) Adjust(ctx context.Context, input AdjustmentInput) (Item, error) {
	if input.ProductCode == "" {
		return Item{}, errors.New("inventory: product code required")
	}
	if input.Delta == 0 {
		return Item{}, ErrInvalidQuantity
	}
	if err := s.repo.AdjustStock(ctx, input.ProductCode, input.Delta); err != nil {
		return Item{}, err
	}
	_ = s.cache.Invalidate(ctx)
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  input.ActorID,
			Action:   "inventory:adjust",
			Entity:   "inventory",
			EntityID: input.ProductCode,
			Meta: map[string]any{
				"delta":  input.Delta,
				"reason": input.Reason,
			},
		})
	}
	item, err := s.repo.Get(ctx, input.ProductCode)
	if err != nil {
		return Item{}, fmt.Errorf("inventory: reload after adjust: %w", err)
	}
	return item, nil
}
