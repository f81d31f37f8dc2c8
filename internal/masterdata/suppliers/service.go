package suppliers

import (
	"context"
	"fmt"

	"github.com/atlaspos/atlaspos/internal/masterdata/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Supplier, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id string) (Supplier, error) {
	if id == "" {
		return Supplier{}, fmt.Errorf("%w: supplier id", shared.ErrRequiredField)
	}
	return s.repo.Get(ctx, id)
}

// Exists reports whether the supplier id refers to a known supplier.
func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	return s.repo.Exists(ctx, id)
}

func (s *Service) Create(ctx context.Context, sup Supplier) (Supplier, error) {
	if sup.Name == "" {
		return Supplier{}, fmt.Errorf("%w: name", shared.ErrRequiredField)
	}
	return s.repo.Create(ctx, sup)
}

func (s *Service) Update(ctx context.Context, id string, sup Supplier) error {
	if id == "" {
		return fmt.Errorf("%w: supplier id", shared.ErrRequiredField)
	}
	if sup.Name == "" {
		return fmt.Errorf("%w: name", shared.ErrRequiredField)
	}
	return s.repo.Update(ctx, id, sup)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: supplier id", shared.ErrRequiredField)
	}
	return s.repo.Delete(ctx, id)
}
