package customers

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

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Customer, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id string) (Customer, error) {
	if id == "" {
		return Customer{}, fmt.Errorf("%w: customer id", shared.ErrRequiredField)
	}
	return s.repo.Get(ctx, id)
}

// Exists reports whether the customer id refers to a known customer.
func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	return s.repo.Exists(ctx, id)
}

func (s *Service) Create(ctx context.Context, c Customer) (Customer, error) {
	if c.Name == "" {
		return Customer{}, fmt.Errorf("%w: name", shared.ErrRequiredField)
	}
	return s.repo.Create(ctx, c)
}

func (s *Service) Update(ctx context.Context, id string, c Customer) error {
	if id == "" {
		return fmt.Errorf("%w: customer id", shared.ErrRequiredField)
	}
	if c.Name == "" {
		return fmt.Errorf("%w: name", shared.ErrRequiredField)
	}
	return s.repo.Update(ctx, id, c)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: customer id", shared.ErrRequiredField)
	}
	return s.repo.Delete(ctx, id)
}
