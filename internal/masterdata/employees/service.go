package employees

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

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Employee, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id string) (Employee, error) {
	if id == "" {
		return Employee{}, fmt.Errorf("%w: employee id", shared.ErrRequiredField)
	}
	return s.repo.Get(ctx, id)
}

// Exists reports whether the employee id refers to a known employee.
func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	return s.repo.Exists(ctx, id)
}

func (s *Service) Create(ctx context.Context, e Employee) (Employee, error) {
	if e.Name == "" {
		return Employee{}, fmt.Errorf("%w: name", shared.ErrRequiredField)
	}
	return s.repo.Create(ctx, e)
}

func (s *Service) Update(ctx context.Context, id string, e Employee) error {
	if id == "" {
		return fmt.Errorf("%w: employee id", shared.ErrRequiredField)
	}
	if e.Name == "" {
		return fmt.Errorf("%w: name", shared.ErrRequiredField)
	}
	return s.repo.Update(ctx, id, e)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: employee id", shared.ErrRequiredField)
	}
	return s.repo.Delete(ctx, id)
}
