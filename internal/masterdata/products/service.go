package products

import (
	"context"
	"fmt"

	"github.com/atlaspos/atlaspos/internal/masterdata/shared"
	internalShared "github.com/atlaspos/atlaspos/internal/shared"
)

type Service struct {
	repo    Repository
	numbers internalShared.NumberSource
}

func NewService(repo Repository, numbers internalShared.NumberSource) *Service {
	return &Service{repo: repo, numbers: numbers}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, code string) (Product, error) {
	if code == "" {
		return Product{}, fmt.Errorf("%w: product code", shared.ErrRequiredField)
	}
	return s.repo.Get(ctx, code)
}

func (s *Service) Create(ctx context.Context, input CreateInput) (Product, error) {
	if err := s.validate(input.Product); err != nil {
		return Product{}, err
	}
	if input.OpeningStock < 0 {
		return Product{}, fmt.Errorf("%w: opening stock must be >= 0", shared.ErrValidation)
	}
	if input.Product.Code == "" {
		code, err := s.numbers.Next(ctx, "PRD")
		if err != nil {
			return Product{}, fmt.Errorf("generate product code: %w", err)
		}
		input.Product.Code = code
	}
	return s.repo.Create(ctx, input)
}

func (s *Service) Update(ctx context.Context, code string, product Product) error {
	if code == "" {
		return fmt.Errorf("%w: product code", shared.ErrRequiredField)
	}
	if err := s.validate(product); err != nil {
		return err
	}
	return s.repo.Update(ctx, code, product)
}

func (s *Service) Delete(ctx context.Context, code string) error {
	if code == "" {
		return fmt.Errorf("%w: product code", shared.ErrRequiredField)
	}
	return s.repo.Delete(ctx, code)
}
