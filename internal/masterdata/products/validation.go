package products

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/atlaspos/atlaspos/internal/masterdata/shared"
)

func (s *Service) validate(p Product) error {
	if p.Name == "" {
		return fmt.Errorf("%w: name", shared.ErrRequiredField)
	}
	if len(p.Code) > 32 {
		return fmt.Errorf("%w: code must be at most 32 characters", shared.ErrValidation)
	}
	if p.CostPrice.LessThan(decimal.Zero) {
		return fmt.Errorf("%w: cost price must be >= 0", shared.ErrValidation)
	}
	if p.RetailPrice.LessThan(decimal.Zero) {
		return fmt.Errorf("%w: retail price must be >= 0", shared.ErrValidation)
	}
	if p.MinStockLevel < 0 {
		return fmt.Errorf("%w: min stock level must be >= 0", shared.ErrValidation)
	}
	return nil
}
