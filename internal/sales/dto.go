package sales

import "github.com/shopspring/decimal"

// SaleLineInput is one requested cart entry.
type SaleLineInput struct {
	ProductCode string          `json:"product_code" validate:"required"`
	Quantity    int64           `json:"quantity" validate:"required,gt=0"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// CreateSaleInput is the full cart handed to the posting engine. Lines are
// validated as a whole before the atomic phase begins.
type CreateSaleInput struct {
	CustomerID string          `json:"customer_id" validate:"required"`
	EmployeeID string          `json:"employee_id" validate:"required"`
	Discount   decimal.Decimal `json:"discount"`
	Lines      []SaleLineInput `json:"lines"`
	ActorID    string          `json:"actor_id"`
}
