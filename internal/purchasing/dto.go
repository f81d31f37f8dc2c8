package purchasing

import "github.com/shopspring/decimal"

// PurchaseLineInput is one requested order entry. Zero quantities are
// accepted; negatives are not.
type PurchaseLineInput struct {
	ProductCode string          `json:"product_code" validate:"required"`
	Quantity    int64           `json:"quantity" validate:"gte=0"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// CreatePurchaseInput is the full order handed to the posting engine.
type CreatePurchaseInput struct {
	SupplierID string              `json:"supplier_id" validate:"required"`
	Notes      string              `json:"notes"`
	Lines      []PurchaseLineInput `json:"lines"`
	ActorID    string              `json:"actor_id"`
}
