package products

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is reference data owned by product management. The posting engines
// read it; only this package writes it.
type Product struct {
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Brand         string          `json:"brand,omitempty"`
	SubcategoryID string          `json:"subcategory_id,omitempty"`
	CostPrice     decimal.Decimal `json:"cost_price"`
	RetailPrice   decimal.Decimal `json:"retail_price"`
	MinStockLevel int64           `json:"min_stock_level"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// CreateInput carries a new product plus its opening stock. The inventory
// record is provisioned in the same transaction as the product row.
type CreateInput struct {
	Product      Product
	OpeningStock int64
}
